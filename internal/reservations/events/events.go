package events

import (
	"context"
	"fmt"
	"roomres/pkg/kafka"
	"roomres/pkg/model"
	"time"
)

const (
	TypeReservationCreated = "reservation.created"
	TypeReservationDeleted = "reservation.deleted"

	SchemaVersion = "1"
)

// ReservationEvent is the payload published after a reservation is committed
// or deleted.
type ReservationEvent struct {
	Type          string    `json:"type"`
	Resource      string    `json:"resource"`
	ReservationID int64     `json:"reservation_id"`
	Day           string    `json:"day"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	ReservedBy    string    `json:"reserved_by"`
	RequesterID   string    `json:"requester_id"`
	Title         string    `json:"title"`
	ActorID       string    `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewReservationEvent(eventType string, r *model.Reservation, actorID string) *ReservationEvent {
	return &ReservationEvent{
		Type:          eventType,
		Resource:      r.Resource,
		ReservationID: r.ID,
		Day:           r.Day,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		ReservedBy:    r.ReservedBy,
		RequesterID:   r.RequesterID,
		Title:         r.Title,
		ActorID:       actorID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher announces reservation changes to other services.
type Publisher interface {
	Publish(ctx context.Context, event *ReservationEvent, correlationID string) error
}

type messageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer messageProducer
	source   string
}

func NewKafkaPublisher(producer messageProducer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

// Publish keys the message by resource so events of one resource stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event *ReservationEvent, correlationID string) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Resource).
		WithValue(event).
		WithEventID("").
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(correlationID).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", event.Type, err)
	}
	return p.producer.Publish(ctx, msg)
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *ReservationEvent, string) error {
	return nil
}

// Decode extracts a ReservationEvent from a consumed message.
func Decode(msg kafka.Message) (*ReservationEvent, error) {
	var event ReservationEvent
	if err := msg.DecodeValue(&event); err != nil {
		return nil, err
	}
	switch event.Type {
	case TypeReservationCreated, TypeReservationDeleted:
	default:
		return nil, kafka.NewPermanentError("unknown event type "+event.Type, nil)
	}
	return &event, nil
}
