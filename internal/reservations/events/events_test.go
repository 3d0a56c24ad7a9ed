package events

import (
	"context"
	"errors"
	"roomres/pkg/kafka"
	"roomres/pkg/model"
	"testing"
	"time"
)

type mockProducer struct {
	messages []kafka.Message
	err      error
}

func (m *mockProducer) Publish(ctx context.Context, msg kafka.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

func testReservation() *model.Reservation {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &model.Reservation{
		ID:          1,
		Resource:    "room-A",
		Day:         "2024-03-01",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		ReservedBy:  "alice",
		RequesterID: "1",
		Title:       "Standup",
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &mockProducer{}
	pub := NewKafkaPublisher(producer, "reservations")

	event := NewReservationEvent(TypeReservationCreated, testReservation(), "1")
	if err := pub.Publish(context.Background(), event, "req-7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(producer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(producer.messages))
	}
	msg := producer.messages[0]
	if msg.Key != "room-A" {
		t.Errorf("expected resource key, got %s", msg.Key)
	}
	if msg.GetEventType() != TypeReservationCreated {
		t.Errorf("unexpected event type %s", msg.GetEventType())
	}
	if msg.GetCorrelationID() != "req-7" {
		t.Errorf("unexpected correlation id %s", msg.GetCorrelationID())
	}

	decoded, err := Decode(msg)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.ReservationID != 1 || decoded.Title != "Standup" || !decoded.StartTime.Equal(event.StartTime) {
		t.Errorf("unexpected decoded event %+v", decoded)
	}
}

func TestKafkaPublisher_PropagatesProducerError(t *testing.T) {
	producer := &mockProducer{err: errors.New("broker unavailable")}
	pub := NewKafkaPublisher(producer, "reservations")

	err := pub.Publish(context.Background(), NewReservationEvent(TypeReservationDeleted, testReservation(), "2"), "")
	if err == nil {
		t.Error("expected producer error")
	}
}

func TestDecode_RejectsUnknownType(t *testing.T) {
	msg := kafka.Message{Value: []byte(`{"type":"reservation.renamed"}`)}
	_, err := Decode(msg)
	if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Errorf("expected permanent error, got %v", err)
	}
}

func TestNoopPublisher(t *testing.T) {
	if err := (NoopPublisher{}).Publish(context.Background(), &ReservationEvent{}, ""); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
