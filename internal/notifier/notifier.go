package notifier

import (
	"context"
	"roomres/internal/reservations/events"
	"roomres/pkg/kafka"
	"roomres/pkg/logger"
)

// Notifier turns reservation events into notifications for the people
// involved. Delivery is log-only until an email sender is wired in.
type Notifier struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Notifier {
	return &Notifier{log: log}
}

// Handle is a kafka.MessageHandler. Undecodable messages are permanent
// failures and go to the dead letter topic.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	event, err := events.Decode(msg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return kafka.NewTransientError("notification interrupted", err)
	}

	attrs := []any{
		"resource", event.Resource,
		"id", event.ReservationID,
		"day", event.Day,
		"start_time", event.StartTime,
		"end_time", event.EndTime,
		"requester_id", event.RequesterID,
		"correlation_id", msg.GetCorrelationID(),
	}

	switch event.Type {
	case events.TypeReservationCreated:
		n.log.Info("Reservation confirmed", append(attrs, "reserved_by", event.ReservedBy, "title", event.Title)...)
	case events.TypeReservationDeleted:
		if event.ActorID != event.RequesterID {
			n.log.Info("Reservation cancelled by another user", append(attrs, "actor_id", event.ActorID)...)
			return nil
		}
		n.log.Info("Reservation cancelled", attrs...)
	}
	return nil
}
