package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"roomres/pkg/kafka"
)

// Metrics holds Kafka operation counters.
type Metrics struct {
	MessagesPublished       atomic.Int64
	MessagesPublishedFailed atomic.Int64
	publishDurationTotal    atomic.Int64

	MessagesConsumed       atomic.Int64
	MessagesConsumedFailed atomic.Int64
	consumeDurationTotal   atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) AvgPublishDuration() time.Duration {
	published := m.MessagesPublished.Load()
	if published == 0 {
		return 0
	}
	return time.Duration(m.publishDurationTotal.Load() / published)
}

func (m *Metrics) AvgConsumeDuration() time.Duration {
	consumed := m.MessagesConsumed.Load()
	if consumed == 0 {
		return 0
	}
	return time.Duration(m.consumeDurationTotal.Load() / consumed)
}

// LogAttrs returns the counters as slog key/value pairs.
func (m *Metrics) LogAttrs() []any {
	return []any{
		"published", m.MessagesPublished.Load(),
		"published_failed", m.MessagesPublishedFailed.Load(),
		"avg_publish_duration", m.AvgPublishDuration(),
		"consumed", m.MessagesConsumed.Load(),
		"consumed_failed", m.MessagesConsumedFailed.Load(),
		"avg_consume_duration", m.AvgConsumeDuration(),
	}
}

func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		if err != nil {
			m.MessagesPublishedFailed.Add(1)
		} else {
			m.MessagesPublished.Add(1)
			m.publishDurationTotal.Add(int64(time.Since(start)))
		}
		return err
	}
}

func MetricsConsumerMiddleware(m *Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		if err != nil {
			m.MessagesConsumedFailed.Add(1)
		} else {
			m.MessagesConsumed.Add(1)
			m.consumeDurationTotal.Add(int64(time.Since(start)))
		}
		return err
	}
}
