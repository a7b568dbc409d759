package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/finance-service/internal/domain/event"
	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/pkg/events"
	pkgkafka "github.com/bibbank/finance-service/pkg/kafka"
)

// Publisher is the part of *pkgkafka.Producer the adapters use.
type Publisher interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

var _ port.EventPublisher = (*EventPublisher)(nil)

// EventPublisher implements port.EventPublisher by writing events to Kafka,
// keyed by owner id so one owner's events stay ordered.
type EventPublisher struct {
	producer Publisher
	topic    string
	logger   *slog.Logger
}

// NewEventPublisher creates an EventPublisher that writes to topic. A nil
// logger falls back to slog.Default.
func NewEventPublisher(producer Publisher, topic string, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish serialises and sends domain events in one batch.
func (p *EventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	entries, err := events.NewOutboxEntries(evts...)
	if err != nil {
		return err
	}
	return p.PublishEntries(ctx, entries...)
}

// PublishEntries sends already serialised events, as read from the outbox.
func (p *EventPublisher) PublishEntries(ctx context.Context, entries ...events.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	messages := make([]pkgkafka.Message, 0, len(entries))
	for _, e := range entries {
		p.logger.DebugContext(ctx, "publishing domain event",
			"event_type", e.EventType,
			"aggregate_id", e.AggregateID,
			"tenant_id", e.TenantID,
			"topic", p.topic,
			"payload_size", len(e.Payload),
		)

		messages = append(messages, pkgkafka.Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event_type":     e.EventType,
				"event_id":       e.ID,
				"tenant_id":      e.TenantID,
				"aggregate_type": e.AggregateType,
			},
		})
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("publish events to topic %s: %w", p.topic, err)
	}
	return nil
}
