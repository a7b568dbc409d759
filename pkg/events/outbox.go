package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OutboxEntry is a domain event stored in the outbox table by the same
// transaction that saved its aggregate.
type OutboxEntry struct {
	ID            string
	TenantID      string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewOutboxEntry creates an OutboxEntry from a DomainEvent. The payload is
// the JSON form of the event itself.
func NewOutboxEntry(event DomainEvent) (OutboxEntry, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("marshal event %s: %w", event.EventType(), err)
	}
	return OutboxEntry{
		ID:            event.EventID(),
		TenantID:      event.TenantID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		EventType:     event.EventType(),
		Payload:       payload,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// NewOutboxEntries converts events in order.
func NewOutboxEntries(events ...DomainEvent) ([]OutboxEntry, error) {
	out := make([]OutboxEntry, 0, len(events))
	for _, e := range events {
		entry, err := NewOutboxEntry(e)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// EventIDs lists the ids of events, the keys MarkPublished expects.
func EventIDs(events ...DomainEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.EventID()
	}
	return ids
}

// OutboxRepository reads and acknowledges outbox entries. Entries are
// written by the aggregate repositories inside their save transactions.
type OutboxRepository interface {
	FetchUnpublished(ctx context.Context, batchSize int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []string) error
}
