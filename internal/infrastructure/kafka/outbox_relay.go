package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/finance-service/pkg/events"
)

// EntryPublisher sends serialised outbox entries. *EventPublisher is one.
type EntryPublisher interface {
	PublishEntries(ctx context.Context, entries ...events.OutboxEntry) error
}

// OutboxRelay publishes outbox entries that the command path could not
// deliver, oldest first, and marks them published.
type OutboxRelay struct {
	store     events.OutboxRepository
	publisher EntryPublisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewOutboxRelay creates a relay that polls every interval and publishes at
// most batchSize entries per round trip.
func NewOutboxRelay(store events.OutboxRepository, publisher EntryPublisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxRelay {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize < 1 {
		batchSize = 100
	}
	return &OutboxRelay{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With("component", "outbox_relay"),
	}
}

// Start relays until ctx is cancelled. A failed round is logged and retried
// on the next tick.
func (r *OutboxRelay) Start(ctx context.Context) error {
	r.logger.Info("outbox relay started", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if n, err := r.RelayOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.logger.Warn("outbox relay round failed", "published", n, "error", err)
		} else if n > 0 {
			r.logger.Info("outbox entries relayed", "published", n)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
	r.logger.Info("outbox relay stopped")
	return nil
}

// RelayOnce drains the outbox batch by batch and returns how many entries it
// published. It stops at the first failure; the failed batch stays unpublished.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	published := 0
	for {
		entries, err := r.store.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return published, err
		}
		if len(entries) == 0 {
			return published, nil
		}
		if err := r.publisher.PublishEntries(ctx, entries...); err != nil {
			return published, err
		}

		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := r.store.MarkPublished(ctx, ids); err != nil {
			return published, fmt.Errorf("entries published but not marked: %w", err)
		}
		published += len(entries)
		if len(entries) < r.batchSize {
			return published, nil
		}
	}
}
