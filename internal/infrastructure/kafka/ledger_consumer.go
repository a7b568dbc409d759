package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/finance-service/internal/infrastructure/persistence/postgres"
	pkgkafka "github.com/bibbank/finance-service/pkg/kafka"
)

// Ledger event types projected into the period gate.
const (
	PeriodClosedType   = "ledger.period.closed"
	PeriodReopenedType = "ledger.period.reopened"
)

// PeriodProjection is the write side of the accounting period gate.
type PeriodProjection interface {
	ClosePeriod(ctx context.Context, p postgres.Period, closedAt time.Time) error
	ReopenPeriod(ctx context.Context, p postgres.Period) error
}

type periodEvent struct {
	EventType       string    `json:"event_type"`
	TenantID        string    `json:"tenant_id"`
	Period          string    `json:"period"`
	TransactionKind string    `json:"transaction_kind"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// LedgerEventHandler keeps the closed_periods projection in step with the
// ledger's period events. Other ledger events are skipped.
type LedgerEventHandler struct {
	periods PeriodProjection
	logger  *slog.Logger
}

func NewLedgerEventHandler(periods PeriodProjection, logger *slog.Logger) *LedgerEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerEventHandler{periods: periods, logger: logger}
}

// Handle is a pkgkafka.Handler.
func (h *LedgerEventHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var evt periodEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return fmt.Errorf("decode ledger event: %w", err)
	}
	eventType := msg.Headers["event_type"]
	if eventType == "" {
		eventType = evt.EventType
	}
	if eventType != PeriodClosedType && eventType != PeriodReopenedType {
		return nil
	}

	if evt.TenantID == "" {
		evt.TenantID = msg.Headers["tenant_id"]
	}
	period, err := parsePeriod(evt)
	if err != nil {
		return fmt.Errorf("%s: %w", eventType, err)
	}

	if eventType == PeriodClosedType {
		closedAt := evt.OccurredAt
		if closedAt.IsZero() {
			closedAt = time.Now().UTC()
		}
		if err := h.periods.ClosePeriod(ctx, period, closedAt); err != nil {
			return err
		}
		h.logger.InfoContext(ctx, "accounting period closed", "tenant_id", period.TenantID, "period", period.String())
		return nil
	}

	if err := h.periods.ReopenPeriod(ctx, period); err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "accounting period reopened", "tenant_id", period.TenantID, "period", period.String())
	return nil
}

// parsePeriod reads the ledger's "YYYY-MM" period label.
func parsePeriod(evt periodEvent) (postgres.Period, error) {
	if evt.TenantID == "" {
		return postgres.Period{}, fmt.Errorf("tenant_id is required")
	}
	start, err := time.Parse("2006-01", evt.Period)
	if err != nil {
		return postgres.Period{}, fmt.Errorf("invalid period %q: %w", evt.Period, err)
	}
	return postgres.Period{
		TenantID: evt.TenantID,
		Year:     start.Year(),
		Month:    start.Month(),
		Kind:     evt.TransactionKind,
	}, nil
}
