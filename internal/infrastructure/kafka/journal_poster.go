package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/port"
	pkgkafka "github.com/bibbank/finance-service/pkg/kafka"
)

// journalNamespace seeds the journal entry ids derived from posting request ids.
var journalNamespace = uuid.MustParse("6f1b2c1e-3c0a-4b8e-9a51-5f7d0c2a8e11")

const postingRequestedType = "ledger.posting.requested"

var _ port.JournalPostingPort = (*JournalPoster)(nil)

// JournalPoster implements port.JournalPostingPort by emitting posting
// requests to the ledger's intake topic. The entry id is derived from the
// request id, so a retried request names the same journal entry and the
// ledger can drop the duplicate.
type JournalPoster struct {
	producer Publisher
	topic    string
	logger   *slog.Logger
}

// NewJournalPoster creates a JournalPoster that writes to topic. A nil logger
// falls back to slog.Default.
func NewJournalPoster(producer Publisher, topic string, logger *slog.Logger) *JournalPoster {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalPoster{producer: producer, topic: topic, logger: logger}
}

type postingLine struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

type postingMessage struct {
	JournalEntryID   string          `json:"journal_entry_id"`
	RequestID        string          `json:"request_id"`
	TenantID         string          `json:"tenant_id"`
	EntryDate        string          `json:"entry_date"`
	Description      string          `json:"description"`
	Reference        string          `json:"reference"`
	SourceType       string          `json:"source_type"`
	SourceID         string          `json:"source_id"`
	LineSequence     int             `json:"line_sequence"`
	Kind             string          `json:"kind"`
	Currency         string          `json:"currency"`
	Amount           decimal.Decimal `json:"amount"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	FunctionalAmount decimal.Decimal `json:"functional_amount"`
	Lines            []postingLine   `json:"lines"`
}

// JournalEntryID returns the entry id Post assigns to requestID.
func JournalEntryID(requestID string) string {
	return uuid.NewSHA1(journalNamespace, []byte(requestID)).String()
}

// Post sends a balanced two-line entry in the functional currency.
func (p *JournalPoster) Post(ctx context.Context, entry port.JournalEntry) (string, error) {
	if entry.RequestID == "" {
		return "", fmt.Errorf("post journal entry: request id is required")
	}
	if !entry.FunctionalAmount.IsPositive() {
		return "", fmt.Errorf("post journal entry %s: amount must be positive, got %s", entry.RequestID, entry.FunctionalAmount)
	}

	id := JournalEntryID(entry.RequestID)
	amount := entry.FunctionalAmount.Amount()
	msg := postingMessage{
		JournalEntryID:   id,
		RequestID:        entry.RequestID,
		TenantID:         entry.TenantID,
		EntryDate:        entry.Date.Format(time.DateOnly),
		Description:      entry.Memo,
		Reference:        entry.Reference,
		SourceType:       entry.OwnerKind,
		SourceID:         entry.OwnerID,
		LineSequence:     entry.LineSequence,
		Kind:             entry.Kind,
		Currency:         entry.Amount.Currency().Code(),
		Amount:           entry.Amount.Amount(),
		ExchangeRate:     entry.ExchangeRate,
		FunctionalAmount: amount,
		Lines: []postingLine{
			{AccountCode: entry.Debit.String(), Debit: amount, Credit: decimal.Zero, Description: entry.Memo},
			{AccountCode: entry.Credit.String(), Debit: decimal.Zero, Credit: amount, Description: entry.Memo},
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal posting %s: %w", entry.RequestID, err)
	}

	err = p.producer.Publish(ctx, p.topic, pkgkafka.Message{
		Key:   []byte(entry.OwnerID),
		Value: payload,
		Headers: map[string]string{
			"event_type": postingRequestedType,
			"event_id":   entry.RequestID,
			"tenant_id":  entry.TenantID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("publish posting %s: %w", entry.RequestID, err)
	}

	p.logger.DebugContext(ctx, "posting requested",
		"request_id", entry.RequestID,
		"journal_entry_id", id,
		"owner_id", entry.OwnerID,
		"kind", entry.Kind,
		"amount", amount.String(),
	)
	return id, nil
}
