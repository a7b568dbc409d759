package port

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/event"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

var (
	// ErrNotFound is returned when an owner, rate or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConcurrentModification is returned when a save loses an optimistic version race.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrAlreadyExists is returned when another owner of the same kind already uses the reference.
	ErrAlreadyExists = errors.New("already exists")
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// OwnerRepository persists loans, installment plans and fixed assets with
// their full schedule. Save succeeds only when the stored version equals
// owner.Version().
type OwnerRepository interface {
	Save(ctx context.Context, owner model.Owner) error
	FindByID(ctx context.Context, tenantID, id string) (model.Owner, error)
	ListActiveAssets(ctx context.Context, tenantID string) ([]string, error)
	ListTenantsWithActiveAssets(ctx context.Context) ([]string, error)
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Accounting ports
// ---------------------------------------------------------------------------

// JournalEntry is one balanced two-line entry submitted to the general ledger.
// FunctionalAmount is Amount converted at ExchangeRate into the tenant's
// functional currency; both are equal for functional-currency owners.
type JournalEntry struct {
	RequestID        string
	TenantID         string
	OwnerID          string
	OwnerKind        string
	Reference        string
	LineSequence     int
	Kind             string
	Date             time.Time
	Debit            valueobject.AccountCode
	Credit           valueobject.AccountCode
	Amount           money.Money
	FunctionalAmount money.Money
	ExchangeRate     decimal.Decimal
	Memo             string
}

// JournalPostingPort books journal entries. Post is idempotent on
// entry.RequestID and returns the journal entry id.
type JournalPostingPort interface {
	Post(ctx context.Context, entry JournalEntry) (string, error)
}

// AccountingPeriodGate reports whether the period containing date is open
// for the given kind of transaction.
type AccountingPeriodGate interface {
	CanPost(ctx context.Context, tenantID string, date time.Time, kind valueobject.TransactionKind) (bool, error)
}

// ExchangeRatePort supplies the rate that converts one unit of from into to
// on date.
type ExchangeRatePort interface {
	Rate(ctx context.Context, from, to money.Currency, date time.Time) (decimal.Decimal, error)
}
