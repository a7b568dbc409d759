package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/pkg/events"
	"github.com/bibbank/finance-service/pkg/money"
)

var tracer = otel.Tracer("github.com/bibbank/finance-service/internal/application/usecase")

// ErrPostingPending is wrapped by PostingError: the schedule change is saved
// but some journal entries still wait to be booked.
var ErrPostingPending = errors.New("journal posting pending")

// PostingError reports posting requests that failed after the command
// itself was saved. RetryPostings re-submits them.
type PostingError struct {
	OwnerID    string
	RequestIDs []string
	Err        error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("%s: owner %s, %d request(s): %v", ErrPostingPending, e.OwnerID, len(e.RequestIDs), e.Err)
}

func (e *PostingError) Unwrap() []error { return []error{ErrPostingPending, e.Err} }

// Dependencies are shared by every use case. Journal, Periods and Rates may
// be nil: postings then stay pending, every period counts as open and only
// functional-currency owners can be posted. Outbox, when set, is told which
// events the command path already published.
type Dependencies struct {
	Owners             port.OwnerRepository
	Publisher          port.EventPublisher
	Outbox             events.OutboxRepository
	Journal            port.JournalPostingPort
	Periods            port.AccountingPeriodGate
	Rates              port.ExchangeRatePort
	FunctionalCurrency money.Currency
	Locks              *OwnerLocks
	Metrics            *Metrics
	Logger             *slog.Logger
	Now                func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.FunctionalCurrency.IsZero() {
		d.FunctionalCurrency = money.TRY
	}
	if d.Locks == nil {
		d.Locks = NewOwnerLocks()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// OwnerLocks serialises commands per owner within this process. Across
// processes the repository's version check rejects the loser.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// NewOwnerLocks creates an empty lock table.
func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[string]*ownerLock)}
}

// Lock blocks until key is free and returns the matching unlock.
func (l *OwnerLocks) Lock(key string) (unlock func()) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &ownerLock{}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
