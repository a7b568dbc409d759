package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/domain/event"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/events"
	"github.com/bibbank/finance-service/pkg/money"
)

// errNothingToDo lets a mutation end a command without saving.
var errNothingToDo = errors.New("nothing to do")

// mutation runs exactly one domain command against a loaded owner.
type mutation func(ctx context.Context, owner model.Owner, now time.Time) (model.Owner, error)

// runner is the Load -> mutate -> Save -> Publish -> Post pipeline every
// command use case goes through.
type runner struct {
	deps Dependencies
}

func newRunner(deps Dependencies) runner {
	return runner{deps: deps.withDefaults()}
}

func (r runner) now() time.Time { return r.deps.Now() }

func lockKey(tenantID, ownerID string) string { return tenantID + "/" + ownerID }

// execute runs mutate under the owner's lock. On a posting failure the saved
// owner is returned together with a *PostingError.
func (r runner) execute(ctx context.Context, tenantID, ownerID string, mutate mutation) (model.Owner, error) {
	unlock := r.deps.Locks.Lock(lockKey(tenantID, ownerID))
	defer unlock()

	owner, err := r.deps.Owners.FindByID(ctx, tenantID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}

	next, err := mutate(ctx, owner, r.now())
	if err != nil {
		return nil, err
	}

	if err := r.commit(ctx, next); err != nil {
		return nil, err
	}

	return r.postPending(ctx, next)
}

// commit saves the owner and publishes the events of its last command. The
// save also writes those events to the outbox, so once it succeeds the
// command has happened: a failed publish is left to the outbox relay.
func (r runner) commit(ctx context.Context, owner model.Owner) error {
	if err := r.deps.Owners.Save(ctx, owner); err != nil {
		return fmt.Errorf("save owner: %w", err)
	}

	evts := owner.DomainEvents()
	for _, e := range evts {
		if e.EventType() == event.TypeScheduleGenerated {
			r.deps.Metrics.scheduleGenerated(ctx, owner.Kind().String())
		}
	}
	if len(evts) == 0 || r.deps.Publisher == nil {
		return nil
	}
	if err := r.deps.Publisher.Publish(ctx, evts...); err != nil {
		r.deps.Metrics.publishDeferred(ctx, len(evts))
		r.deps.Logger.WarnContext(ctx, "event publish deferred to outbox relay",
			slog.String("tenant_id", owner.TenantID()),
			slog.String("owner_id", owner.ID()),
			slog.Int("events", len(evts)),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if r.deps.Outbox == nil {
		return nil
	}
	if err := r.deps.Outbox.MarkPublished(ctx, events.EventIDs(evts...)); err != nil {
		// The relay publishes them again; consumers dedupe on event_id.
		r.deps.Logger.WarnContext(ctx, "mark outbox published failed",
			slog.String("owner_id", owner.ID()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// postPending books every pending posting request of owner. It reloads the
// owner first so the follow-up save carries the stored version.
func (r runner) postPending(ctx context.Context, owner model.Owner) (model.Owner, error) {
	if r.deps.Journal == nil || len(owner.PendingPostings()) == 0 {
		return owner, nil
	}

	owner, err := r.deps.Owners.FindByID(ctx, owner.TenantID(), owner.ID())
	if err != nil {
		return nil, fmt.Errorf("reload owner: %w", err)
	}
	pending := owner.PendingPostings()
	if len(pending) == 0 {
		return owner, nil
	}

	var (
		failed  []string
		lastErr error
	)
	for _, p := range pending {
		now := r.now()
		entryID, err := r.post(ctx, owner, p)
		if err != nil {
			r.deps.Metrics.postingFailed(ctx, p.Kind.String())
			r.deps.Logger.WarnContext(ctx, "journal posting failed",
				slog.String("tenant_id", owner.TenantID()),
				slog.String("owner_id", owner.ID()),
				slog.String("request_id", p.ID),
				slog.String("kind", p.Kind.String()),
				slog.String("error", err.Error()),
			)
			failed = append(failed, p.ID)
			lastErr = err
			if owner, err = model.MarkPostingFailed(owner, p.ID, err.Error(), now); err != nil {
				return nil, fmt.Errorf("mark posting failed: %w", err)
			}
			continue
		}
		if owner, err = model.MarkPosted(owner, p.ID, entryID, now); err != nil {
			return nil, fmt.Errorf("mark posted: %w", err)
		}
	}

	if err := r.deps.Owners.Save(ctx, owner); err != nil {
		return nil, fmt.Errorf("save postings: %w", err)
	}
	if len(failed) > 0 {
		return owner, &PostingError{OwnerID: owner.ID(), RequestIDs: failed, Err: lastErr}
	}
	return owner, nil
}

func (r runner) post(ctx context.Context, owner model.Owner, p model.PostingRequest) (string, error) {
	entry := port.JournalEntry{
		RequestID:    p.ID,
		TenantID:     owner.TenantID(),
		OwnerID:      owner.ID(),
		OwnerKind:    owner.Kind().String(),
		Reference:    owner.Reference(),
		LineSequence: p.LineSequence,
		Kind:         p.Kind.String(),
		Date:         p.Date,
		Debit:        p.Debit,
		Credit:       p.Credit,
		Amount:       p.Amount,
		Memo:         p.Memo,
	}

	functional := r.deps.FunctionalCurrency
	if p.Amount.Currency() == functional {
		entry.FunctionalAmount = p.Amount
		entry.ExchangeRate = decimal.NewFromInt(1)
	} else {
		if r.deps.Rates == nil {
			return "", fmt.Errorf("no exchange rate source for %s -> %s", p.Amount.Currency(), functional)
		}
		rate, err := r.deps.Rates.Rate(ctx, p.Amount.Currency(), functional, p.Date)
		if err != nil {
			return "", fmt.Errorf("exchange rate: %w", err)
		}
		entry.ExchangeRate = rate
		entry.FunctionalAmount = money.New(p.Amount.Amount().Mul(rate), functional).Round()
	}

	return r.deps.Journal.Post(ctx, entry)
}

// checkPeriod fails with ErrPeriodClosed when the gate refuses date.
func (r runner) checkPeriod(ctx context.Context, tenantID string, date time.Time, kind valueobject.TransactionKind) error {
	if r.deps.Periods == nil {
		return nil
	}
	ok, err := r.deps.Periods.CanPost(ctx, tenantID, date, kind)
	if err != nil {
		return fmt.Errorf("check period: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s on %s", model.ErrPeriodClosed, kind, date.Format(time.DateOnly))
	}
	return nil
}

// create saves and publishes a freshly built owner.
func (r runner) create(ctx context.Context, owner model.Owner) error {
	return r.commit(ctx, owner)
}

// ownerResult maps the owner of a command. A *PostingError still carries
// the saved owner.
func ownerResult(owner model.Owner, err error) (dto.OwnerResponse, error) {
	var pe *PostingError
	if err != nil && !errors.As(err, &pe) {
		return dto.OwnerResponse{}, err
	}
	return toOwnerResponse(owner), err
}

func (r runner) logFailure(ctx context.Context, msg, tenantID, ownerID string, err error) {
	r.deps.Logger.ErrorContext(ctx, msg,
		slog.String("tenant_id", tenantID),
		slog.String("owner_id", ownerID),
		slog.String("error", err.Error()),
	)
}
