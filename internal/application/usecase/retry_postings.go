package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibbank/finance-service/internal/application/dto"
)

// ErrNoJournal is returned by RetryPostings when no journal is configured.
var ErrNoJournal = errors.New("no journal posting port configured")

// RetryPostingsUseCase re-submits the pending journal postings of an owner.
type RetryPostingsUseCase struct {
	r runner
}

// NewRetryPostingsUseCase wires dependencies.
func NewRetryPostingsUseCase(deps Dependencies) *RetryPostingsUseCase {
	return &RetryPostingsUseCase{r: newRunner(deps)}
}

// Execute posts what it can. Requests that fail again stay pending and are
// reported through a *PostingError next to the filled response.
func (uc *RetryPostingsUseCase) Execute(ctx context.Context, req dto.OwnerRequest) (_ dto.RetryPostingsResponse, err error) {
	ctx, span := tracer.Start(ctx, "RetryPostings")
	defer func() { endSpan(span, err) }()

	if uc.r.deps.Journal == nil {
		return dto.RetryPostingsResponse{}, ErrNoJournal
	}

	unlock := uc.r.deps.Locks.Lock(lockKey(req.TenantID, req.OwnerID))
	defer unlock()

	owner, err := uc.r.deps.Owners.FindByID(ctx, req.TenantID, req.OwnerID)
	if err != nil {
		return dto.RetryPostingsResponse{}, fmt.Errorf("find owner: %w", err)
	}
	before := len(owner.PendingPostings())
	if before == 0 {
		return dto.RetryPostingsResponse{OwnerID: owner.ID()}, nil
	}

	owner, err = uc.r.postPending(ctx, owner)
	var pe *PostingError
	if err != nil && !errors.As(err, &pe) {
		uc.r.logFailure(ctx, "retry postings failed", req.TenantID, req.OwnerID, err)
		return dto.RetryPostingsResponse{}, err
	}
	after := len(owner.PendingPostings())
	return dto.RetryPostingsResponse{
		OwnerID: owner.ID(),
		Posted:  before - after,
		Pending: after,
	}, err
}
