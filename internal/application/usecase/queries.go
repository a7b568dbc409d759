package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/finance-service/internal/application/dto"
)

// GetOwnerUseCase returns an owner with its full schedule.
type GetOwnerUseCase struct {
	r runner
}

// NewGetOwnerUseCase wires dependencies.
func NewGetOwnerUseCase(deps Dependencies) *GetOwnerUseCase {
	return &GetOwnerUseCase{r: newRunner(deps)}
}

// Execute loads the owner.
func (uc *GetOwnerUseCase) Execute(ctx context.Context, req dto.OwnerRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "GetOwner")
	defer func() { endSpan(span, err) }()

	owner, err := uc.r.deps.Owners.FindByID(ctx, req.TenantID, req.OwnerID)
	if err != nil {
		return dto.OwnerResponse{}, fmt.Errorf("find owner: %w", err)
	}
	return toOwnerResponse(owner), nil
}

// LateInterestUseCase computes the late interest accrued on overdue lines.
// It changes nothing.
type LateInterestUseCase struct {
	r runner
}

// NewLateInterestUseCase wires dependencies.
func NewLateInterestUseCase(deps Dependencies) *LateInterestUseCase {
	return &LateInterestUseCase{r: newRunner(deps)}
}

// Execute returns the late interest as of req.AsOf, or today when unset.
func (uc *LateInterestUseCase) Execute(ctx context.Context, req dto.LateInterestRequest) (_ dto.LateInterestResponse, err error) {
	ctx, span := tracer.Start(ctx, "LateInterest")
	defer func() { endSpan(span, err) }()

	owner, err := uc.r.deps.Owners.FindByID(ctx, req.TenantID, req.OwnerID)
	if err != nil {
		return dto.LateInterestResponse{}, fmt.Errorf("find owner: %w", err)
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = uc.r.now()
	}
	overdue := []int{}
	for _, l := range owner.OverdueLines(asOf) {
		overdue = append(overdue, l.Sequence)
	}
	return dto.LateInterestResponse{
		OwnerID:      owner.ID(),
		AsOf:         asOf,
		Amount:       owner.LateInterest(asOf).Amount(),
		Currency:     owner.Currency().Code(),
		OverdueLines: overdue,
	}, nil
}
