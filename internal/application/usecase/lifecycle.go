package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
)

// ActivateUseCase moves a draft owner to Active and generates its schedule.
type ActivateUseCase struct {
	r runner
}

// NewActivateUseCase wires dependencies.
func NewActivateUseCase(deps Dependencies) *ActivateUseCase {
	return &ActivateUseCase{r: newRunner(deps)}
}

// Execute activates the owner.
func (uc *ActivateUseCase) Execute(ctx context.Context, req dto.OwnerRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "Activate")
	defer func() { endSpan(span, err) }()

	owner, err := uc.r.execute(ctx, req.TenantID, req.OwnerID,
		func(_ context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			next, err := model.Activate(o, now)
			if err != nil {
				return nil, fmt.Errorf("activate: %w", err)
			}
			return next, nil
		})
	return ownerResult(owner, err)
}

// RestructureUseCase replaces the unpaid tail of a schedule with new terms.
type RestructureUseCase struct {
	r runner
}

// NewRestructureUseCase wires dependencies.
func NewRestructureUseCase(deps Dependencies) *RestructureUseCase {
	return &RestructureUseCase{r: newRunner(deps)}
}

// Execute restructures the owner once the period of req.Date is open.
func (uc *RestructureUseCase) Execute(ctx context.Context, req dto.RestructureRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "Restructure")
	defer func() { endSpan(span, err) }()

	freq, err := parseOptionalFrequency(req.Frequency)
	if err != nil {
		return dto.OwnerResponse{}, err
	}
	method, err := parseOptionalMethod(req.Method)
	if err != nil {
		return dto.OwnerResponse{}, err
	}
	rt := model.RestructureTerms{
		Date:         req.Date,
		AnnualRate:   req.AnnualRate,
		TermCount:    req.TermCount,
		Frequency:    freq,
		Method:       method,
		FirstDueDate: req.FirstDueDate,
		GracePeriods: req.GracePeriods,
	}

	owner, err := uc.r.execute(ctx, req.TenantID, req.OwnerID,
		func(ctx context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			if err := uc.r.checkPeriod(ctx, o.TenantID(), req.Date, valueobject.TransactionKindScheduleRestructure); err != nil {
				return nil, err
			}
			next, err := model.Restructure(o, rt, now)
			if err != nil {
				return nil, fmt.Errorf("restructure: %w", err)
			}
			return next, nil
		})
	return ownerResult(owner, err)
}

// CloseUseCase closes an owner explicitly.
type CloseUseCase struct {
	r runner
}

// NewCloseUseCase wires dependencies.
func NewCloseUseCase(deps Dependencies) *CloseUseCase {
	return &CloseUseCase{r: newRunner(deps)}
}

// Execute closes the owner.
func (uc *CloseUseCase) Execute(ctx context.Context, req dto.OwnerRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "Close")
	defer func() { endSpan(span, err) }()

	owner, err := uc.r.execute(ctx, req.TenantID, req.OwnerID,
		func(_ context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			next, err := model.Close(o, now)
			if err != nil {
				return nil, fmt.Errorf("close: %w", err)
			}
			return next, nil
		})
	return ownerResult(owner, err)
}

// CancelUseCase cancels an owner that has not received any payment.
type CancelUseCase struct {
	r runner
}

// NewCancelUseCase wires dependencies.
func NewCancelUseCase(deps Dependencies) *CancelUseCase {
	return &CancelUseCase{r: newRunner(deps)}
}

// Execute cancels the owner.
func (uc *CancelUseCase) Execute(ctx context.Context, req dto.CancelRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "Cancel")
	defer func() { endSpan(span, err) }()

	owner, err := uc.r.execute(ctx, req.TenantID, req.OwnerID,
		func(_ context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			next, err := model.Cancel(o, req.Reason, now)
			if err != nil {
				return nil, fmt.Errorf("cancel: %w", err)
			}
			return next, nil
		})
	return ownerResult(owner, err)
}

// MarkDefaultedUseCase records that the counterparty stopped paying.
type MarkDefaultedUseCase struct {
	r runner
}

// NewMarkDefaultedUseCase wires dependencies.
func NewMarkDefaultedUseCase(deps Dependencies) *MarkDefaultedUseCase {
	return &MarkDefaultedUseCase{r: newRunner(deps)}
}

// Execute marks the owner as defaulted.
func (uc *MarkDefaultedUseCase) Execute(ctx context.Context, req dto.OwnerRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "MarkDefaulted")
	defer func() { endSpan(span, err) }()

	owner, err := uc.r.execute(ctx, req.TenantID, req.OwnerID,
		func(_ context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			next, err := model.MarkDefaulted(o, now)
			if err != nil {
				return nil, fmt.Errorf("mark defaulted: %w", err)
			}
			return next, nil
		})
	return ownerResult(owner, err)
}
