package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
)

// ApplyPaymentUseCase applies a payment to a loan or installment plan.
type ApplyPaymentUseCase struct {
	r runner
}

// NewApplyPaymentUseCase wires dependencies.
func NewApplyPaymentUseCase(deps Dependencies) *ApplyPaymentUseCase {
	return &ApplyPaymentUseCase{r: newRunner(deps)}
}

// Execute allocates the payment, saves the schedule and books its journal
// entries. A *PostingError comes with a filled response: the payment stands.
func (uc *ApplyPaymentUseCase) Execute(ctx context.Context, req dto.ApplyPaymentRequest) (_ dto.PaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "ApplyPayment")
	defer func() { endSpan(span, err) }()

	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		return dto.PaymentResponse{}, err
	}
	mode, err := valueobject.NewPaymentMode(req.Mode)
	if err != nil {
		return dto.PaymentResponse{}, invalid(err)
	}
	payment := model.Payment{
		Amount:    amount,
		Date:      req.Date,
		Mode:      mode,
		Reference: req.Reference,
	}
	if req.Sequence != nil {
		payment.Sequence = valueobject.Some(*req.Sequence)
	}

	var result model.PaymentResult
	owner, err := uc.r.execute(ctx, req.TenantID, req.OwnerID,
		func(ctx context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			if err := uc.r.checkPeriod(ctx, o.TenantID(), req.Date, o.TransactionKind()); err != nil {
				return nil, err
			}
			next, res, err := model.ApplyPayment(o, payment, now)
			if err != nil {
				return nil, fmt.Errorf("apply payment: %w", err)
			}
			result = res
			return next, nil
		})

	var pe *PostingError
	if err != nil && !errors.As(err, &pe) {
		uc.r.logFailure(ctx, "apply payment failed", req.TenantID, req.OwnerID, err)
		return dto.PaymentResponse{}, err
	}
	uc.r.deps.Metrics.paymentApplied(ctx, owner.Kind().String(), mode.String())
	return toPaymentResponse(owner, result), err
}
