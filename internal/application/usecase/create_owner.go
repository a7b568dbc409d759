package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
)

// CreateLoanUseCase records a new loan contract, optionally activating it.
type CreateLoanUseCase struct {
	r runner
}

// NewCreateLoanUseCase wires dependencies.
func NewCreateLoanUseCase(deps Dependencies) *CreateLoanUseCase {
	return &CreateLoanUseCase{r: newRunner(deps)}
}

// Execute creates the loan and returns it with its schedule when activated.
func (uc *CreateLoanUseCase) Execute(ctx context.Context, req dto.CreateLoanRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "CreateLoan")
	defer func() { endSpan(span, err) }()

	principal, err := parseMoney(req.Principal, req.Currency)
	if err != nil {
		return dto.OwnerResponse{}, err
	}
	freq, err := parseFrequency(req.Frequency)
	if err != nil {
		return dto.OwnerResponse{}, err
	}
	method, err := parseOptionalMethod(req.Method)
	if err != nil {
		return dto.OwnerResponse{}, err
	}

	now := uc.r.now()
	loan, err := model.NewLoan(model.NewLoanParams{
		TenantID:                req.TenantID,
		LoanNumber:              req.LoanNumber,
		Lender:                  req.Lender,
		LoanType:                req.LoanType,
		Principal:               principal,
		AnnualRate:              req.AnnualRate,
		TermCount:               req.TermCount,
		Frequency:               freq,
		Method:                  method,
		FirstDueDate:            req.FirstDueDate,
		GracePeriods:            req.GracePeriods,
		PrepaymentAllowed:       req.PrepaymentAllowed,
		PrepaymentPenaltyRate:   optionalRate(req.PrepaymentPenaltyRate),
		LatePaymentInterestRate: optionalRate(req.LatePaymentInterestRate),
		BSMVRate:                optionalRate(req.BSMVRate),
		KKDFRate:                optionalRate(req.KKDFRate),
		Fees:                    optionalMoney(req.Fees, principal.Currency()),
	}, now)
	if err != nil {
		return dto.OwnerResponse{}, fmt.Errorf("create loan: %w", err)
	}

	if req.Activate {
		if loan, err = model.Activate(loan, now); err != nil {
			return dto.OwnerResponse{}, fmt.Errorf("activate loan: %w", err)
		}
	}

	if err := uc.r.create(ctx, loan); err != nil {
		uc.r.logFailure(ctx, "create loan failed", req.TenantID, loan.ID(), err)
		return dto.OwnerResponse{}, err
	}
	return toOwnerResponse(loan), nil
}

// CreateInstallmentPlanUseCase records a new installment plan.
type CreateInstallmentPlanUseCase struct {
	r runner
}

// NewCreateInstallmentPlanUseCase wires dependencies.
func NewCreateInstallmentPlanUseCase(deps Dependencies) *CreateInstallmentPlanUseCase {
	return &CreateInstallmentPlanUseCase{r: newRunner(deps)}
}

// Execute creates the plan and returns it.
func (uc *CreateInstallmentPlanUseCase) Execute(
	ctx context.Context,
	req dto.CreateInstallmentPlanRequest,
) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "CreateInstallmentPlan")
	defer func() { endSpan(span, err) }()

	total, err := parseMoney(req.TotalAmount, req.Currency)
	if err != nil {
		return dto.OwnerResponse{}, err
	}
	planType, err := valueobject.NewPlanType(req.PlanType)
	if err != nil {
		return dto.OwnerResponse{}, invalid(err)
	}
	freq, err := parseFrequency(req.Frequency)
	if err != nil {
		return dto.OwnerResponse{}, err
	}
	method, err := parseOptionalMethod(req.Method)
	if err != nil {
		return dto.OwnerResponse{}, err
	}

	now := uc.r.now()
	plan, err := model.NewInstallmentPlan(model.NewInstallmentPlanParams{
		TenantID:                 req.TenantID,
		PlanNumber:               req.PlanNumber,
		PlanType:                 planType,
		Counterparty:             req.Counterparty,
		TotalAmount:              total,
		DownPayment:              optionalMoney(req.DownPayment, total.Currency()),
		AnnualRate:               req.AnnualRate,
		InstallmentCount:         req.InstallmentCount,
		Frequency:                freq,
		Method:                   method,
		FirstDueDate:             req.FirstDueDate,
		EarlyPaymentDiscountRate: optionalRate(req.EarlyPaymentDiscountRate),
		LatePaymentInterestRate:  optionalRate(req.LatePaymentInterestRate),
	}, now)
	if err != nil {
		return dto.OwnerResponse{}, fmt.Errorf("create installment plan: %w", err)
	}

	if req.Activate {
		if plan, err = model.Activate(plan, now); err != nil {
			return dto.OwnerResponse{}, fmt.Errorf("activate installment plan: %w", err)
		}
	}

	if err := uc.r.create(ctx, plan); err != nil {
		uc.r.logFailure(ctx, "create installment plan failed", req.TenantID, plan.ID(), err)
		return dto.OwnerResponse{}, err
	}
	return toOwnerResponse(plan), nil
}

// RegisterFixedAssetUseCase records a newly acquired asset in Draft.
type RegisterFixedAssetUseCase struct {
	r runner
}

// NewRegisterFixedAssetUseCase wires dependencies.
func NewRegisterFixedAssetUseCase(deps Dependencies) *RegisterFixedAssetUseCase {
	return &RegisterFixedAssetUseCase{r: newRunner(deps)}
}

// Execute registers the asset.
func (uc *RegisterFixedAssetUseCase) Execute(
	ctx context.Context,
	req dto.RegisterFixedAssetRequest,
) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "RegisterFixedAsset")
	defer func() { endSpan(span, err) }()

	cost, err := parseMoney(req.Cost, req.Currency)
	if err != nil {
		return dto.OwnerResponse{}, err
	}
	method, err := parseOptionalMethod(req.Method)
	if err != nil {
		return dto.OwnerResponse{}, err
	}
	period, err := parseFrequency(req.Period)
	if err != nil {
		return dto.OwnerResponse{}, err
	}

	asset, err := model.NewFixedAsset(model.NewFixedAssetParams{
		TenantID:        req.TenantID,
		Code:            req.Code,
		Name:            req.Name,
		Category:        req.Category,
		Cost:            cost,
		Salvage:         optionalMoney(req.Salvage, cost.Currency()),
		AcquisitionDate: req.AcquisitionDate,
		UsefulLifeYears: req.UsefulLifeYears,
		Method:          method,
		Period:          period,
		CustomRate:      optionalRate(req.CustomRate),
	}, uc.r.now())
	if err != nil {
		return dto.OwnerResponse{}, fmt.Errorf("register fixed asset: %w", err)
	}

	if err := uc.r.create(ctx, asset); err != nil {
		uc.r.logFailure(ctx, "register fixed asset failed", req.TenantID, asset.ID(), err)
		return dto.OwnerResponse{}, err
	}
	return toOwnerResponse(asset), nil
}
