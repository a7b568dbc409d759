package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// InstallmentPlan spreads a sale or purchase over installments, collected
// (receivable) or paid (payable) depending on its type.
type InstallmentPlan struct {
	scheduleOwner

	planType     valueobject.PlanType
	counterparty string
	totalAmount  money.Money
	downPayment  money.Money
}

// NewInstallmentPlanParams holds the terms of a new plan. A zero Method means
// no interest: equal principal at 0%.
type NewInstallmentPlanParams struct {
	TenantID         string
	PlanNumber       string
	PlanType         valueobject.PlanType
	Counterparty     string
	TotalAmount      money.Money
	DownPayment      valueobject.Optional[money.Money]
	AnnualRate       decimal.Decimal
	InstallmentCount int
	Frequency        valueobject.Frequency
	Method           valueobject.Method
	FirstDueDate     time.Time

	EarlyPaymentDiscountRate valueobject.Optional[decimal.Decimal]
	// LatePaymentInterestRate is a monthly percentage.
	LatePaymentInterestRate valueobject.Optional[decimal.Decimal]
	// Accounts defaults by direction.
	Accounts valueobject.Optional[valueobject.PostingAccounts]
}

var planMethods = map[valueobject.Method]bool{
	valueobject.MethodEqualPrincipal: true,
	valueobject.MethodAnnuity:        true,
	valueobject.MethodSimpleInterest: true,
}

// NewInstallmentPlan creates a draft plan over TotalAmount - DownPayment.
func NewInstallmentPlan(p NewInstallmentPlanParams, now time.Time) (InstallmentPlan, error) {
	if p.PlanType.IsZero() {
		return InstallmentPlan{}, invalidArgument("plan type is required")
	}
	if p.Counterparty == "" {
		return InstallmentPlan{}, invalidArgument("counterparty is required")
	}
	cur := p.TotalAmount.Currency()
	if !p.TotalAmount.IsPositive() {
		return InstallmentPlan{}, invalidArgument("total amount must be positive, got %s", p.TotalAmount)
	}
	down := p.DownPayment.OrElse(money.Zero(cur))
	financed, err := p.TotalAmount.Subtract(down)
	if err != nil {
		return InstallmentPlan{}, err
	}
	if down.IsNegative() || !financed.IsPositive() {
		return InstallmentPlan{}, invalidArgument("down payment %s must be in [0, %s)", down, p.TotalAmount)
	}

	method := p.Method
	if method.IsZero() {
		if p.AnnualRate.IsPositive() {
			return InstallmentPlan{}, invalidArgument("an interest method is required when the rate is positive")
		}
		method = valueobject.MethodEqualPrincipal
	}
	if !planMethods[method] {
		return InstallmentPlan{}, invalidArgument("method %s is not an installment method", method)
	}

	direction := p.PlanType.Direction()
	accounts := valueobject.DefaultReceivablePlanAccounts
	if direction.Equal(valueobject.DirectionPayable) {
		accounts = valueobject.DefaultPayablePlanAccounts
	}

	core, err := newScheduleOwner(ownerParams{
		tenantID:  p.TenantID,
		kind:      valueobject.OwnerKindInstallmentPlan,
		reference: p.PlanNumber,
		terms: ScheduleTerms{
			Principal:    financed,
			Salvage:      money.Zero(cur),
			AnnualRate:   p.AnnualRate,
			TermCount:    p.InstallmentCount,
			Frequency:    p.Frequency,
			Method:       method,
			FirstDueDate: p.FirstDueDate,
		},
		accounts:      p.Accounts.OrElse(accounts),
		direction:     direction,
		principalKind: valueobject.PostingKindPrincipal,
		discountRate:  p.EarlyPaymentDiscountRate,
		lateRate:      p.LatePaymentInterestRate,
	}, now)
	if err != nil {
		return InstallmentPlan{}, err
	}

	return InstallmentPlan{
		scheduleOwner: core,
		planType:      p.PlanType,
		counterparty:  p.Counterparty,
		totalAmount:   p.TotalAmount,
		downPayment:   down,
	}, nil
}

func (ip InstallmentPlan) withBase(c scheduleOwner) Owner {
	ip.scheduleOwner = c
	return ip
}

// TransactionKind depends on whether the plan collects or pays.
func (ip InstallmentPlan) TransactionKind() valueobject.TransactionKind {
	if ip.direction.Equal(valueobject.DirectionReceivable) {
		return valueobject.TransactionKindInstallmentReceipt
	}
	return valueobject.TransactionKindInstallmentPayment
}

func (ip InstallmentPlan) PlanNumber() string { return ip.reference }
func (ip InstallmentPlan) PlanType() valueobject.PlanType { return ip.planType }
func (ip InstallmentPlan) Counterparty() string { return ip.counterparty }
func (ip InstallmentPlan) TotalAmount() money.Money { return ip.totalAmount }
func (ip InstallmentPlan) DownPayment() money.Money { return ip.downPayment }
func (ip InstallmentPlan) FinancedAmount() money.Money { return ip.terms.Principal }
func (ip InstallmentPlan) InstallmentCount() int { return ip.terms.TermCount }

// InstallmentAmount is the total of the first scheduled line, zero before activation.
func (ip InstallmentPlan) InstallmentAmount() money.Money {
	if len(ip.schedule) == 0 {
		return money.Zero(ip.Currency())
	}
	return ip.schedule[0].Total
}

// State returns a persistence snapshot.
func (ip InstallmentPlan) State() OwnerState {
	s := ip.stateBase()
	s.Plan = PlanAttributes{
		PlanType:     ip.planType.String(),
		Counterparty: ip.counterparty,
		TotalAmount:  ip.totalAmount.Amount(),
		DownPayment:  ip.downPayment.Amount(),
	}
	return s
}
