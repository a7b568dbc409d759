package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// OwnerState is the flat persistence snapshot of any owner. Only the
// attribute block matching Kind is meaningful.
type OwnerState struct {
	ID                       string
	TenantID                 string
	Kind                     valueobject.OwnerKind
	Reference                string
	Status                   valueobject.OwnerStatus
	Terms                    ScheduleTerms
	Schedule                 []ScheduleLine
	Superseded               []SupersededLine
	Postings                 []PostingRequest
	Accounts                 valueobject.PostingAccounts
	EarlyPaymentDiscountRate valueobject.Optional[decimal.Decimal]
	LatePaymentInterestRate  valueobject.Optional[decimal.Decimal]
	RestructureCount         int
	ClosedAt                 valueobject.Optional[time.Time]
	CancelReason             string
	Version                  int
	CreatedAt                time.Time
	UpdatedAt                time.Time

	Loan  LoanAttributes
	Plan  PlanAttributes
	Asset AssetAttributes
}

// LoanAttributes are the loan-only fields. Amounts are in the owner currency.
type LoanAttributes struct {
	Lender                string                                `json:"lender"`
	LoanType              string                                `json:"loan_type,omitempty"`
	PrepaymentAllowed     bool                                  `json:"prepayment_allowed"`
	PrepaymentPenaltyRate valueobject.Optional[decimal.Decimal] `json:"prepayment_penalty_rate"`
	BSMVRate              valueobject.Optional[decimal.Decimal] `json:"bsmv_rate"`
	KKDFRate              valueobject.Optional[decimal.Decimal] `json:"kkdf_rate"`
	Fees                  decimal.Decimal                       `json:"fees"`
}

// PlanAttributes are the installment-plan-only fields.
type PlanAttributes struct {
	PlanType     string          `json:"plan_type"`
	Counterparty string          `json:"counterparty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	DownPayment  decimal.Decimal `json:"down_payment"`
}

// AssetAttributes are the fixed-asset-only fields.
type AssetAttributes struct {
	Name             string                                `json:"name"`
	Category         string                                `json:"category,omitempty"`
	AcquisitionDate  time.Time                             `json:"acquisition_date"`
	InServiceDate    valueobject.Optional[time.Time]       `json:"in_service_date"`
	UsefulLifeYears  int                                   `json:"useful_life_years"`
	CustomRate       valueobject.Optional[decimal.Decimal] `json:"custom_rate"`
	RevaluationTotal decimal.Decimal                       `json:"revaluation_total"`
	Disposal         valueobject.Optional[DisposalRecord]  `json:"disposal"`
}

// DisposalRecord is the stored form of a Disposal.
type DisposalRecord struct {
	Type         string                                `json:"type"`
	Date         time.Time                             `json:"date"`
	NetBookValue decimal.Decimal                       `json:"net_book_value"`
	SaleAmount   valueobject.Optional[decimal.Decimal] `json:"sale_amount"`
	GainLoss     valueobject.Optional[decimal.Decimal] `json:"gain_loss"`
}

// ReconstructOwner rebuilds an owner from persistence. It does not validate
// terms; stored owners were valid when saved.
func ReconstructOwner(s OwnerState) (Owner, error) {
	core := scheduleOwner{
		id:                       s.ID,
		tenantID:                 s.TenantID,
		kind:                     s.Kind,
		reference:                s.Reference,
		terms:                    s.Terms,
		status:                   s.Status,
		schedule:                 cloneLines(s.Schedule),
		postings:                 clonePostings(s.Postings),
		accounts:                 s.Accounts,
		earlyPaymentDiscountRate: s.EarlyPaymentDiscountRate,
		lateInterestRate:         s.LatePaymentInterestRate,
		restructureCount:         s.RestructureCount,
		closedAt:                 s.ClosedAt,
		cancelReason:             s.CancelReason,
		version:                  s.Version,
		createdAt:                s.CreatedAt,
		updatedAt:                s.UpdatedAt,
	}
	if len(s.Superseded) > 0 {
		core.superseded = make([]SupersededLine, len(s.Superseded))
		copy(core.superseded, s.Superseded)
	}
	cur := s.Terms.Principal.Currency()

	switch {
	case s.Kind.Equal(valueobject.OwnerKindLoan):
		core.direction = valueobject.DirectionPayable
		core.principalKind = valueobject.PostingKindPrincipal
		return Loan{
			scheduleOwner:         core,
			lender:                s.Loan.Lender,
			loanType:              s.Loan.LoanType,
			prepaymentAllowed:     s.Loan.PrepaymentAllowed,
			prepaymentPenaltyRate: s.Loan.PrepaymentPenaltyRate,
			bsmvRate:              s.Loan.BSMVRate,
			kkdfRate:              s.Loan.KKDFRate,
			fees:                  money.New(s.Loan.Fees, cur),
		}, nil

	case s.Kind.Equal(valueobject.OwnerKindInstallmentPlan):
		planType, err := valueobject.NewPlanType(s.Plan.PlanType)
		if err != nil {
			return nil, fmt.Errorf("reconstruct plan %s: %w", s.ID, err)
		}
		core.direction = planType.Direction()
		core.principalKind = valueobject.PostingKindPrincipal
		return InstallmentPlan{
			scheduleOwner: core,
			planType:      planType,
			counterparty:  s.Plan.Counterparty,
			totalAmount:   money.New(s.Plan.TotalAmount, cur),
			downPayment:   money.New(s.Plan.DownPayment, cur),
		}, nil

	case s.Kind.Equal(valueobject.OwnerKindFixedAsset):
		core.direction = valueobject.DirectionPayable
		core.principalKind = valueobject.PostingKindDepreciation
		asset := FixedAsset{
			scheduleOwner:    core,
			name:             s.Asset.Name,
			category:         s.Asset.Category,
			acquisitionDate:  s.Asset.AcquisitionDate,
			inServiceDate:    s.Asset.InServiceDate,
			usefulLifeYears:  s.Asset.UsefulLifeYears,
			customRate:       s.Asset.CustomRate,
			revaluationTotal: money.New(s.Asset.RevaluationTotal, cur),
		}
		if rec, ok := s.Asset.Disposal.Get(); ok {
			typ, err := valueobject.NewDisposalType(rec.Type)
			if err != nil {
				return nil, fmt.Errorf("reconstruct asset %s: %w", s.ID, err)
			}
			d := Disposal{Type: typ, Date: rec.Date, NetBookValue: money.New(rec.NetBookValue, cur)}
			if v, ok := rec.SaleAmount.Get(); ok {
				d.SaleAmount = valueobject.Some(money.New(v, cur))
			}
			if v, ok := rec.GainLoss.Get(); ok {
				d.GainLoss = valueobject.Some(money.New(v, cur))
			}
			asset.disposal = valueobject.Some(d)
		}
		return asset, nil
	}

	return nil, fmt.Errorf("reconstruct owner %s: unknown kind %q", s.ID, s.Kind)
}
