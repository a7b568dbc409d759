package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CreateLoanRequest carries the contract terms of a new loan. Rates are
// percentages; LatePaymentInterestRate is monthly, the others annual or flat.
type CreateLoanRequest struct {
	TenantID                string           `json:"tenant_id"`
	LoanNumber              string           `json:"loan_number"`
	Lender                  string           `json:"lender"`
	LoanType                string           `json:"loan_type"`
	Principal               decimal.Decimal  `json:"principal"`
	Currency                string           `json:"currency"`
	AnnualRate              decimal.Decimal  `json:"annual_rate"`
	TermCount               int              `json:"term_count"`
	Frequency               string           `json:"frequency"`
	Method                  string           `json:"method"`
	FirstDueDate            time.Time        `json:"first_due_date"`
	GracePeriods            int              `json:"grace_periods"`
	PrepaymentAllowed       bool             `json:"prepayment_allowed"`
	PrepaymentPenaltyRate   *decimal.Decimal `json:"prepayment_penalty_rate,omitempty"`
	LatePaymentInterestRate *decimal.Decimal `json:"late_payment_interest_rate,omitempty"`
	BSMVRate                *decimal.Decimal `json:"bsmv_rate,omitempty"`
	KKDFRate                *decimal.Decimal `json:"kkdf_rate,omitempty"`
	Fees                    *decimal.Decimal `json:"fees,omitempty"`
	// Activate generates the schedule right away.
	Activate bool `json:"activate"`
}

// CreateInstallmentPlanRequest carries the terms of a new installment plan.
// An empty Method means no interest.
type CreateInstallmentPlanRequest struct {
	TenantID                 string           `json:"tenant_id"`
	PlanNumber               string           `json:"plan_number"`
	PlanType                 string           `json:"plan_type"`
	Counterparty             string           `json:"counterparty"`
	TotalAmount              decimal.Decimal  `json:"total_amount"`
	Currency                 string           `json:"currency"`
	DownPayment              *decimal.Decimal `json:"down_payment,omitempty"`
	AnnualRate               decimal.Decimal  `json:"annual_rate"`
	InstallmentCount         int              `json:"installment_count"`
	Frequency                string           `json:"frequency"`
	Method                   string           `json:"method,omitempty"`
	FirstDueDate             time.Time        `json:"first_due_date"`
	EarlyPaymentDiscountRate *decimal.Decimal `json:"early_payment_discount_rate,omitempty"`
	LatePaymentInterestRate  *decimal.Decimal `json:"late_payment_interest_rate,omitempty"`
	Activate                 bool             `json:"activate"`
}

// RegisterFixedAssetRequest carries the acquisition data of a fixed asset.
type RegisterFixedAssetRequest struct {
	TenantID        string           `json:"tenant_id"`
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	Category        string           `json:"category,omitempty"`
	Cost            decimal.Decimal  `json:"cost"`
	Salvage         *decimal.Decimal `json:"salvage,omitempty"`
	Currency        string           `json:"currency"`
	AcquisitionDate time.Time        `json:"acquisition_date"`
	UsefulLifeYears int              `json:"useful_life_years"`
	Method          string           `json:"method"`
	Period          string           `json:"period"`
	CustomRate      *decimal.Decimal `json:"custom_rate,omitempty"`
}

// OwnerRequest identifies a loan, plan or asset.
type OwnerRequest struct {
	TenantID string `json:"tenant_id"`
	OwnerID  string `json:"owner_id"`
}

// PlaceInServiceRequest starts depreciation of a registered asset.
type PlaceInServiceRequest struct {
	TenantID      string    `json:"tenant_id"`
	AssetID       string    `json:"asset_id"`
	InServiceDate time.Time `json:"in_service_date"`
	Activate      bool      `json:"activate"`
}

// ApplyPaymentRequest carries one payment. Sequence optionally names the
// line a regular or partial payment is meant for.
type ApplyPaymentRequest struct {
	TenantID  string          `json:"tenant_id"`
	OwnerID   string          `json:"owner_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Date      time.Time       `json:"date"`
	Mode      string          `json:"mode"`
	Sequence  *int            `json:"sequence,omitempty"`
	Reference string          `json:"reference,omitempty"`
}

// RestructureRequest replaces the unpaid tail of a schedule. Empty
// Frequency or Method keep the current ones.
type RestructureRequest struct {
	TenantID     string          `json:"tenant_id"`
	OwnerID      string          `json:"owner_id"`
	Date         time.Time       `json:"date"`
	AnnualRate   decimal.Decimal `json:"annual_rate"`
	TermCount    int             `json:"term_count"`
	Frequency    string          `json:"frequency,omitempty"`
	Method       string          `json:"method,omitempty"`
	FirstDueDate time.Time       `json:"first_due_date"`
	GracePeriods int             `json:"grace_periods"`
}

// CancelRequest cancels an owner that has not received any payment.
type CancelRequest struct {
	TenantID string `json:"tenant_id"`
	OwnerID  string `json:"owner_id"`
	Reason   string `json:"reason"`
}

// LateInterestRequest asks for the late payment interest accrued by AsOf.
type LateInterestRequest struct {
	TenantID string    `json:"tenant_id"`
	OwnerID  string    `json:"owner_id"`
	AsOf     time.Time `json:"as_of"`
}

// RunDepreciationRequest realises every depreciation period due by AsOf
// for the active assets of a tenant.
type RunDepreciationRequest struct {
	TenantID string    `json:"tenant_id"`
	AsOf     time.Time `json:"as_of"`
}

// RevalueAssetRequest changes the cost basis of an asset.
type RevalueAssetRequest struct {
	TenantID string          `json:"tenant_id"`
	AssetID  string          `json:"asset_id"`
	NewCost  decimal.Decimal `json:"new_cost"`
	Date     time.Time       `json:"date"`
	Reason   string          `json:"reason"`
}

// AddToCostRequest capitalises an addition to an asset.
type AddToCostRequest struct {
	TenantID string          `json:"tenant_id"`
	AssetID  string          `json:"asset_id"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
}

// DisposeAssetRequest takes an asset off the books.
type DisposeAssetRequest struct {
	TenantID   string           `json:"tenant_id"`
	AssetID    string           `json:"asset_id"`
	Type       string           `json:"type"`
	Date       time.Time        `json:"date"`
	SaleAmount *decimal.Decimal `json:"sale_amount,omitempty"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// ScheduleLineResponse represents a single schedule line.
type ScheduleLineResponse struct {
	Sequence         int             `json:"sequence"`
	DueDate          time.Time       `json:"due_date"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	Total            decimal.Decimal `json:"total"`
	Paid             decimal.Decimal `json:"paid"`
	Remaining        decimal.Decimal `json:"remaining"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Discount         decimal.Decimal `json:"discount"`
	IsPaid           bool            `json:"is_paid"`
	IsPartiallyPaid  bool            `json:"is_partially_paid"`
	IsBalloon        bool            `json:"is_balloon"`
	IsCancelled      bool            `json:"is_cancelled"`
	PaymentDate      *time.Time      `json:"payment_date,omitempty"`
}

// SupersededLineResponse is a line replaced during restructuring round Round.
type SupersededLineResponse struct {
	Round int                  `json:"round"`
	Line  ScheduleLineResponse `json:"line"`
}

// PostingResponse is a journal posting request of an owner.
type PostingResponse struct {
	ID             string          `json:"id"`
	LineSequence   int             `json:"line_sequence"`
	Kind           string          `json:"kind"`
	Date           time.Time       `json:"date"`
	Debit          string          `json:"debit"`
	Credit         string          `json:"credit"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	JournalEntryID string          `json:"journal_entry_id,omitempty"`
	Attempts       int             `json:"attempts"`
	LastError      string          `json:"last_error,omitempty"`
}

// LoanDetails are the loan-only fields of an OwnerResponse.
type LoanDetails struct {
	Lender            string          `json:"lender"`
	LoanType          string          `json:"loan_type,omitempty"`
	PrepaymentAllowed bool            `json:"prepayment_allowed"`
	BSMVTotal         decimal.Decimal `json:"bsmv_total"`
	KKDFTotal         decimal.Decimal `json:"kkdf_total"`
	Fees              decimal.Decimal `json:"fees"`
	TotalCost         decimal.Decimal `json:"total_cost"`
}

// PlanDetails are the installment-plan-only fields of an OwnerResponse.
type PlanDetails struct {
	PlanType          string          `json:"plan_type"`
	Direction         string          `json:"direction"`
	Counterparty      string          `json:"counterparty"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	DownPayment       decimal.Decimal `json:"down_payment"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
}

// AssetDetails are the fixed-asset-only fields of an OwnerResponse.
type AssetDetails struct {
	Name                      string           `json:"name"`
	Category                  string           `json:"category,omitempty"`
	AcquisitionDate           time.Time        `json:"acquisition_date"`
	InServiceDate             *time.Time       `json:"in_service_date,omitempty"`
	UsefulLifeYears           int              `json:"useful_life_years"`
	Cost                      decimal.Decimal  `json:"cost"`
	SalvageValue              decimal.Decimal  `json:"salvage_value"`
	AccumulatedDepreciation   decimal.Decimal  `json:"accumulated_depreciation"`
	NetBookValue              decimal.Decimal  `json:"net_book_value"`
	RevaluationTotal          decimal.Decimal  `json:"revaluation_total"`
	RemainingUsefulLifeMonths int              `json:"remaining_useful_life_months"`
	IsFullyDepreciated        bool             `json:"is_fully_depreciated"`
	DisposalType              string           `json:"disposal_type,omitempty"`
	GainLoss                  *decimal.Decimal `json:"gain_loss,omitempty"`
}

// OwnerResponse is the external representation of a loan, plan or asset
// together with its schedule.
type OwnerResponse struct {
	ID               string                   `json:"id"`
	TenantID         string                   `json:"tenant_id"`
	Kind             string                   `json:"kind"`
	Reference        string                   `json:"reference"`
	Status           string                   `json:"status"`
	Currency         string                   `json:"currency"`
	Principal        decimal.Decimal          `json:"principal"`
	AnnualRate       decimal.Decimal          `json:"annual_rate"`
	TermCount        int                      `json:"term_count"`
	Frequency        string                   `json:"frequency"`
	Method           string                   `json:"method"`
	PaidTotal        decimal.Decimal          `json:"paid_total"`
	RemainingTotal   decimal.Decimal          `json:"remaining_total"`
	TotalInterest    decimal.Decimal          `json:"total_interest"`
	PaidInstallments int                      `json:"paid_installments"`
	RestructureCount int                      `json:"restructure_count"`
	Schedule         []ScheduleLineResponse   `json:"schedule,omitempty"`
	Superseded       []SupersededLineResponse `json:"superseded,omitempty"`
	PendingPostings  []PostingResponse        `json:"pending_postings,omitempty"`
	Loan             *LoanDetails             `json:"loan,omitempty"`
	Plan             *PlanDetails             `json:"plan,omitempty"`
	Asset            *AssetDetails            `json:"asset,omitempty"`
	Version          int                      `json:"version"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// PaymentResponse is the outcome of one applied payment.
type PaymentResponse struct {
	OwnerID         string          `json:"owner_id"`
	Status          string          `json:"status"`
	Applied         decimal.Decimal `json:"applied"`
	Principal       decimal.Decimal `json:"principal"`
	Interest        decimal.Decimal `json:"interest"`
	Discount        decimal.Decimal `json:"discount"`
	Penalty         decimal.Decimal `json:"penalty"`
	Currency        string          `json:"currency"`
	Sequences       []int           `json:"sequences"`
	RemainingTotal  decimal.Decimal `json:"remaining_total"`
	PendingPostings int             `json:"pending_postings"`
}

// LateInterestResponse is the late payment interest accrued by AsOf.
type LateInterestResponse struct {
	OwnerID      string          `json:"owner_id"`
	AsOf         time.Time       `json:"as_of"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	OverdueLines []int           `json:"overdue_lines"`
}

// DepreciationFailure names an asset whose run stopped with an error.
type DepreciationFailure struct {
	AssetID string `json:"asset_id"`
	Error   string `json:"error"`
}

// DepreciationRunResponse summarises a batch depreciation run.
type DepreciationRunResponse struct {
	TenantID       string                `json:"tenant_id"`
	AsOf           time.Time             `json:"as_of"`
	Assets         int                   `json:"assets"`
	PeriodsApplied int                   `json:"periods_applied"`
	Failures       []DepreciationFailure `json:"failures,omitempty"`
}

// RetryPostingsResponse reports what a posting retry achieved.
type RetryPostingsResponse struct {
	OwnerID string `json:"owner_id"`
	Posted  int    `json:"posted"`
	Pending int    `json:"pending"`
}
