package event

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

// Event types.
const (
	TypeScheduleGenerated    = "finance.schedule.generated"
	TypeOwnerActivated       = "finance.owner.activated"
	TypePaymentApplied       = "finance.payment.applied"
	TypeOwnerClosed          = "finance.owner.closed"
	TypeOwnerCancelled       = "finance.owner.cancelled"
	TypeOwnerDefaulted       = "finance.owner.defaulted"
	TypeScheduleRestructured = "finance.schedule.restructured"
	TypeAssetPlacedInService = "finance.asset.placed_in_service"
	TypeAssetDepreciated     = "finance.asset.depreciated"
	TypeAssetRevalued        = "finance.asset.revalued"
	TypeAssetDisposed        = "finance.asset.disposed"
)

// Closure reasons carried by OwnerClosed.
const (
	CloseReasonSettled  = "SETTLED"
	CloseReasonExplicit = "EXPLICIT"
	CloseReasonDisposed = "DISPOSED"
)

// ---------------------------------------------------------------------------
// Schedule lifecycle events
// ---------------------------------------------------------------------------

// ScheduleGenerated is raised when a schedule is materialised from terms.
type ScheduleGenerated struct {
	events.BaseEvent
	Method        string          `json:"method"`
	Frequency     string          `json:"frequency"`
	LineCount     int             `json:"line_count"`
	Principal     decimal.Decimal `json:"principal"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	Currency      string          `json:"currency"`
}

func NewScheduleGenerated(
	ownerID, aggregateType, tenantID, method, frequency string,
	lineCount int, principal, totalInterest decimal.Decimal, currency string,
) ScheduleGenerated {
	return ScheduleGenerated{
		BaseEvent:     events.NewBaseEvent(TypeScheduleGenerated, ownerID, aggregateType, tenantID),
		Method:        method,
		Frequency:     frequency,
		LineCount:     lineCount,
		Principal:     principal,
		TotalInterest: totalInterest,
		Currency:      currency,
	}
}

// OwnerActivated is raised on Draft -> Active.
type OwnerActivated struct {
	events.BaseEvent
	FirstDueDate string `json:"first_due_date"`
}

func NewOwnerActivated(ownerID, aggregateType, tenantID, firstDueDate string) OwnerActivated {
	return OwnerActivated{
		BaseEvent:    events.NewBaseEvent(TypeOwnerActivated, ownerID, aggregateType, tenantID),
		FirstDueDate: firstDueDate,
	}
}

// PaymentApplied is raised when cash (or a depreciation charge) is allocated to the schedule.
type PaymentApplied struct {
	events.BaseEvent
	Mode           string          `json:"mode"`
	Amount         decimal.Decimal `json:"amount"`
	Principal      decimal.Decimal `json:"principal"`
	Interest       decimal.Decimal `json:"interest"`
	Discount       decimal.Decimal `json:"discount"`
	Penalty        decimal.Decimal `json:"penalty"`
	Currency       string          `json:"currency"`
	Sequences      []int           `json:"sequences"`
	RemainingTotal decimal.Decimal `json:"remaining_total"`
	PaymentDate    string          `json:"payment_date"`
	Reference      string          `json:"reference,omitempty"`
}

func NewPaymentApplied(
	ownerID, aggregateType, tenantID, mode string,
	amount, principal, interest, discount, penalty decimal.Decimal,
	currency string, sequences []int, remainingTotal decimal.Decimal,
	paymentDate, reference string,
) PaymentApplied {
	return PaymentApplied{
		BaseEvent:      events.NewBaseEvent(TypePaymentApplied, ownerID, aggregateType, tenantID),
		Mode:           mode,
		Amount:         amount,
		Principal:      principal,
		Interest:       interest,
		Discount:       discount,
		Penalty:        penalty,
		Currency:       currency,
		Sequences:      sequences,
		RemainingTotal: remainingTotal,
		PaymentDate:    paymentDate,
		Reference:      reference,
	}
}

// OwnerClosed is raised when an owner reaches Closed.
type OwnerClosed struct {
	events.BaseEvent
	Reason    string          `json:"reason"`
	PaidTotal decimal.Decimal `json:"paid_total"`
	Currency  string          `json:"currency"`
}

func NewOwnerClosed(ownerID, aggregateType, tenantID, reason string, paidTotal decimal.Decimal, currency string) OwnerClosed {
	return OwnerClosed{
		BaseEvent: events.NewBaseEvent(TypeOwnerClosed, ownerID, aggregateType, tenantID),
		Reason:    reason,
		PaidTotal: paidTotal,
		Currency:  currency,
	}
}

// OwnerCancelled is raised when an owner is cancelled before any payment.
type OwnerCancelled struct {
	events.BaseEvent
	Reason string `json:"reason"`
}

func NewOwnerCancelled(ownerID, aggregateType, tenantID, reason string) OwnerCancelled {
	return OwnerCancelled{
		BaseEvent: events.NewBaseEvent(TypeOwnerCancelled, ownerID, aggregateType, tenantID),
		Reason:    reason,
	}
}

// OwnerDefaulted is raised on Active -> Defaulted.
type OwnerDefaulted struct {
	events.BaseEvent
	Outstanding decimal.Decimal `json:"outstanding"`
	Currency    string          `json:"currency"`
}

func NewOwnerDefaulted(ownerID, aggregateType, tenantID string, outstanding decimal.Decimal, currency string) OwnerDefaulted {
	return OwnerDefaulted{
		BaseEvent:   events.NewBaseEvent(TypeOwnerDefaulted, ownerID, aggregateType, tenantID),
		Outstanding: outstanding,
		Currency:    currency,
	}
}

// ScheduleRestructured is raised when the unpaid tail is replaced by new terms.
type ScheduleRestructured struct {
	events.BaseEvent
	OutstandingPrincipal decimal.Decimal `json:"outstanding_principal"`
	AnnualRate           decimal.Decimal `json:"annual_rate"`
	TermCount            int             `json:"term_count"`
	Method               string          `json:"method"`
	SupersededLines      int             `json:"superseded_lines"`
	Currency             string          `json:"currency"`
	RestructureDate      string          `json:"restructure_date"`
}

func NewScheduleRestructured(
	ownerID, aggregateType, tenantID string,
	outstanding, annualRate decimal.Decimal, termCount int, method string,
	supersededLines int, currency, restructureDate string,
) ScheduleRestructured {
	return ScheduleRestructured{
		BaseEvent:            events.NewBaseEvent(TypeScheduleRestructured, ownerID, aggregateType, tenantID),
		OutstandingPrincipal: outstanding,
		AnnualRate:           annualRate,
		TermCount:            termCount,
		Method:               method,
		SupersededLines:      supersededLines,
		Currency:             currency,
		RestructureDate:      restructureDate,
	}
}

// ---------------------------------------------------------------------------
// Fixed asset events
// ---------------------------------------------------------------------------

// AssetPlacedInService is raised when depreciation is allowed to start.
type AssetPlacedInService struct {
	events.BaseEvent
	InServiceDate string `json:"in_service_date"`
}

func NewAssetPlacedInService(assetID, tenantID, inServiceDate string) AssetPlacedInService {
	return AssetPlacedInService{
		BaseEvent:     events.NewBaseEvent(TypeAssetPlacedInService, assetID, "FixedAsset", tenantID),
		InServiceDate: inServiceDate,
	}
}

// AssetDepreciated is raised for each realised depreciation period.
type AssetDepreciated struct {
	events.BaseEvent
	Amount           decimal.Decimal `json:"amount"`
	Accumulated      decimal.Decimal `json:"accumulated"`
	NetBookValue     decimal.Decimal `json:"net_book_value"`
	FullyDepreciated bool            `json:"fully_depreciated"`
	Currency         string          `json:"currency"`
	PeriodDate       string          `json:"period_date"`
}

func NewAssetDepreciated(
	assetID, tenantID string,
	amount, accumulated, netBookValue decimal.Decimal,
	fullyDepreciated bool, currency, periodDate string,
) AssetDepreciated {
	return AssetDepreciated{
		BaseEvent:        events.NewBaseEvent(TypeAssetDepreciated, assetID, "FixedAsset", tenantID),
		Amount:           amount,
		Accumulated:      accumulated,
		NetBookValue:     netBookValue,
		FullyDepreciated: fullyDepreciated,
		Currency:         currency,
		PeriodDate:       periodDate,
	}
}

// AssetRevalued is raised when the cost basis changes and the tail is regenerated.
type AssetRevalued struct {
	events.BaseEvent
	PreviousCost decimal.Decimal `json:"previous_cost"`
	NewCost      decimal.Decimal `json:"new_cost"`
	Currency     string          `json:"currency"`
	Reason       string          `json:"reason,omitempty"`
}

func NewAssetRevalued(assetID, tenantID string, previousCost, newCost decimal.Decimal, currency, reason string) AssetRevalued {
	return AssetRevalued{
		BaseEvent:    events.NewBaseEvent(TypeAssetRevalued, assetID, "FixedAsset", tenantID),
		PreviousCost: previousCost,
		NewCost:      newCost,
		Currency:     currency,
		Reason:       reason,
	}
}

// AssetDisposed is raised when an asset leaves the books.
type AssetDisposed struct {
	events.BaseEvent
	DisposalType string           `json:"disposal_type"`
	NetBookValue decimal.Decimal  `json:"net_book_value"`
	SaleAmount   *decimal.Decimal `json:"sale_amount,omitempty"`
	GainLoss     *decimal.Decimal `json:"gain_loss,omitempty"`
	Currency     string           `json:"currency"`
	DisposalDate string           `json:"disposal_date"`
}

func NewAssetDisposed(
	assetID, tenantID, disposalType string,
	netBookValue decimal.Decimal, saleAmount, gainLoss *decimal.Decimal,
	currency, disposalDate string,
) AssetDisposed {
	return AssetDisposed{
		BaseEvent:    events.NewBaseEvent(TypeAssetDisposed, assetID, "FixedAsset", tenantID),
		DisposalType: disposalType,
		NetBookValue: netBookValue,
		SaleAmount:   saleAmount,
		GainLoss:     gainLoss,
		Currency:     currency,
		DisposalDate: disposalDate,
	}
}
