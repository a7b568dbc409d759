package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/event"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// Disposal records how and when an asset left the books.
type Disposal struct {
	Type         valueobject.DisposalType
	Date         time.Time
	NetBookValue money.Money
	SaleAmount   valueobject.Optional[money.Money]
	GainLoss     valueobject.Optional[money.Money]
}

// FixedAsset is a depreciable asset. Its schedule is the depreciation plan:
// each line's principal is one period's charge and Paid is what has been
// realised, so accumulated depreciation is the principal paid so far.
type FixedAsset struct {
	scheduleOwner

	name             string
	category         string
	acquisitionDate  time.Time
	inServiceDate    valueobject.Optional[time.Time]
	usefulLifeYears  int
	customRate       valueobject.Optional[decimal.Decimal]
	revaluationTotal money.Money
	disposal         valueobject.Optional[Disposal]
}

// NewFixedAssetParams holds the data of a newly acquired asset.
type NewFixedAssetParams struct {
	TenantID        string
	Code            string
	Name            string
	Category        string
	Cost            money.Money
	Salvage         valueobject.Optional[money.Money]
	AcquisitionDate time.Time
	UsefulLifeYears int
	Method          valueobject.Method
	// Period is Monthly, Quarterly or Annual.
	Period valueobject.Frequency
	// CustomRate overrides the annual declining balance rate of 100 / UsefulLifeYears.
	CustomRate valueobject.Optional[decimal.Decimal]
	Accounts   valueobject.Optional[valueobject.PostingAccounts]
}

var depreciationPeriods = map[valueobject.Frequency]bool{
	valueobject.FrequencyMonthly:   true,
	valueobject.FrequencyQuarterly: true,
	valueobject.FrequencyAnnual:    true,
}

// NewFixedAsset registers a draft asset. Depreciation is scheduled once it
// is placed in service.
func NewFixedAsset(p NewFixedAssetParams, now time.Time) (FixedAsset, error) {
	if p.Name == "" {
		return FixedAsset{}, invalidArgument("asset name is required")
	}
	if !p.Method.IsDepreciation() {
		return FixedAsset{}, invalidArgument("method %s is not a depreciation method", p.Method)
	}
	if !depreciationPeriods[p.Period] {
		return FixedAsset{}, invalidArgument("depreciation period %q is not supported", p.Period)
	}
	if p.UsefulLifeYears <= 0 {
		return FixedAsset{}, invalidArgument("useful life must be positive, got %d years", p.UsefulLifeYears)
	}
	if p.AcquisitionDate.IsZero() {
		return FixedAsset{}, invalidArgument("acquisition date is required")
	}
	if err := checkRate("custom depreciation rate", p.CustomRate); err != nil {
		return FixedAsset{}, err
	}

	cur := p.Cost.Currency()
	terms := ScheduleTerms{
		Principal:  p.Cost,
		Salvage:    p.Salvage.OrElse(money.Zero(cur)),
		AnnualRate: depreciationRate(p.Method, p.UsefulLifeYears, p.CustomRate),
		TermCount:  p.UsefulLifeYears * p.Period.PeriodsPerYear(),
		Frequency:  p.Period,
		Method:     p.Method,
		// Provisional until PlaceInService.
		FirstDueDate: p.Period.DueDate(p.AcquisitionDate, 1),
	}

	core, err := newScheduleOwner(ownerParams{
		tenantID:      p.TenantID,
		kind:          valueobject.OwnerKindFixedAsset,
		reference:     p.Code,
		terms:         terms,
		accounts:      p.Accounts.OrElse(valueobject.DefaultAssetAccounts),
		direction:     valueobject.DirectionPayable,
		principalKind: valueobject.PostingKindDepreciation,
	}, now)
	if err != nil {
		return FixedAsset{}, err
	}

	return FixedAsset{
		scheduleOwner:    core,
		name:             p.Name,
		category:         p.Category,
		acquisitionDate:  p.AcquisitionDate,
		usefulLifeYears:  p.UsefulLifeYears,
		customRate:       p.CustomRate,
		revaluationTotal: money.Zero(cur),
	}, nil
}

// depreciationRate is the annual percentage charged by declining methods.
// Straight line and sum of years digits carry no rate.
func depreciationRate(m valueobject.Method, years int, custom valueobject.Optional[decimal.Decimal]) decimal.Decimal {
	if !m.IsDecliningBalance() {
		return decimal.Zero
	}
	if r, ok := custom.Get(); ok {
		return r
	}
	return hundred.Div(decimal.NewFromInt(int64(years)))
}

// ---------------------------------------------------------------------------
// Owner hooks
// ---------------------------------------------------------------------------

func (a FixedAsset) withBase(c scheduleOwner) Owner {
	a.scheduleOwner = c
	return a
}

func (a FixedAsset) beforeActivate() error {
	if !a.inServiceDate.IsSome() {
		return invalidState("asset %s is not in service", a.reference)
	}
	return nil
}

func (a FixedAsset) preparePayment(Payment) (money.Money, error) {
	return money.Money{}, invalidState("asset %s takes depreciation, not payments", a.reference)
}

// TransactionKind is what the period gate is asked for before depreciation.
func (a FixedAsset) TransactionKind() valueobject.TransactionKind {
	return valueobject.TransactionKindDepreciation
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// PlaceInService sets the date depreciation starts from. The first charge
// falls one period after it.
func (a FixedAsset) PlaceInService(date, now time.Time) (FixedAsset, error) {
	if !a.status.Equal(valueobject.OwnerStatusDraft) {
		return a, invalidState("asset %s is %s", a.reference, a.status)
	}
	if date.IsZero() {
		return a, invalidArgument("in-service date is required")
	}
	if date.Before(a.acquisitionDate) {
		return a, invalidArgument("in-service date %s is before acquisition date %s",
			formatDate(date), formatDate(a.acquisitionDate))
	}
	next := a
	next.scheduleOwner = a.begin(now)
	next.inServiceDate = valueobject.Some(date)
	next.terms.FirstDueDate = a.terms.Frequency.DueDate(date, 1)
	next.schedule = nil
	next.events.Record(event.NewAssetPlacedInService(a.id, a.tenantID, formatDate(date)))
	return next, nil
}

// CalculateDepreciation returns the charge due on or before asOf. It is zero
// once the asset is fully depreciated or no longer active.
func (a FixedAsset) CalculateDepreciation(asOf time.Time) money.Money {
	zero := money.Zero(a.Currency())
	if !a.status.AcceptsPayments() || a.IsFullyDepreciated() {
		return zero
	}
	line, ok := a.NextDueLine()
	if !ok || line.DueDate.After(asOf) {
		return zero
	}
	return line.Remaining
}

// ApplyDepreciation realises the next period's charge. amount must equal it.
func (a FixedAsset) ApplyDepreciation(amount money.Money, date, now time.Time) (FixedAsset, PaymentResult, error) {
	if a.IsFullyDepreciated() {
		return a, PaymentResult{}, invalidState("asset %s is fully depreciated", a.reference)
	}
	core, res, err := a.scheduleOwner.applyPayment(Payment{
		Amount: amount,
		Date:   date,
		Mode:   valueobject.PaymentModeRegular,
	}, money.Zero(a.Currency()), now)
	if err != nil {
		return a, PaymentResult{}, err
	}
	next := a
	next.scheduleOwner = core
	next.events.Record(event.NewAssetDepreciated(
		a.id, a.tenantID, amount.Amount(), next.AccumulatedDepreciation().Amount(),
		next.NetBookValue().Amount(), next.IsFullyDepreciated(), a.Currency().Code(), formatDate(date),
	))
	return next, res, nil
}

// Revalue changes the cost basis and regenerates the unrealised periods
// from the new net book value.
func (a FixedAsset) Revalue(newCost money.Money, date time.Time, reason string, now time.Time) (FixedAsset, error) {
	if !a.status.AcceptsPayments() {
		return a, invalidState("asset %s is %s", a.reference, a.status)
	}
	cur := a.Currency()
	if newCost.Currency() != cur {
		return a, currencyMismatch(cur, newCost.Currency())
	}
	if date.IsZero() {
		return a, invalidArgument("revaluation date is required")
	}
	nbv, err := newCost.Subtract(a.AccumulatedDepreciation())
	if err != nil {
		return a, err
	}
	if nbv.Amount().LessThanOrEqual(a.terms.salvageAmount()) {
		return a, invalidArgument("new cost %s leaves no depreciable value above salvage %s", newCost, a.terms.Salvage)
	}
	line, ok := a.NextDueLine()
	if !ok {
		return a, invalidState("asset %s has no remaining periods", a.reference)
	}

	open := 0
	for _, l := range a.schedule {
		if l.IsOpen() {
			open++
		}
	}
	tail := a.terms
	tail.Principal = nbv
	tail.TermCount = open
	tail.FirstDueDate = line.DueDate
	tail.GracePeriods = 0

	core, _, err := a.scheduleOwner.replaceTail(tail, now)
	if err != nil {
		return a, err
	}
	previous := a.terms.Principal
	next := a
	next.scheduleOwner = core
	next.terms.Principal = newCost
	next.revaluationTotal = money.New(a.revaluationTotal.Amount().Add(newCost.Amount()).Sub(previous.Amount()), cur)
	next.events.Record(event.NewAssetRevalued(a.id, a.tenantID, previous.Amount(), newCost.Amount(), cur.Code(), reason))
	return next, nil
}

// AddToCost capitalises an addition such as an improvement.
func (a FixedAsset) AddToCost(amount money.Money, date, now time.Time) (FixedAsset, error) {
	if !amount.IsPositive() {
		return a, invalidArgument("capital addition must be positive, got %s", amount)
	}
	newCost, err := a.terms.Principal.Add(amount)
	if err != nil {
		return a, err
	}
	return a.Revalue(newCost, date, "capital addition", now)
}

// Dispose takes the asset off the books. Any unrealised periods are
// cancelled; a sale amount yields a gain or loss against net book value.
func (a FixedAsset) Dispose(
	disposalType valueobject.DisposalType,
	date time.Time,
	saleAmount valueobject.Optional[money.Money],
	now time.Time,
) (FixedAsset, error) {
	if a.disposal.IsSome() {
		return a, invalidState("asset %s is already disposed", a.reference)
	}
	closedByDepreciation := a.status.Equal(valueobject.OwnerStatusClosed) && a.IsFullyDepreciated()
	if !a.status.AcceptsPayments() && !closedByDepreciation {
		return a, invalidState("asset %s is %s", a.reference, a.status)
	}
	if disposalType.IsZero() {
		return a, invalidArgument("disposal type is required")
	}
	if date.IsZero() {
		return a, invalidArgument("disposal date is required")
	}

	cur := a.Currency()
	nbv := a.NetBookValue()
	d := Disposal{Type: disposalType, Date: date, NetBookValue: nbv}
	if sale, ok := saleAmount.Get(); ok {
		if sale.Currency() != cur {
			return a, currencyMismatch(cur, sale.Currency())
		}
		if sale.IsNegative() {
			return a, invalidArgument("sale amount must not be negative")
		}
		gainLoss, err := sale.Subtract(nbv)
		if err != nil {
			return a, err
		}
		d.SaleAmount = valueobject.Some(sale)
		d.GainLoss = valueobject.Some(gainLoss)
	}

	next := a
	next.scheduleOwner = a.begin(now)
	for i := range next.schedule {
		if next.schedule[i].IsOpen() {
			next.schedule[i].IsCancelled = true
		}
	}
	next.disposal = valueobject.Some(d)

	var salePtr, gainPtr *decimal.Decimal
	if s, ok := d.SaleAmount.Get(); ok {
		v := s.Amount()
		salePtr = &v
	}
	if g, ok := d.GainLoss.Get(); ok {
		v := g.Amount()
		gainPtr = &v
	}
	next.events.Record(event.NewAssetDisposed(
		a.id, a.tenantID, disposalType.String(), nbv.Amount(), salePtr, gainPtr, cur.Code(), formatDate(date),
	))

	if !closedByDepreciation {
		status, err := next.transition(valueobject.OwnerStatusClosed)
		if err != nil {
			return a, err
		}
		next.status = status
		next.closedAt = valueobject.Some(now)
		next.events.Record(event.NewOwnerClosed(
			a.id, a.aggregateType(), a.tenantID, event.CloseReasonDisposed, next.AccumulatedDepreciation().Amount(), cur.Code(),
		))
	}
	return next, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (a FixedAsset) Code() string { return a.reference }
func (a FixedAsset) Name() string { return a.name }
func (a FixedAsset) Category() string { return a.category }
func (a FixedAsset) Cost() money.Money { return a.terms.Principal }
func (a FixedAsset) SalvageValue() money.Money { return a.terms.Salvage }
func (a FixedAsset) AcquisitionDate() time.Time { return a.acquisitionDate }
func (a FixedAsset) UsefulLifeYears() int { return a.usefulLifeYears }
func (a FixedAsset) RevaluationTotal() money.Money { return a.revaluationTotal }
func (a FixedAsset) Disposal() valueobject.Optional[Disposal] { return a.disposal }

func (a FixedAsset) InServiceDate() valueobject.Optional[time.Time] { return a.inServiceDate }

func (a FixedAsset) CustomRate() valueobject.Optional[decimal.Decimal] { return a.customRate }

// AccumulatedDepreciation is the depreciation realised so far.
func (a FixedAsset) AccumulatedDepreciation() money.Money {
	return a.sumLines(func(l ScheduleLine) decimal.Decimal { return l.PrincipalPaid().Amount() })
}

// NetBookValue is cost less accumulated depreciation.
func (a FixedAsset) NetBookValue() money.Money {
	return money.New(a.terms.Principal.Amount().Sub(a.AccumulatedDepreciation().Amount()), a.Currency())
}

// IsFullyDepreciated reports whether net book value has reached salvage.
// A draft asset with no schedule is never fully depreciated.
func (a FixedAsset) IsFullyDepreciated() bool {
	if len(a.schedule) == 0 {
		return false
	}
	return a.NetBookValue().Amount().LessThanOrEqual(a.terms.salvageAmount())
}

// RemainingUsefulLifeMonths counts the months of unrealised periods.
func (a FixedAsset) RemainingUsefulLifeMonths() int {
	if len(a.schedule) == 0 {
		return a.terms.Frequency.MonthsIn(a.terms.TermCount)
	}
	open := 0
	for _, l := range a.schedule {
		if l.IsOpen() {
			open++
		}
	}
	return a.terms.Frequency.MonthsIn(open)
}

// State returns a persistence snapshot.
func (a FixedAsset) State() OwnerState {
	s := a.stateBase()
	s.Asset = AssetAttributes{
		Name:             a.name,
		Category:         a.category,
		AcquisitionDate:  a.acquisitionDate,
		InServiceDate:    a.inServiceDate,
		UsefulLifeYears:  a.usefulLifeYears,
		CustomRate:       a.customRate,
		RevaluationTotal: a.revaluationTotal.Amount(),
	}
	if d, ok := a.disposal.Get(); ok {
		rec := DisposalRecord{
			Type:         d.Type.String(),
			Date:         d.Date,
			NetBookValue: d.NetBookValue.Amount(),
		}
		if v, ok := d.SaleAmount.Get(); ok {
			rec.SaleAmount = valueobject.Some(v.Amount())
		}
		if v, ok := d.GainLoss.Get(); ok {
			rec.GainLoss = valueobject.Some(v.Amount())
		}
		s.Asset.Disposal = valueobject.Some(rec)
	}
	return s
}
