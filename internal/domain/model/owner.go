package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/event"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/events"
	"github.com/bibbank/finance-service/pkg/money"
)

// Owner is implemented by Loan, InstallmentPlan and FixedAsset: the
// aggregates that own a generated schedule. The interface is sealed; the
// package-level commands below operate on any of them.
type Owner interface {
	ID() string
	TenantID() string
	Kind() valueobject.OwnerKind
	Reference() string
	Status() valueobject.OwnerStatus
	Terms() ScheduleTerms
	Currency() money.Currency
	Schedule() []ScheduleLine
	SupersededLines() []SupersededLine
	Postings() []PostingRequest
	PendingPostings() []PostingRequest
	PaidTotal() money.Money
	RemainingTotal() money.Money
	TotalInterest() money.Money
	PaidInstallments() int
	NextDueLine() (ScheduleLine, bool)
	LateInterest(asOf time.Time) money.Money
	OverdueLines(asOf time.Time) []ScheduleLine
	TransactionKind() valueobject.TransactionKind
	RestructureCount() int
	Version() int
	CreatedAt() time.Time
	UpdatedAt() time.Time
	DomainEvents() []events.DomainEvent
	State() OwnerState

	base() scheduleOwner
	withBase(scheduleOwner) Owner
	beforeActivate() error
	preparePayment(p Payment) (penalty money.Money, err error)
}

// SupersededLine is a line replaced by a restructuring or revaluation. Round
// is the restructure count at which it was replaced.
type SupersededLine struct {
	Round int
	Line  ScheduleLine
}

// RestructureTerms replaces the unpaid tail of a schedule. A zero Frequency
// or Method keeps the current one.
type RestructureTerms struct {
	Date         time.Time
	AnnualRate   decimal.Decimal
	TermCount    int
	Frequency    valueobject.Frequency
	Method       valueobject.Method
	FirstDueDate time.Time
	GracePeriods int
}

// ---------------------------------------------------------------------------
// Shared core
// ---------------------------------------------------------------------------

// scheduleOwner carries identity, audit fields and the schedule shared by all
// owners. It is embedded by value; every command returns a modified copy.
type scheduleOwner struct {
	id            string
	tenantID      string
	kind          valueobject.OwnerKind
	reference     string
	terms         ScheduleTerms
	status        valueobject.OwnerStatus
	schedule      []ScheduleLine
	superseded    []SupersededLine
	postings      []PostingRequest
	accounts      valueobject.PostingAccounts
	direction     valueobject.Direction
	principalKind valueobject.PostingKind

	earlyPaymentDiscountRate valueobject.Optional[decimal.Decimal]
	lateInterestRate         valueobject.Optional[decimal.Decimal]

	restructureCount int
	closedAt         valueobject.Optional[time.Time]
	cancelReason     string

	version   int
	createdAt time.Time
	updatedAt time.Time

	events events.EventCollector
}

type ownerParams struct {
	tenantID      string
	kind          valueobject.OwnerKind
	reference     string
	terms         ScheduleTerms
	accounts      valueobject.PostingAccounts
	direction     valueobject.Direction
	principalKind valueobject.PostingKind
	discountRate  valueobject.Optional[decimal.Decimal]
	lateRate      valueobject.Optional[decimal.Decimal]
}

func newScheduleOwner(p ownerParams, now time.Time) (scheduleOwner, error) {
	if p.tenantID == "" {
		return scheduleOwner{}, invalidArgument("tenant ID is required")
	}
	if p.reference == "" {
		return scheduleOwner{}, invalidArgument("%s number is required", p.kind.AggregateType())
	}
	if err := p.terms.Validate(); err != nil {
		return scheduleOwner{}, err
	}
	if err := p.accounts.Validate(); err != nil {
		return scheduleOwner{}, invalidArgument("%s", err.Error())
	}
	if err := checkRate("early payment discount rate", p.discountRate); err != nil {
		return scheduleOwner{}, err
	}
	if err := checkRate("late payment interest rate", p.lateRate); err != nil {
		return scheduleOwner{}, err
	}
	return scheduleOwner{
		id:                       uuid.New().String(),
		tenantID:                 p.tenantID,
		kind:                     p.kind,
		reference:                p.reference,
		terms:                    p.terms,
		status:                   valueobject.OwnerStatusDraft,
		accounts:                 p.accounts,
		direction:                p.direction,
		principalKind:            p.principalKind,
		earlyPaymentDiscountRate: p.discountRate,
		lateInterestRate:         p.lateRate,
		version:                  1,
		createdAt:                now,
		updatedAt:                now,
	}, nil
}

func checkRate(name string, rate valueobject.Optional[decimal.Decimal]) error {
	if r, ok := rate.Get(); ok && (r.IsNegative() || r.GreaterThan(hundred)) {
		return invalidArgument("%s must be within [0, 100], got %s", name, r)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (c scheduleOwner) ID() string { return c.id }
func (c scheduleOwner) TenantID() string { return c.tenantID }
func (c scheduleOwner) Kind() valueobject.OwnerKind { return c.kind }
func (c scheduleOwner) Reference() string { return c.reference }
func (c scheduleOwner) Status() valueobject.OwnerStatus { return c.status }
func (c scheduleOwner) Terms() ScheduleTerms { return c.terms }
func (c scheduleOwner) Currency() money.Currency { return c.terms.Principal.Currency() }
func (c scheduleOwner) Accounts() valueobject.PostingAccounts { return c.accounts }
func (c scheduleOwner) Direction() valueobject.Direction { return c.direction }
func (c scheduleOwner) RestructureCount() int { return c.restructureCount }
func (c scheduleOwner) ClosedAt() valueobject.Optional[time.Time] { return c.closedAt }
func (c scheduleOwner) CancelReason() string { return c.cancelReason }
func (c scheduleOwner) EarlyPaymentDiscountRate() valueobject.Optional[decimal.Decimal] {
	return c.earlyPaymentDiscountRate
}
func (c scheduleOwner) LatePaymentInterestRate() valueobject.Optional[decimal.Decimal] {
	return c.lateInterestRate
}
func (c scheduleOwner) Version() int { return c.version }
func (c scheduleOwner) CreatedAt() time.Time { return c.createdAt }
func (c scheduleOwner) UpdatedAt() time.Time { return c.updatedAt }
func (c scheduleOwner) DomainEvents() []events.DomainEvent { return c.events.Events() }

// Schedule returns a copy of the live schedule, paid history included.
func (c scheduleOwner) Schedule() []ScheduleLine { return cloneLines(c.schedule) }

// SupersededLines returns the lines replaced by restructurings.
func (c scheduleOwner) SupersededLines() []SupersededLine {
	if c.superseded == nil {
		return nil
	}
	out := make([]SupersededLine, len(c.superseded))
	copy(out, c.superseded)
	return out
}

// Postings returns every posting request the owner has raised.
func (c scheduleOwner) Postings() []PostingRequest { return clonePostings(c.postings) }

// PendingPostings returns the requests not yet acknowledged by the journal.
func (c scheduleOwner) PendingPostings() []PostingRequest {
	var out []PostingRequest
	for _, p := range c.postings {
		if p.IsPending() {
			out = append(out, p)
		}
	}
	return out
}

func (c scheduleOwner) sumLines(f func(ScheduleLine) decimal.Decimal) money.Money {
	total := decimal.Zero
	for _, l := range c.schedule {
		if l.IsCancelled {
			continue
		}
		total = total.Add(f(l))
	}
	return money.New(total, c.Currency())
}

// PaidTotal is the cash allocated to the schedule so far.
func (c scheduleOwner) PaidTotal() money.Money {
	return c.sumLines(func(l ScheduleLine) decimal.Decimal { return l.Paid.Amount() })
}

// RemainingTotal is what the schedule still expects.
func (c scheduleOwner) RemainingTotal() money.Money {
	return c.sumLines(func(l ScheduleLine) decimal.Decimal { return l.Remaining.Amount() })
}

// TotalInterest is the interest carried by the schedule after discounts.
func (c scheduleOwner) TotalInterest() money.Money {
	return c.sumLines(func(l ScheduleLine) decimal.Decimal { return l.Interest.Amount() })
}

// TotalPrincipal is the principal carried by the schedule.
func (c scheduleOwner) TotalPrincipal() money.Money {
	return c.sumLines(func(l ScheduleLine) decimal.Decimal { return l.Principal.Amount() })
}

// OutstandingPrincipal is the principal not yet covered by payments.
func (c scheduleOwner) OutstandingPrincipal() money.Money {
	return c.sumLines(func(l ScheduleLine) decimal.Decimal {
		if !l.IsOpen() {
			return decimal.Zero
		}
		return l.OutstandingPrincipal().Amount()
	})
}

// unpaidAccruedInterest is the interest still owed on partially paid lines.
func (c scheduleOwner) unpaidAccruedInterest() decimal.Decimal {
	return c.sumLines(func(l ScheduleLine) decimal.Decimal {
		if !l.IsOpen() || !l.IsPartiallyPaid {
			return decimal.Zero
		}
		return l.OutstandingInterest().Amount()
	}).Amount()
}

// PaidInstallments counts fully paid lines.
func (c scheduleOwner) PaidInstallments() int {
	n := 0
	for _, l := range c.schedule {
		if l.IsPaid {
			n++
		}
	}
	return n
}

// NextDueLine returns the oldest open line.
func (c scheduleOwner) NextDueLine() (ScheduleLine, bool) {
	if i := nextOpen(c.schedule); i >= 0 {
		return c.schedule[i], true
	}
	return ScheduleLine{}, false
}

// OverdueLines lists open lines due before asOf.
func (c scheduleOwner) OverdueLines(asOf time.Time) []ScheduleLine {
	return overdueLines(c.schedule, asOf)
}

// LateInterest is read only. It returns zero when no late payment rate is set.
func (c scheduleOwner) LateInterest(asOf time.Time) money.Money {
	rate, ok := c.lateInterestRate.Get()
	if !ok {
		return money.Zero(c.Currency())
	}
	return lateInterest(c.schedule, c.Currency(), rate, asOf)
}

func (c scheduleOwner) base() scheduleOwner { return c }

func (c scheduleOwner) beforeActivate() error { return nil }

func (c scheduleOwner) preparePayment(p Payment) (money.Money, error) {
	return money.Zero(c.Currency()), nil
}

func (c scheduleOwner) stateBase() OwnerState {
	return OwnerState{
		ID:                       c.id,
		TenantID:                 c.tenantID,
		Kind:                     c.kind,
		Reference:                c.reference,
		Status:                   c.status,
		Terms:                    c.terms,
		Schedule:                 cloneLines(c.schedule),
		Superseded:               c.SupersededLines(),
		Postings:                 clonePostings(c.postings),
		Accounts:                 c.accounts,
		EarlyPaymentDiscountRate: c.earlyPaymentDiscountRate,
		LatePaymentInterestRate:  c.lateInterestRate,
		RestructureCount:         c.restructureCount,
		ClosedAt:                 c.closedAt,
		CancelReason:             c.cancelReason,
		Version:                  c.version,
		CreatedAt:                c.createdAt,
		UpdatedAt:                c.updatedAt,
	}
}

// ---------------------------------------------------------------------------
// Core commands
// ---------------------------------------------------------------------------

// begin returns a copy safe to mutate, with the events of the previous
// command dropped.
func (c scheduleOwner) begin(now time.Time) scheduleOwner {
	next := c
	next.schedule = cloneLines(c.schedule)
	next.superseded = c.SupersededLines()
	next.postings = clonePostings(c.postings)
	next.events = events.EventCollector{}
	next.updatedAt = now
	return next
}

func (c scheduleOwner) transition(to valueobject.OwnerStatus) (valueobject.OwnerStatus, error) {
	next, err := c.status.TransitionTo(to)
	if err != nil {
		return c.status, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return next, nil
}

func (c scheduleOwner) aggregateType() string { return c.kind.AggregateType() }

func (c scheduleOwner) activate(now time.Time) (scheduleOwner, error) {
	status, err := c.transition(valueobject.OwnerStatusActive)
	if err != nil {
		return c, err
	}
	next := c.begin(now)
	if len(next.schedule) == 0 {
		lines, err := GenerateSchedule(next.terms)
		if err != nil {
			return c, err
		}
		next.schedule = lines
		next.recordGenerated(len(lines))
	}
	next.status = status
	first := ""
	if len(next.schedule) > 0 {
		first = formatDate(next.schedule[0].DueDate)
	}
	next.events.Record(event.NewOwnerActivated(next.id, next.aggregateType(), next.tenantID, first))
	return next, nil
}

func (c *scheduleOwner) recordGenerated(lineCount int) {
	c.events.Record(event.NewScheduleGenerated(
		c.id, c.aggregateType(), c.tenantID, c.terms.Method.String(), c.terms.Frequency.String(),
		lineCount, c.terms.Principal.Amount(), c.TotalInterest().Amount(), c.Currency().Code(),
	))
}

func (c scheduleOwner) applyPayment(p Payment, penalty money.Money, now time.Time) (scheduleOwner, PaymentResult, error) {
	cur := c.Currency()
	if !c.status.AcceptsPayments() {
		return c, PaymentResult{}, invalidState("%s %s is %s", c.aggregateType(), c.id, c.status)
	}
	if p.Amount.Currency() != cur {
		return c, PaymentResult{}, currencyMismatch(cur, p.Amount.Currency())
	}
	if p.Mode.IsZero() {
		return c, PaymentResult{}, invalidArgument("payment mode is required")
	}

	applied, err := p.Amount.Subtract(penalty)
	if err != nil {
		return c, PaymentResult{}, err
	}

	lines, res, err := allocatePayment(c.schedule, cur, applied, p, c.earlyPaymentDiscountRate)
	if err != nil {
		return c, PaymentResult{}, err
	}
	res.Penalty = penalty

	next := c.begin(now)
	next.schedule = lines

	for _, a := range res.Allocations {
		if a.Interest.IsPositive() {
			next.addPosting(a.Sequence, valueobject.PostingKindInterest, p.Date, a.Interest)
		}
		if a.Principal.IsPositive() {
			next.addPosting(a.Sequence, next.principalKind, p.Date, a.Principal)
		}
	}
	if penalty.IsPositive() {
		next.addPosting(0, valueobject.PostingKindFee, p.Date, penalty)
	}

	remaining := next.RemainingTotal()
	next.events.Record(event.NewPaymentApplied(
		next.id, next.aggregateType(), next.tenantID, p.Mode.String(),
		p.Amount.Amount(), res.PrincipalTotal().Amount(), res.InterestTotal().Amount(),
		res.Discount.Amount(), penalty.Amount(), cur.Code(), res.Sequences(),
		remaining.Amount(), formatDate(p.Date), p.Reference,
	))

	if remaining.IsZero() {
		status, err := next.transition(valueobject.OwnerStatusClosed)
		if err != nil {
			return c, PaymentResult{}, err
		}
		next.status = status
		next.closedAt = valueobject.Some(now)
		next.events.Record(event.NewOwnerClosed(
			next.id, next.aggregateType(), next.tenantID, event.CloseReasonSettled, next.PaidTotal().Amount(), cur.Code(),
		))
	}

	return next, res, nil
}

func (c *scheduleOwner) addPosting(seq int, kind valueobject.PostingKind, date time.Time, amount money.Money) {
	c.postings = append(c.postings, newPostingRequest(
		seq, kind, date, c.accounts, c.direction, amount, postingMemo(c.kind, c.reference, seq, kind),
	))
}

// replaceTail keeps paid history, settles a partially paid line at what was
// paid, moves every open line to the superseded set and appends a schedule
// generated from tail.
func (c scheduleOwner) replaceTail(tail ScheduleTerms, now time.Time) (scheduleOwner, int, error) {
	next := c.begin(now)
	round := c.restructureCount + 1

	var kept []ScheduleLine
	var replaced []SupersededLine
	lastSeq := 0
	for _, l := range next.schedule {
		switch {
		case !l.IsOpen():
			kept = append(kept, l)
			lastSeq = l.Sequence
		case l.IsPartiallyPaid:
			original := l
			original.IsCancelled = true
			replaced = append(replaced, SupersededLine{Round: round, Line: original})
			kept = append(kept, l.settleAtPaid())
			lastSeq = l.Sequence
		default:
			l.IsCancelled = true
			replaced = append(replaced, SupersededLine{Round: round, Line: l})
		}
	}

	lines, err := generateLines(tail, lastSeq+1)
	if err != nil {
		return c, 0, err
	}

	next.schedule = append(kept, lines...)
	next.superseded = append(next.superseded, replaced...)
	next.restructureCount = round
	return next, len(replaced), nil
}

func (c scheduleOwner) restructure(rt RestructureTerms, now time.Time) (scheduleOwner, error) {
	status, err := c.transition(valueobject.OwnerStatusRestructured)
	if err != nil {
		return c, err
	}
	if rt.Date.IsZero() {
		return c, invalidArgument("restructure date is required")
	}
	if rt.FirstDueDate.Before(rt.Date) {
		return c, invalidArgument("first due date %s is before restructure date %s",
			formatDate(rt.FirstDueDate), formatDate(rt.Date))
	}
	outstanding := c.OutstandingPrincipal()
	if !outstanding.IsPositive() {
		return c, invalidState("%s %s has no outstanding principal to restructure", c.aggregateType(), c.id)
	}
	// Interest accrued on a partially paid line is capitalised into the new tail.
	carried := outstanding.Amount().Add(c.unpaidAccruedInterest())

	tail := ScheduleTerms{
		Principal:    money.New(carried.Add(c.terms.salvageAmount()), c.Currency()),
		Salvage:      c.terms.Salvage,
		AnnualRate:   rt.AnnualRate,
		TermCount:    rt.TermCount,
		Frequency:    c.terms.Frequency,
		Method:       c.terms.Method,
		FirstDueDate: rt.FirstDueDate,
		GracePeriods: rt.GracePeriods,
	}
	if !rt.Frequency.IsZero() {
		tail.Frequency = rt.Frequency
	}
	if !rt.Method.IsZero() {
		tail.Method = rt.Method
	}

	next, replaced, err := c.replaceTail(tail, now)
	if err != nil {
		return c, err
	}
	next.status = status
	next.terms.AnnualRate = tail.AnnualRate
	next.terms.TermCount = tail.TermCount
	next.terms.Frequency = tail.Frequency
	next.terms.Method = tail.Method
	next.terms.FirstDueDate = tail.FirstDueDate
	next.terms.GracePeriods = tail.GracePeriods
	next.events.Record(event.NewScheduleRestructured(
		next.id, next.aggregateType(), next.tenantID, carried, tail.AnnualRate,
		tail.TermCount, tail.Method.String(), replaced, next.Currency().Code(), formatDate(rt.Date),
	))
	return next, nil
}

func (c scheduleOwner) close(now time.Time) (scheduleOwner, error) {
	status, err := c.transition(valueobject.OwnerStatusClosed)
	if err != nil {
		return c, err
	}
	next := c.begin(now)
	next.status = status
	next.closedAt = valueobject.Some(now)
	next.events.Record(event.NewOwnerClosed(
		next.id, next.aggregateType(), next.tenantID, event.CloseReasonExplicit, next.PaidTotal().Amount(), next.Currency().Code(),
	))
	return next, nil
}

func (c scheduleOwner) cancel(reason string, now time.Time) (scheduleOwner, error) {
	if c.status.Equal(valueobject.OwnerStatusActive) && !c.PaidTotal().IsZero() {
		return c, invalidState("%s %s has payments and cannot be cancelled", c.aggregateType(), c.id)
	}
	status, err := c.transition(valueobject.OwnerStatusCancelled)
	if err != nil {
		return c, err
	}
	next := c.begin(now)
	for i := range next.schedule {
		if next.schedule[i].IsOpen() {
			next.schedule[i].IsCancelled = true
		}
	}
	next.status = status
	next.cancelReason = reason
	next.events.Record(event.NewOwnerCancelled(next.id, next.aggregateType(), next.tenantID, reason))
	return next, nil
}

func (c scheduleOwner) markDefaulted(now time.Time) (scheduleOwner, error) {
	status, err := c.transition(valueobject.OwnerStatusDefaulted)
	if err != nil {
		return c, err
	}
	next := c.begin(now)
	next.status = status
	next.events.Record(event.NewOwnerDefaulted(
		next.id, next.aggregateType(), next.tenantID, next.RemainingTotal().Amount(), next.Currency().Code(),
	))
	return next, nil
}

func (c scheduleOwner) markPosted(requestID, journalEntryID string, now time.Time) (scheduleOwner, error) {
	if journalEntryID == "" {
		return c, invalidArgument("journal entry ID is required")
	}
	i := c.postingIndex(requestID)
	if i < 0 {
		return c, invalidArgument("posting request %s not found", requestID)
	}
	if p := c.postings[i]; !p.IsPending() {
		if p.JournalEntryID == journalEntryID {
			same := c
			same.events = events.EventCollector{}
			return same, nil
		}
		return c, invalidState("posting request %s already posted as %s", requestID, p.JournalEntryID)
	}
	next := c.begin(now)
	next.postings[i].Status = valueobject.PostingStatusPosted
	next.postings[i].JournalEntryID = journalEntryID
	next.postings[i].Attempts++
	next.postings[i].LastError = ""
	return next, nil
}

func (c scheduleOwner) markPostingFailed(requestID, reason string, now time.Time) (scheduleOwner, error) {
	i := c.postingIndex(requestID)
	if i < 0 {
		return c, invalidArgument("posting request %s not found", requestID)
	}
	if !c.postings[i].IsPending() {
		return c, invalidState("posting request %s already posted", requestID)
	}
	next := c.begin(now)
	next.postings[i].Attempts++
	next.postings[i].LastError = reason
	return next, nil
}

func (c scheduleOwner) postingIndex(id string) int {
	for i, p := range c.postings {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// ---------------------------------------------------------------------------
// Package-level commands
// ---------------------------------------------------------------------------

func as[T Owner](o T, next scheduleOwner) T {
	return o.withBase(next).(T)
}

// Activate moves a draft owner to Active, generating its schedule unless one
// already exists.
func Activate[T Owner](o T, now time.Time) (T, error) {
	if err := o.beforeActivate(); err != nil {
		return o, err
	}
	next, err := o.base().activate(now)
	if err != nil {
		return o, err
	}
	return as(o, next), nil
}

// ApplyPayment allocates p against the schedule. The owner closes once
// nothing remains.
func ApplyPayment[T Owner](o T, p Payment, now time.Time) (T, PaymentResult, error) {
	penalty, err := o.preparePayment(p)
	if err != nil {
		return o, PaymentResult{}, err
	}
	next, res, err := o.base().applyPayment(p, penalty, now)
	if err != nil {
		return o, PaymentResult{}, err
	}
	return as(o, next), res, nil
}

// Restructure replaces the unpaid tail with a schedule generated from rt.
func Restructure[T Owner](o T, rt RestructureTerms, now time.Time) (T, error) {
	next, err := o.base().restructure(rt, now)
	if err != nil {
		return o, err
	}
	return as(o, next), nil
}

// Close closes the owner explicitly, leaving its lines untouched.
func Close[T Owner](o T, now time.Time) (T, error) {
	next, err := o.base().close(now)
	if err != nil {
		return o, err
	}
	return as(o, next), nil
}

// Cancel is allowed from Draft, or from Active before any payment.
func Cancel[T Owner](o T, reason string, now time.Time) (T, error) {
	next, err := o.base().cancel(reason, now)
	if err != nil {
		return o, err
	}
	return as(o, next), nil
}

// MarkDefaulted moves an active or restructured owner to Defaulted.
func MarkDefaulted[T Owner](o T, now time.Time) (T, error) {
	next, err := o.base().markDefaulted(now)
	if err != nil {
		return o, err
	}
	return as(o, next), nil
}

// MarkPosted records the journal entry id of a posting request. Repeating it
// with the same id is a no-op.
func MarkPosted[T Owner](o T, requestID, journalEntryID string, now time.Time) (T, error) {
	next, err := o.base().markPosted(requestID, journalEntryID, now)
	if err != nil {
		return o, err
	}
	return as(o, next), nil
}

// MarkPostingFailed counts a failed attempt and keeps the request pending.
func MarkPostingFailed[T Owner](o T, requestID, reason string, now time.Time) (T, error) {
	next, err := o.base().markPostingFailed(requestID, reason, now)
	if err != nil {
		return o, err
	}
	return as(o, next), nil
}

// PreviewSchedule generates the schedule the owner's terms would produce
// without changing the owner.
func PreviewSchedule(o Owner) ([]ScheduleLine, error) {
	return GenerateSchedule(o.Terms())
}
