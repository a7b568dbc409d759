package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// Payment is an incoming amount to allocate against a schedule.
type Payment struct {
	Amount money.Money
	Date   time.Time
	Mode   valueobject.PaymentMode
	// Sequence optionally names the line a Regular or Partial payment targets.
	// It must be the next open line.
	Sequence  valueobject.Optional[int]
	Reference string
}

// LineAllocation is what one payment did to one line.
type LineAllocation struct {
	Sequence  int
	Principal money.Money
	Interest  money.Money
	Discount  money.Money
	Settled   bool
}

// PaymentResult summarises an applied payment.
type PaymentResult struct {
	Affected    []ScheduleLine
	Allocations []LineAllocation
	// Applied is the cash allocated to lines, Amount minus Penalty.
	Applied  money.Money
	Discount money.Money
	Penalty  money.Money
}

// Sequences lists the affected line numbers in allocation order.
func (r PaymentResult) Sequences() []int {
	out := make([]int, len(r.Allocations))
	for i, a := range r.Allocations {
		out[i] = a.Sequence
	}
	return out
}

// PrincipalTotal sums the principal allocated over all lines.
func (r PaymentResult) PrincipalTotal() money.Money {
	total := money.Zero(r.Applied.Currency())
	for _, a := range r.Allocations {
		total = money.New(total.Amount().Add(a.Principal.Amount()), total.Currency())
	}
	return total
}

// InterestTotal sums the interest allocated over all lines.
func (r PaymentResult) InterestTotal() money.Money {
	total := money.Zero(r.Applied.Currency())
	for _, a := range r.Allocations {
		total = money.New(total.Amount().Add(a.Interest.Amount()), total.Currency())
	}
	return total
}

func nextOpen(lines []ScheduleLine) int {
	for i, l := range lines {
		if l.IsOpen() {
			return i
		}
	}
	return -1
}

// allocatePayment applies amount in mode p.Mode to a copy of lines. It
// either returns the full result or an error and no changes.
func allocatePayment(
	lines []ScheduleLine,
	cur money.Currency,
	amount money.Money,
	p Payment,
	discountRate valueobject.Optional[decimal.Decimal],
) ([]ScheduleLine, PaymentResult, error) {
	if amount.Currency() != cur {
		return nil, PaymentResult{}, currencyMismatch(cur, amount.Currency())
	}
	if !amount.IsPositive() {
		return nil, PaymentResult{}, invalidArgument("payment amount must be positive, got %s", amount)
	}
	if !amount.Amount().Equal(amount.Round().Amount()) {
		return nil, PaymentResult{}, invalidArgument("payment amount %s has more precision than %s allows", amount.Amount(), cur)
	}
	if p.Date.IsZero() {
		return nil, PaymentResult{}, invalidArgument("payment date is required")
	}

	next := cloneLines(lines)
	idx := nextOpen(next)
	if idx < 0 {
		return nil, PaymentResult{}, ErrAlreadySettled
	}

	res := PaymentResult{Applied: amount, Discount: money.Zero(cur), Penalty: money.Zero(cur)}

	switch {
	case p.Mode.Equal(valueobject.PaymentModeRegular), p.Mode.Equal(valueobject.PaymentModePartial):
		if seq, ok := p.Sequence.Get(); ok {
			if err := checkTarget(next, idx, seq); err != nil {
				return nil, PaymentResult{}, err
			}
		}
		due := next[idx].Remaining.Amount()
		if p.Mode.Equal(valueobject.PaymentModeRegular) && !amount.Amount().Equal(due) {
			return nil, PaymentResult{}, invalidArgument(
				"regular payment must equal line %d remaining %s, got %s", next[idx].Sequence, next[idx].Remaining, amount)
		}
		if p.Mode.Equal(valueobject.PaymentModePartial) && !amount.Amount().LessThan(due) {
			return nil, PaymentResult{}, invalidArgument(
				"partial payment must be below line %d remaining %s, got %s", next[idx].Sequence, next[idx].Remaining, amount)
		}
		line, alloc := next[idx].pay(amount.Amount(), p.Date)
		next[idx] = line
		res.Affected = append(res.Affected, line)
		res.Allocations = append(res.Allocations, alloc)

	case p.Mode.Equal(valueobject.PaymentModePrepayment):
		if err := prepay(next, idx, amount, p.Date, discountRate, &res); err != nil {
			return nil, PaymentResult{}, err
		}

	default:
		return nil, PaymentResult{}, invalidArgument("unsupported payment mode %q", p.Mode)
	}

	return next, res, nil
}

func checkTarget(lines []ScheduleLine, open, seq int) error {
	for i, l := range lines {
		if l.Sequence != seq {
			continue
		}
		switch {
		case l.IsPaid:
			return ErrAlreadySettled
		case l.IsCancelled:
			return invalidState("line %d is cancelled", seq)
		case i != open:
			return invalidArgument("line %d is not the next unpaid line %d", seq, lines[open].Sequence)
		}
		return nil
	}
	return invalidArgument("schedule has no line %d", seq)
}

// prepay consumes open lines oldest first. A line that is not yet due earns
// the early payment discount on its outstanding interest, at the configured
// rate, when the cash settles it. The discount over all lines is capped at the
// rate applied to the interest still owed on lines not yet due.
func prepay(
	lines []ScheduleLine,
	from int,
	amount money.Money,
	date time.Time,
	discountRate valueobject.Optional[decimal.Decimal],
	res *PaymentResult,
) error {
	cur := amount.Currency()
	places := cur.MinorUnits()

	rate, discounted := discountRate.Get()
	discounted = discounted && rate.IsPositive()
	discountLeft := decimal.Zero
	if discounted {
		owed := decimal.Zero
		for _, l := range lines[from:] {
			if l.IsOpen() && earlyFor(l, date) {
				owed = owed.Add(l.OutstandingInterest().Amount())
			}
		}
		discountLeft = owed.Mul(rate).Div(hundred).Round(places)
	}

	cash := amount.Amount()
	waived := decimal.Zero

	for i := from; i < len(lines) && cash.IsPositive(); i++ {
		if !lines[i].IsOpen() {
			continue
		}
		line := lines[i]
		lineDiscount := decimal.Zero
		if discounted && earlyFor(line, date) {
			lineDiscount = decimal.Min(discountLeft,
				line.OutstandingInterest().Amount().Mul(rate).Div(hundred).Round(places))
			if cash.LessThan(line.Remaining.Amount().Sub(lineDiscount)) {
				lineDiscount = decimal.Zero
			}
		}
		if lineDiscount.IsPositive() {
			line = line.waiveInterest(lineDiscount)
			discountLeft = discountLeft.Sub(lineDiscount)
			waived = waived.Add(lineDiscount)
		}

		var alloc LineAllocation
		if line.Remaining.IsPositive() {
			pay := decimal.Min(cash, line.Remaining.Amount())
			line, alloc = line.pay(pay, date)
			cash = cash.Sub(pay)
		} else {
			line.PaymentDate = valueobject.Some(date)
			alloc = LineAllocation{
				Sequence:  line.Sequence,
				Principal: money.Zero(cur),
				Interest:  money.Zero(cur),
				Settled:   true,
			}
		}
		alloc.Discount = money.New(lineDiscount, cur)

		lines[i] = line
		res.Affected = append(res.Affected, line)
		res.Allocations = append(res.Allocations, alloc)
	}

	if cash.IsPositive() {
		return invalidArgument("prepayment %s exceeds the outstanding schedule by %s", amount, money.New(cash, cur))
	}
	res.Discount = money.New(waived, cur)
	return nil
}

// earlyFor reports whether the line's interest is still unaccrued on date.
func earlyFor(l ScheduleLine, date time.Time) bool {
	return DaysBetween(date, l.DueDate) > 0
}

// lateInterest is Σ remaining × monthlyRate% × ceil(daysOverdue/30) over the
// overdue open lines, rounded once.
func lateInterest(lines []ScheduleLine, cur money.Currency, monthlyRate decimal.Decimal, asOf time.Time) money.Money {
	if !monthlyRate.IsPositive() {
		return money.Zero(cur)
	}
	total := decimal.Zero
	for _, l := range lines {
		if !l.IsOverdue(asOf) {
			continue
		}
		days := DaysBetween(l.DueDate, asOf)
		months := decimal.NewFromInt(int64((days + 29) / 30))
		total = total.Add(l.Remaining.Amount().Mul(monthlyRate).Div(hundred).Mul(months))
	}
	return money.New(total, cur).Round()
}

func overdueLines(lines []ScheduleLine, asOf time.Time) []ScheduleLine {
	var out []ScheduleLine
	for _, l := range lines {
		if l.IsOverdue(asOf) {
			out = append(out, l)
		}
	}
	return out
}
