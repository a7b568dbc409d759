package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// ScheduleLine is one dated obligation of a schedule. Within a line, cash is
// allocated to interest before principal.
//
// Invariants: Total = Principal + Interest, Remaining = Total - Paid >= 0,
// IsPaid implies Remaining is zero.
type ScheduleLine struct {
	Sequence  int
	DueDate   time.Time
	Principal money.Money
	Interest  money.Money
	Total     money.Money
	Paid      money.Money
	Remaining money.Money
	// RemainingBalance is the outstanding principal once this line's principal is settled.
	RemainingBalance money.Money
	// Discount is interest waived on this line by an early payment.
	Discount        money.Money
	IsPaid          bool
	IsPartiallyPaid bool
	IsBalloon       bool
	IsCancelled     bool
	PaymentDate     valueobject.Optional[time.Time]
}

func newScheduleLine(seq int, due time.Time, principal, interest, balance decimal.Decimal, cur money.Currency) ScheduleLine {
	total := principal.Add(interest)
	return ScheduleLine{
		Sequence:         seq,
		DueDate:          due,
		Principal:        money.New(principal, cur),
		Interest:         money.New(interest, cur),
		Total:            money.New(total, cur),
		Paid:             money.Zero(cur),
		Remaining:        money.New(total, cur),
		RemainingBalance: money.New(balance, cur),
		Discount:         money.Zero(cur),
	}
}

// IsOpen reports whether the line still expects cash.
func (l ScheduleLine) IsOpen() bool { return !l.IsPaid && !l.IsCancelled }

// InterestPaid is the part of Paid allocated to interest.
func (l ScheduleLine) InterestPaid() money.Money {
	return money.New(decimal.Min(l.Paid.Amount(), l.Interest.Amount()), l.Interest.Currency())
}

// PrincipalPaid is the part of Paid allocated to principal.
func (l ScheduleLine) PrincipalPaid() money.Money {
	return money.New(l.Paid.Amount().Sub(l.InterestPaid().Amount()), l.Paid.Currency())
}

// OutstandingInterest is the interest not yet covered by Paid.
func (l ScheduleLine) OutstandingInterest() money.Money {
	return money.New(l.Interest.Amount().Sub(l.InterestPaid().Amount()), l.Interest.Currency())
}

// OutstandingPrincipal is the principal not yet covered by Paid.
func (l ScheduleLine) OutstandingPrincipal() money.Money {
	return money.New(l.Principal.Amount().Sub(l.PrincipalPaid().Amount()), l.Principal.Currency())
}

// IsOverdue reports whether the line is open and its due date is before asOf.
func (l ScheduleLine) IsOverdue(asOf time.Time) bool {
	return l.IsOpen() && DaysBetween(l.DueDate, asOf) > 0
}

// pay allocates amount (at most Remaining) to the line.
func (l ScheduleLine) pay(amount decimal.Decimal, date time.Time) (ScheduleLine, LineAllocation) {
	cur := l.Total.Currency()
	toInterest := decimal.Min(amount, l.OutstandingInterest().Amount())
	toPrincipal := amount.Sub(toInterest)

	l.Paid = money.New(l.Paid.Amount().Add(amount), cur)
	l.Remaining = money.New(l.Remaining.Amount().Sub(amount), cur)
	l.IsPaid = l.Remaining.IsZero()
	l.IsPartiallyPaid = !l.IsPaid && l.Paid.IsPositive()
	l.PaymentDate = valueobject.Some(date)

	return l, LineAllocation{
		Sequence:  l.Sequence,
		Principal: money.New(toPrincipal, cur),
		Interest:  money.New(toInterest, cur),
		Discount:  money.Zero(cur),
		Settled:   l.IsPaid,
	}
}

// waiveInterest removes amount (at most OutstandingInterest) from the line's interest.
func (l ScheduleLine) waiveInterest(amount decimal.Decimal) ScheduleLine {
	cur := l.Interest.Currency()
	l.Interest = money.New(l.Interest.Amount().Sub(amount), cur)
	l.Total = money.New(l.Total.Amount().Sub(amount), cur)
	l.Remaining = money.New(l.Remaining.Amount().Sub(amount), cur)
	l.Discount = money.New(l.Discount.Amount().Add(amount), cur)
	if l.Remaining.IsZero() {
		l.IsPaid = true
		l.IsPartiallyPaid = false
	}
	return l
}

// settleAtPaid shrinks a partially paid line to what was actually paid.
func (l ScheduleLine) settleAtPaid() ScheduleLine {
	cur := l.Total.Currency()
	unpaidPrincipal := l.OutstandingPrincipal().Amount()
	l.Principal = l.PrincipalPaid()
	l.Interest = l.InterestPaid()
	l.Total = l.Paid
	l.Remaining = money.Zero(cur)
	l.RemainingBalance = money.New(l.RemainingBalance.Amount().Add(unpaidPrincipal), cur)
	l.IsPaid = true
	l.IsPartiallyPaid = false
	return l
}

// DaysBetween counts calendar days from a to b, ignoring clock time.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func cloneLines(lines []ScheduleLine) []ScheduleLine {
	if lines == nil {
		return nil
	}
	out := make([]ScheduleLine, len(lines))
	copy(out, lines)
	return out
}
