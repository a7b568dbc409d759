package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
)

// ScheduleTerms is everything the calculator needs to materialise a schedule.
type ScheduleTerms struct {
	Principal money.Money
	// Salvage is the balance floor. Zero for loans and installment plans.
	Salvage money.Money
	// AnnualRate is a percentage, 12 means 12% per year.
	AnnualRate   decimal.Decimal
	TermCount    int
	Frequency    valueobject.Frequency
	Method       valueobject.Method
	FirstDueDate time.Time
	// GracePeriods leading periods carry interest only.
	GracePeriods int
}

// PeriodRate returns annualRate / 100 / periodsPerYear.
func (t ScheduleTerms) PeriodRate() decimal.Decimal {
	if t.Frequency.IsZero() {
		return decimal.Zero
	}
	return t.AnnualRate.Div(hundred).Div(decimal.NewFromInt(int64(t.Frequency.PeriodsPerYear())))
}

func (t ScheduleTerms) salvageAmount() decimal.Decimal {
	if t.Salvage.Currency().IsZero() {
		return decimal.Zero
	}
	return t.Salvage.Amount()
}

// Validate checks the terms without generating anything.
func (t ScheduleTerms) Validate() error {
	cur := t.Principal.Currency()
	if cur.IsZero() {
		return invalidArgument("principal currency is required")
	}
	if !t.Principal.IsPositive() {
		return invalidArgument("principal must be positive, got %s", t.Principal)
	}
	if !t.Principal.Amount().Equal(t.Principal.Round().Amount()) {
		return invalidArgument("principal %s has more precision than %s allows", t.Principal.Amount(), cur)
	}
	if t.TermCount <= 0 {
		return invalidArgument("term count must be positive, got %d", t.TermCount)
	}
	if t.AnnualRate.IsNegative() {
		return invalidArgument("annual rate must not be negative, got %s", t.AnnualRate)
	}
	if t.Frequency.IsZero() {
		return invalidArgument("frequency is required")
	}
	if _, ok := allocators[t.Method]; !ok {
		return invalidArgument("unsupported schedule method %q", t.Method)
	}
	if t.FirstDueDate.IsZero() {
		return invalidArgument("first due date is required")
	}
	if !t.Salvage.Currency().IsZero() {
		if t.Salvage.Currency() != cur {
			return currencyMismatch(cur, t.Salvage.Currency())
		}
		if t.Salvage.IsNegative() {
			return invalidArgument("salvage value must not be negative")
		}
		if t.Salvage.Amount().GreaterThanOrEqual(t.Principal.Amount()) {
			return invalidArgument("salvage value %s must be below principal %s", t.Salvage, t.Principal)
		}
		if !t.Salvage.Amount().Equal(t.Salvage.Round().Amount()) {
			return invalidArgument("salvage %s has more precision than %s allows", t.Salvage.Amount(), cur)
		}
	}
	if t.GracePeriods < 0 || t.GracePeriods >= t.TermCount {
		return invalidArgument("grace periods must be in [0, %d), got %d", t.TermCount, t.GracePeriods)
	}
	if t.GracePeriods > 0 && !t.Method.SupportsGracePeriod() {
		return invalidArgument("method %s does not support grace periods", t.Method)
	}
	return nil
}

// GenerateSchedule turns terms into an ordered list of lines numbered from 1.
//
// It is pure and deterministic. Every portion is rounded to the currency's
// minor unit and the last line absorbs the residual, so the principal
// portions sum to Principal - Salvage exactly.
func GenerateSchedule(t ScheduleTerms) ([]ScheduleLine, error) {
	return generateLines(t, 1)
}

func generateLines(t ScheduleTerms, firstSeq int) ([]ScheduleLine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	cur := t.Principal.Currency()
	places := cur.MinorUnits()
	rate := t.PeriodRate()
	salvage := t.salvageAmount()
	n := t.TermCount
	grace := t.GracePeriods

	alloc, err := allocators[t.Method](allocationInput{
		principal:  t.Principal.Amount(),
		salvage:    salvage,
		periodRate: rate,
		annualRate: t.AnnualRate,
		periods:    n - grace,
		frequency:  t.Frequency,
		places:     places,
	})
	if err != nil {
		return nil, err
	}

	balance := t.Principal.Amount()
	lines := make([]ScheduleLine, 0, n)

	for i := 0; i < n; i++ {
		var principal, interest decimal.Decimal
		if i < grace {
			interest = balance.Mul(rate)
		} else {
			principal, interest = alloc(i-grace, balance)
		}
		principal = principal.Round(places)
		interest = interest.Round(places)

		room := balance.Sub(salvage)
		switch {
		case i == n-1:
			principal = room
		case principal.IsNegative():
			principal = decimal.Zero
		case principal.GreaterThan(room):
			principal = room
		}
		if interest.IsNegative() {
			interest = decimal.Zero
		}

		balance = balance.Sub(principal)

		line := newScheduleLine(firstSeq+i, t.Frequency.DueDate(t.FirstDueDate, i), principal, interest, balance, cur)
		line.IsBalloon = i == n-1 && t.Method.Equal(valueobject.MethodInterestOnly)
		lines = append(lines, line)
	}

	return lines, nil
}

// ---------------------------------------------------------------------------
// Method dispatch
// ---------------------------------------------------------------------------

type allocationInput struct {
	principal  decimal.Decimal
	salvage    decimal.Decimal
	periodRate decimal.Decimal
	annualRate decimal.Decimal
	periods    int
	frequency  valueobject.Frequency
	places     int32
}

// periodAllocator returns the unrounded principal and interest portions of
// the period at index, given the balance outstanding at its start.
type periodAllocator func(index int, balance decimal.Decimal) (principal, interest decimal.Decimal)

type allocatorFactory func(in allocationInput) (periodAllocator, error)

// allocators is the single dispatch table from method to calculation.
var allocators = map[valueobject.Method]allocatorFactory{
	valueobject.MethodStraightLine:           straightLine,
	valueobject.MethodEqualPrincipal:         equalPrincipal,
	valueobject.MethodAnnuity:                annuity,
	valueobject.MethodDecliningBalance:       decliningBalance(one),
	valueobject.MethodDoubleDecliningBalance: decliningBalance(two),
	valueobject.MethodSumOfYearsDigits:       sumOfYearsDigits,
	valueobject.MethodBullet:                 interestOnly,
	valueobject.MethodInterestOnly:           interestOnly,
	valueobject.MethodSimpleInterest:         simpleInterest,
}

func straightLine(in allocationInput) (periodAllocator, error) {
	per := in.principal.Sub(in.salvage).Div(decimal.NewFromInt(int64(in.periods)))
	flat := in.principal.Mul(in.periodRate)
	return func(int, decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		return per, flat
	}, nil
}

func equalPrincipal(in allocationInput) (periodAllocator, error) {
	per := in.principal.Sub(in.salvage).Div(decimal.NewFromInt(int64(in.periods)))
	return func(_ int, balance decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		return per, balance.Mul(in.periodRate)
	}, nil
}

func annuity(in allocationInput) (periodAllocator, error) {
	n := decimal.NewFromInt(int64(in.periods))
	if in.periodRate.IsZero() {
		per := in.principal.Div(n)
		return func(int, decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
			return per, decimal.Zero
		}, nil
	}

	factor := one.Add(in.periodRate).Pow(n)
	installment := in.principal.Mul(in.periodRate).Mul(factor).Div(factor.Sub(one)).Round(in.places)

	return func(_ int, balance decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		interest := balance.Mul(in.periodRate).Round(in.places)
		return installment.Sub(interest), interest
	}, nil
}

func decliningBalance(multiplier decimal.Decimal) allocatorFactory {
	return func(in allocationInput) (periodAllocator, error) {
		if !in.periodRate.IsPositive() {
			return nil, invalidArgument("declining balance methods need a positive rate")
		}
		rate := in.periodRate.Mul(multiplier)
		return func(_ int, balance decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
			return balance.Mul(rate), decimal.Zero
		}, nil
	}
}

func sumOfYearsDigits(in allocationInput) (periodAllocator, error) {
	perYear := in.frequency.PeriodsPerYear()
	years := (in.periods + perYear - 1) / perYear
	digits := decimal.NewFromInt(int64(years * (years + 1) / 2))
	depreciable := in.principal.Sub(in.salvage)
	ppy := decimal.NewFromInt(int64(perYear))

	return func(index int, _ decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		remainingYears := decimal.NewFromInt(int64(years - index/perYear))
		yearly := depreciable.Mul(remainingYears).Div(digits)
		return yearly.Div(ppy), decimal.Zero
	}, nil
}

// interestOnly serves Bullet and InterestOnly; the loop puts the whole
// principal on the last line.
func interestOnly(in allocationInput) (periodAllocator, error) {
	return func(_ int, balance decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		return decimal.Zero, balance.Mul(in.periodRate)
	}, nil
}

// simpleInterest charges financed x monthly rate x months once and spreads it
// evenly; the last line takes the rounding residual of the interest too.
func simpleInterest(in allocationInput) (periodAllocator, error) {
	n := decimal.NewFromInt(int64(in.periods))
	months := decimal.NewFromInt(int64(in.frequency.MonthsIn(in.periods)))
	monthlyRate := in.annualRate.Div(hundred).Div(twelve)
	total := in.principal.Mul(monthlyRate).Mul(months).Round(in.places)
	per := total.Div(n).Round(in.places)
	last := total.Sub(per.Mul(n.Sub(one)))
	principal := in.principal.Div(n)

	return func(index int, _ decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		if index == in.periods-1 {
			return principal, last
		}
		return principal, per
	}, nil
}

// SimpleInterestTotal returns the flat interest a simple-interest plan charges.
func SimpleInterestTotal(financed money.Money, annualRate decimal.Decimal, freq valueobject.Frequency, n int) money.Money {
	months := decimal.NewFromInt(int64(freq.MonthsIn(n)))
	return financed.Multiply(annualRate.Div(hundred).Div(twelve).Mul(months)).Round()
}
