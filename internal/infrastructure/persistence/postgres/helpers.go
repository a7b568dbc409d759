package postgres

import (
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// lineColumns are shared by schedule_lines and superseded_lines, after the key columns.
const lineColumns = `due_date, principal, interest, total, paid, remaining, remaining_balance,
	discount, is_paid, is_partially_paid, is_balloon, is_cancelled, payment_date`

func lineArgs(l model.ScheduleLine) []any {
	return []any{
		l.DueDate, l.Principal.Amount(), l.Interest.Amount(), l.Total.Amount(),
		l.Paid.Amount(), l.Remaining.Amount(), l.RemainingBalance.Amount(),
		l.Discount.Amount(), l.IsPaid, l.IsPartiallyPaid, l.IsBalloon, l.IsCancelled,
		nullTime(l.PaymentDate),
	}
}

// scanLine reads the key columns into keys, then the line columns.
func scanLine(rows pgx.Rows, cur money.Currency, keys ...any) (model.ScheduleLine, error) {
	var (
		l                                                         model.ScheduleLine
		due                                                       time.Time
		principal, interest, total, paid, remaining, balance, disc decimal.Decimal
		paymentDate                                               *time.Time
	)
	dest := append(keys, &due, &principal, &interest, &total, &paid, &remaining, &balance,
		&disc, &l.IsPaid, &l.IsPartiallyPaid, &l.IsBalloon, &l.IsCancelled, &paymentDate)
	if err := rows.Scan(dest...); err != nil {
		return l, err
	}

	l.DueDate = asDate(due)
	l.Principal = money.New(principal, cur)
	l.Interest = money.New(interest, cur)
	l.Total = money.New(total, cur)
	l.Paid = money.New(paid, cur)
	l.Remaining = money.New(remaining, cur)
	l.RemainingBalance = money.New(balance, cur)
	l.Discount = money.New(disc, cur)
	l.PaymentDate = optionalTime(paymentDate)
	return l, nil
}

func nullDecimal(o valueobject.Optional[decimal.Decimal]) decimal.NullDecimal {
	if v, ok := o.Get(); ok {
		return decimal.NewNullDecimal(v)
	}
	return decimal.NullDecimal{}
}

func optionalDecimal(d decimal.NullDecimal) valueobject.Optional[decimal.Decimal] {
	if !d.Valid {
		return valueobject.None[decimal.Decimal]()
	}
	return valueobject.Some(d.Decimal)
}

func nullTime(o valueobject.Optional[time.Time]) *time.Time {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

func optionalTime(t *time.Time) valueobject.Optional[time.Time] {
	if t == nil {
		return valueobject.None[time.Time]()
	}
	return valueobject.Some(t.UTC())
}

// asDate normalises a DATE column to midnight UTC.
func asDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
