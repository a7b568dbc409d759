package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/pkg/money"
)

var _ port.ExchangeRatePort = (*ExchangeRateRepo)(nil)

// ExchangeRateRepo reads daily rates from exchange_rates. A pair without a
// direct quote falls back to the inverse of the opposite quote.
type ExchangeRateRepo struct {
	pool *pgxpool.Pool
}

func NewExchangeRateRepo(pool *pgxpool.Pool) *ExchangeRateRepo {
	return &ExchangeRateRepo{pool: pool}
}

// Rate returns the latest rate on or before date.
func (r *ExchangeRateRepo) Rate(ctx context.Context, from, to money.Currency, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rate, err := r.latest(ctx, from, to, date)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("exchange rate %s/%s: %w", from, to, err)
	}

	inverse, err := r.latest(ctx, to, from, date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("exchange rate %s/%s on %s: %w", from, to, date.Format(time.DateOnly), port.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("exchange rate %s/%s: %w", to, from, err)
	}
	return decimal.NewFromInt(1).DivRound(inverse, 10), nil
}

func (r *ExchangeRateRepo) latest(ctx context.Context, from, to money.Currency, date time.Time) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT rate FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND rate_date <= $3
		ORDER BY rate_date DESC
		LIMIT 1
	`, from.Code(), to.Code(), date).Scan(&rate)
	return rate, err
}

// SaveRate records the rate of one day, replacing an earlier quote.
func (r *ExchangeRateRepo) SaveRate(ctx context.Context, from, to money.Currency, date time.Time, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("exchange rate %s/%s must be positive, got %s", from, to, rate)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO exchange_rates (from_currency, to_currency, rate_date, rate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_currency, to_currency, rate_date) DO UPDATE SET rate = EXCLUDED.rate
	`, from.Code(), to.Code(), date, rate)
	if err != nil {
		return fmt.Errorf("save exchange rate: %w", err)
	}
	return nil
}
