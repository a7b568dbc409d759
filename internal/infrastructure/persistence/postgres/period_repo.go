package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
)

var _ port.AccountingPeriodGate = (*PeriodRepo)(nil)

// Period names a calendar month of one tenant's books. An empty Kind covers
// every transaction kind.
type Period struct {
	TenantID string
	Year     int
	Month    time.Month
	Kind     string
}

func (p Period) String() string {
	s := fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
	if p.Kind != "" {
		s += "/" + p.Kind
	}
	return s
}

// PeriodRepo is the closed_periods projection of the ledger's period events.
// A period without a row is open.
type PeriodRepo struct {
	pool *pgxpool.Pool
}

func NewPeriodRepo(pool *pgxpool.Pool) *PeriodRepo {
	return &PeriodRepo{pool: pool}
}

// CanPost reports whether the month containing date is open for kind.
func (r *PeriodRepo) CanPost(ctx context.Context, tenantID string, date time.Time, kind valueobject.TransactionKind) (bool, error) {
	var closed bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM closed_periods
			WHERE tenant_id = $1 AND year = $2 AND month = $3
			  AND transaction_kind IN ('', $4)
		)
	`, tenantID, date.Year(), int(date.Month()), kind.String()).Scan(&closed)
	if err != nil {
		return false, fmt.Errorf("check period: %w", err)
	}
	return !closed, nil
}

func (r *PeriodRepo) ClosePeriod(ctx context.Context, p Period, closedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO closed_periods (tenant_id, year, month, transaction_kind, closed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, year, month, transaction_kind) DO UPDATE SET
			closed_at = EXCLUDED.closed_at
	`, p.TenantID, p.Year, int(p.Month), p.Kind, closedAt)
	if err != nil {
		return fmt.Errorf("close period %s: %w", p, err)
	}
	return nil
}

func (r *PeriodRepo) ReopenPeriod(ctx context.Context, p Period) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM closed_periods
		WHERE tenant_id = $1 AND year = $2 AND month = $3 AND transaction_kind = $4
	`, p.TenantID, p.Year, int(p.Month), p.Kind)
	if err != nil {
		return fmt.Errorf("reopen period %s: %w", p, err)
	}
	return nil
}
