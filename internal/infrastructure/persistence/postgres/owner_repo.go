package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/events"
	"github.com/bibbank/finance-service/pkg/money"
	pgpkg "github.com/bibbank/finance-service/pkg/postgres"
)

const uniqueViolation = "23505"

// OwnerRepo implements port.OwnerRepository. Loans, plans and assets share
// one table; kind-specific attributes live in a JSONB column.
type OwnerRepo struct {
	pool *pgxpool.Pool
}

var _ port.OwnerRepository = (*OwnerRepo)(nil)

// NewOwnerRepo creates a new PostgreSQL-backed owner repository.
func NewOwnerRepo(pool *pgxpool.Pool) *OwnerRepo {
	return &OwnerRepo{pool: pool}
}

// Save persists an owner with its schedule, superseded lines and postings,
// and writes the domain events of its last command to the outbox in the same
// transaction. The stored row must carry owner.Version(); an update stores
// version+1.
func (r *OwnerRepo) Save(ctx context.Context, owner model.Owner) error {
	s := owner.State()
	attrs, err := marshalAttributes(s)
	if err != nil {
		return err
	}
	outbox, err := events.NewOutboxEntries(owner.DomainEvents()...)
	if err != nil {
		return err
	}
	accounts, err := json.Marshal(s.Accounts)
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}

	return pgpkg.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		ownerQuery := `
			INSERT INTO schedule_owners (
				id, tenant_id, kind, reference, status, currency,
				principal, salvage, annual_rate, term_count, frequency, method,
				first_due_date, grace_periods, accounts,
				early_payment_discount_rate, late_payment_interest_rate,
				restructure_count, closed_at, cancel_reason, attributes,
				version, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
			ON CONFLICT (id) DO UPDATE SET
				status                      = EXCLUDED.status,
				principal                   = EXCLUDED.principal,
				salvage                     = EXCLUDED.salvage,
				annual_rate                 = EXCLUDED.annual_rate,
				term_count                  = EXCLUDED.term_count,
				frequency                   = EXCLUDED.frequency,
				method                      = EXCLUDED.method,
				first_due_date              = EXCLUDED.first_due_date,
				grace_periods               = EXCLUDED.grace_periods,
				accounts                    = EXCLUDED.accounts,
				early_payment_discount_rate = EXCLUDED.early_payment_discount_rate,
				late_payment_interest_rate  = EXCLUDED.late_payment_interest_rate,
				restructure_count           = EXCLUDED.restructure_count,
				closed_at                   = EXCLUDED.closed_at,
				cancel_reason               = EXCLUDED.cancel_reason,
				attributes                  = EXCLUDED.attributes,
				version                     = schedule_owners.version + 1,
				updated_at                  = EXCLUDED.updated_at
			WHERE schedule_owners.version = $22 AND schedule_owners.tenant_id = $2
		`
		tag, err := tx.Exec(ctx, ownerQuery,
			s.ID, s.TenantID, s.Kind.String(), s.Reference, s.Status.String(), s.Terms.Principal.Currency().Code(),
			s.Terms.Principal.Amount(), salvageColumn(s.Terms.Salvage), s.Terms.AnnualRate, s.Terms.TermCount,
			s.Terms.Frequency.String(), s.Terms.Method.String(),
			s.Terms.FirstDueDate, s.Terms.GracePeriods, accounts,
			nullDecimal(s.EarlyPaymentDiscountRate), nullDecimal(s.LatePaymentInterestRate),
			s.RestructureCount, nullTime(s.ClosedAt), s.CancelReason, attrs,
			s.Version, s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s %s", port.ErrAlreadyExists, s.Kind, s.Reference)
			}
			return fmt.Errorf("save owner: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: owner %s at version %d", port.ErrConcurrentModification, s.ID, s.Version)
		}

		if err := replaceChildren(ctx, tx, s); err != nil {
			return err
		}
		return writeOutbox(ctx, tx, outbox)
	})
}

// replaceChildren rewrites the owner's lines and postings. Schedules are
// small and every command may touch any line, so rows are replaced wholesale.
func replaceChildren(ctx context.Context, tx pgx.Tx, s model.OwnerState) error {
	for _, table := range []string{"schedule_lines", "superseded_lines", "owner_postings"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE owner_id = $1", s.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for _, l := range s.Schedule {
		batch.Queue(`
			INSERT INTO schedule_lines (owner_id, sequence, `+lineColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			append([]any{s.ID, l.Sequence}, lineArgs(l)...)...)
	}
	for _, sl := range s.Superseded {
		batch.Queue(`
			INSERT INTO superseded_lines (owner_id, round, sequence, `+lineColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			append([]any{s.ID, sl.Round, sl.Line.Sequence}, lineArgs(sl.Line)...)...)
	}
	for i, p := range s.Postings {
		batch.Queue(`
			INSERT INTO owner_postings (
				id, owner_id, position, line_sequence, kind, posting_date,
				debit_account, credit_account, amount, memo, status,
				journal_entry_id, attempts, last_error
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			p.ID, s.ID, i, p.LineSequence, p.Kind.String(), p.Date,
			p.Debit.String(), p.Credit.String(), p.Amount.Amount(), p.Memo, p.Status.String(),
			p.JournalEntryID, p.Attempts, p.LastError,
		)
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save schedule rows: %w", err)
	}
	return nil
}

// FindByID retrieves an owner with its full schedule. Owners of other
// tenants are reported as not found.
func (r *OwnerRepo) FindByID(ctx context.Context, tenantID, id string) (model.Owner, error) {
	query := `
		SELECT id, tenant_id, kind, reference, status, currency,
		       principal, salvage, annual_rate, term_count, frequency, method,
		       first_due_date, grace_periods, accounts,
		       early_payment_discount_rate, late_payment_interest_rate,
		       restructure_count, closed_at, cancel_reason, attributes,
		       version, created_at, updated_at
		FROM schedule_owners
		WHERE tenant_id = $1 AND id = $2
	`
	s, err := scanOwner(r.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("owner %s: %w", id, port.ErrNotFound)
		}
		return nil, fmt.Errorf("find owner: %w", err)
	}
	cur := s.Terms.Principal.Currency()

	if s.Schedule, err = r.loadLines(ctx, id, cur); err != nil {
		return nil, err
	}
	if s.Superseded, err = r.loadSuperseded(ctx, id, cur); err != nil {
		return nil, err
	}
	if s.Postings, err = r.loadPostings(ctx, id, cur); err != nil {
		return nil, err
	}

	return model.ReconstructOwner(s)
}

// ListActiveAssets returns the ids of the tenant's fixed assets that still
// accept depreciation.
func (r *OwnerRepo) ListActiveAssets(ctx context.Context, tenantID string) ([]string, error) {
	query := `
		SELECT id FROM schedule_owners
		WHERE tenant_id = $1 AND kind = $2 AND status IN ($3, $4)
		ORDER BY id
	`
	return r.queryStrings(ctx, query, tenantID, valueobject.OwnerKindFixedAsset.String(),
		valueobject.OwnerStatusActive.String(), valueobject.OwnerStatusRestructured.String())
}

// ListTenantsWithActiveAssets returns every tenant holding at least one
// depreciable asset.
func (r *OwnerRepo) ListTenantsWithActiveAssets(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT tenant_id FROM schedule_owners
		WHERE kind = $1 AND status IN ($2, $3)
		ORDER BY tenant_id
	`
	return r.queryStrings(ctx, query, valueobject.OwnerKindFixedAsset.String(),
		valueobject.OwnerStatusActive.String(), valueobject.OwnerStatusRestructured.String())
}

func (r *OwnerRepo) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return out, nil
}

func scanOwner(row pgx.Row) (model.OwnerState, error) {
	var (
		s                                        model.OwnerState
		kind, status, currency, frequency, method string
		principal, annualRate                    decimal.Decimal
		salvage, discountRate, lateRate          decimal.NullDecimal
		firstDue, createdAt, updatedAt           time.Time
		closedAt                                 *time.Time
		accounts, attrs                          []byte
	)
	err := row.Scan(
		&s.ID, &s.TenantID, &kind, &s.Reference, &status, &currency,
		&principal, &salvage, &annualRate, &s.Terms.TermCount, &frequency, &method,
		&firstDue, &s.Terms.GracePeriods, &accounts,
		&discountRate, &lateRate,
		&s.RestructureCount, &closedAt, &s.CancelReason, &attrs,
		&s.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return s, err
	}

	cur, err := money.NewCurrency(currency)
	if err != nil {
		return s, fmt.Errorf("owner %s: %w", s.ID, err)
	}
	if s.Kind, err = valueobject.NewOwnerKind(kind); err != nil {
		return s, fmt.Errorf("owner %s: %w", s.ID, err)
	}
	if s.Status, err = valueobject.NewOwnerStatus(status); err != nil {
		return s, fmt.Errorf("owner %s: %w", s.ID, err)
	}
	if s.Terms.Frequency, err = valueobject.NewFrequency(frequency); err != nil {
		return s, fmt.Errorf("owner %s: %w", s.ID, err)
	}
	if method != "" {
		if s.Terms.Method, err = valueobject.NewMethod(method); err != nil {
			return s, fmt.Errorf("owner %s: %w", s.ID, err)
		}
	}
	if err := json.Unmarshal(accounts, &s.Accounts); err != nil {
		return s, fmt.Errorf("owner %s: accounts: %w", s.ID, err)
	}
	if err := unmarshalAttributes(&s, attrs); err != nil {
		return s, err
	}

	s.Terms.Principal = money.New(principal, cur)
	if salvage.Valid {
		s.Terms.Salvage = money.New(salvage.Decimal, cur)
	}
	s.Terms.AnnualRate = annualRate
	s.Terms.FirstDueDate = asDate(firstDue)
	s.EarlyPaymentDiscountRate = optionalDecimal(discountRate)
	s.LatePaymentInterestRate = optionalDecimal(lateRate)
	s.ClosedAt = optionalTime(closedAt)
	s.CreatedAt = createdAt.UTC()
	s.UpdatedAt = updatedAt.UTC()
	return s, nil
}

func (r *OwnerRepo) loadLines(ctx context.Context, ownerID string, cur money.Currency) ([]model.ScheduleLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sequence, `+lineColumns+`
		FROM schedule_lines WHERE owner_id = $1 ORDER BY sequence`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	defer rows.Close()

	var lines []model.ScheduleLine
	for rows.Next() {
		var seq int
		l, err := scanLine(rows, cur, &seq)
		if err != nil {
			return nil, fmt.Errorf("scan schedule line: %w", err)
		}
		l.Sequence = seq
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *OwnerRepo) loadSuperseded(ctx context.Context, ownerID string, cur money.Currency) ([]model.SupersededLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT round, sequence, `+lineColumns+`
		FROM superseded_lines WHERE owner_id = $1 ORDER BY round, sequence`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load superseded lines: %w", err)
	}
	defer rows.Close()

	var out []model.SupersededLine
	for rows.Next() {
		var round, seq int
		l, err := scanLine(rows, cur, &round, &seq)
		if err != nil {
			return nil, fmt.Errorf("scan superseded line: %w", err)
		}
		l.Sequence = seq
		out = append(out, model.SupersededLine{Round: round, Line: l})
	}
	return out, rows.Err()
}

func (r *OwnerRepo) loadPostings(ctx context.Context, ownerID string, cur money.Currency) ([]model.PostingRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, line_sequence, kind, posting_date, debit_account, credit_account,
		       amount, memo, status, journal_entry_id, attempts, last_error
		FROM owner_postings WHERE owner_id = $1 ORDER BY position`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load postings: %w", err)
	}
	defer rows.Close()

	var out []model.PostingRequest
	for rows.Next() {
		var (
			p                           model.PostingRequest
			kind, debit, credit, status string
			date                        time.Time
			amount                      decimal.Decimal
		)
		if err := rows.Scan(&p.ID, &p.LineSequence, &kind, &date, &debit, &credit,
			&amount, &p.Memo, &status, &p.JournalEntryID, &p.Attempts, &p.LastError); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		if p.Kind, err = valueobject.NewPostingKind(kind); err != nil {
			return nil, fmt.Errorf("posting %s: %w", p.ID, err)
		}
		if p.Status, err = valueobject.NewPostingStatus(status); err != nil {
			return nil, fmt.Errorf("posting %s: %w", p.ID, err)
		}
		if p.Debit, err = valueobject.NewAccountCode(debit); err != nil {
			return nil, fmt.Errorf("posting %s: %w", p.ID, err)
		}
		if p.Credit, err = valueobject.NewAccountCode(credit); err != nil {
			return nil, fmt.Errorf("posting %s: %w", p.ID, err)
		}
		p.Date = asDate(date)
		p.Amount = money.New(amount, cur)
		out = append(out, p)
	}
	return out, rows.Err()
}

// attributes is the JSONB column; only the block matching the kind is set.
type attributes struct {
	Loan  *model.LoanAttributes  `json:"loan,omitempty"`
	Plan  *model.PlanAttributes  `json:"plan,omitempty"`
	Asset *model.AssetAttributes `json:"asset,omitempty"`
}

func marshalAttributes(s model.OwnerState) ([]byte, error) {
	var a attributes
	switch {
	case s.Kind.Equal(valueobject.OwnerKindLoan):
		a.Loan = &s.Loan
	case s.Kind.Equal(valueobject.OwnerKindInstallmentPlan):
		a.Plan = &s.Plan
	case s.Kind.Equal(valueobject.OwnerKindFixedAsset):
		a.Asset = &s.Asset
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes of %s: %w", s.ID, err)
	}
	return b, nil
}

func unmarshalAttributes(s *model.OwnerState, data []byte) error {
	var a attributes
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("owner %s: attributes: %w", s.ID, err)
	}
	if a.Loan != nil {
		s.Loan = *a.Loan
	}
	if a.Plan != nil {
		s.Plan = *a.Plan
	}
	if a.Asset != nil {
		s.Asset = *a.Asset
		s.Asset.AcquisitionDate = s.Asset.AcquisitionDate.UTC()
	}
	return nil
}

// salvageColumn stores NULL for terms without a salvage floor.
func salvageColumn(m money.Money) decimal.NullDecimal {
	if m.Currency().IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(m.Amount())
}
