package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/application/usecase"
	"github.com/bibbank/finance-service/internal/domain/event"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/testutil"
)

func TestCreateLoan_Execute(t *testing.T) {
	t.Run("creates an active loan with its schedule", func(t *testing.T) {
		f := newFixture()
		resp := createLoan(t, f, "TRY")

		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "LOAN", resp.Kind)
		assert.Equal(t, "ACTIVE", resp.Status)
		assert.Equal(t, 1, resp.Version)
		require.Len(t, resp.Schedule, 3)
		testutil.AssertDecimal(t, "1030", resp.Schedule[0].Total)
		testutil.AssertDecimal(t, "60", resp.TotalInterest)
		require.NotNil(t, resp.Loan)
		assert.Equal(t, "Ziraat Bankasi", resp.Loan.Lender)

		assert.Equal(t, 1, f.repo.saves)
		assert.Contains(t, f.publisher.types(), event.TypeScheduleGenerated)
	})

	t.Run("creates a draft without a schedule", func(t *testing.T) {
		f := newFixture()
		resp, err := usecase.NewCreateLoanUseCase(f.deps()).Execute(context.Background(), dto.CreateLoanRequest{
			TenantID:     tenantID,
			LoanNumber:   "KR-2025-002",
			Lender:       "Garanti",
			Principal:    dec("5000"),
			Currency:     "TRY",
			AnnualRate:   dec("24"),
			TermCount:    6,
			Frequency:    "MONTHLY",
			Method:       "ANNUITY",
			FirstDueDate: testutil.Date(2025, 2, 1),
		})

		require.NoError(t, err)
		assert.Equal(t, "DRAFT", resp.Status)
		assert.Empty(t, resp.Schedule)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(*dto.CreateLoanRequest)
		}{
			{"bad currency", func(r *dto.CreateLoanRequest) { r.Currency = "lira" }},
			{"bad frequency", func(r *dto.CreateLoanRequest) { r.Frequency = "DAILY" }},
			{"bad method", func(r *dto.CreateLoanRequest) { r.Method = "RULE_OF_78" }},
			{"zero terms", func(r *dto.CreateLoanRequest) { r.TermCount = 0 }},
			{"negative principal", func(r *dto.CreateLoanRequest) { r.Principal = dec("-1") }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				req := dto.CreateLoanRequest{
					TenantID:     tenantID,
					LoanNumber:   "KR-2025-003",
					Lender:       "Akbank",
					Principal:    dec("1000"),
					Currency:     "TRY",
					AnnualRate:   dec("10"),
					TermCount:    2,
					Frequency:    "MONTHLY",
					Method:       "ANNUITY",
					FirstDueDate: testutil.Date(2025, 2, 1),
				}
				tt.modify(&req)

				_, err := usecase.NewCreateLoanUseCase(f.deps()).Execute(context.Background(), req)

				assert.ErrorIs(t, err, model.ErrInvalidArgument)
				assert.Zero(t, f.repo.saves)
			})
		}
	})
}

func TestCreateInstallmentPlan_Execute(t *testing.T) {
	f := newFixture()
	resp, err := usecase.NewCreateInstallmentPlanUseCase(f.deps()).Execute(context.Background(), dto.CreateInstallmentPlanRequest{
		TenantID:         tenantID,
		PlanNumber:       "TS-2025-014",
		PlanType:         "SALES",
		Counterparty:     "Acme Ltd",
		TotalAmount:      dec("3500"),
		DownPayment:      decPtr("500"),
		Currency:         "TRY",
		AnnualRate:       dec("0"),
		InstallmentCount: 3,
		Frequency:        "MONTHLY",
		FirstDueDate:     testutil.Date(2025, 2, 1),
		Activate:         true,
	})

	require.NoError(t, err)
	assert.Equal(t, "INSTALLMENT_PLAN", resp.Kind)
	require.NotNil(t, resp.Plan)
	assert.Equal(t, "RECEIVABLE", resp.Plan.Direction)
	testutil.AssertDecimal(t, "1000", resp.Plan.InstallmentAmount)
	require.Len(t, resp.Schedule, 3)

	t.Run("rejects an unknown plan type", func(t *testing.T) {
		_, err := usecase.NewCreateInstallmentPlanUseCase(f.deps()).Execute(context.Background(), dto.CreateInstallmentPlanRequest{
			TenantID: tenantID, PlanType: "LEASE", TotalAmount: dec("100"), Currency: "TRY",
		})
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})
}

func TestLifecycle_Execute(t *testing.T) {
	t.Run("activates a draft", func(t *testing.T) {
		f := newFixture()
		draft, err := usecase.NewCreateLoanUseCase(f.deps()).Execute(context.Background(), dto.CreateLoanRequest{
			TenantID: tenantID, LoanNumber: "KR-1", Lender: "Akbank", Principal: dec("1200"), Currency: "TRY",
			AnnualRate: dec("0"), TermCount: 12, Frequency: "MONTHLY", Method: "EQUAL_PRINCIPAL", FirstDueDate: testutil.Date(2025, 2, 1),
		})
		require.NoError(t, err)

		resp, err := usecase.NewActivateUseCase(f.deps()).Execute(context.Background(),
			dto.OwnerRequest{TenantID: tenantID, OwnerID: draft.ID})

		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", resp.Status)
		assert.Len(t, resp.Schedule, 12)
		assert.Equal(t, 2, f.repo.state(draft.ID).Version)
	})

	t.Run("activating twice is an invalid state", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")

		_, err := usecase.NewActivateUseCase(f.deps()).Execute(context.Background(),
			dto.OwnerRequest{TenantID: tenantID, OwnerID: loan.ID})

		assert.ErrorIs(t, err, model.ErrInvalidState)
	})

	t.Run("restructures the open tail", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")

		resp, err := usecase.NewRestructureUseCase(f.deps()).Execute(context.Background(), dto.RestructureRequest{
			TenantID:     tenantID,
			OwnerID:      loan.ID,
			Date:         testutil.Date(2025, 1, 15),
			AnnualRate:   dec("12"),
			TermCount:    4,
			FirstDueDate: testutil.Date(2025, 2, 28),
		})

		require.NoError(t, err)
		assert.Equal(t, "RESTRUCTURED", resp.Status)
		assert.Equal(t, 1, resp.RestructureCount)
		require.Len(t, resp.Schedule, 4)
		testutil.AssertDecimal(t, "750", resp.Schedule[0].Principal)
		assert.Len(t, resp.Superseded, 3)
		assert.Contains(t, f.publisher.types(), event.TypeScheduleRestructured)
	})

	t.Run("restructure honours the period gate", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")
		f.gate.closed = func(_ time.Time, kind valueobject.TransactionKind) bool {
			return kind.Equal(valueobject.TransactionKindScheduleRestructure)
		}

		_, err := usecase.NewRestructureUseCase(f.deps()).Execute(context.Background(), dto.RestructureRequest{
			TenantID: tenantID, OwnerID: loan.ID, Date: testutil.Date(2025, 1, 15),
			AnnualRate: dec("12"), TermCount: 4, FirstDueDate: testutil.Date(2025, 2, 28),
		})

		assert.ErrorIs(t, err, model.ErrPeriodClosed)
		assert.Equal(t, 1, f.repo.state(loan.ID).Version)
	})

	t.Run("cancels an unpaid owner", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")

		resp, err := usecase.NewCancelUseCase(f.deps()).Execute(context.Background(),
			dto.CancelRequest{TenantID: tenantID, OwnerID: loan.ID, Reason: "customer withdrew"})

		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.Contains(t, f.publisher.types(), event.TypeOwnerCancelled)
	})

	t.Run("refuses to cancel after a payment", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")
		_, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "TRY"))
		require.NoError(t, err)

		_, err = usecase.NewCancelUseCase(f.deps()).Execute(context.Background(),
			dto.CancelRequest{TenantID: tenantID, OwnerID: loan.ID})

		assert.ErrorIs(t, err, model.ErrInvalidState)
		assert.Contains(t, err.Error(), "cancel")
	})

	t.Run("marks defaulted then closes", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")
		req := dto.OwnerRequest{TenantID: tenantID, OwnerID: loan.ID}

		resp, err := usecase.NewMarkDefaultedUseCase(f.deps()).Execute(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "DEFAULTED", resp.Status)

		_, err = usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "TRY"))
		assert.ErrorIs(t, err, model.ErrInvalidState)

		resp, err = usecase.NewCloseUseCase(f.deps()).Execute(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "CLOSED", resp.Status)
	})
}
