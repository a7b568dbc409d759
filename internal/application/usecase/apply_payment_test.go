package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/application/usecase"
	"github.com/bibbank/finance-service/internal/domain/event"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/events"
	"github.com/bibbank/finance-service/pkg/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(i int) *int { return &i }

// createLoan stores an active 3000 TRY equal-principal loan at 12% over
// three months: each line is 1000 principal plus interest on the balance.
func createLoan(t *testing.T, f *fixture, currency string) dto.OwnerResponse {
	t.Helper()
	resp, err := usecase.NewCreateLoanUseCase(f.deps()).Execute(context.Background(), dto.CreateLoanRequest{
		TenantID:     tenantID,
		LoanNumber:   "KR-2025-001",
		Lender:       "Ziraat Bankasi",
		Principal:    dec("3000"),
		Currency:     currency,
		AnnualRate:   dec("12"),
		TermCount:    3,
		Frequency:    "MONTHLY",
		Method:       "EQUAL_PRINCIPAL",
		FirstDueDate: testutil.Date(2025, 1, 31),
		Activate:     true,
	})
	require.NoError(t, err)
	return resp
}

func payFirstLine(ownerID, currency string) dto.ApplyPaymentRequest {
	return dto.ApplyPaymentRequest{
		TenantID: tenantID,
		OwnerID:  ownerID,
		Amount:   dec("1030"),
		Currency: currency,
		Date:     testutil.Date(2025, 1, 31),
		Mode:     "REGULAR",
		Sequence: intPtr(1),
	}
}

func TestApplyPayment_Execute(t *testing.T) {
	t.Run("applies a regular installment and books it", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")

		resp, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "TRY"))

		require.NoError(t, err)
		assert.Equal(t, loan.ID, resp.OwnerID)
		assert.Equal(t, "ACTIVE", resp.Status)
		testutil.AssertDecimal(t, "1030", resp.Applied)
		testutil.AssertDecimal(t, "1000", resp.Principal)
		testutil.AssertDecimal(t, "30", resp.Interest)
		assert.Equal(t, []int{1}, resp.Sequences)
		assert.Zero(t, resp.PendingPostings)

		entries := f.journal.posted()
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, loan.ID, e.OwnerID)
			assert.Equal(t, "KR-2025-001", e.Reference)
			assert.True(t, e.Amount.Equal(e.FunctionalAmount))
			testutil.AssertDecimal(t, "1", e.ExchangeRate)
		}

		stored := f.repo.state(loan.ID)
		assert.Equal(t, 3, stored.Version, "create, payment and posting saves")
		for _, p := range stored.Postings {
			assert.Equal(t, valueobject.PostingStatusPosted, p.Status)
			assert.NotEmpty(t, p.JournalEntryID)
		}
		assert.Contains(t, f.publisher.types(), event.TypePaymentApplied)
	})

	t.Run("converts foreign currency postings", func(t *testing.T) {
		f := newFixture()
		f.rates.rate = dec("30")
		loan := createLoan(t, f, "USD")

		_, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "USD"))
		require.NoError(t, err)

		var functional []string
		for _, e := range f.journal.posted() {
			assert.Equal(t, "TRY", e.FunctionalAmount.Currency().Code())
			testutil.AssertDecimal(t, "30", e.ExchangeRate)
			functional = append(functional, e.FunctionalAmount.Amount().String())
		}
		assert.ElementsMatch(t, []string{"30000", "900"}, functional)
	})

	t.Run("keeps the payment when the journal is down", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")
		f.journal.postFunc = func(context.Context, port.JournalEntry) error {
			return fmt.Errorf("ledger unavailable")
		}

		resp, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "TRY"))

		require.Error(t, err)
		assert.ErrorIs(t, err, usecase.ErrPostingPending)
		var pe *usecase.PostingError
		require.True(t, errors.As(err, &pe))
		assert.Len(t, pe.RequestIDs, 2)
		testutil.AssertDecimal(t, "1030", resp.Applied)
		assert.Equal(t, 2, resp.PendingPostings)

		stored := f.repo.state(loan.ID)
		require.Len(t, stored.Postings, 2)
		for _, p := range stored.Postings {
			assert.Equal(t, valueobject.PostingStatusPending, p.Status)
			assert.Equal(t, 1, p.Attempts)
			assert.Equal(t, "ledger unavailable", p.LastError)
		}
		assert.True(t, stored.Schedule[0].IsPaid)
	})

	t.Run("rejects a payment in a closed period", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")
		f.gate.closed = func(date time.Time, kind valueobject.TransactionKind) bool {
			return kind.Equal(valueobject.TransactionKindLoanPayment) && date.Month() == time.January
		}

		_, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "TRY"))

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrPeriodClosed)
		assert.Equal(t, 1, f.repo.state(loan.ID).Version)
		assert.Empty(t, f.journal.posted())
	})

	t.Run("rejects an amount that does not match the line", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")
		req := payFirstLine(loan.ID, "TRY")
		req.Amount = dec("500")

		_, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), req)

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "apply payment")
	})

	t.Run("rejects an unknown mode", func(t *testing.T) {
		f := newFixture()
		req := payFirstLine("loan-1", "TRY")
		req.Mode = "BARTER"

		_, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), req)

		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})

	t.Run("fails when owner not found", func(t *testing.T) {
		f := newFixture()

		_, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine("missing", "TRY"))

		require.Error(t, err)
		assert.ErrorIs(t, err, port.ErrNotFound)
		assert.Contains(t, err.Error(), "find owner")
	})

	t.Run("surfaces a concurrent modification", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")
		f.repo.saveFunc = func(context.Context, model.Owner) error {
			return port.ErrConcurrentModification
		}

		_, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "TRY"))

		assert.ErrorIs(t, err, port.ErrConcurrentModification)
		assert.Contains(t, err.Error(), "save owner")
	})

	t.Run("a broker outage does not undo a saved payment", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")
		f.publisher.publishFunc = func(context.Context, ...events.DomainEvent) error {
			return fmt.Errorf("broker down")
		}
		before := len(f.outbox.markedIDs())

		resp, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "TRY"))

		require.NoError(t, err)
		assert.Equal(t, loan.ID, resp.OwnerID)
		assert.Equal(t, []int{1}, resp.Sequences)
		testutil.AssertDecimal(t, "1030", resp.Applied)
		assert.True(t, f.repo.state(loan.ID).Schedule[0].IsPaid)
		assert.Len(t, f.outbox.markedIDs(), before, "unpublished events stay in the outbox")

		// Retrying the same request now fails instead of paying twice.
		_, err = usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "TRY"))
		assert.Error(t, err)
	})

	t.Run("published events are acknowledged in the outbox", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")
		before := len(f.outbox.markedIDs())

		_, err := usecase.NewApplyPaymentUseCase(f.deps()).Execute(context.Background(), payFirstLine(loan.ID, "TRY"))
		require.NoError(t, err)

		marked := f.outbox.markedIDs()[before:]
		require.NotEmpty(t, marked)
		published := f.publisher.publishedEvents[len(f.publisher.publishedEvents)-len(marked):]
		for i, e := range published {
			assert.Equal(t, e.EventID(), marked[i])
		}
	})
}

func TestApplyPayment_ConcurrentPartialPayments(t *testing.T) {
	f := newFixture()
	loan := createLoan(t, f, "TRY")
	deps := f.deps()
	deps.Locks = usecase.NewOwnerLocks()
	uc := usecase.NewApplyPaymentUseCase(deps)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = uc.Execute(context.Background(), dto.ApplyPaymentRequest{
				TenantID: tenantID,
				OwnerID:  loan.ID,
				Amount:   dec("100"),
				Currency: "TRY",
				Date:     testutil.Date(2025, 1, 31),
				Mode:     "PARTIAL",
			})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	stored := f.repo.state(loan.ID)
	owner, err := model.ReconstructOwner(stored)
	require.NoError(t, err)
	testutil.AssertMoney(t, "1000", owner.Currency(), owner.PaidTotal())
}
