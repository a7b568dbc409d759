package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/application/usecase"
	"github.com/bibbank/finance-service/internal/domain/event"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/testutil"
)

// registerAsset stores a 90000 TRY straight-line machine over five years,
// in service from 2025-01-01: sixty monthly charges of 1500 from 2025-02-01.
func registerAsset(t *testing.T, f *fixture, code string) dto.OwnerResponse {
	t.Helper()
	ctx := context.Background()
	asset, err := usecase.NewRegisterFixedAssetUseCase(f.deps()).Execute(ctx, dto.RegisterFixedAssetRequest{
		TenantID:        tenantID,
		Code:            code,
		Name:            "CNC machine",
		Category:        "MACHINERY",
		Cost:            dec("90000"),
		Currency:        "TRY",
		AcquisitionDate: testutil.Date(2024, 12, 20),
		UsefulLifeYears: 5,
		Method:          "STRAIGHT_LINE",
		Period:          "MONTHLY",
	})
	require.NoError(t, err)
	require.Equal(t, "DRAFT", asset.Status)

	resp, err := usecase.NewPlaceAssetInServiceUseCase(f.deps()).Execute(ctx, dto.PlaceInServiceRequest{
		TenantID:      tenantID,
		AssetID:       asset.ID,
		InServiceDate: testutil.Date(2025, 1, 1),
		Activate:      true,
	})
	require.NoError(t, err)
	return resp
}

func TestPlaceAssetInService_Execute(t *testing.T) {
	t.Run("places in service and activates", func(t *testing.T) {
		f := newFixture()
		resp := registerAsset(t, f, "DMB-0042")

		assert.Equal(t, "ACTIVE", resp.Status)
		require.Len(t, resp.Schedule, 60)
		assert.Equal(t, testutil.Date(2025, 2, 1), resp.Schedule[0].DueDate)
		testutil.AssertDecimal(t, "1500", resp.Schedule[0].Principal)
		require.NotNil(t, resp.Asset)
		require.NotNil(t, resp.Asset.InServiceDate)

		types := f.publisher.types()
		assert.Contains(t, types, event.TypeAssetPlacedInService)
		assert.Contains(t, types, event.TypeScheduleGenerated)
	})

	t.Run("rejects a loan", func(t *testing.T) {
		f := newFixture()
		loan := createLoan(t, f, "TRY")

		_, err := usecase.NewPlaceAssetInServiceUseCase(f.deps()).Execute(context.Background(), dto.PlaceInServiceRequest{
			TenantID: tenantID, AssetID: loan.ID, InServiceDate: testutil.Date(2025, 1, 1),
		})

		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})
}

func TestRunDepreciation_Execute(t *testing.T) {
	asOf := testutil.Date(2025, 4, 15)

	t.Run("realises every due period of every asset", func(t *testing.T) {
		f := newFixture()
		a := registerAsset(t, f, "DMB-0001")
		b := registerAsset(t, f, "DMB-0002")
		uc := usecase.NewRunDepreciationUseCase(f.deps(), 2)

		resp, err := uc.Execute(context.Background(), dto.RunDepreciationRequest{TenantID: tenantID, AsOf: asOf})

		require.NoError(t, err)
		assert.Equal(t, 2, resp.Assets)
		assert.Equal(t, 6, resp.PeriodsApplied, "Feb, Mar and Apr for both assets")
		assert.Empty(t, resp.Failures)
		assert.Len(t, f.journal.posted(), 6)

		for _, id := range []string{a.ID, b.ID} {
			owner, err := model.ReconstructOwner(f.repo.state(id))
			require.NoError(t, err)
			asset := owner.(model.FixedAsset)
			testutil.AssertMoney(t, "4500", asset.Currency(), asset.AccumulatedDepreciation())
			assert.Empty(t, asset.PendingPostings())
		}

		again, err := uc.Execute(context.Background(), dto.RunDepreciationRequest{TenantID: tenantID, AsOf: asOf})
		require.NoError(t, err)
		assert.Zero(t, again.PeriodsApplied)
	})

	t.Run("stops an asset at a closed period", func(t *testing.T) {
		f := newFixture()
		registerAsset(t, f, "DMB-0003")
		f.gate.closed = func(date time.Time, _ valueobject.TransactionKind) bool {
			return date.Month() == time.March
		}

		resp, err := usecase.NewRunDepreciationUseCase(f.deps(), 1).Execute(context.Background(),
			dto.RunDepreciationRequest{TenantID: tenantID, AsOf: asOf})

		require.NoError(t, err)
		assert.Equal(t, 1, resp.PeriodsApplied)
		require.Len(t, resp.Failures, 1)
		assert.Contains(t, resp.Failures[0].Error, "period")
	})

	t.Run("keeps depreciating while the journal is down", func(t *testing.T) {
		f := newFixture()
		a := registerAsset(t, f, "DMB-0004")
		f.journal.postFunc = func(context.Context, port.JournalEntry) error {
			return fmt.Errorf("ledger unavailable")
		}

		resp, err := usecase.NewRunDepreciationUseCase(f.deps(), 1).Execute(context.Background(),
			dto.RunDepreciationRequest{TenantID: tenantID, AsOf: asOf})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.PeriodsApplied)
		assert.Empty(t, resp.Failures)

		owner, err := model.ReconstructOwner(f.repo.state(a.ID))
		require.NoError(t, err)
		assert.Len(t, owner.PendingPostings(), 3)
	})

	t.Run("runs every tenant", func(t *testing.T) {
		f := newFixture()
		registerAsset(t, f, "DMB-0005")

		var calls atomic.Int32
		f.journal.postFunc = func(context.Context, port.JournalEntry) error {
			calls.Add(1)
			return nil
		}

		out, err := usecase.NewRunDepreciationUseCase(f.deps(), 0).RunAll(context.Background(), asOf)

		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, tenantID, out[0].TenantID)
		assert.EqualValues(t, 3, calls.Load())
	})
}

func TestRevalueAndDispose_Execute(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	asset := registerAsset(t, f, "DMB-0006")
	_, err := usecase.NewRunDepreciationUseCase(f.deps(), 1).Execute(ctx,
		dto.RunDepreciationRequest{TenantID: tenantID, AsOf: testutil.Date(2025, 2, 1)})
	require.NoError(t, err)

	t.Run("revalues the tail", func(t *testing.T) {
		resp, err := usecase.NewRevalueAssetUseCase(f.deps()).Execute(ctx, dto.RevalueAssetRequest{
			TenantID: tenantID,
			AssetID:  asset.ID,
			NewCost:  dec("60500"),
			Date:     testutil.Date(2025, 2, 15),
			Reason:   "market appraisal",
		})

		require.NoError(t, err)
		require.NotNil(t, resp.Asset)
		testutil.AssertDecimal(t, "60500", resp.Asset.Cost)
		testutil.AssertDecimal(t, "59000", resp.Asset.NetBookValue)
		testutil.AssertDecimal(t, "-29500", resp.Asset.RevaluationTotal)
		assert.Contains(t, f.publisher.types(), event.TypeAssetRevalued)
	})

	t.Run("adds to cost", func(t *testing.T) {
		resp, err := usecase.NewAddToCostUseCase(f.deps()).Execute(ctx, dto.AddToCostRequest{
			TenantID: tenantID, AssetID: asset.ID, Amount: dec("500"), Date: testutil.Date(2025, 2, 20),
		})

		require.NoError(t, err)
		testutil.AssertDecimal(t, "61000", resp.Asset.Cost)
	})

	t.Run("disposes with a sale", func(t *testing.T) {
		resp, err := usecase.NewDisposeAssetUseCase(f.deps()).Execute(ctx, dto.DisposeAssetRequest{
			TenantID:   tenantID,
			AssetID:    asset.ID,
			Type:       "SALE",
			Date:       testutil.Date(2025, 2, 25),
			SaleAmount: decPtr("60000"),
		})

		require.NoError(t, err)
		assert.Equal(t, "CLOSED", resp.Status)
		assert.Equal(t, "SALE", resp.Asset.DisposalType)
		require.NotNil(t, resp.Asset.GainLoss)
		testutil.AssertDecimal(t, "500", *resp.Asset.GainLoss)
	})

	t.Run("rejects an unknown disposal type", func(t *testing.T) {
		_, err := usecase.NewDisposeAssetUseCase(f.deps()).Execute(ctx, dto.DisposeAssetRequest{
			TenantID: tenantID, AssetID: asset.ID, Type: "LOST", Date: testutil.Date(2025, 3, 1),
		})
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})
}
