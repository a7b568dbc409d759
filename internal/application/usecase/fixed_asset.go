package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/money"
)

// PlaceAssetInServiceUseCase sets the in-service date of a draft asset.
type PlaceAssetInServiceUseCase struct {
	r runner
}

// NewPlaceAssetInServiceUseCase wires dependencies.
func NewPlaceAssetInServiceUseCase(deps Dependencies) *PlaceAssetInServiceUseCase {
	return &PlaceAssetInServiceUseCase{r: newRunner(deps)}
}

// Execute places the asset in service and, when asked, activates it as a
// second command so both event batches are published.
func (uc *PlaceAssetInServiceUseCase) Execute(ctx context.Context, req dto.PlaceInServiceRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "PlaceAssetInService")
	defer func() { endSpan(span, err) }()

	owner, err := uc.r.execute(ctx, req.TenantID, req.AssetID,
		func(_ context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			asset, err := asFixedAsset(o)
			if err != nil {
				return nil, err
			}
			next, err := asset.PlaceInService(req.InServiceDate, now)
			if err != nil {
				return nil, fmt.Errorf("place in service: %w", err)
			}
			return next, nil
		})
	if err != nil || !req.Activate {
		return ownerResult(owner, err)
	}

	owner, err = uc.r.execute(ctx, req.TenantID, req.AssetID,
		func(_ context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			next, err := model.Activate(o, now)
			if err != nil {
				return nil, fmt.Errorf("activate asset: %w", err)
			}
			return next, nil
		})
	return ownerResult(owner, err)
}

// RevalueAssetUseCase changes the cost basis of an active asset.
type RevalueAssetUseCase struct {
	r runner
}

// NewRevalueAssetUseCase wires dependencies.
func NewRevalueAssetUseCase(deps Dependencies) *RevalueAssetUseCase {
	return &RevalueAssetUseCase{r: newRunner(deps)}
}

// Execute revalues the asset once the period of req.Date is open.
func (uc *RevalueAssetUseCase) Execute(ctx context.Context, req dto.RevalueAssetRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "RevalueAsset")
	defer func() { endSpan(span, err) }()

	owner, err := uc.r.execute(ctx, req.TenantID, req.AssetID,
		func(ctx context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			asset, err := asFixedAsset(o)
			if err != nil {
				return nil, err
			}
			if err := uc.r.checkPeriod(ctx, o.TenantID(), req.Date, valueobject.TransactionKindDepreciation); err != nil {
				return nil, err
			}
			next, err := asset.Revalue(money.New(req.NewCost, asset.Currency()), req.Date, req.Reason, now)
			if err != nil {
				return nil, fmt.Errorf("revalue asset: %w", err)
			}
			return next, nil
		})
	return ownerResult(owner, err)
}

// AddToCostUseCase capitalises an addition to an active asset.
type AddToCostUseCase struct {
	r runner
}

// NewAddToCostUseCase wires dependencies.
func NewAddToCostUseCase(deps Dependencies) *AddToCostUseCase {
	return &AddToCostUseCase{r: newRunner(deps)}
}

// Execute adds req.Amount to the asset cost.
func (uc *AddToCostUseCase) Execute(ctx context.Context, req dto.AddToCostRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "AddToCost")
	defer func() { endSpan(span, err) }()

	owner, err := uc.r.execute(ctx, req.TenantID, req.AssetID,
		func(ctx context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			asset, err := asFixedAsset(o)
			if err != nil {
				return nil, err
			}
			if err := uc.r.checkPeriod(ctx, o.TenantID(), req.Date, valueobject.TransactionKindDepreciation); err != nil {
				return nil, err
			}
			next, err := asset.AddToCost(money.New(req.Amount, asset.Currency()), req.Date, now)
			if err != nil {
				return nil, fmt.Errorf("add to cost: %w", err)
			}
			return next, nil
		})
	return ownerResult(owner, err)
}

// DisposeAssetUseCase takes an asset off the books.
type DisposeAssetUseCase struct {
	r runner
}

// NewDisposeAssetUseCase wires dependencies.
func NewDisposeAssetUseCase(deps Dependencies) *DisposeAssetUseCase {
	return &DisposeAssetUseCase{r: newRunner(deps)}
}

// Execute disposes of the asset, computing gain or loss when a sale amount
// is given.
func (uc *DisposeAssetUseCase) Execute(ctx context.Context, req dto.DisposeAssetRequest) (_ dto.OwnerResponse, err error) {
	ctx, span := tracer.Start(ctx, "DisposeAsset")
	defer func() { endSpan(span, err) }()

	disposalType, err := valueobject.NewDisposalType(req.Type)
	if err != nil {
		return dto.OwnerResponse{}, invalid(err)
	}

	owner, err := uc.r.execute(ctx, req.TenantID, req.AssetID,
		func(ctx context.Context, o model.Owner, now time.Time) (model.Owner, error) {
			asset, err := asFixedAsset(o)
			if err != nil {
				return nil, err
			}
			if err := uc.r.checkPeriod(ctx, o.TenantID(), req.Date, valueobject.TransactionKindDepreciation); err != nil {
				return nil, err
			}
			next, err := asset.Dispose(disposalType, req.Date, optionalMoney(req.SaleAmount, asset.Currency()), now)
			if err != nil {
				return nil, fmt.Errorf("dispose asset: %w", err)
			}
			return next, nil
		})
	return ownerResult(owner, err)
}
