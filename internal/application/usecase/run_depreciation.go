package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
)

const defaultDepreciationWorkers = 4

// RunDepreciationUseCase realises every depreciation period that has come
// due across the active assets of a tenant.
type RunDepreciationUseCase struct {
	r       runner
	workers int
}

// NewRunDepreciationUseCase wires dependencies. workers bounds how many
// assets are processed at once; values below one use the default.
func NewRunDepreciationUseCase(deps Dependencies, workers int) *RunDepreciationUseCase {
	if workers < 1 {
		workers = defaultDepreciationWorkers
	}
	return &RunDepreciationUseCase{r: newRunner(deps), workers: workers}
}

type assetRun struct {
	periods int
	err     error
}

// Execute depreciates each asset up to req.AsOf. A failing asset is reported
// in the response and does not stop the others.
func (uc *RunDepreciationUseCase) Execute(ctx context.Context, req dto.RunDepreciationRequest) (_ dto.DepreciationRunResponse, err error) {
	ctx, span := tracer.Start(ctx, "RunDepreciation")
	defer func() { endSpan(span, err) }()

	ids, err := uc.r.deps.Owners.ListActiveAssets(ctx, req.TenantID)
	if err != nil {
		return dto.DepreciationRunResponse{}, fmt.Errorf("list active assets: %w", err)
	}

	runs := make([]assetRun, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			runs[i].periods, runs[i].err = uc.depreciate(gctx, req.TenantID, id, req.AsOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dto.DepreciationRunResponse{}, fmt.Errorf("run depreciation: %w", err)
	}

	resp := dto.DepreciationRunResponse{TenantID: req.TenantID, AsOf: req.AsOf, Assets: len(ids)}
	for i, run := range runs {
		resp.PeriodsApplied += run.periods
		if run.err != nil {
			resp.Failures = append(resp.Failures, dto.DepreciationFailure{AssetID: ids[i], Error: run.err.Error()})
		}
	}

	uc.r.deps.Metrics.depreciationRun(ctx, resp.PeriodsApplied, len(resp.Failures) > 0)
	uc.r.deps.Logger.InfoContext(ctx, "depreciation run finished",
		slog.String("tenant_id", req.TenantID),
		slog.String("as_of", req.AsOf.Format(time.DateOnly)),
		slog.Int("assets", resp.Assets),
		slog.Int("periods", resp.PeriodsApplied),
		slog.Int("failures", len(resp.Failures)),
	)
	return resp, nil
}

// RunAll runs Execute for every tenant holding active assets.
func (uc *RunDepreciationUseCase) RunAll(ctx context.Context, asOf time.Time) ([]dto.DepreciationRunResponse, error) {
	tenants, err := uc.r.deps.Owners.ListTenantsWithActiveAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	out := make([]dto.DepreciationRunResponse, 0, len(tenants))
	for _, tenantID := range tenants {
		resp, err := uc.Execute(ctx, dto.RunDepreciationRequest{TenantID: tenantID, AsOf: asOf})
		if err != nil {
			return out, fmt.Errorf("tenant %s: %w", tenantID, err)
		}
		out = append(out, resp)
	}
	return out, nil
}

// depreciate applies one period per command until nothing is due. Each
// period is saved, published and posted before the next one is computed.
func (uc *RunDepreciationUseCase) depreciate(ctx context.Context, tenantID, assetID string, asOf time.Time) (int, error) {
	periods := 0
	for {
		if err := ctx.Err(); err != nil {
			return periods, err
		}
		_, err := uc.r.execute(ctx, tenantID, assetID,
			func(ctx context.Context, o model.Owner, now time.Time) (model.Owner, error) {
				asset, err := asFixedAsset(o)
				if err != nil {
					return nil, err
				}
				amount := asset.CalculateDepreciation(asOf)
				if amount.IsZero() {
					return nil, errNothingToDo
				}
				line, _ := asset.NextDueLine()
				if err := uc.r.checkPeriod(ctx, tenantID, line.DueDate, valueobject.TransactionKindDepreciation); err != nil {
					return nil, err
				}
				next, _, err := asset.ApplyDepreciation(amount, line.DueDate, now)
				if err != nil {
					return nil, fmt.Errorf("apply depreciation: %w", err)
				}
				return next, nil
			})

		var pe *PostingError
		switch {
		case errors.Is(err, errNothingToDo):
			return periods, nil
		case errors.As(err, &pe):
			// The period stands; its entries wait for RetryPostings.
			periods++
		case err != nil:
			uc.r.logFailure(ctx, "asset depreciation failed", tenantID, assetID, err)
			return periods, err
		default:
			periods++
		}
	}
}
