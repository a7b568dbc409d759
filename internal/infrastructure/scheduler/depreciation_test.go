package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/finance-service/internal/application/dto"
)

type runnerFunc func(ctx context.Context, asOf time.Time) ([]dto.DepreciationRunResponse, error)

func (f runnerFunc) RunAll(ctx context.Context, asOf time.Time) ([]dto.DepreciationRunResponse, error) {
	return f(ctx, asOf)
}

func newScheduler(t *testing.T, runner runnerFunc, out *bytes.Buffer) *DepreciationScheduler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(out, nil))
	s, err := NewDepreciationScheduler("0 2 1 * *", runner, logger)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 2, 0, 7, 0, time.UTC) }
	return s
}

func TestNewDepreciationScheduler_InvalidSpec(t *testing.T) {
	_, err := NewDepreciationScheduler("monthly", runnerFunc(nil), slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monthly")
}

func TestRunOnce(t *testing.T) {
	t.Run("runs as of today and logs totals", func(t *testing.T) {
		var gotAsOf time.Time
		var out bytes.Buffer
		s := newScheduler(t, func(_ context.Context, asOf time.Time) ([]dto.DepreciationRunResponse, error) {
			gotAsOf = asOf
			return []dto.DepreciationRunResponse{
				{TenantID: "t1", Assets: 3, PeriodsApplied: 3},
				{TenantID: "t2", Assets: 2, PeriodsApplied: 1, Failures: []dto.DepreciationFailure{{AssetID: "a", Error: "x"}}},
			}, nil
		}, &out)

		require.NoError(t, s.RunOnce(context.Background()))
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), gotAsOf)
		assert.Contains(t, out.String(), "assets=5")
		assert.Contains(t, out.String(), "periods=4")
		assert.Contains(t, out.String(), "failures=1")
	})

	t.Run("reports a failed run", func(t *testing.T) {
		var out bytes.Buffer
		s := newScheduler(t, func(context.Context, time.Time) ([]dto.DepreciationRunResponse, error) {
			return nil, errors.New("database down")
		}, &out)

		err := s.RunOnce(context.Background())
		require.Error(t, err)
		assert.Contains(t, out.String(), "depreciation run failed")
	})
}

func TestStart_StopsWithContext(t *testing.T) {
	var out bytes.Buffer
	s := newScheduler(t, func(context.Context, time.Time) ([]dto.DepreciationRunResponse, error) {
		return nil, nil
	}, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
