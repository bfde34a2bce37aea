package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthsim/wealthsim/internal/config"
	"github.com/wealthsim/wealthsim/internal/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func fvRequest(caller string) *domain.CalculationRequest {
	return &domain.CalculationRequest{
		Kind:     domain.KindFutureValue,
		CallerID: caller,
		FutureValue: &domain.FutureValueParams{
			Principal:           decimal.NewFromInt(10000),
			AnnualRate:          decimal.NewFromFloat(0.07),
			Years:               10,
			MonthlyContribution: decimal.NewFromInt(500),
		},
	}
}

func TestCalculate_EndToEnd(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Calculate(context.Background(), fvRequest("caller-1"))
	require.NoError(t, err)
	require.Equal(t, domain.KindFutureValue, result.Kind)
	require.NotNil(t, result.FutureValue)
	assert.True(t, result.FutureValue.FinalValue.GreaterThan(decimal.NewFromInt(10000)))
	assert.Equal(t, domain.CacheMiss, result.Meta.CacheStatus)
	assert.False(t, result.Meta.ComputedAt.IsZero())
}

func TestCalculate_CacheHitOnRepeat(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Calculate(ctx, fvRequest("caller-1"))
	require.NoError(t, err)
	require.Equal(t, domain.CacheMiss, first.Meta.CacheStatus)

	// Same parameters from a different caller still hit.
	second, err := svc.Calculate(ctx, fvRequest("caller-2"))
	require.NoError(t, err)
	assert.Equal(t, domain.CacheHit, second.Meta.CacheStatus)
	assert.True(t, first.FutureValue.FinalValue.Equal(second.FutureValue.FinalValue))
}

func TestCalculate_ExpiredDeadline(t *testing.T) {
	svc := newTestService(t)

	seed := int64(42)
	past := time.Now().Add(-time.Second)
	req := &domain.CalculationRequest{
		Kind:     domain.KindMonteCarlo,
		CallerID: "caller-1",
		Seed:     &seed,
		Deadline: &past,
		MonteCarlo: &domain.MonteCarloParams{
			InitialBalance:      decimal.NewFromInt(100000),
			MonthlyContribution: decimal.NewFromInt(1000),
			MeanAnnualReturn:    decimal.NewFromFloat(0.07),
			AnnualStdDev:        decimal.NewFromFloat(0.15),
			Years:               30,
			Iterations:          10000,
			TargetAmount:        decimal.NewFromInt(1000000),
		},
	}
	_, err := svc.Calculate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrTimeout))
}

func TestCalculate_ClampWarningOnResult(t *testing.T) {
	svc := newTestService(t)

	seed := int64(42)
	req := &domain.CalculationRequest{
		Kind:     domain.KindMonteCarlo,
		CallerID: "caller-1",
		Seed:     &seed,
		MonteCarlo: &domain.MonteCarloParams{
			InitialBalance:      decimal.NewFromInt(100000),
			MonthlyContribution: decimal.NewFromInt(1000),
			MeanAnnualReturn:    decimal.NewFromFloat(0.07),
			AnnualStdDev:        decimal.NewFromFloat(0.15),
			Years:               2,
			Iterations:          10_000_000,
			TargetAmount:        decimal.NewFromInt(500000),
		},
	}
	result, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Meta.Warnings, 1)
	assert.Contains(t, result.Meta.Warnings[0], "clamped")
}

func TestCalculate_ValidationFailureCounted(t *testing.T) {
	svc := newTestService(t)

	req := fvRequest("caller-1")
	req.FutureValue.Principal = decimal.NewFromInt(-1)
	_, err := svc.Calculate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrValidation))

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.Requests)
	assert.Equal(t, int64(1), stats.Failures)
}

func TestCalculateBatch_IsolatesFailures(t *testing.T) {
	svc := newTestService(t)

	reqs := make([]*domain.CalculationRequest, 5)
	for i := range reqs {
		reqs[i] = fvRequest("caller-1")
		reqs[i].FutureValue.Years = 5 + i
	}
	reqs[2].FutureValue.AnnualRate = decimal.NewFromInt(3) // out of range

	items := svc.CalculateBatch(context.Background(), reqs, 4)
	require.Len(t, items, 5)

	for i, item := range items {
		assert.Equal(t, i, item.Index)
		if i == 2 {
			require.Error(t, item.Err)
			assert.True(t, domain.IsKind(item.Err, domain.ErrValidation))
			assert.Nil(t, item.Result)
			continue
		}
		require.NoError(t, item.Err, "item %d should be isolated from item 2's failure", i)
		require.NotNil(t, item.Result)
	}
}

func TestCalculateBatch_BoundsConcurrency(t *testing.T) {
	cfg := config.Default()
	cfg.Service.BatchMaxConcurrency = 2
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	reqs := make([]*domain.CalculationRequest, 6)
	for i := range reqs {
		reqs[i] = fvRequest("caller-1")
		reqs[i].FutureValue.Years = 5 + i
	}

	// A requested concurrency above the configured bound is capped; the
	// batch still completes fully.
	items := svc.CalculateBatch(context.Background(), reqs, 100)
	require.Len(t, items, 6)
	for _, item := range items {
		require.NoError(t, item.Err)
	}
}

func TestHealthAndStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Calculate(ctx, fvRequest("caller-1"))
	require.NoError(t, err)
	_, err = svc.Calculate(ctx, fvRequest("caller-1"))
	require.NoError(t, err)

	health := svc.Health()
	assert.True(t, health.OK)
	assert.InDelta(t, 0.5, health.CacheHitRate, 1e-9)

	stats := svc.Stats()
	assert.Equal(t, int64(2), stats.Requests)
	assert.Zero(t, stats.Failures)
	assert.Equal(t, int64(1), stats.Cache.Hits)
	assert.Equal(t, int64(1), stats.Cache.Misses)
	assert.GreaterOrEqual(t, stats.Latency.P99, stats.Latency.P50)
}

func TestSuggestions_DefaultIsQuiet(t *testing.T) {
	svc := newTestService(t)

	req := fvRequest("caller-1")
	result, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, svc.Suggestions(req, result))
}
