// Package service composes the guard, cache and calculation engines behind
// a single request/response contract.
package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wealthsim/wealthsim/internal/cache"
	"github.com/wealthsim/wealthsim/internal/config"
	"github.com/wealthsim/wealthsim/internal/debtplan"
	"github.com/wealthsim/wealthsim/internal/domain"
	"github.com/wealthsim/wealthsim/internal/fincalc"
	"github.com/wealthsim/wealthsim/internal/guard"
	"github.com/wealthsim/wealthsim/internal/montecarlo"
	"github.com/wealthsim/wealthsim/internal/stress"
)

// Service is the calculation façade. Construct one per process; it owns the
// rate-limit buckets, the cache and the worker settings, and is safe for
// concurrent use.
type Service struct {
	guard     *guard.Guard
	store     cache.Store
	cache     *cache.Cache
	mc        *montecarlo.Engine
	planner   *debtplan.Planner
	stress    *stress.Engine
	suggester Suggester
	logger    *slog.Logger

	batchMaxConcurrency int

	requests  atomic.Int64
	failures  atomic.Int64
	latencies latencyRing
	started   time.Time
}

// Option customizes service construction.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	monitor   guard.Monitor
	suggester Suggester
	store     cache.Store
}

func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }
func WithMonitor(m guard.Monitor) Option { return func(o *options) { o.monitor = m } }
func WithSuggester(s Suggester) Option { return func(o *options) { o.suggester = s } }
func WithStore(s cache.Store) Option { return func(o *options) { o.store = s } }

// New wires a service from configuration. A Redis address in the config
// selects the shared cache backend; otherwise the cache is in-process.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.suggester == nil {
		o.suggester = noopSuggester{}
	}
	if o.store == nil {
		if cfg.Cache.RedisAddr != "" {
			o.store = cache.NewRedisStore(cfg.Cache.RedisAddr)
		} else {
			o.store = cache.NewMemoryStore()
		}
	}

	limits := guardLimits(cfg)

	catalog := stress.NewCatalog()
	if cfg.ScenarioFile != "" {
		if err := catalog.LoadFile(cfg.ScenarioFile); err != nil {
			return nil, err
		}
	}

	batchMax := cfg.Service.BatchMaxConcurrency
	if batchMax <= 0 {
		batchMax = 8
	}

	return &Service{
		guard:               guard.New(limits, o.monitor, o.logger),
		store:               o.store,
		cache:               cache.New(o.store, cfg.CacheTTL(), o.logger),
		mc:                  montecarlo.NewEngine(montecarlo.Config{Workers: cfg.Service.Workers, MaxIterations: limits.MaxIterations}),
		planner:             debtplan.NewPlanner(),
		stress:              stress.NewEngine(catalog),
		suggester:           o.suggester,
		logger:              o.logger,
		batchMaxConcurrency: batchMax,
		started:             time.Now(),
	}, nil
}

// guardLimits merges configured limits over the defaults.
func guardLimits(cfg *config.Config) guard.Limits {
	limits := guard.DefaultLimits()
	if cfg.Limits.MaxIterations > 0 {
		limits.MaxIterations = cfg.Limits.MaxIterations
	}
	if cfg.Limits.MaxYears > 0 {
		limits.MaxYears = cfg.Limits.MaxYears
	}
	if cfg.Limits.MaxDebts > 0 {
		limits.MaxDebts = cfg.Limits.MaxDebts
	}
	if cfg.Limits.MaxGoals > 0 {
		limits.MaxGoals = cfg.Limits.MaxGoals
	}
	if cfg.Limits.ComplexityCeiling > 0 {
		limits.ComplexityCeiling = cfg.Limits.ComplexityCeiling
	}
	if cfg.Limits.RateCapacity > 0 {
		limits.RateCapacity = cfg.Limits.RateCapacity
	}
	if cfg.Limits.RateRefillPerSecond > 0 {
		limits.RateRefillPerSecond = cfg.Limits.RateRefillPerSecond
	}
	return limits
}

// Scenarios exposes the stress scenario catalog.
func (s *Service) Scenarios() *stress.Catalog { return s.stress.Catalog() }

// Close stops background goroutines and releases the cache backend.
func (s *Service) Close() {
	s.guard.Close()
	switch store := s.store.(type) {
	case *cache.MemoryStore:
		store.Stop()
	case *cache.RedisStore:
		if err := store.Close(); err != nil {
			s.logger.Warn("closing redis cache store", "error", err)
		}
	}
}

// Calculate runs one request end to end: admission, cache lookup, dispatch,
// result formatting. All rejections are typed domain errors.
func (s *Service) Calculate(ctx context.Context, req *domain.CalculationRequest) (*domain.CalculationResult, error) {
	s.requests.Add(1)
	start := time.Now()

	outcome, err := s.guard.Admit(req)
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}
	sanitized := outcome.Request

	if sanitized.Deadline != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, *sanitized.Deadline)
		defer cancel()
	}

	key := cache.FingerprintRequest(sanitized)
	result, status, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*domain.CalculationResult, error) {
		return s.dispatch(ctx, sanitized)
	})
	elapsed := time.Since(start)
	s.latencies.record(elapsed)
	if err != nil {
		s.failures.Add(1)
		if ctx.Err() != nil && !domain.IsKind(err, domain.ErrTimeout) {
			err = domain.NewTimeoutError(ctx.Err())
		}
		return nil, err
	}

	// Responses get their own metadata; the cached payload is shared and
	// treated as immutable.
	response := *result
	response.Meta = domain.ResultMeta{
		CacheStatus:   status,
		ComputeTimeMs: elapsed.Milliseconds(),
		Warnings:      outcome.Warnings,
		ComputedAt:    time.Now().UTC(),
		Elapsed:       elapsed,
	}
	return &response, nil
}

// dispatch routes a sanitized request to its engine.
func (s *Service) dispatch(ctx context.Context, req *domain.CalculationRequest) (*domain.CalculationResult, error) {
	result := &domain.CalculationResult{Kind: req.Kind}
	var err error

	switch req.Kind {
	case domain.KindFutureValue:
		result.FutureValue, err = fincalc.FutureValue(req.FutureValue)
	case domain.KindFireNumber:
		result.FireNumber, err = fincalc.FireNumber(req.FireNumber)
	case domain.KindCoastFire:
		result.CoastFire, err = fincalc.CoastFire(req.CoastFire)
	case domain.KindBaristaFire:
		result.BaristaFire, err = fincalc.BaristaFire(req.BaristaFire)
	case domain.KindRequiredSavingsRate:
		result.RequiredSavingsRate, err = fincalc.RequiredSavingsRate(req.RequiredSavingsRate)
	case domain.KindGoalPlanning:
		result.GoalPlanning, err = fincalc.GoalPlanning(req.GoalPlanning)
	case domain.KindDebtPayoff:
		result.DebtPayoff, err = s.planner.Plan(req.DebtPayoff)
	case domain.KindMonteCarlo:
		result.MonteCarlo, err = s.mc.Run(ctx, req.MonteCarlo, s.seedFor(req))
	case domain.KindMarketStressTest:
		result.StressTest, err = s.stress.Run(ctx, req.StressTest)
	default:
		err = domain.NewValidationError("kind", "unknown calculation kind %q", req.Kind)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// seedFor picks the caller's seed or derives one from the clock. Derived
// seeds are statistically fine for simulation; they carry no security
// meaning.
func (s *Service) seedFor(req *domain.CalculationRequest) int64 {
	if req.Seed != nil {
		return *req.Seed
	}
	return time.Now().UnixNano()
}

// Suggestions runs the pluggable heuristic over a computed result.
func (s *Service) Suggestions(req *domain.CalculationRequest, result *domain.CalculationResult) []Suggestion {
	return s.suggester.Suggest(SuggestionContext{Request: req, Result: result})
}

// Health reports liveness and the cache hit rate.
func (s *Service) Health() Health {
	return Health{
		OK:           true,
		CacheHitRate: s.cache.Stats().HitRate,
		UptimeSec:    int64(time.Since(s.started).Seconds()),
	}
}

// Stats reports counters and recent latency percentiles.
func (s *Service) Stats() Stats {
	return Stats{
		Requests:  s.requests.Load(),
		Failures:  s.failures.Load(),
		Cache:     s.cache.Stats(),
		Latency:   s.latencies.percentiles(),
		UptimeSec: int64(time.Since(s.started).Seconds()),
	}
}
