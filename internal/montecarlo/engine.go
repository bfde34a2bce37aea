// Package montecarlo simulates stochastic return paths and aggregates them
// into percentile bands and a success probability.
package montecarlo

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// MaxIterations is the hard ceiling on simulation paths. It is enforced
// before any path runs; requests above it are clamped upstream with a
// warning attached to the result.
const MaxIterations = 50000

const monthsPerYear = 12

// Config holds simulation settings.
type Config struct {
	// Workers bounds the fan-out; zero means GOMAXPROCS.
	Workers int

	// MaxIterations overrides the package ceiling for tests; zero means
	// MaxIterations.
	MaxIterations int
}

// Engine runs seeded return-path simulations. Safe for concurrent use; each
// run owns its per-path RNGs.
type Engine struct {
	config Config
}

// NewEngine creates an engine with the given config, applying defaults.
func NewEngine(config Config) *Engine {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = MaxIterations
	}
	return &Engine{config: config}
}

// percentileKeys are the reported bands, low to high.
var percentileKeys = []struct {
	key string
	q   float64
}{
	{"p10", 0.10},
	{"p25", 0.25},
	{"p50", 0.50},
	{"p75", 0.75},
	{"p90", 0.90},
}

// Run simulates p.Iterations independent paths over p.Years of monthly
// periods. Identical seed and parameters produce identical output: every
// path derives its RNG from the seed and its own index, so results do not
// depend on worker scheduling.
func (e *Engine) Run(ctx context.Context, p *domain.MonteCarloParams, seed int64) (*domain.MonteCarloResult, error) {
	if p.Iterations <= 0 {
		return nil, domain.NewDomainError("iteration count must be positive, got %d", p.Iterations)
	}
	if p.Iterations > e.config.MaxIterations {
		return nil, domain.NewDomainError("iteration count %d exceeds ceiling %d", p.Iterations, e.config.MaxIterations)
	}
	if p.Years <= 0 {
		return nil, domain.NewDomainError("projection years must be positive, got %d", p.Years)
	}
	if p.InitialBalance.IsNegative() || p.MonthlyContribution.IsNegative() {
		return nil, domain.NewDomainError("balance and contribution must be non-negative")
	}
	if !p.AnnualStdDev.IsPositive() && !p.AnnualStdDev.IsZero() {
		return nil, domain.NewDomainError("standard deviation must be non-negative, got %s", p.AnnualStdDev)
	}

	periods := p.Years * monthsPerYear

	// Monthly moments from annual ones: mean scales by 1/12, volatility by
	// 1/sqrt(12).
	monthlyMean, _ := p.MeanAnnualReturn.Div(decimal.NewFromInt(monthsPerYear)).Float64()
	annualStd, _ := p.AnnualStdDev.Float64()
	monthlyStd := annualStd / math.Sqrt(monthsPerYear)

	initial, _ := p.InitialBalance.Float64()
	contribution, _ := p.MonthlyContribution.Float64()

	finals := make([]float64, p.Iterations)

	workers := e.config.Workers
	if workers > p.Iterations {
		workers = p.Iterations
	}

	var wg sync.WaitGroup
	chunk := (p.Iterations + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > p.Iterations {
			end = p.Iterations
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				rng := rand.New(rand.NewSource(seed + int64(i)))
				finals[i] = simulatePath(rng, initial, contribution, monthlyMean, monthlyStd, periods)
			}
		}(start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, domain.NewTimeoutError(err)
	}

	sort.Float64s(finals)

	percentiles := make(map[string]decimal.Decimal, len(percentileKeys))
	for _, pk := range percentileKeys {
		percentiles[pk.key] = round2(percentileOf(finals, pk.q))
	}

	sum := 0.0
	for _, v := range finals {
		sum += v
	}
	mean := sum / float64(p.Iterations)

	variance := 0.0
	for _, v := range finals {
		d := v - mean
		variance += d * d
	}
	if p.Iterations > 1 {
		variance /= float64(p.Iterations - 1)
	}
	// 95% CI on the mean: 2 * 1.96 * s / sqrt(n).
	meanCIWidth := 2 * 1.96 * math.Sqrt(variance) / math.Sqrt(float64(p.Iterations))

	successes := 0
	target, _ := p.TargetAmount.Float64()
	if p.TargetAmount.IsPositive() {
		// finals is sorted, so the first index at or above the target gives
		// the success count directly.
		idx := sort.SearchFloat64s(finals, target)
		successes = len(finals) - idx
	}

	successProbability := decimal.Zero
	if p.TargetAmount.IsPositive() {
		successProbability = decimal.NewFromInt(int64(successes)).
			Div(decimal.NewFromInt(int64(p.Iterations))).Round(4)
	}

	return &domain.MonteCarloResult{
		Iterations:          p.Iterations,
		Periods:             periods,
		Percentiles:         percentiles,
		SuccessProbability:  successProbability,
		MeanFinalBalance:    round2(mean),
		ConfidenceWidth:     percentiles["p90"].Sub(percentiles["p10"]),
		MeanConfidenceWidth: round2(meanCIWidth),
	}, nil
}

// simulatePath applies one normally-distributed return per month to a
// running balance with contributions added at the end of each month.
func simulatePath(rng *rand.Rand, balance, contribution, monthlyMean, monthlyStd float64, periods int) float64 {
	for t := 0; t < periods; t++ {
		r := monthlyMean + rng.NormFloat64()*monthlyStd
		if r < -0.5 {
			r = -0.5 // cap a single month's loss at 50%
		}
		balance = balance*(1+r) + contribution
		if balance < 0 {
			balance = 0
		}
	}
	return balance
}

// percentileOf reads the q-quantile from a sorted slice using the
// nearest-rank method.
func percentileOf(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
