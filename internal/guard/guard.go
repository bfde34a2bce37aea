// Package guard validates, rate-limits and audits every request before it
// reaches a calculator. Out-of-range parameters are rejected with the
// offending field named; the only clamp-and-warn case is the Monte Carlo
// iteration ceiling.
package guard

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
	"github.com/wealthsim/wealthsim/internal/montecarlo"
)

// Limits declares the accepted parameter ranges.
type Limits struct {
	MaxIterations     int
	MaxYears          int
	MaxAge            int
	MaxDebts          int
	MaxGoals          int
	MaxTargetAges     int
	ComplexityCeiling int64 // iterations × simulated months
	MaxAmount         decimal.Decimal

	RateCapacity        int
	RateRefillPerSecond float64
}

// DefaultLimits are the production defaults. The complexity ceiling equals
// the iteration cap times a 50-year monthly horizon, so a request maxing
// one dimension must stay moderate in the other.
func DefaultLimits() Limits {
	return Limits{
		MaxIterations:       montecarlo.MaxIterations,
		MaxYears:            100,
		MaxAge:              120,
		MaxDebts:            50,
		MaxGoals:            20,
		MaxTargetAges:       10,
		ComplexityCeiling:   int64(montecarlo.MaxIterations) * 600,
		MaxAmount:           decimal.New(1, 12), // 10^12
		RateCapacity:        60,
		RateRefillPerSecond: 1,
	}
}

// Outcome is an accepted request: the sanitized copy plus any clamp
// warnings to attach to the eventual result.
type Outcome struct {
	Request  *domain.CalculationRequest
	Warnings []string
}

// Guard wraps every entry point. One instance per service process owns the
// rate-limit buckets.
type Guard struct {
	limits  Limits
	limiter *RateLimiter
	auditor *auditor
	logger  *slog.Logger
}

// New creates a guard. monitor may be nil, in which case rejections are
// only logged.
func New(limits Limits, monitor Monitor, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		limits:  limits,
		limiter: NewRateLimiter(limits.RateCapacity, limits.RateRefillPerSecond),
		auditor: newAuditor(monitor, logger),
		logger:  logger,
	}
}

// Close stops the guard's background goroutines.
func (g *Guard) Close() {
	g.limiter.Stop()
	g.auditor.close()
}

// Admit validates and rate-limits a request. On success it returns a
// sanitized request (a clamped copy when the iteration ceiling applied);
// on failure the typed error has already been audited.
func (g *Guard) Admit(req *domain.CalculationRequest) (*Outcome, error) {
	if req == nil {
		return nil, domain.NewValidationError("request", "request must not be nil")
	}
	if req.CallerID == "" {
		return nil, g.reject(req, SeverityInfo, domain.NewValidationError("callerId", "caller identity is required"))
	}
	if req.Params() == nil {
		return nil, g.reject(req, SeverityInfo,
			domain.NewValidationError("kind", "unknown kind %q or missing matching parameters", req.Kind))
	}

	outcome := &Outcome{Request: req}
	if err := g.validate(outcome); err != nil {
		return nil, g.reject(req, SeverityInfo, err)
	}
	// Complexity runs on the sanitized request so a clamped iteration count
	// is judged at its effective size.
	if err := g.checkComplexity(outcome.Request); err != nil {
		return nil, g.reject(req, SeverityHigh, err)
	}
	if ok, retryAfter := g.limiter.Allow(req.CallerID, req.Kind); !ok {
		return nil, g.reject(req, SeverityWarning, domain.NewRateLimitedError(retryAfter))
	}
	return outcome, nil
}

// reject audits a rejection without blocking and passes the error through.
func (g *Guard) reject(req *domain.CalculationRequest, severity AuditSeverity, err error) error {
	g.auditor.emit(req.CallerID, req.Kind, err.Error(), severity)
	return err
}

func (g *Guard) validate(outcome *Outcome) error {
	req := outcome.Request
	switch req.Kind {
	case domain.KindFutureValue:
		p := req.FutureValue
		return firstErr(
			g.checkAmount("principal", p.Principal),
			g.checkRate("annualRate", p.AnnualRate),
			g.checkYears("years", p.Years),
			g.checkAmount("monthlyContribution", p.MonthlyContribution),
		)
	case domain.KindFireNumber:
		p := req.FireNumber
		return firstErr(
			g.checkAmount("annualExpenses", p.AnnualExpenses),
			checkPositiveRate("withdrawalRate", p.WithdrawalRate),
		)
	case domain.KindCoastFire:
		p := req.CoastFire
		if err := firstErr(
			g.checkAge("currentAge", p.CurrentAge),
			g.checkAmount("currentSavings", p.CurrentSavings),
			g.checkRate("expectedReturn", p.ExpectedReturn),
		); err != nil {
			return err
		}
		if len(p.TargetAges) == 0 || len(p.TargetAges) > g.limits.MaxTargetAges {
			return domain.NewValidationError("targetAges", "must contain between 1 and %d ages", g.limits.MaxTargetAges)
		}
		for _, age := range p.TargetAges {
			if err := g.checkAge("targetAges", age); err != nil {
				return err
			}
		}
		return nil
	case domain.KindBaristaFire:
		p := req.BaristaFire
		return firstErr(
			g.checkAmount("annualExpenses", p.AnnualExpenses),
			g.checkAmount("partTimeIncome", p.PartTimeIncome),
			checkPositiveRate("withdrawalRate", p.WithdrawalRate),
		)
	case domain.KindRequiredSavingsRate:
		p := req.RequiredSavingsRate
		return firstErr(
			g.checkAmount("targetAmount", p.TargetAmount),
			g.checkAmount("currentNetWorth", p.CurrentNetWorth),
			g.checkRate("expectedReturn", p.ExpectedReturn),
			g.checkYears("years", p.Years),
			g.checkAmount("annualIncome", p.AnnualIncome),
		)
	case domain.KindGoalPlanning:
		p := req.GoalPlanning
		if len(p.Goals) == 0 || len(p.Goals) > g.limits.MaxGoals {
			return domain.NewValidationError("goals", "must contain between 1 and %d goals", g.limits.MaxGoals)
		}
		for i, goal := range p.Goals {
			if err := firstErr(
				g.checkAmount(fmt.Sprintf("goals[%d].targetAmount", i), goal.TargetAmount),
				g.checkAmount(fmt.Sprintf("goals[%d].currentAmount", i), goal.CurrentAmount),
				g.checkYears(fmt.Sprintf("goals[%d].years", i), goal.Years),
			); err != nil {
				return err
			}
		}
		return firstErr(
			g.checkAmount("annualIncome", p.AnnualIncome),
			g.checkRate("expectedReturn", p.ExpectedReturn),
		)
	case domain.KindDebtPayoff:
		p := req.DebtPayoff
		if len(p.Debts) > g.limits.MaxDebts {
			return domain.NewValidationError("debts", "at most %d debts per request, got %d", g.limits.MaxDebts, len(p.Debts))
		}
		for i, d := range p.Debts {
			if err := firstErr(
				g.checkAmount(fmt.Sprintf("debts[%d].balance", i), d.Balance),
				g.checkRate(fmt.Sprintf("debts[%d].annualRate", i), d.AnnualRate),
				g.checkAmount(fmt.Sprintf("debts[%d].minimumPayment", i), d.MinimumPayment),
			); err != nil {
				return err
			}
		}
		if p.ConsolidationRate != nil {
			if err := g.checkRate("consolidationRate", *p.ConsolidationRate); err != nil {
				return err
			}
		}
		return g.checkAmount("monthlyBudget", p.MonthlyBudget)
	case domain.KindMonteCarlo:
		return g.validateMonteCarlo(outcome)
	case domain.KindMarketStressTest:
		p := req.StressTest
		if err := firstErr(
			g.checkAmount("initialBalance", p.InitialBalance),
			g.checkAmount("monthlyContribution", p.MonthlyContribution),
			g.checkRate("expectedReturn", p.ExpectedReturn),
			g.checkAmount("goalAmount", p.GoalAmount),
			g.checkYears("years", p.Years),
		); err != nil {
			return err
		}
		if p.EmergencyFundMonths < 0 {
			return domain.NewValidationError("emergencyFundMonths", "must be non-negative, got %d", p.EmergencyFundMonths)
		}
		return nil
	}
	return domain.NewValidationError("kind", "unknown calculation kind %q", req.Kind)
}

// validateMonteCarlo applies the documented clamp-and-warn policy: an
// iteration count above the ceiling is clamped on a copy of the request,
// never rejected and never executed at full scale.
func (g *Guard) validateMonteCarlo(outcome *Outcome) error {
	p := outcome.Request.MonteCarlo
	if err := firstErr(
		g.checkAmount("initialBalance", p.InitialBalance),
		g.checkAmount("monthlyContribution", p.MonthlyContribution),
		g.checkRate("meanAnnualReturn", p.MeanAnnualReturn),
		g.checkRate("annualStdDev", p.AnnualStdDev),
		g.checkYears("years", p.Years),
		g.checkAmount("targetAmount", p.TargetAmount),
	); err != nil {
		return err
	}
	if p.Years == 0 {
		return domain.NewValidationError("years", "must be positive for simulation")
	}
	if p.Iterations < 1 {
		return domain.NewValidationError("iterations", "must be at least 1, got %d", p.Iterations)
	}
	if p.Iterations > g.limits.MaxIterations {
		clamped := *outcome.Request
		params := *p
		params.Iterations = g.limits.MaxIterations
		clamped.MonteCarlo = &params
		outcome.Request = &clamped
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("iteration count clamped to %d", g.limits.MaxIterations))
	}
	return nil
}

// checkComplexity rejects parameter combinations whose work product would
// be intractable, before any computation begins.
func (g *Guard) checkComplexity(req *domain.CalculationRequest) error {
	if req.Kind != domain.KindMonteCarlo {
		return nil
	}
	p := req.MonteCarlo
	product := int64(p.Iterations) * int64(p.Years) * 12
	if product > g.limits.ComplexityCeiling {
		return domain.NewComplexityError(
			"iterations × months = %d exceeds ceiling %d", product, g.limits.ComplexityCeiling)
	}
	return nil
}

func (g *Guard) checkAmount(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(g.limits.MaxAmount) {
		return domain.NewValidationError(field, "must be between 0 and %s, got %s", g.limits.MaxAmount, v)
	}
	return nil
}

func (g *Guard) checkRate(field string, v decimal.Decimal) error {
	if v.LessThan(decimal.NewFromInt(-1)) || v.GreaterThan(decimal.NewFromInt(1)) {
		return domain.NewValidationError(field, "must be between -1 and 1, got %s", v)
	}
	return nil
}

// checkPositiveRate covers withdrawal rates, whose declared range excludes
// zero and negatives outright.
func checkPositiveRate(field string, v decimal.Decimal) error {
	if !v.IsPositive() || v.GreaterThan(decimal.NewFromFloat(0.10)) {
		return domain.NewValidationError(field, "must be in (0, 0.10], got %s", v)
	}
	return nil
}

func (g *Guard) checkYears(field string, v int) error {
	if v < 0 || v > g.limits.MaxYears {
		return domain.NewValidationError(field, "must be between 0 and %d, got %d", g.limits.MaxYears, v)
	}
	return nil
}

func (g *Guard) checkAge(field string, v int) error {
	if v < 0 || v > g.limits.MaxAge {
		return domain.NewValidationError(field, "must be between 0 and %d, got %d", g.limits.MaxAge, v)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
