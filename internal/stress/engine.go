package stress

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

const monthsPerYear = 12

// extensionMonths is how far past the stated horizon the engine keeps
// simulating when measuring goal delay.
const extensionMonths = 600

var (
	one    = decimal.NewFromInt(1)
	twelve = decimal.NewFromInt(monthsPerYear)
)

// Engine applies shock scenarios to deterministic projections.
type Engine struct {
	catalog *Catalog
}

func NewEngine(catalog *Catalog) *Engine {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Engine{catalog: catalog}
}

// Catalog exposes the engine's scenario catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Run projects the plan twice, with baseline returns and with the shock
// overlay, and reports goal delay, worst-case impact and a composite risk
// score. A custom scenario in the params takes precedence over a named one.
func (e *Engine) Run(ctx context.Context, p *domain.StressTestParams) (*domain.StressTestResult, error) {
	scenario, err := e.resolveScenario(p)
	if err != nil {
		return nil, err
	}
	if p.Years <= 0 {
		return nil, domain.NewDomainError("projection years must be positive, got %d", p.Years)
	}
	if p.InitialBalance.IsNegative() || p.MonthlyContribution.IsNegative() {
		return nil, domain.NewDomainError("balance and contribution must be non-negative")
	}
	if p.ExpectedReturn.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return nil, domain.NewDomainError("expected return must be greater than -100%%, got %s", p.ExpectedReturn)
	}

	horizon := p.Years * monthsPerYear
	total := horizon
	if p.GoalAmount.IsPositive() {
		total += extensionMonths
	}

	baselineReturns := baselinePath(p.ExpectedReturn, total)
	shockedReturns := overlayShock(baselineReturns, p.ExpectedReturn, scenario)

	if err := ctx.Err(); err != nil {
		return nil, domain.NewTimeoutError(err)
	}

	baseline := project(p.InitialBalance, p.MonthlyContribution, baselineReturns)
	shocked := project(p.InitialBalance, p.MonthlyContribution, shockedReturns)

	result := &domain.StressTestResult{
		ScenarioName:       scenario.Name,
		BaselineFinalValue: baseline[horizon].Round(2),
		ShockedFinalValue:  shocked[horizon].Round(2),
	}

	// Worst-case impact is the deepest shortfall of the shocked path below
	// the baseline path at the same month.
	worst := decimal.Zero
	for t := 0; t <= horizon; t++ {
		gap := shocked[t].Sub(baseline[t])
		if gap.LessThan(worst) {
			worst = gap
		}
	}
	result.WorstCaseImpact = worst.Round(2)

	if p.GoalAmount.IsPositive() {
		baselineMonths, baselineReached := monthsToReach(baseline, p.GoalAmount)
		shockedMonths, shockedReached := monthsToReach(shocked, p.GoalAmount)
		result.BaselineMonthsToGoal = baselineMonths
		result.ShockedMonthsToGoal = shockedMonths
		result.GoalReached = shockedReached
		if shockedReached && baselineReached {
			result.DelayMonths = shockedMonths - baselineMonths
		}
	} else {
		result.GoalReached = true
	}

	result.RiskScore = riskScore(scenario, p.EmergencyFundMonths)
	return result, nil
}

func (e *Engine) resolveScenario(p *domain.StressTestParams) (*domain.ShockScenario, error) {
	if p.Custom != nil {
		if err := Validate(p.Custom); err != nil {
			return nil, err
		}
		return p.Custom, nil
	}
	if p.ScenarioName == "" {
		return nil, domain.NewValidationError("scenarioName", "either a scenario name or a custom scenario is required")
	}
	s, ok := e.catalog.Get(p.ScenarioName)
	if !ok {
		return nil, domain.NewValidationError("scenarioName", "unknown scenario %q", p.ScenarioName)
	}
	return &s, nil
}

// baselinePath is the flat monthly return sequence implied by the expected
// annual return.
func baselinePath(annualReturn decimal.Decimal, months int) []decimal.Decimal {
	monthly := annualReturn.Div(twelve)
	path := make([]decimal.Decimal, months)
	for i := range path {
		path[i] = monthly
	}
	return path
}

// overlayShock replaces the opening months of the baseline path with the
// scenario's shock and recovery legs. The shock magnitude is spread over
// its duration so the cumulative drawdown matches the scenario.
func overlayShock(baseline []decimal.Decimal, annualReturn decimal.Decimal, s *domain.ShockScenario) []decimal.Decimal {
	path := make([]decimal.Decimal, len(baseline))
	copy(path, baseline)

	// (1+magnitude)^(1/duration) - 1 per shocked month.
	mag, _ := s.Magnitude.Float64()
	monthlyShock := decimal.NewFromFloat(math.Pow(1+mag, 1/float64(s.DurationMonths)) - 1)
	for t := 0; t < s.DurationMonths && t < len(path); t++ {
		path[t] = monthlyShock
	}

	monthlyBase := annualReturn.Div(twelve)
	start := s.DurationMonths
	switch s.Recovery {
	case domain.RecoveryImmediate:
		// Baseline resumes as copied.
	case domain.RecoveryGradual:
		// Linear ramp from zero back up to the baseline return.
		span := decimal.NewFromInt(int64(s.RecoveryMonths))
		for i := 0; i < s.RecoveryMonths && start+i < len(path); i++ {
			frac := decimal.NewFromInt(int64(i + 1)).Div(span)
			path[start+i] = monthlyBase.Mul(frac)
		}
	case domain.RecoveryDelayed:
		// Flat zero returns before the baseline resumes.
		for i := 0; i < s.RecoveryMonths && start+i < len(path); i++ {
			path[start+i] = decimal.Zero
		}
	case domain.RecoveryPartial:
		// Returns run at half pace for the recovery window.
		half := monthlyBase.Div(decimal.NewFromInt(2))
		for i := 0; i < s.RecoveryMonths && start+i < len(path); i++ {
			path[start+i] = half
		}
	}
	return path
}

// project compounds the balance along a return path with monthly
// contributions. Index t of the returned series is the balance after t
// months; index 0 is the initial balance.
func project(initial, contribution decimal.Decimal, returns []decimal.Decimal) []decimal.Decimal {
	series := make([]decimal.Decimal, len(returns)+1)
	series[0] = initial
	balance := initial
	for t, r := range returns {
		balance = balance.Mul(one.Add(r)).Add(contribution)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		series[t+1] = balance
	}
	return series
}

// monthsToReach returns the first month the series reaches the goal. Month
// zero is the initial balance, so a plan can be at the goal before any
// returns apply; the bool distinguishes that from never reaching it.
func monthsToReach(series []decimal.Decimal, goal decimal.Decimal) (int, bool) {
	for t, v := range series {
		if v.GreaterThanOrEqual(goal) {
			return t, true
		}
	}
	return 0, false
}

// Risk score weights: severity dominates, recovery length second, margin of
// safety (emergency-fund months, saturating at a year) third.
var (
	severityWeight = decimal.NewFromFloat(0.5)
	recoveryWeight = decimal.NewFromFloat(0.3)
	marginWeight   = decimal.NewFromFloat(0.2)
	hundred        = decimal.NewFromInt(100)
)

// riskScore combines shock severity, time to recovery and the plan's margin
// of safety into a 0-100 score; higher is riskier.
func riskScore(s *domain.ShockScenario, emergencyFundMonths int) decimal.Decimal {
	severity := s.Magnitude.Abs()
	if severity.GreaterThan(one) {
		severity = one
	}

	recoverySpan := s.DurationMonths + s.RecoveryMonths
	recovery := decimal.NewFromInt(int64(recoverySpan)).Div(decimal.NewFromInt(60))
	if recovery.GreaterThan(one) {
		recovery = one
	}

	if emergencyFundMonths < 0 {
		emergencyFundMonths = 0
	}
	cushion := decimal.NewFromInt(int64(emergencyFundMonths)).Div(twelve)
	if cushion.GreaterThan(one) {
		cushion = one
	}
	margin := one.Sub(cushion)

	score := severity.Mul(severityWeight).
		Add(recovery.Mul(recoveryWeight)).
		Add(margin.Mul(marginWeight)).
		Mul(hundred)
	return score.Round(1)
}
