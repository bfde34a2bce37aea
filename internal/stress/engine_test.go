package stress

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func testParams(scenario string) *domain.StressTestParams {
	return &domain.StressTestParams{
		ScenarioName:        scenario,
		InitialBalance:      dec(200000),
		MonthlyContribution: dec(1500),
		ExpectedReturn:      dec(0.07),
		GoalAmount:          dec(600000),
		Years:               15,
		EmergencyFundMonths: 6,
	}
}

func TestRun_ShockReducesFinalValue(t *testing.T) {
	engine := NewEngine(nil)
	result, err := engine.Run(context.Background(), testParams("sharp_crash"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if !result.ShockedFinalValue.LessThan(result.BaselineFinalValue) {
		t.Errorf("Expected shock to reduce the final value: shocked %s vs baseline %s",
			result.ShockedFinalValue, result.BaselineFinalValue)
	}
	if !result.WorstCaseImpact.IsNegative() {
		t.Errorf("Expected a negative worst-case impact, got %s", result.WorstCaseImpact)
	}
	if result.DelayMonths < 0 {
		t.Errorf("Expected a non-negative goal delay, got %d", result.DelayMonths)
	}
}

func TestRun_DelayMeasuredAgainstBaseline(t *testing.T) {
	engine := NewEngine(nil)
	result, err := engine.Run(context.Background(), testParams("severe_downturn"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.GoalReached {
		t.Fatal("Expected the goal to still be reachable within the extended window")
	}
	if result.ShockedMonthsToGoal <= result.BaselineMonthsToGoal {
		t.Errorf("Expected a severe downturn to delay the goal: baseline %d, shocked %d",
			result.BaselineMonthsToGoal, result.ShockedMonthsToGoal)
	}
	if result.DelayMonths != result.ShockedMonthsToGoal-result.BaselineMonthsToGoal {
		t.Errorf("Delay %d inconsistent with months-to-goal %d/%d",
			result.DelayMonths, result.BaselineMonthsToGoal, result.ShockedMonthsToGoal)
	}
}

func TestRun_GoalAlreadyMetAtStart(t *testing.T) {
	engine := NewEngine(nil)

	p := testParams("sharp_crash")
	p.InitialBalance = dec(1000000)
	p.GoalAmount = dec(500000)

	result, err := engine.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.GoalReached {
		t.Error("Expected a plan starting at the goal to report it reached")
	}
	if result.BaselineMonthsToGoal != 0 || result.ShockedMonthsToGoal != 0 {
		t.Errorf("Expected zero months to a goal already met, got baseline %d shocked %d",
			result.BaselineMonthsToGoal, result.ShockedMonthsToGoal)
	}
	if result.DelayMonths != 0 {
		t.Errorf("Expected no delay for a goal already met, got %d", result.DelayMonths)
	}
}

func TestRun_RiskScoreGrowsWithSeverity(t *testing.T) {
	engine := NewEngine(nil)

	mild := testParams("")
	mild.Custom = &domain.ShockScenario{
		Name: "mild", Magnitude: dec(-0.10), DurationMonths: 3, Recovery: domain.RecoveryImmediate,
	}
	severe := testParams("")
	severe.Custom = &domain.ShockScenario{
		Name: "severe", Magnitude: dec(-0.55), DurationMonths: 30,
		Recovery: domain.RecoveryDelayed, RecoveryMonths: 36,
	}

	mildResult, err := engine.Run(context.Background(), mild)
	if err != nil {
		t.Fatalf("mild run returned error: %v", err)
	}
	severeResult, err := engine.Run(context.Background(), severe)
	if err != nil {
		t.Fatalf("severe run returned error: %v", err)
	}
	if !severeResult.RiskScore.GreaterThan(mildResult.RiskScore) {
		t.Errorf("Expected a harsher scenario to score higher: %s vs %s",
			severeResult.RiskScore, mildResult.RiskScore)
	}
}

func TestRun_EmergencyFundLowersRisk(t *testing.T) {
	engine := NewEngine(nil)

	cushioned := testParams("sharp_crash")
	cushioned.EmergencyFundMonths = 12
	exposed := testParams("sharp_crash")
	exposed.EmergencyFundMonths = 0

	cushionedResult, err := engine.Run(context.Background(), cushioned)
	if err != nil {
		t.Fatalf("cushioned run returned error: %v", err)
	}
	exposedResult, err := engine.Run(context.Background(), exposed)
	if err != nil {
		t.Fatalf("exposed run returned error: %v", err)
	}
	if !cushionedResult.RiskScore.LessThan(exposedResult.RiskScore) {
		t.Errorf("Expected an emergency fund to lower the risk score: %s vs %s",
			cushionedResult.RiskScore, exposedResult.RiskScore)
	}
}

func TestRun_UnknownScenario(t *testing.T) {
	engine := NewEngine(nil)
	_, err := engine.Run(context.Background(), testParams("tulip_mania"))
	if err == nil {
		t.Fatal("Expected rejection for an unknown scenario")
	}
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Errorf("Expected VALIDATION_ERROR, got %v", err)
	}
}

func TestRun_RecoveryPatternsDiverge(t *testing.T) {
	engine := NewEngine(nil)

	run := func(recovery domain.RecoveryPattern) decimal.Decimal {
		p := testParams("")
		p.Custom = &domain.ShockScenario{
			Name: "probe", Magnitude: dec(-0.30), DurationMonths: 6,
			Recovery: recovery, RecoveryMonths: 24,
		}
		result, err := engine.Run(context.Background(), p)
		if err != nil {
			t.Fatalf("run with %s recovery returned error: %v", recovery, err)
		}
		return result.ShockedFinalValue
	}

	immediate := run(domain.RecoveryImmediate)
	delayed := run(domain.RecoveryDelayed)
	partial := run(domain.RecoveryPartial)

	if !immediate.GreaterThan(delayed) {
		t.Errorf("Expected immediate recovery (%s) to beat delayed (%s)", immediate, delayed)
	}
	if !partial.GreaterThan(delayed) {
		t.Errorf("Expected partial recovery (%s) to beat a flat delayed window (%s)", partial, delayed)
	}
}
