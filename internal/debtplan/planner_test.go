package debtplan

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func sampleDebts() []domain.DebtAccount {
	return []domain.DebtAccount{
		{ID: "card", Name: "Credit card", Balance: dec(5000), AnnualRate: dec(0.22), MinimumPayment: dec(100), Type: domain.DebtCreditCard},
		{ID: "car", Name: "Auto loan", Balance: dec(12000), AnnualRate: dec(0.06), MinimumPayment: dec(250), Type: domain.DebtAutoLoan},
		{ID: "loan", Name: "Student loan", Balance: dec(20000), AnnualRate: dec(0.05), MinimumPayment: dec(200), Type: domain.DebtStudentLoan},
	}
}

func outcomeFor(t *testing.T, result *domain.DebtPayoffResult, strategy domain.PayoffStrategy) *domain.StrategyOutcome {
	t.Helper()
	for i := range result.Strategies {
		if result.Strategies[i].Strategy == strategy {
			return &result.Strategies[i]
		}
	}
	t.Fatalf("strategy %s missing from result", strategy)
	return nil
}

func TestPlan_EmptyDebtList(t *testing.T) {
	planner := NewPlanner()
	result, err := planner.Plan(&domain.DebtPayoffParams{MonthlyBudget: dec(500)})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(result.Strategies) != 1 {
		t.Fatalf("Expected a single resolved outcome, got %d", len(result.Strategies))
	}
	if result.Strategies[0].MonthsToDebtFree != 0 {
		t.Errorf("Expected zero months for no debt, got %d", result.Strategies[0].MonthsToDebtFree)
	}
	if !result.Strategies[0].Feasible {
		t.Error("Expected an empty debt list to be trivially feasible")
	}
}

func TestPlan_BudgetBelowMinimumsIsInfeasible(t *testing.T) {
	planner := NewPlanner()
	result, err := planner.Plan(&domain.DebtPayoffParams{
		Debts:         sampleDebts(),
		MonthlyBudget: dec(300), // minimums sum to 550
		Strategy:      domain.StrategyAvalanche,
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	outcome := outcomeFor(t, result, domain.StrategyAvalanche)
	if outcome.Feasible {
		t.Error("Expected infeasibility when the budget cannot cover minimum payments")
	}
	if len(outcome.Schedule) != 0 {
		t.Error("Expected no schedule to be simulated for an infeasible budget")
	}
}

func TestPlan_SingleDebtAmortizes(t *testing.T) {
	planner := NewPlanner()
	result, err := planner.Plan(&domain.DebtPayoffParams{
		Debts: []domain.DebtAccount{
			{ID: "d1", Balance: dec(1000), AnnualRate: dec(0.12), MinimumPayment: dec(50)},
		},
		MonthlyBudget: dec(200),
		Strategy:      domain.StrategyAvalanche,
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	outcome := outcomeFor(t, result, domain.StrategyAvalanche)
	if !outcome.Feasible {
		t.Fatal("Expected the plan to be feasible")
	}
	// 1000 at 1%/month with 200/month clears in 6 months.
	if outcome.MonthsToDebtFree != 6 {
		t.Errorf("Expected 6 months to debt-free, got %d", outcome.MonthsToDebtFree)
	}

	last := outcome.Schedule[len(outcome.Schedule)-1]
	for _, p := range last.Payments {
		if !p.RemainingBalance.IsZero() {
			t.Errorf("Expected zero final balance, got %s", p.RemainingBalance)
		}
	}
}

func TestPlan_AvalancheBeatsSnowballOnInterest(t *testing.T) {
	planner := NewPlanner()
	result, err := planner.Plan(&domain.DebtPayoffParams{
		Debts:         sampleDebts(),
		MonthlyBudget: dec(1000),
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	avalanche := outcomeFor(t, result, domain.StrategyAvalanche)
	snowball := outcomeFor(t, result, domain.StrategySnowball)
	if avalanche.TotalInterestPaid.GreaterThan(snowball.TotalInterestPaid) {
		t.Errorf("Expected avalanche interest %s <= snowball interest %s",
			avalanche.TotalInterestPaid, snowball.TotalInterestPaid)
	}

	if result.Comparison == nil {
		t.Fatal("Expected an avalanche-vs-snowball comparison")
	}
	if result.Comparison.InterestSaved.IsNegative() {
		t.Errorf("Expected non-negative interest savings, got %s", result.Comparison.InterestSaved)
	}
}

// Randomized debt sets: avalanche is interest-optimal by construction, so
// its total interest never exceeds snowball's.
func TestPlan_AvalancheOptimalProperty(t *testing.T) {
	planner := NewPlanner()
	rng := rand.New(rand.NewSource(20240621))

	for trial := 0; trial < 60; trial++ {
		n := 2 + rng.Intn(5)
		debts := make([]domain.DebtAccount, n)
		minimums := decimal.Zero
		for i := range debts {
			balance := 500 + rng.Float64()*20000
			debts[i] = domain.DebtAccount{
				ID:             string(rune('a' + i)),
				Balance:        dec(balance),
				AnnualRate:     dec(0.01 + rng.Float64()*0.29),
				MinimumPayment: dec(25 + balance*0.02),
			}
			minimums = minimums.Add(debts[i].MinimumPayment)
		}
		budget := minimums.Add(dec(50 + rng.Float64()*500))

		result, err := planner.Plan(&domain.DebtPayoffParams{Debts: debts, MonthlyBudget: budget})
		if err != nil {
			t.Fatalf("trial %d: Plan returned error: %v", trial, err)
		}
		avalanche := outcomeFor(t, result, domain.StrategyAvalanche)
		snowball := outcomeFor(t, result, domain.StrategySnowball)
		if !avalanche.Feasible || !snowball.Feasible {
			continue
		}
		if avalanche.TotalInterestPaid.GreaterThan(snowball.TotalInterestPaid) {
			t.Errorf("trial %d: avalanche paid more interest (%s) than snowball (%s)",
				trial, avalanche.TotalInterestPaid, snowball.TotalInterestPaid)
		}
	}
}

func TestPlan_MinimumOnlyIsSlowest(t *testing.T) {
	planner := NewPlanner()
	result, err := planner.Plan(&domain.DebtPayoffParams{
		Debts:         sampleDebts(),
		MonthlyBudget: dec(1200),
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	avalanche := outcomeFor(t, result, domain.StrategyAvalanche)
	minOnly := outcomeFor(t, result, domain.StrategyMinimumOnly)
	if minOnly.Feasible && minOnly.MonthsToDebtFree < avalanche.MonthsToDebtFree {
		t.Errorf("Expected minimum-only (%d months) to be no faster than avalanche (%d months)",
			minOnly.MonthsToDebtFree, avalanche.MonthsToDebtFree)
	}
}

func TestPlan_CustomOrderRoutesSurplusFirst(t *testing.T) {
	planner := NewPlanner()
	result, err := planner.Plan(&domain.DebtPayoffParams{
		Debts:         sampleDebts(),
		MonthlyBudget: dec(1000),
		Strategy:      domain.StrategyCustom,
		CustomOrder:   []string{"loan", "card", "car"},
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	outcome := outcomeFor(t, result, domain.StrategyCustom)

	// In month 1 the named first debt receives its minimum plus all surplus.
	first := outcome.Schedule[0]
	var loanPayment decimal.Decimal
	for _, p := range first.Payments {
		if p.DebtID == "loan" {
			loanPayment = p.Payment
		}
	}
	// Budget 1000, minimums 550, surplus 450 on top of the 200 minimum.
	if !loanPayment.Equal(dec(650)) {
		t.Errorf("Expected 650 to the custom-priority debt in month 1, got %s", loanPayment)
	}
}

func TestPlan_ConsolidationAnalysis(t *testing.T) {
	planner := NewPlanner()
	rate := dec(0.04)
	result, err := planner.Plan(&domain.DebtPayoffParams{
		Debts:             sampleDebts(),
		MonthlyBudget:     dec(1000),
		ConsolidationRate: &rate,
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if result.Consolidation == nil {
		t.Fatal("Expected a consolidation analysis")
	}
	if result.Consolidation.MonthsToDebtFree == 0 {
		t.Error("Expected the consolidated loan to amortize")
	}
	// A 4% consolidated rate beats a mix containing a 22% card.
	if !result.Consolidation.Recommended {
		t.Error("Expected consolidation at 4% to be recommended")
	}
}

func TestPlan_RejectsInvalidDebts(t *testing.T) {
	planner := NewPlanner()
	cases := []struct {
		name  string
		debts []domain.DebtAccount
	}{
		{"missing id", []domain.DebtAccount{{Balance: dec(100), MinimumPayment: dec(10)}}},
		{"duplicate id", []domain.DebtAccount{
			{ID: "x", Balance: dec(100), MinimumPayment: dec(10)},
			{ID: "x", Balance: dec(200), MinimumPayment: dec(10)},
		}},
		{"zero balance", []domain.DebtAccount{{ID: "x", Balance: decimal.Zero, MinimumPayment: dec(10)}}},
		{"negative rate", []domain.DebtAccount{{ID: "x", Balance: dec(100), AnnualRate: dec(-0.01), MinimumPayment: dec(10)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := planner.Plan(&domain.DebtPayoffParams{Debts: tc.debts, MonthlyBudget: dec(100)})
			if err == nil {
				t.Fatal("Expected a domain error")
			}
			if !domain.IsKind(err, domain.ErrDomain) {
				t.Errorf("Expected DOMAIN_ERROR, got %v", err)
			}
		})
	}
}
