// Package debtplan simulates multi-debt payoff under avalanche, snowball,
// custom and minimum-only orderings, and compares them against each other
// and against a hypothetical consolidation loan.
package debtplan

import (
	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// MaxHorizonMonths bounds every simulation. A plan that has not cleared all
// debts by then is reported infeasible instead of simulated indefinitely.
const MaxHorizonMonths = 600

var twelve = decimal.NewFromInt(12)

// Planner runs payoff simulations. Stateless and safe for concurrent use.
type Planner struct{}

func NewPlanner() *Planner { return &Planner{} }

// Plan simulates the requested strategy, or all built-in strategies when no
// strategy is named, and attaches the avalanche-vs-snowball comparison and
// the optional consolidation analysis.
func (pl *Planner) Plan(p *domain.DebtPayoffParams) (*domain.DebtPayoffResult, error) {
	if err := validateDebts(p); err != nil {
		return nil, err
	}

	totalDebt := decimal.Zero
	for _, d := range p.Debts {
		totalDebt = totalDebt.Add(d.Balance)
	}
	result := &domain.DebtPayoffResult{TotalDebt: totalDebt}

	if len(p.Debts) == 0 {
		// Nothing owed: an immediately resolved, zero-month plan.
		result.Strategies = []domain.StrategyOutcome{{
			Strategy:          p.Strategy,
			TotalInterestPaid: decimal.Zero,
			MonthsToDebtFree:  0,
			Feasible:          true,
		}}
		return result, nil
	}

	var strategies []orderStrategy
	if p.Strategy != "" {
		strategies = []orderStrategy{createStrategy(p.Strategy, p.CustomOrder)}
	} else {
		strategies = []orderStrategy{
			avalancheStrategy{},
			snowballStrategy{},
			minimumOnlyStrategy{},
		}
		if len(p.CustomOrder) > 0 {
			strategies = append(strategies, customStrategy{order: p.CustomOrder})
		}
	}

	outcomes := make(map[domain.PayoffStrategy]*domain.StrategyOutcome, len(strategies))
	for _, s := range strategies {
		outcome := simulate(p.Debts, p.MonthlyBudget, s)
		outcomes[s.Name()] = outcome
		result.Strategies = append(result.Strategies, *outcome)
	}

	if av, ok := outcomes[domain.StrategyAvalanche]; ok {
		if sn, ok := outcomes[domain.StrategySnowball]; ok && av.Feasible && sn.Feasible {
			result.Comparison = &domain.StrategyComparison{
				InterestSaved: sn.TotalInterestPaid.Sub(av.TotalInterestPaid),
				MonthsSaved:   sn.MonthsToDebtFree - av.MonthsToDebtFree,
			}
		}
	}

	if p.ConsolidationRate != nil {
		result.Consolidation = consolidate(totalDebt, *p.ConsolidationRate, p.MonthlyBudget, bestOutcome(result.Strategies))
	}

	return result, nil
}

func validateDebts(p *domain.DebtPayoffParams) error {
	if p.MonthlyBudget.IsNegative() {
		return domain.NewDomainError("monthly budget must be non-negative, got %s", p.MonthlyBudget)
	}
	seen := make(map[string]bool, len(p.Debts))
	for _, d := range p.Debts {
		if d.ID == "" {
			return domain.NewDomainError("debt account id must not be empty")
		}
		if seen[d.ID] {
			return domain.NewDomainError("duplicate debt account id %q", d.ID)
		}
		seen[d.ID] = true
		if !d.Balance.IsPositive() {
			return domain.NewDomainError("debt %q: balance must be positive, got %s", d.ID, d.Balance)
		}
		if d.AnnualRate.IsNegative() {
			return domain.NewDomainError("debt %q: interest rate must be non-negative, got %s", d.ID, d.AnnualRate)
		}
		if !d.MinimumPayment.IsPositive() {
			return domain.NewDomainError("debt %q: minimum payment must be positive, got %s", d.ID, d.MinimumPayment)
		}
	}
	if p.ConsolidationRate != nil && p.ConsolidationRate.IsNegative() {
		return domain.NewDomainError("consolidation rate must be non-negative, got %s", p.ConsolidationRate)
	}
	return nil
}

// simulate steps the payoff month by month: accrue interest, pay minimums,
// route the surplus to the strategy's top open debt. A cleared debt leaves
// rotation and its freed minimum joins the surplus from that month on.
func simulate(debts []domain.DebtAccount, budget decimal.Decimal, strategy orderStrategy) *domain.StrategyOutcome {
	outcome := &domain.StrategyOutcome{Strategy: strategy.Name()}

	minimumSum := decimal.Zero
	for _, d := range debts {
		minimumSum = minimumSum.Add(d.MinimumPayment)
	}
	if budget.LessThan(minimumSum) {
		// The budget cannot even cover minimums; simulating would never
		// terminate.
		outcome.Feasible = false
		return outcome
	}

	balances := make([]decimal.Decimal, len(debts))
	for i, d := range debts {
		balances[i] = d.Balance
	}
	order := strategy.Order(debts)
	applySurplus := strategy.Name() != domain.StrategyMinimumOnly

	open := len(debts)
	for month := 1; month <= MaxHorizonMonths && open > 0; month++ {
		plan := domain.MonthPlan{Month: month}

		// Interest accrual for all open debts.
		accrued := make([]decimal.Decimal, len(debts))
		for i := range debts {
			if !balances[i].IsPositive() {
				continue
			}
			interest := balances[i].Mul(debts[i].AnnualRate).Div(twelve)
			accrued[i] = interest
			balances[i] = balances[i].Add(interest)
			outcome.TotalInterestPaid = outcome.TotalInterestPaid.Add(interest)
		}

		// Minimum payments; a nearly-cleared debt pays only what it owes
		// and the remainder stays in the surplus pool.
		surplus := budget
		payments := make([]decimal.Decimal, len(debts))
		for i := range debts {
			if !balances[i].IsPositive() {
				continue
			}
			pay := decimal.Min(debts[i].MinimumPayment, balances[i])
			payments[i] = pay
			balances[i] = balances[i].Sub(pay)
			surplus = surplus.Sub(debts[i].MinimumPayment)
			surplus = surplus.Add(debts[i].MinimumPayment.Sub(pay))
		}

		// Surplus rolls down the strategy order.
		if applySurplus {
			for _, i := range order {
				if !surplus.IsPositive() {
					break
				}
				if !balances[i].IsPositive() {
					continue
				}
				pay := decimal.Min(surplus, balances[i])
				payments[i] = payments[i].Add(pay)
				balances[i] = balances[i].Sub(pay)
				surplus = surplus.Sub(pay)
			}
		}

		open = 0
		for i := range debts {
			if balances[i].IsPositive() {
				open++
			}
			if payments[i].IsPositive() || accrued[i].IsPositive() {
				plan.Payments = append(plan.Payments, domain.DebtPayment{
					DebtID:           debts[i].ID,
					Payment:          payments[i].Round(2),
					InterestAccrued:  accrued[i].Round(2),
					RemainingBalance: balances[i].Round(2),
				})
			}
			plan.TotalPaid = plan.TotalPaid.Add(payments[i])
		}
		plan.TotalPaid = plan.TotalPaid.Round(2)
		outcome.Schedule = append(outcome.Schedule, plan)
		outcome.MonthsToDebtFree = month
	}

	outcome.Feasible = open == 0
	if !outcome.Feasible {
		// Horizon cap hit with debt outstanding.
		outcome.MonthsToDebtFree = 0
	}
	outcome.TotalInterestPaid = outcome.TotalInterestPaid.Round(2)
	return outcome
}

// bestOutcome picks the feasible strategy with the least interest paid.
func bestOutcome(outcomes []domain.StrategyOutcome) *domain.StrategyOutcome {
	var best *domain.StrategyOutcome
	for i := range outcomes {
		o := &outcomes[i]
		if !o.Feasible {
			continue
		}
		if best == nil || o.TotalInterestPaid.LessThan(best.TotalInterestPaid) {
			best = o
		}
	}
	return best
}
