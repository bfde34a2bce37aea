package fincalc

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

const (
	// maxSavingsShare caps the answer: a required rate above 95% of income
	// is reported infeasible instead of returned as a plan.
	maxSavingsShareFloat = 0.95

	bisectionIterations = 128
	allocationRounds    = 16
)

var (
	maxSavingsShare    = decimal.NewFromFloat(maxSavingsShareFloat)
	bisectionTolerance = decimal.NewFromFloat(0.000001)
)

// RequiredSavingsRate solves for the monthly contribution reaching a target
// amount over the horizon, given current net worth and an expected return.
// The closed form inverts the annuity factor; a zero expected return makes
// that form degenerate and the solver falls back to bisection.
func RequiredSavingsRate(p *domain.RequiredSavingsRateParams) (*domain.RequiredSavingsRateResult, error) {
	if p.Years <= 0 {
		return nil, domain.NewDomainError("horizon years must be positive, got %d", p.Years)
	}
	if p.TargetAmount.IsNegative() {
		return nil, domain.NewDomainError("target amount must be non-negative, got %s", p.TargetAmount)
	}
	if p.CurrentNetWorth.IsNegative() {
		return nil, domain.NewDomainError("current net worth must be non-negative, got %s", p.CurrentNetWorth)
	}
	if p.ExpectedReturn.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return nil, domain.NewDomainError("expected return must be greater than -100%%, got %s", p.ExpectedReturn)
	}
	if !p.AnnualIncome.IsPositive() {
		return nil, domain.NewDomainError("annual income must be positive, got %s", p.AnnualIncome)
	}

	months := p.Years * monthsPerYear
	contribution, method := solveContribution(p.TargetAmount, p.CurrentNetWorth, p.ExpectedReturn, months)

	monthlyIncome := p.AnnualIncome.Div(twelve)
	rate := contribution.Div(monthlyIncome)
	feasible := rate.LessThanOrEqual(maxSavingsShare)

	return &domain.RequiredSavingsRateResult{
		MonthlyContribution: contribution,
		SavingsRate:         rate,
		Feasible:            feasible,
		Method:              method,
	}, nil
}

// solveContribution returns the monthly contribution whose future value,
// together with the compounded net worth, reaches target after months.
func solveContribution(target, netWorth, annualRate decimal.Decimal, months int) (decimal.Decimal, domain.SolveMethod) {
	if annualRate.IsZero() {
		return bisectContribution(target, netWorth, annualRate, months), domain.SolveBisection
	}

	gap := target.Sub(netWorth.Mul(monthlyGrowth(annualRate, months)))
	if !gap.IsPositive() {
		// Existing net worth already compounds past the target.
		return decimal.Zero, domain.SolveClosedForm
	}
	return gap.Div(annuityFactor(annualRate, months)), domain.SolveClosedForm
}

// bisectContribution searches for the contribution by bisection on the
// future-value function, bracketing upward until the target is covered.
func bisectContribution(target, netWorth, annualRate decimal.Decimal, months int) decimal.Decimal {
	lo := decimal.Zero
	if !valueAtMonth(netWorth, annualRate, lo, months).LessThan(target) {
		return decimal.Zero
	}

	hi := decimal.NewFromInt(1000)
	for valueAtMonth(netWorth, annualRate, hi, months).LessThan(target) {
		hi = hi.Mul(decimal.NewFromInt(2))
	}

	for i := 0; i < bisectionIterations; i++ {
		mid := lo.Add(hi).Div(decimal.NewFromInt(2))
		if hi.Sub(lo).LessThan(bisectionTolerance) {
			break
		}
		if valueAtMonth(netWorth, annualRate, mid, months).LessThan(target) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

// GoalPlanning allocates one income stream across competing goals by
// priority weight, re-solving until allocations are stable or the round
// bound is hit. Goals whose allocation cannot cover their required
// contribution are flagged infeasible rather than silently shorted.
func GoalPlanning(p *domain.GoalPlanningParams) (*domain.GoalPlanningResult, error) {
	if len(p.Goals) == 0 {
		return nil, domain.NewDomainError("at least one goal is required")
	}
	if !p.AnnualIncome.IsPositive() {
		return nil, domain.NewDomainError("annual income must be positive, got %s", p.AnnualIncome)
	}
	if p.ExpectedReturn.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return nil, domain.NewDomainError("expected return must be greater than -100%%, got %s", p.ExpectedReturn)
	}

	type goalState struct {
		goal      domain.Goal
		required  decimal.Decimal
		allocated decimal.Decimal
		satisfied bool
	}

	states := make([]*goalState, 0, len(p.Goals))
	for _, g := range p.Goals {
		if g.Years <= 0 {
			return nil, domain.NewDomainError("goal %q: horizon years must be positive, got %d", g.Name, g.Years)
		}
		if g.TargetAmount.IsNegative() || g.CurrentAmount.IsNegative() {
			return nil, domain.NewDomainError("goal %q: amounts must be non-negative", g.Name)
		}
		if !g.PriorityWeight.IsPositive() {
			return nil, domain.NewDomainError("goal %q: priority weight must be positive, got %s", g.Name, g.PriorityWeight)
		}
		required, _ := solveContribution(g.TargetAmount, g.CurrentAmount, p.ExpectedReturn, g.Years*monthsPerYear)
		states = append(states, &goalState{goal: g, required: required})
	}

	monthlyBudget := p.AnnualIncome.Div(twelve).Mul(maxSavingsShare)

	totalRequired := decimal.Zero
	for _, s := range states {
		totalRequired = totalRequired.Add(s.required)
	}

	rounds := 0
	if totalRequired.LessThanOrEqual(monthlyBudget) {
		for _, s := range states {
			s.allocated = s.required
			s.satisfied = true
		}
	} else {
		// Weighted allocation with surplus redistribution: goals needing
		// less than their share free the remainder for the rest.
		remaining := monthlyBudget
		open := make([]*goalState, len(states))
		copy(open, states)
		// Higher priority weight gets first claim on each round's pool.
		sort.SliceStable(open, func(i, j int) bool {
			return open[i].goal.PriorityWeight.GreaterThan(open[j].goal.PriorityWeight)
		})

		for rounds = 0; rounds < allocationRounds && len(open) > 0 && remaining.IsPositive(); rounds++ {
			weightSum := decimal.Zero
			for _, s := range open {
				weightSum = weightSum.Add(s.goal.PriorityWeight)
			}

			next := open[:0]
			pool := remaining
			for _, s := range open {
				share := pool.Mul(s.goal.PriorityWeight).Div(weightSum)
				need := s.required.Sub(s.allocated)
				if need.LessThanOrEqual(share) {
					s.allocated = s.required
					s.satisfied = true
					remaining = remaining.Sub(need)
				} else {
					s.allocated = s.allocated.Add(share)
					remaining = remaining.Sub(share)
					next = append(next, s)
				}
			}
			if len(next) == len(open) {
				// No goal closed this round; shares are stable.
				break
			}
			open = next
		}
	}

	monthlyIncome := p.AnnualIncome.Div(twelve)
	result := &domain.GoalPlanningResult{Iterations: rounds}
	allFeasible := true
	for _, s := range states {
		feasible := s.satisfied || s.allocated.GreaterThanOrEqual(s.required)
		if !feasible {
			allFeasible = false
		}
		result.Allocations = append(result.Allocations, domain.GoalAllocation{
			Name:                s.goal.Name,
			MonthlyContribution: s.allocated,
			SavingsRate:         s.allocated.Div(monthlyIncome),
			Feasible:            feasible,
		})
		result.TotalMonthly = result.TotalMonthly.Add(s.allocated)
	}
	result.TotalSavingsRate = result.TotalMonthly.Div(monthlyIncome)
	result.Feasible = allFeasible

	return result, nil
}
