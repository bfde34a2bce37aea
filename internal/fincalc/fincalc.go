// Package fincalc provides the closed-form projection formulas: compound
// growth, FIRE targets and the required-savings solver. All functions are
// pure and safe to call concurrently. Monetary values and rates are
// decimals end to end, so NaN/Infinity cannot enter a formula; float
// screening happens at the parsing boundary before a request is built.
package fincalc

import (
	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

const monthsPerYear = 12

var (
	one           = decimal.NewFromInt(1)
	twelve        = decimal.NewFromInt(monthsPerYear)
	maxWithdrawal = decimal.NewFromFloat(0.10)
)

// monthlyGrowth returns (1 + annualRate/12)^months.
func monthlyGrowth(annualRate decimal.Decimal, months int) decimal.Decimal {
	return one.Add(annualRate.Div(twelve)).Pow(decimal.NewFromInt(int64(months)))
}

// annuityFactor returns ((1+r/12)^months - 1) / (r/12), the future-value
// factor of an ordinary annuity of monthly contributions. The caller must
// handle the r == 0 degenerate case.
func annuityFactor(annualRate decimal.Decimal, months int) decimal.Decimal {
	monthlyRate := annualRate.Div(twelve)
	return monthlyGrowth(annualRate, months).Sub(one).Div(monthlyRate)
}

// FutureValue compounds a principal monthly and adds an ordinary annuity of
// monthly contributions, producing the final value and a yearly series.
func FutureValue(p *domain.FutureValueParams) (*domain.FutureValueResult, error) {
	if p.Years < 0 {
		return nil, domain.NewDomainError("projection years must be non-negative, got %d", p.Years)
	}
	if p.Principal.IsNegative() {
		return nil, domain.NewDomainError("principal must be non-negative, got %s", p.Principal)
	}
	if p.AnnualRate.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return nil, domain.NewDomainError("annual rate must be greater than -100%%, got %s", p.AnnualRate)
	}
	if p.MonthlyContribution.IsNegative() {
		return nil, domain.NewDomainError("monthly contribution must be non-negative, got %s", p.MonthlyContribution)
	}

	series := make([]domain.YearValue, 0, p.Years+1)
	series = append(series, domain.YearValue{Year: 0, Balance: p.Principal})
	for year := 1; year <= p.Years; year++ {
		series = append(series, domain.YearValue{
			Year:    year,
			Balance: valueAtMonth(p.Principal, p.AnnualRate, p.MonthlyContribution, year*monthsPerYear),
		})
	}

	months := p.Years * monthsPerYear
	final := valueAtMonth(p.Principal, p.AnnualRate, p.MonthlyContribution, months)
	contributions := p.MonthlyContribution.Mul(decimal.NewFromInt(int64(months)))

	return &domain.FutureValueResult{
		FinalValue:         final,
		TotalContributions: contributions,
		TotalGrowth:        final.Sub(p.Principal).Sub(contributions),
		YearlySeries:       series,
	}, nil
}

// valueAtMonth is the shared compounding step: principal growth plus the
// annuity value of contributions after the given number of months.
func valueAtMonth(principal, annualRate, contribution decimal.Decimal, months int) decimal.Decimal {
	if annualRate.IsZero() {
		return principal.Add(contribution.Mul(decimal.NewFromInt(int64(months))))
	}
	growth := principal.Mul(monthlyGrowth(annualRate, months))
	return growth.Add(contribution.Mul(annuityFactor(annualRate, months)))
}

// FireNumber returns annualExpenses / withdrawalRate. The withdrawal rate
// must lie in (0, 0.10].
func FireNumber(p *domain.FireNumberParams) (*domain.FireNumberResult, error) {
	if err := checkWithdrawalRate(p.WithdrawalRate); err != nil {
		return nil, err
	}
	if p.AnnualExpenses.IsNegative() {
		return nil, domain.NewDomainError("annual expenses must be non-negative, got %s", p.AnnualExpenses)
	}
	return &domain.FireNumberResult{FireNumber: p.AnnualExpenses.Div(p.WithdrawalRate)}, nil
}

func checkWithdrawalRate(rate decimal.Decimal) error {
	if !rate.IsPositive() || rate.GreaterThan(maxWithdrawal) {
		return domain.NewDomainError("withdrawal rate must be in (0, 0.10], got %s", rate)
	}
	return nil
}

// CoastFire compounds current savings forward with no further contributions
// to each requested target age. Target ages are validated independently.
func CoastFire(p *domain.CoastFireParams) (*domain.CoastFireResult, error) {
	if p.CurrentAge < 0 {
		return nil, domain.NewDomainError("current age must be non-negative, got %d", p.CurrentAge)
	}
	if p.CurrentSavings.IsNegative() {
		return nil, domain.NewDomainError("current savings must be non-negative, got %s", p.CurrentSavings)
	}
	if p.ExpectedReturn.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return nil, domain.NewDomainError("expected return must be greater than -100%%, got %s", p.ExpectedReturn)
	}
	if len(p.TargetAges) == 0 {
		return nil, domain.NewDomainError("at least one target age is required")
	}

	targets := make([]domain.CoastFireTarget, 0, len(p.TargetAges))
	for _, age := range p.TargetAges {
		if age < p.CurrentAge {
			return nil, domain.NewDomainError("target age %d is before current age %d", age, p.CurrentAge)
		}
		months := (age - p.CurrentAge) * monthsPerYear
		targets = append(targets, domain.CoastFireTarget{
			TargetAge:      age,
			ProjectedValue: p.CurrentSavings.Mul(monthlyGrowth(p.ExpectedReturn, months)),
		})
	}
	return &domain.CoastFireResult{Targets: targets}, nil
}

// BaristaFire reduces the full FIRE number by the portion of expenses a
// part-time income covers: (expenses - partTimeIncome) / withdrawalRate,
// floored at zero when part-time income covers everything.
func BaristaFire(p *domain.BaristaFireParams) (*domain.BaristaFireResult, error) {
	if err := checkWithdrawalRate(p.WithdrawalRate); err != nil {
		return nil, err
	}
	if p.AnnualExpenses.IsNegative() {
		return nil, domain.NewDomainError("annual expenses must be non-negative, got %s", p.AnnualExpenses)
	}
	if p.PartTimeIncome.IsNegative() {
		return nil, domain.NewDomainError("part-time income must be non-negative, got %s", p.PartTimeIncome)
	}

	full := p.AnnualExpenses.Div(p.WithdrawalRate)
	uncovered := p.AnnualExpenses.Sub(p.PartTimeIncome)
	if uncovered.IsNegative() {
		uncovered = decimal.Zero
	}
	barista := uncovered.Div(p.WithdrawalRate)

	return &domain.BaristaFireResult{
		BaristaNumber:  barista,
		FullFireNumber: full,
		Reduction:      full.Sub(barista),
	}, nil
}
