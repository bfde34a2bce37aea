package debtplan

import (
	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// consolidate amortizes the whole debt mix as one loan at the given rate
// with the full budget as its payment, and compares the interest cost
// against the best existing strategy.
func consolidate(totalDebt, annualRate, budget decimal.Decimal, best *domain.StrategyOutcome) *domain.ConsolidationOutcome {
	outcome := &domain.ConsolidationOutcome{ConsolidatedRate: annualRate}

	balance := totalDebt
	for month := 1; month <= MaxHorizonMonths && balance.IsPositive(); month++ {
		interest := balance.Mul(annualRate).Div(twelve)
		balance = balance.Add(interest)
		outcome.TotalInterestPaid = outcome.TotalInterestPaid.Add(interest)

		pay := decimal.Min(budget, balance)
		if !pay.IsPositive() {
			// Payment cannot cover growth; the loan never amortizes.
			outcome.MonthsToDebtFree = 0
			return outcome
		}
		balance = balance.Sub(pay)
		outcome.MonthsToDebtFree = month
	}

	if balance.IsPositive() {
		outcome.MonthsToDebtFree = 0
		return outcome
	}

	outcome.TotalInterestPaid = outcome.TotalInterestPaid.Round(2)
	if best != nil {
		outcome.InterestSavedVsBest = best.TotalInterestPaid.Sub(outcome.TotalInterestPaid)
		outcome.Recommended = outcome.InterestSavedVsBest.IsPositive()
	}
	return outcome
}
