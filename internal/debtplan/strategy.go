package debtplan

import (
	"sort"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// orderStrategy decides which open debt receives surplus budget. Orders are
// computed once per simulation from the immutable input list.
type orderStrategy interface {
	// Order returns debt indexes in priority order, highest priority first.
	Order(debts []domain.DebtAccount) []int
	Name() domain.PayoffStrategy
}

// createStrategy maps a strategy tag to its ordering. Unknown tags fall back
// to avalanche, the interest-optimal default.
func createStrategy(strategy domain.PayoffStrategy, customOrder []string) orderStrategy {
	switch strategy {
	case domain.StrategySnowball:
		return snowballStrategy{}
	case domain.StrategyCustom:
		return customStrategy{order: customOrder}
	case domain.StrategyMinimumOnly:
		return minimumOnlyStrategy{}
	default:
		return avalancheStrategy{}
	}
}

// avalancheStrategy orders debts by descending interest rate.
type avalancheStrategy struct{}

func (avalancheStrategy) Name() domain.PayoffStrategy { return domain.StrategyAvalanche }

func (avalancheStrategy) Order(debts []domain.DebtAccount) []int {
	idx := indexes(len(debts))
	sort.SliceStable(idx, func(i, j int) bool {
		return debts[idx[i]].AnnualRate.GreaterThan(debts[idx[j]].AnnualRate)
	})
	return idx
}

// snowballStrategy orders debts by ascending balance.
type snowballStrategy struct{}

func (snowballStrategy) Name() domain.PayoffStrategy { return domain.StrategySnowball }

func (snowballStrategy) Order(debts []domain.DebtAccount) []int {
	idx := indexes(len(debts))
	sort.SliceStable(idx, func(i, j int) bool {
		return debts[idx[i]].Balance.LessThan(debts[idx[j]].Balance)
	})
	return idx
}

// customStrategy follows a caller-supplied ID order; debts not named keep
// their input position after the named ones.
type customStrategy struct {
	order []string
}

func (customStrategy) Name() domain.PayoffStrategy { return domain.StrategyCustom }

func (s customStrategy) Order(debts []domain.DebtAccount) []int {
	rank := make(map[string]int, len(s.order))
	for i, id := range s.order {
		rank[id] = i
	}
	idx := indexes(len(debts))
	sort.SliceStable(idx, func(i, j int) bool {
		ri, iok := rank[debts[idx[i]].ID]
		rj, jok := rank[debts[idx[j]].ID]
		if iok && jok {
			return ri < rj
		}
		return iok && !jok
	})
	return idx
}

// minimumOnlyStrategy applies no surplus at all; the order is irrelevant but
// kept stable for schedule output.
type minimumOnlyStrategy struct{}

func (minimumOnlyStrategy) Name() domain.PayoffStrategy { return domain.StrategyMinimumOnly }

func (minimumOnlyStrategy) Order(debts []domain.DebtAccount) []int {
	return indexes(len(debts))
}

func indexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
