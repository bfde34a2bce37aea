package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CacheStatus reports how the cache participated in serving a result.
type CacheStatus string

const (
	CacheHit      CacheStatus = "hit"
	CacheMiss     CacheStatus = "miss"
	CacheBypassed CacheStatus = "bypassed"
)

// ResultMeta carries cross-cutting response metadata.
type ResultMeta struct {
	CacheStatus   CacheStatus   `json:"cacheStatus"`
	ComputeTimeMs int64         `json:"computeTimeMs"`
	Warnings      []string      `json:"warnings,omitempty"`
	ComputedAt    time.Time     `json:"computedAt"`
	Elapsed       time.Duration `json:"-"`
}

// CalculationResult mirrors CalculationRequest: the payload field matching
// Kind is set, all others are nil.
type CalculationResult struct {
	Kind CalculationKind `json:"kind"`
	Meta ResultMeta      `json:"meta"`

	FutureValue         *FutureValueResult         `json:"futureValue,omitempty"`
	FireNumber          *FireNumberResult          `json:"fireNumber,omitempty"`
	CoastFire           *CoastFireResult           `json:"coastFire,omitempty"`
	BaristaFire         *BaristaFireResult         `json:"baristaFire,omitempty"`
	RequiredSavingsRate *RequiredSavingsRateResult `json:"requiredSavingsRate,omitempty"`
	GoalPlanning        *GoalPlanningResult        `json:"goalPlanning,omitempty"`
	DebtPayoff          *DebtPayoffResult          `json:"debtPayoff,omitempty"`
	MonteCarlo          *MonteCarloResult          `json:"monteCarlo,omitempty"`
	StressTest          *StressTestResult          `json:"stressTest,omitempty"`
}

// YearValue is one point of a yearly projection series.
type YearValue struct {
	Year    int             `json:"year"`
	Balance decimal.Decimal `json:"balance"`
}

type FutureValueResult struct {
	FinalValue         decimal.Decimal `json:"finalValue"`
	TotalContributions decimal.Decimal `json:"totalContributions"`
	TotalGrowth        decimal.Decimal `json:"totalGrowth"`
	YearlySeries       []YearValue     `json:"yearlySeries"`
}

type FireNumberResult struct {
	FireNumber decimal.Decimal `json:"fireNumber"`
}

// CoastFireTarget is the projection for one requested target age.
type CoastFireTarget struct {
	TargetAge      int             `json:"targetAge"`
	ProjectedValue decimal.Decimal `json:"projectedValue"`
}

type CoastFireResult struct {
	Targets []CoastFireTarget `json:"targets"`
}

type BaristaFireResult struct {
	BaristaNumber  decimal.Decimal `json:"baristaNumber"`
	FullFireNumber decimal.Decimal `json:"fullFireNumber"`
	Reduction      decimal.Decimal `json:"reduction"`
}

// SolveMethod records which solver produced a required-savings answer.
type SolveMethod string

const (
	SolveClosedForm SolveMethod = "closed_form"
	SolveBisection  SolveMethod = "bisection"
)

type RequiredSavingsRateResult struct {
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	SavingsRate         decimal.Decimal `json:"savingsRate"`
	Feasible            bool            `json:"feasible"`
	Method              SolveMethod     `json:"method"`
}

// GoalAllocation is the solved contribution for one goal after priority
// weighting.
type GoalAllocation struct {
	Name                string          `json:"name"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	SavingsRate         decimal.Decimal `json:"savingsRate"`
	Feasible            bool            `json:"feasible"`
}

type GoalPlanningResult struct {
	Allocations      []GoalAllocation `json:"allocations"`
	TotalMonthly     decimal.Decimal  `json:"totalMonthly"`
	TotalSavingsRate decimal.Decimal  `json:"totalSavingsRate"`
	Feasible         bool             `json:"feasible"`
	Iterations       int              `json:"iterations"`
}

// DebtPayment is one debt's slice of a monthly plan entry.
type DebtPayment struct {
	DebtID           string          `json:"debtId"`
	Payment          decimal.Decimal `json:"payment"`
	InterestAccrued  decimal.Decimal `json:"interestAccrued"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// MonthPlan is one month of a payoff schedule.
type MonthPlan struct {
	Month     int             `json:"month"`
	Payments  []DebtPayment   `json:"payments"`
	TotalPaid decimal.Decimal `json:"totalPaid"`
}

// StrategyOutcome summarizes one strategy's full simulation.
type StrategyOutcome struct {
	Strategy          PayoffStrategy  `json:"strategy"`
	TotalInterestPaid decimal.Decimal `json:"totalInterestPaid"`
	MonthsToDebtFree  int             `json:"monthsToDebtFree"`
	Feasible          bool            `json:"feasible"`
	Schedule          []MonthPlan     `json:"schedule,omitempty"`
}

// StrategyComparison quantifies avalanche's edge over snowball.
type StrategyComparison struct {
	InterestSaved decimal.Decimal `json:"interestSaved"`
	MonthsSaved   int             `json:"monthsSaved"`
}

// ConsolidationOutcome compares the existing debt mix against one
// consolidated loan at the requested rate.
type ConsolidationOutcome struct {
	ConsolidatedRate    decimal.Decimal `json:"consolidatedRate"`
	TotalInterestPaid   decimal.Decimal `json:"totalInterestPaid"`
	MonthsToDebtFree    int             `json:"monthsToDebtFree"`
	InterestSavedVsBest decimal.Decimal `json:"interestSavedVsBest"`
	Recommended         bool            `json:"recommended"`
}

type DebtPayoffResult struct {
	TotalDebt     decimal.Decimal       `json:"totalDebt"`
	Strategies    []StrategyOutcome     `json:"strategies"`
	Comparison    *StrategyComparison   `json:"comparison,omitempty"`
	Consolidation *ConsolidationOutcome `json:"consolidation,omitempty"`
}

type MonteCarloResult struct {
	Iterations         int                        `json:"iterations"`
	Periods            int                        `json:"periods"`
	Percentiles        map[string]decimal.Decimal `json:"percentiles"`
	SuccessProbability decimal.Decimal            `json:"successProbability"`
	MeanFinalBalance   decimal.Decimal            `json:"meanFinalBalance"`

	// ConfidenceWidth is p90 minus p10, the spread of the outcome band.
	ConfidenceWidth decimal.Decimal `json:"confidenceWidth"`

	// MeanConfidenceWidth is the width of the 95% confidence interval on
	// the mean final balance; it narrows as iteration count grows.
	MeanConfidenceWidth decimal.Decimal `json:"meanConfidenceWidth"`
}

type StressTestResult struct {
	ScenarioName        string          `json:"scenarioName"`
	BaselineFinalValue  decimal.Decimal `json:"baselineFinalValue"`
	ShockedFinalValue   decimal.Decimal `json:"shockedFinalValue"`
	BaselineMonthsToGoal int            `json:"baselineMonthsToGoal"`
	ShockedMonthsToGoal  int            `json:"shockedMonthsToGoal"`
	DelayMonths          int            `json:"delayMonths"`
	WorstCaseImpact      decimal.Decimal `json:"worstCaseImpact"`
	RiskScore            decimal.Decimal `json:"riskScore"`
	GoalReached          bool            `json:"goalReached"`
}
