package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalculationKind identifies the calculation a request is asking for.
type CalculationKind string

const (
	KindFutureValue         CalculationKind = "future_value"
	KindFireNumber          CalculationKind = "fire_number"
	KindCoastFire           CalculationKind = "coast_fire"
	KindBaristaFire         CalculationKind = "barista_fire"
	KindRequiredSavingsRate CalculationKind = "required_savings_rate"
	KindGoalPlanning        CalculationKind = "goal_planning"
	KindDebtPayoff          CalculationKind = "debt_payoff"
	KindMonteCarlo          CalculationKind = "monte_carlo"
	KindMarketStressTest    CalculationKind = "market_stress_test"
)

// Kinds lists every supported calculation kind.
func Kinds() []CalculationKind {
	return []CalculationKind{
		KindFutureValue,
		KindFireNumber,
		KindCoastFire,
		KindBaristaFire,
		KindRequiredSavingsRate,
		KindGoalPlanning,
		KindDebtPayoff,
		KindMonteCarlo,
		KindMarketStressTest,
	}
}

// CalculationRequest is the single entry contract for the engine. Exactly one
// params field matching Kind must be set; the request is treated as immutable
// once constructed.
type CalculationRequest struct {
	Kind     CalculationKind `yaml:"kind" json:"kind"`
	CallerID string          `yaml:"callerId" json:"callerId"`

	// Seed makes Monte Carlo output reproducible. Nil means a time-derived seed.
	Seed *int64 `yaml:"seed,omitempty" json:"seed,omitempty"`

	// Deadline, when set, bounds the computation; exceeding it yields a
	// Timeout error rather than a partial result.
	Deadline *time.Time `yaml:"deadline,omitempty" json:"deadline,omitempty"`

	FutureValue         *FutureValueParams         `yaml:"futureValue,omitempty" json:"futureValue,omitempty"`
	FireNumber          *FireNumberParams          `yaml:"fireNumber,omitempty" json:"fireNumber,omitempty"`
	CoastFire           *CoastFireParams           `yaml:"coastFire,omitempty" json:"coastFire,omitempty"`
	BaristaFire         *BaristaFireParams         `yaml:"baristaFire,omitempty" json:"baristaFire,omitempty"`
	RequiredSavingsRate *RequiredSavingsRateParams `yaml:"requiredSavingsRate,omitempty" json:"requiredSavingsRate,omitempty"`
	GoalPlanning        *GoalPlanningParams        `yaml:"goalPlanning,omitempty" json:"goalPlanning,omitempty"`
	DebtPayoff          *DebtPayoffParams          `yaml:"debtPayoff,omitempty" json:"debtPayoff,omitempty"`
	MonteCarlo          *MonteCarloParams          `yaml:"monteCarlo,omitempty" json:"monteCarlo,omitempty"`
	StressTest          *StressTestParams          `yaml:"stressTest,omitempty" json:"stressTest,omitempty"`
}

// FutureValueParams projects a principal with monthly compounding and an
// ordinary annuity of monthly contributions.
type FutureValueParams struct {
	Principal           decimal.Decimal `yaml:"principal" json:"principal"`
	AnnualRate          decimal.Decimal `yaml:"annualRate" json:"annualRate"`
	Years               int             `yaml:"years" json:"years"`
	MonthlyContribution decimal.Decimal `yaml:"monthlyContribution" json:"monthlyContribution"`
}

type FireNumberParams struct {
	AnnualExpenses decimal.Decimal `yaml:"annualExpenses" json:"annualExpenses"`
	WithdrawalRate decimal.Decimal `yaml:"withdrawalRate" json:"withdrawalRate"`
}

// CoastFireParams evaluates one or more target ages in a single call; each
// target age is validated independently.
type CoastFireParams struct {
	CurrentAge     int             `yaml:"currentAge" json:"currentAge"`
	TargetAges     []int           `yaml:"targetAges" json:"targetAges"`
	CurrentSavings decimal.Decimal `yaml:"currentSavings" json:"currentSavings"`
	ExpectedReturn decimal.Decimal `yaml:"expectedReturn" json:"expectedReturn"`
}

type BaristaFireParams struct {
	AnnualExpenses decimal.Decimal `yaml:"annualExpenses" json:"annualExpenses"`
	PartTimeIncome decimal.Decimal `yaml:"partTimeIncome" json:"partTimeIncome"`
	WithdrawalRate decimal.Decimal `yaml:"withdrawalRate" json:"withdrawalRate"`
}

type RequiredSavingsRateParams struct {
	TargetAmount    decimal.Decimal `yaml:"targetAmount" json:"targetAmount"`
	CurrentNetWorth decimal.Decimal `yaml:"currentNetWorth" json:"currentNetWorth"`
	ExpectedReturn  decimal.Decimal `yaml:"expectedReturn" json:"expectedReturn"`
	Years           int             `yaml:"years" json:"years"`
	AnnualIncome    decimal.Decimal `yaml:"annualIncome" json:"annualIncome"`
}

// Goal is one savings goal competing for an income stream in goal planning.
type Goal struct {
	Name           string          `yaml:"name" json:"name"`
	TargetAmount   decimal.Decimal `yaml:"targetAmount" json:"targetAmount"`
	CurrentAmount  decimal.Decimal `yaml:"currentAmount" json:"currentAmount"`
	Years          int             `yaml:"years" json:"years"`
	PriorityWeight decimal.Decimal `yaml:"priorityWeight" json:"priorityWeight"`
}

type GoalPlanningParams struct {
	Goals          []Goal          `yaml:"goals" json:"goals"`
	AnnualIncome   decimal.Decimal `yaml:"annualIncome" json:"annualIncome"`
	ExpectedReturn decimal.Decimal `yaml:"expectedReturn" json:"expectedReturn"`
}

// PayoffStrategy selects a debt ordering for the payoff simulation.
type PayoffStrategy string

const (
	StrategyAvalanche   PayoffStrategy = "avalanche"
	StrategySnowball    PayoffStrategy = "snowball"
	StrategyCustom      PayoffStrategy = "custom"
	StrategyMinimumOnly PayoffStrategy = "minimum_only"
)

type DebtPayoffParams struct {
	Debts         []DebtAccount   `yaml:"debts" json:"debts"`
	MonthlyBudget decimal.Decimal `yaml:"monthlyBudget" json:"monthlyBudget"`

	// Strategy may be empty, in which case every built-in strategy is
	// simulated and compared.
	Strategy    PayoffStrategy `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	CustomOrder []string       `yaml:"customOrder,omitempty" json:"customOrder,omitempty"`

	// ConsolidationRate, when set, adds a comparison against a single
	// consolidated loan at this annual rate.
	ConsolidationRate *decimal.Decimal `yaml:"consolidationRate,omitempty" json:"consolidationRate,omitempty"`
}

type MonteCarloParams struct {
	InitialBalance      decimal.Decimal `yaml:"initialBalance" json:"initialBalance"`
	MonthlyContribution decimal.Decimal `yaml:"monthlyContribution" json:"monthlyContribution"`
	MeanAnnualReturn    decimal.Decimal `yaml:"meanAnnualReturn" json:"meanAnnualReturn"`
	AnnualStdDev        decimal.Decimal `yaml:"annualStdDev" json:"annualStdDev"`
	Years               int             `yaml:"years" json:"years"`
	Iterations          int             `yaml:"iterations" json:"iterations"`

	// TargetAmount drives the success probability; zero means no target.
	TargetAmount decimal.Decimal `yaml:"targetAmount" json:"targetAmount"`
}

type StressTestParams struct {
	// ScenarioName selects a named scenario from the engine's catalog.
	// Custom, when set, takes precedence over ScenarioName.
	ScenarioName string         `yaml:"scenarioName,omitempty" json:"scenarioName,omitempty"`
	Custom       *ShockScenario `yaml:"custom,omitempty" json:"custom,omitempty"`

	InitialBalance      decimal.Decimal `yaml:"initialBalance" json:"initialBalance"`
	MonthlyContribution decimal.Decimal `yaml:"monthlyContribution" json:"monthlyContribution"`
	ExpectedReturn      decimal.Decimal `yaml:"expectedReturn" json:"expectedReturn"`
	GoalAmount          decimal.Decimal `yaml:"goalAmount" json:"goalAmount"`
	Years               int             `yaml:"years" json:"years"`

	// EmergencyFundMonths feeds the margin-of-safety term of the risk score.
	EmergencyFundMonths int `yaml:"emergencyFundMonths" json:"emergencyFundMonths"`
}

// RecoveryPattern describes how returns behave after a shock window ends.
type RecoveryPattern string

const (
	RecoveryImmediate RecoveryPattern = "immediate"
	RecoveryGradual   RecoveryPattern = "gradual"
	RecoveryDelayed   RecoveryPattern = "delayed"
	RecoveryPartial   RecoveryPattern = "partial"
)

// ShockScenario is a market shock expressed as data so new scenarios can be
// added without touching simulation code.
type ShockScenario struct {
	Name           string          `yaml:"name" json:"name"`
	Description    string          `yaml:"description,omitempty" json:"description,omitempty"`
	Magnitude      decimal.Decimal `yaml:"magnitude" json:"magnitude"` // e.g. -0.40 for a 40% drawdown
	DurationMonths int             `yaml:"durationMonths" json:"durationMonths"`
	Recovery       RecoveryPattern `yaml:"recovery" json:"recovery"`

	// RecoveryMonths bounds the recovery leg for gradual/delayed/partial
	// patterns; ignored for immediate recovery.
	RecoveryMonths int `yaml:"recoveryMonths,omitempty" json:"recoveryMonths,omitempty"`
}

// Params returns the kind-specific params struct, or nil when the field
// matching Kind is unset.
func (r *CalculationRequest) Params() any {
	switch r.Kind {
	case KindFutureValue:
		if r.FutureValue != nil {
			return r.FutureValue
		}
	case KindFireNumber:
		if r.FireNumber != nil {
			return r.FireNumber
		}
	case KindCoastFire:
		if r.CoastFire != nil {
			return r.CoastFire
		}
	case KindBaristaFire:
		if r.BaristaFire != nil {
			return r.BaristaFire
		}
	case KindRequiredSavingsRate:
		if r.RequiredSavingsRate != nil {
			return r.RequiredSavingsRate
		}
	case KindGoalPlanning:
		if r.GoalPlanning != nil {
			return r.GoalPlanning
		}
	case KindDebtPayoff:
		if r.DebtPayoff != nil {
			return r.DebtPayoff
		}
	case KindMonteCarlo:
		if r.MonteCarlo != nil {
			return r.MonteCarlo
		}
	case KindMarketStressTest:
		if r.StressTest != nil {
			return r.StressTest
		}
	}
	return nil
}
