package domain

import "github.com/shopspring/decimal"

// DebtType tags a debt account for reporting; it does not affect the math.
type DebtType string

const (
	DebtCreditCard  DebtType = "credit_card"
	DebtStudentLoan DebtType = "student_loan"
	DebtAutoLoan    DebtType = "auto_loan"
	DebtMortgage    DebtType = "mortgage"
	DebtPersonal    DebtType = "personal"
	DebtOther       DebtType = "other"
)

// DebtAccount is one debt in a payoff request. Balance is the positive
// magnitude owed; AnnualRate is fractional (0.18 = 18% APR). The list handed
// to the planner is immutable input for one request.
type DebtAccount struct {
	ID             string          `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	Balance        decimal.Decimal `yaml:"balance" json:"balance"`
	AnnualRate     decimal.Decimal `yaml:"annualRate" json:"annualRate"`
	MinimumPayment decimal.Decimal `yaml:"minimumPayment" json:"minimumPayment"`
	Type           DebtType        `yaml:"type,omitempty" json:"type,omitempty"`
}
