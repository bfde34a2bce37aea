package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// fingerprintDomain namespaces the digest; the version suffix allows the
// encoding to change without colliding with old keys.
const fingerprintDomain = "wealthsim/request/v1"

// rateScale is the normalization precision: rates and amounts are rounded
// to nine decimal places before hashing, so two semantically identical
// requests digest identically.
const rateScale = 9

// Fingerprint is the cache key for a normalized request.
type Fingerprint string

// FingerprintRequest digests the parameters that determine a calculation's
// output. Caller identity and deadline are deliberately excluded: they
// affect admission, not the result. The seed is included because it does
// affect Monte Carlo output.
func FingerprintRequest(req *domain.CalculationRequest) Fingerprint {
	var b strings.Builder
	b.WriteString(string(req.Kind))
	b.WriteByte(0)
	if req.Seed != nil {
		b.WriteString(strconv.FormatInt(*req.Seed, 10))
	}
	b.WriteByte(0)
	encodeParams(&b, req)

	h := xxhash.New()
	_, _ = h.WriteString(fingerprintDomain)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(b.String())
	return Fingerprint(fmt.Sprintf("%016x", h.Sum64()))
}

// writeDec renders at fixed scale so 0.07 and 0.070000000 digest alike.
func writeDec(b *strings.Builder, v decimal.Decimal) {
	b.WriteString(v.StringFixed(rateScale))
	b.WriteByte('|')
}

func writeInt(b *strings.Builder, v int) {
	b.WriteString(strconv.Itoa(v))
	b.WriteByte('|')
}

func writeStr(b *strings.Builder, v string) {
	b.WriteString(v)
	b.WriteByte('|')
}

// encodeParams writes each kind's fields in a fixed order. Parameter order
// in the original request cannot influence the digest because the encoding
// order is dictated here.
func encodeParams(b *strings.Builder, req *domain.CalculationRequest) {
	switch req.Kind {
	case domain.KindFutureValue:
		if p := req.FutureValue; p != nil {
			writeDec(b, p.Principal)
			writeDec(b, p.AnnualRate)
			writeInt(b, p.Years)
			writeDec(b, p.MonthlyContribution)
		}
	case domain.KindFireNumber:
		if p := req.FireNumber; p != nil {
			writeDec(b, p.AnnualExpenses)
			writeDec(b, p.WithdrawalRate)
		}
	case domain.KindCoastFire:
		if p := req.CoastFire; p != nil {
			writeInt(b, p.CurrentAge)
			for _, age := range p.TargetAges {
				writeInt(b, age)
			}
			writeDec(b, p.CurrentSavings)
			writeDec(b, p.ExpectedReturn)
		}
	case domain.KindBaristaFire:
		if p := req.BaristaFire; p != nil {
			writeDec(b, p.AnnualExpenses)
			writeDec(b, p.PartTimeIncome)
			writeDec(b, p.WithdrawalRate)
		}
	case domain.KindRequiredSavingsRate:
		if p := req.RequiredSavingsRate; p != nil {
			writeDec(b, p.TargetAmount)
			writeDec(b, p.CurrentNetWorth)
			writeDec(b, p.ExpectedReturn)
			writeInt(b, p.Years)
			writeDec(b, p.AnnualIncome)
		}
	case domain.KindGoalPlanning:
		if p := req.GoalPlanning; p != nil {
			for _, g := range p.Goals {
				writeStr(b, g.Name)
				writeDec(b, g.TargetAmount)
				writeDec(b, g.CurrentAmount)
				writeInt(b, g.Years)
				writeDec(b, g.PriorityWeight)
			}
			writeDec(b, p.AnnualIncome)
			writeDec(b, p.ExpectedReturn)
		}
	case domain.KindDebtPayoff:
		if p := req.DebtPayoff; p != nil {
			for _, d := range p.Debts {
				writeStr(b, d.ID)
				writeDec(b, d.Balance)
				writeDec(b, d.AnnualRate)
				writeDec(b, d.MinimumPayment)
			}
			writeDec(b, p.MonthlyBudget)
			writeStr(b, string(p.Strategy))
			for _, id := range p.CustomOrder {
				writeStr(b, id)
			}
			if p.ConsolidationRate != nil {
				writeDec(b, *p.ConsolidationRate)
			}
		}
	case domain.KindMonteCarlo:
		if p := req.MonteCarlo; p != nil {
			writeDec(b, p.InitialBalance)
			writeDec(b, p.MonthlyContribution)
			writeDec(b, p.MeanAnnualReturn)
			writeDec(b, p.AnnualStdDev)
			writeInt(b, p.Years)
			writeInt(b, p.Iterations)
			writeDec(b, p.TargetAmount)
		}
	case domain.KindMarketStressTest:
		if p := req.StressTest; p != nil {
			writeStr(b, p.ScenarioName)
			if c := p.Custom; c != nil {
				writeStr(b, c.Name)
				writeDec(b, c.Magnitude)
				writeInt(b, c.DurationMonths)
				writeStr(b, string(c.Recovery))
				writeInt(b, c.RecoveryMonths)
			}
			writeDec(b, p.InitialBalance)
			writeDec(b, p.MonthlyContribution)
			writeDec(b, p.ExpectedReturn)
			writeDec(b, p.GoalAmount)
			writeInt(b, p.Years)
			writeInt(b, p.EmergencyFundMonths)
		}
	}
}
