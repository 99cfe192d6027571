// Package projection computes long-horizon investment metrics (NPV, ROI,
// IRR and payback period) for yearly cash-flow scenarios.
package projection

import (
	"fmt"

	"github.com/iwvelando/finance-projection/internal/cashflow"
	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Type classifies a scenario.
type Type string

const (
	Optimistic  Type = "optimistic"
	Realistic   Type = "realistic"
	Pessimistic Type = "pessimistic"
)

var revenueMultipliers = map[Type]decimal.Decimal{
	Optimistic:  mathutil.MustParse("1.2"),
	Realistic:   mathutil.MustParse("1.0"),
	Pessimistic: mathutil.MustParse("0.8"),
}

// ParseType validates a scenario type string. An empty string is realistic.
func ParseType(value string) (Type, error) {
	if value == "" {
		return Realistic, nil
	}
	t := Type(value)
	if _, ok := revenueMultipliers[t]; !ok {
		return "", fmt.Errorf("unknown scenario type %q, expected optimistic, realistic or pessimistic", value)
	}
	return t, nil
}

// RevenueMultiplier returns the revenue scaling applied to a scenario type.
func (t Type) RevenueMultiplier() decimal.Decimal {
	if m, ok := revenueMultipliers[t]; ok {
		return m
	}
	return mathutil.One
}

// Scenario is a named yearly cash-flow projection plus its rates. Metrics is
// nil until ComputeMetrics runs and is only ever replaced as a whole.
type Scenario struct {
	Name            string              `json:"name"`
	Type            Type                `json:"type"`
	DiscountRate    decimal.Decimal     `json:"discount_rate"`
	GrowthRate      decimal.Decimal     `json:"growth_rate"`
	BaselineCapital decimal.NullDecimal `json:"baseline_capital"`
	Series          cashflow.Series     `json:"series"`
	Metrics         *Metrics            `json:"metrics,omitempty"`
}

// Metrics holds the derived investment metrics of a scenario.
type Metrics struct {
	NPV            decimal.Decimal `json:"npv"`
	ROI            decimal.Decimal `json:"roi"`
	IRR            decimal.Decimal `json:"irr"`
	PaybackPeriod  int             `json:"payback_period"`
	PaybackReached bool            `json:"payback_reached"`
	IRRIterations  int             `json:"irr_iterations"`
	IRRConverged   bool            `json:"irr_converged"`
	IRRNote        string          `json:"irr_note,omitempty"`
}

// IRRWarning returns a *NonConvergentIRR when the IRR is an approximation,
// and nil otherwise.
func (m Metrics) IRRWarning() error {
	if m.IRRConverged {
		return nil
	}
	return &NonConvergentIRR{
		Iterations: m.IRRIterations,
		Reason:     m.IRRNote,
		Estimate:   m.IRR.StringFixed(4),
	}
}

// Equal reports whether all derived fields are identical.
func (m Metrics) Equal(other Metrics) bool {
	return m.NPV.Equal(other.NPV) &&
		m.ROI.Equal(other.ROI) &&
		m.IRR.Equal(other.IRR) &&
		m.PaybackPeriod == other.PaybackPeriod &&
		m.PaybackReached == other.PaybackReached &&
		m.IRRIterations == other.IRRIterations &&
		m.IRRConverged == other.IRRConverged
}

// NewScenario builds a scenario whose series compounds the first-year
// revenue and cost by growthRate, with revenue scaled by the scenario type.
func NewScenario(name string, t Type, discountRate, growthRate, baseline, baseRevenue, baseCost decimal.Decimal, years int) Scenario {
	revenue := baseRevenue.Mul(t.RevenueMultiplier())
	return Scenario{
		Name:            name,
		Type:            t,
		DiscountRate:    discountRate,
		GrowthRate:      growthRate,
		BaselineCapital: decimal.NewNullDecimal(baseline),
		Series:          cashflow.YearlyProjection(revenue, baseCost, growthRate, years),
	}
}
