// Package cashflow defines the ordered per-period cash-flow records the
// projection and forecast engines consume.
package cashflow

import (
	"fmt"

	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Period holds one period's (year or month) revenue, cost and net profit.
// NetProfit is trusted as given and is not recomputed from Revenue and Cost.
type Period struct {
	PeriodIndex int             `json:"period_index" mapstructure:"periodIndex"`
	Revenue     decimal.Decimal `json:"revenue" mapstructure:"revenue"`
	Cost        decimal.Decimal `json:"cost" mapstructure:"cost"`
	NetProfit   decimal.Decimal `json:"net_profit" mapstructure:"netProfit"`
}

// Series is an ordered list of periods with strictly increasing indices.
type Series []Period

// NewPeriod builds a Period with NetProfit derived from revenue and cost.
func NewPeriod(index int, revenue, cost decimal.Decimal) Period {
	return Period{
		PeriodIndex: index,
		Revenue:     revenue,
		Cost:        cost,
		NetProfit:   revenue.Sub(cost),
	}
}

// FromNetProfits builds a contiguous series starting at period 1 where only
// net profit is known.
func FromNetProfits(netProfits ...decimal.Decimal) Series {
	series := make(Series, len(netProfits))
	for i, net := range netProfits {
		series[i] = Period{PeriodIndex: i + 1, NetProfit: net}
	}
	return series
}

// Validate checks that every index is at least 1 and indices strictly
// increase.
func (s Series) Validate() error {
	previous := 0
	for i, period := range s {
		if period.PeriodIndex < 1 {
			return fmt.Errorf("period %d has index %d, expected index >= 1", i, period.PeriodIndex)
		}
		if period.PeriodIndex <= previous {
			return fmt.Errorf("period %d has index %d, expected index greater than %d", i, period.PeriodIndex, previous)
		}
		previous = period.PeriodIndex
	}
	return nil
}

// Len returns the number of periods.
func (s Series) Len() int {
	return len(s)
}

// Last returns the final period and whether the series is non-empty.
func (s Series) Last() (Period, bool) {
	if len(s) == 0 {
		return Period{}, false
	}
	return s[len(s)-1], true
}

// TotalNetProfit sums NetProfit over the whole series.
func (s Series) TotalNetProfit() decimal.Decimal {
	total := decimal.Zero
	for _, period := range s {
		total = total.Add(period.NetProfit)
	}
	return total
}

// TotalRevenue sums Revenue over the whole series.
func (s Series) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, period := range s {
		total = total.Add(period.Revenue)
	}
	return total
}

// TotalCost sums Cost over the whole series.
func (s Series) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, period := range s {
		total = total.Add(period.Cost)
	}
	return total
}

// Clone returns an independent copy of the series.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// YearlyProjection compounds a first-year revenue and cost forward by the
// growth rate (a fraction) to produce a contiguous yearly series of the given
// length. Values are rounded to currency precision each year.
func YearlyProjection(baseRevenue, baseCost, growthRate decimal.Decimal, years int) Series {
	if years <= 0 {
		return nil
	}
	factor := mathutil.One.Add(growthRate)
	series := make(Series, 0, years)
	revenue := baseRevenue
	cost := baseCost
	for year := 1; year <= years; year++ {
		series = append(series, NewPeriod(year, mathutil.Round(revenue), mathutil.Round(cost)))
		revenue = revenue.Mul(factor)
		cost = cost.Mul(factor)
	}
	return series
}
