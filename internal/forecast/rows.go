package forecast

import (
	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Key selects the value a row is ranked by.
type Key func(Result) decimal.Decimal

// Row keys shared by the insight and summary packages.
var (
	IncomeKey  Key = func(r Result) decimal.Decimal { return r.ForecastIncome }
	ExpenseKey Key = func(r Result) decimal.Decimal { return r.ForecastExpense }
	ProfitKey  Key = func(r Result) decimal.Decimal { return r.ForecastProfit }
	MarginKey  Key = func(r Result) decimal.Decimal { return r.ForecastMargin }
)

// MaxBy returns the index of the row with the greatest key. Ties keep the
// earliest period. It returns -1 for no rows.
func MaxBy(results []Result, key Key) int {
	return pick(results, key, 1)
}

// MinBy returns the index of the row with the smallest key. Ties keep the
// earliest period. It returns -1 for no rows.
func MinBy(results []Result, key Key) int {
	return pick(results, key, -1)
}

func pick(results []Result, key Key, direction int) int {
	if len(results) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(results); i++ {
		cmp := key(results[i]).Cmp(key(results[best])) * direction
		if cmp > 0 || (cmp == 0 && results[i].PeriodIndex < results[best].PeriodIndex) {
			best = i
		}
	}
	return best
}

// IncomeGrowth returns the percentage change in income from the first row to
// the last, or zero when the first row has no income.
func IncomeGrowth(results []Result) decimal.Decimal {
	if len(results) == 0 {
		return decimal.Zero
	}
	first := results[0].ForecastIncome
	last := results[len(results)-1].ForecastIncome
	if first.IsZero() {
		return decimal.Zero
	}
	return mathutil.RoundPercent(mathutil.CalculatePercentage(last.Sub(first), first))
}
