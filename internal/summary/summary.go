// Package summary rolls forecast rows up into annual and per-year summaries
// and lines several forecasts up for side-by-side comparison.
package summary

import (
	"fmt"
	"sort"

	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/iwvelando/finance-projection/pkg/datetime"
	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Summary aggregates a set of forecast rows. Peak periods are zero when
// there are no rows.
type Summary struct {
	Periods          int             `json:"periods"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	AvgMargin        decimal.Decimal `json:"avg_margin"`
	AvgConfidence    decimal.Decimal `json:"avg_confidence"`
	PeakIncomePeriod int             `json:"peak_income_period"`
	PeakProfitPeriod int             `json:"peak_profit_period"`
	GrowthRate       decimal.Decimal `json:"growth_rate"`
}

// Annual sums and averages every row regardless of calendar year.
func Annual(results []forecast.Result) Summary {
	s := Summary{
		Periods:       len(results),
		TotalIncome:   decimal.Zero,
		TotalExpense:  decimal.Zero,
		TotalProfit:   decimal.Zero,
		AvgMargin:     decimal.Zero,
		AvgConfidence: decimal.Zero,
		GrowthRate:    decimal.Zero,
	}
	if len(results) == 0 {
		return s
	}

	margins := make([]decimal.Decimal, 0, len(results))
	confidences := make([]decimal.Decimal, 0, len(results))
	for _, r := range results {
		s.TotalIncome = s.TotalIncome.Add(r.ForecastIncome)
		s.TotalExpense = s.TotalExpense.Add(r.ForecastExpense)
		s.TotalProfit = s.TotalProfit.Add(r.ForecastProfit)
		margins = append(margins, r.ForecastMargin)
		confidences = append(confidences, r.ConfidenceLevel)
	}

	s.TotalIncome = mathutil.Round(s.TotalIncome)
	s.TotalExpense = mathutil.Round(s.TotalExpense)
	s.TotalProfit = mathutil.Round(s.TotalProfit)
	s.AvgMargin = mathutil.RoundPercent(mathutil.Average(margins))
	s.AvgConfidence = mathutil.RoundPercent(mathutil.Average(confidences))
	s.PeakIncomePeriod = results[forecast.MaxBy(results, forecast.IncomeKey)].PeriodIndex
	s.PeakProfitPeriod = results[forecast.MaxBy(results, forecast.ProfitKey)].PeriodIndex
	s.GrowthRate = forecast.IncomeGrowth(results)
	return s
}

// Yearly groups rows by the calendar year reached by rolling
// (startYear, startMonth) forward by each row's offset, and summarizes each
// group. Period 1 falls in the start month itself.
func Yearly(results []forecast.Result, startYear, startMonth int) (map[int]Summary, error) {
	if err := datetime.ValidateMonth(startMonth); err != nil {
		return nil, fmt.Errorf("invalid start month: %w", err)
	}

	groups := make(map[int][]forecast.Result)
	for _, r := range results {
		year, _ := datetime.OffsetMonth(startYear, startMonth, r.PeriodIndex-1)
		groups[year] = append(groups[year], r)
	}

	summaries := make(map[int]Summary, len(groups))
	for year, rows := range groups {
		summaries[year] = Annual(rows)
	}
	return summaries, nil
}

// Years returns the keys of a yearly summary map in ascending order.
func Years(summaries map[int]Summary) []int {
	years := make([]int, 0, len(summaries))
	for year := range summaries {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Series names one forecast for comparison.
type Series struct {
	Name    string            `json:"name"`
	Results []forecast.Result `json:"results"`
}

// Comparison pairs a forecast with its summary for side-by-side rendering.
type Comparison struct {
	Name    string            `json:"name"`
	Summary Summary           `json:"summary"`
	Results []forecast.Result `json:"results"`
}

// Compare summarizes between two and four forecasts, preserving their order.
// Whether the forecasts belong together is for the caller to decide.
func Compare(seriesList []Series) ([]Comparison, error) {
	if len(seriesList) < constants.MinComparedSeries || len(seriesList) > constants.MaxComparedSeries {
		return nil, &TooFewOrTooManySeries{
			Count: len(seriesList),
			Min:   constants.MinComparedSeries,
			Max:   constants.MaxComparedSeries,
		}
	}

	comparisons := make([]Comparison, len(seriesList))
	for i, series := range seriesList {
		name := series.Name
		if name == "" {
			name = fmt.Sprintf("series %d", i+1)
		}
		comparisons[i] = Comparison{
			Name:    name,
			Summary: Annual(series.Results),
			Results: append([]forecast.Result(nil), series.Results...),
		}
	}
	return comparisons, nil
}
