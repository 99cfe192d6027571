// Package insight derives severity-tagged observations from forecast rows.
package insight

import (
	"fmt"
	"sort"

	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/iwvelando/finance-projection/pkg/format"
	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Type names the kind of observation.
type Type string

const (
	PeakIncome         Type = "peak_income"
	LowestIncome       Type = "lowest_income"
	PeakExpense        Type = "peak_expense"
	PeakProfit         Type = "peak_profit"
	LowestProfit       Type = "lowest_profit"
	LossRisk           Type = "loss_risk"
	BreakEven          Type = "break_even"
	MaxMargin          Type = "max_margin"
	GrowthRate         Type = "growth_rate"
	BaselineComparison Type = "baseline_comparison"
)

// Severity ranks an insight. Critical outranks warning, which outranks
// positive, which outranks info.
type Severity string

const (
	Critical Severity = "critical"
	Warning  Severity = "warning"
	Positive Severity = "positive"
	Info     Severity = "info"
)

var severityRank = map[Severity]int{
	Critical: 0,
	Warning:  1,
	Positive: 2,
	Info:     3,
}

// Rank returns the sort position of the severity; lower is more severe.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Insight is one derived observation.
type Insight struct {
	Type        Type     `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Value       *string  `json:"value"`
	PeriodIndex *int     `json:"period_index"`
	Severity    Severity `json:"severity"`
}

// Options holds the tunable thresholds.
type Options struct {
	// LowMarginThreshold is the margin percentage under which a profitable
	// month is flagged as a loss-risk warning.
	LowMarginThreshold decimal.Decimal
	// HealthyMarginThreshold is the margin percentage at or above which the
	// best month is reported as positive.
	HealthyMarginThreshold decimal.Decimal
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{
		LowMarginThreshold:     mathutil.MustParse(constants.DefaultLowMarginThreshold),
		HealthyMarginThreshold: mathutil.MustParse(constants.HealthyMarginThreshold),
	}
}

// Derive returns the insights for a forecast with the default thresholds.
func Derive(results []forecast.Result, historical *forecast.HistoricalPeriod) []Insight {
	return DeriveWithOptions(results, historical, DefaultOptions())
}

// DeriveWithOptions scans the rows and returns insights ordered by severity
// and then period. historical may be nil. The function is pure.
func DeriveWithOptions(results []forecast.Result, historical *forecast.HistoricalPeriod, opts Options) []Insight {
	if len(results) == 0 {
		return nil
	}

	var insights []Insight
	insights = append(insights, extremes(results)...)
	insights = append(insights, lossRisks(results, opts)...)
	if in, ok := breakEven(results); ok {
		insights = append(insights, in)
	}
	insights = append(insights, maxMargin(results, opts))
	insights = append(insights, growthRate(results))
	if historical != nil {
		insights = append(insights, baselineComparison(results[0], *historical))
	}

	sort.SliceStable(insights, func(i, j int) bool {
		ri, rj := insights[i].Severity.Rank(), insights[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return periodOf(insights[i]) < periodOf(insights[j])
	})
	return insights
}

func extremes(results []forecast.Result) []Insight {
	peakIncome := results[forecast.MaxBy(results, forecast.IncomeKey)]
	lowIncome := results[forecast.MinBy(results, forecast.IncomeKey)]
	peakExpense := results[forecast.MaxBy(results, forecast.ExpenseKey)]
	peakProfit := results[forecast.MaxBy(results, forecast.ProfitKey)]
	lowProfit := results[forecast.MinBy(results, forecast.ProfitKey)]

	peakProfitSeverity := Positive
	if peakProfit.ForecastProfit.Sign() < 0 {
		peakProfitSeverity = Warning
	}
	lowProfitSeverity := Info
	if lowProfit.ForecastProfit.Sign() < 0 {
		lowProfitSeverity = Warning
	}

	return []Insight{
		newInsight(PeakIncome, Positive, peakIncome, "Peak income",
			fmt.Sprintf("Highest forecast income of %s in %s", format.Currency(peakIncome.ForecastIncome), peakIncome.Date()),
			format.Currency(peakIncome.ForecastIncome)),
		newInsight(LowestIncome, Info, lowIncome, "Lowest income",
			fmt.Sprintf("Lowest forecast income of %s in %s", format.Currency(lowIncome.ForecastIncome), lowIncome.Date()),
			format.Currency(lowIncome.ForecastIncome)),
		newInsight(PeakExpense, Info, peakExpense, "Peak expense",
			fmt.Sprintf("Highest forecast expense of %s in %s", format.Currency(peakExpense.ForecastExpense), peakExpense.Date()),
			format.Currency(peakExpense.ForecastExpense)),
		newInsight(PeakProfit, peakProfitSeverity, peakProfit, "Peak profit",
			fmt.Sprintf("Highest forecast profit of %s in %s", format.Currency(peakProfit.ForecastProfit), peakProfit.Date()),
			format.Currency(peakProfit.ForecastProfit)),
		newInsight(LowestProfit, lowProfitSeverity, lowProfit, "Lowest profit",
			fmt.Sprintf("Lowest forecast profit of %s in %s", format.Currency(lowProfit.ForecastProfit), lowProfit.Date()),
			format.Currency(lowProfit.ForecastProfit)),
	}
}

func lossRisks(results []forecast.Result, opts Options) []Insight {
	var insights []Insight
	for _, r := range results {
		switch {
		case r.ForecastProfit.Sign() < 0:
			insights = append(insights, newInsight(LossRisk, Critical, r, "Forecast loss",
				fmt.Sprintf("Expenses exceed income by %s in %s", format.Currency(r.ForecastProfit.Neg()), r.Date()),
				format.Currency(r.ForecastProfit)))
		case r.ForecastMargin.Sign() > 0 && r.ForecastMargin.LessThan(opts.LowMarginThreshold):
			insights = append(insights, newInsight(LossRisk, Warning, r, "Thin margin",
				fmt.Sprintf("Margin of %s in %s is below %s", format.Percent(r.ForecastMargin), r.Date(), format.Percent(opts.LowMarginThreshold)),
				format.Percent(r.ForecastMargin)))
		}
	}
	return insights
}

func breakEven(results []forecast.Result) (Insight, bool) {
	cumulative := decimal.Zero
	for _, r := range results {
		previous := cumulative
		cumulative = cumulative.Add(r.ForecastProfit)
		if previous.Sign() < 0 && cumulative.Sign() >= 0 {
			return newInsight(BreakEven, Positive, r, "Break-even",
				fmt.Sprintf("Cumulative profit turns non-negative in %s", r.Date()),
				format.Currency(cumulative)), true
		}
	}
	return Insight{}, false
}

func maxMargin(results []forecast.Result, opts Options) Insight {
	best := results[forecast.MaxBy(results, forecast.MarginKey)]
	severity := Info
	if best.ForecastMargin.GreaterThanOrEqual(opts.HealthyMarginThreshold) {
		severity = Positive
	}
	return newInsight(MaxMargin, severity, best, "Best margin",
		fmt.Sprintf("Highest margin of %s in %s", format.Percent(best.ForecastMargin), best.Date()),
		format.Percent(best.ForecastMargin))
}

func growthRate(results []forecast.Result) Insight {
	growth := forecast.IncomeGrowth(results)
	severity := Info
	switch growth.Sign() {
	case 1:
		severity = Positive
	case -1:
		severity = Warning
	}
	value := format.Percent(growth)
	return Insight{
		Type:  GrowthRate,
		Title: "Income growth",
		Description: fmt.Sprintf("Income changes by %s from %s to %s", value,
			results[0].Date(), results[len(results)-1].Date()),
		Value:    &value,
		Severity: severity,
	}
}

func baselineComparison(first forecast.Result, historical forecast.HistoricalPeriod) Insight {
	change := mathutil.RoundPercent(mathutil.CalculatePercentage(
		first.ForecastIncome.Sub(historical.TotalIncome()), historical.TotalIncome()))
	value := format.Percent(change)
	return newInsight(BaselineComparison, Info, first, "Against baseline",
		fmt.Sprintf("First forecast month income is %s against the baseline month's %s",
			format.Currency(first.ForecastIncome), format.Currency(historical.TotalIncome())),
		value)
}

func newInsight(t Type, severity Severity, r forecast.Result, title, description, value string) Insight {
	period := r.PeriodIndex
	return Insight{
		Type:        t,
		Title:       title,
		Description: description,
		Value:       &value,
		PeriodIndex: &period,
		Severity:    severity,
	}
}

func periodOf(in Insight) int {
	if in.PeriodIndex == nil {
		return int(^uint(0) >> 1)
	}
	return *in.PeriodIndex
}
