// Package output provides utilities for formatting and displaying projection
// metrics and forecast results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/internal/insight"
	"github.com/iwvelando/finance-projection/internal/projection"
	"github.com/iwvelando/finance-projection/internal/summary"
	"github.com/iwvelando/finance-projection/pkg/format"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ScenarioReport is one scenario's computed metrics plus the undiscounted
// totals of the series they were computed from.
type ScenarioReport struct {
	Name           string
	Type           projection.Type
	Metrics        projection.Metrics
	TotalRevenue   decimal.Decimal
	TotalCost      decimal.Decimal
	TotalNetProfit decimal.Decimal
}

// ForecastReport is one forecast run with everything derived from it.
type ForecastReport struct {
	Name     string
	Run      forecast.Run
	Insights []insight.Insight
	Annual   summary.Summary
	Yearly   map[int]summary.Summary
}

// Report is everything a CLI run prints.
type Report struct {
	Scenarios []ScenarioReport
	Forecasts []ForecastReport
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, report Report) {
	p := message.NewPrinter(language.English)

	if len(report.Scenarios) > 0 {
		_, _ = fmt.Fprintf(w, "--- Projection metrics ---\n")
		_, _ = fmt.Fprintf(w, "Scenario | Type | Net profit | NPV | ROI | IRR | Payback\n")
		_, _ = fmt.Fprintf(w, "________ | ____ | __________ | ___ | ___ | ___ | _______\n")
		for _, s := range report.Scenarios {
			_, _ = p.Fprintf(w, "%s | %s | $%.2f | $%.2f | %s | %s | %s\n",
				s.Name, s.Type, money(s.TotalNetProfit), money(s.Metrics.NPV), format.Percent(s.Metrics.ROI),
				irrLabel(s.Metrics), paybackLabel(s.Metrics))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	for i, f := range report.Forecasts {
		_, _ = fmt.Fprintf(w, "--- Forecast %s (%s) ---\n", f.Name, f.Run.Method)
		_, _ = fmt.Fprintf(w, "Date    | Income | Expense | Profit | Margin | Confidence\n")
		_, _ = fmt.Fprintf(w, "____    | ______ | _______ | ______ | ______ | __________\n")
		for _, r := range f.Run.Results {
			_, _ = p.Fprintf(w, "%s | $%.2f | $%.2f | $%.2f | %s | %s\n",
				r.Date(), money(r.ForecastIncome), money(r.ForecastExpense), money(r.ForecastProfit),
				format.Percent(r.ForecastMargin), format.Percent(r.ConfidenceLevel))
		}

		_, _ = p.Fprintf(w, "Total: income $%.2f, expense $%.2f, profit $%.2f, average margin %s, growth %s\n",
			money(f.Annual.TotalIncome), money(f.Annual.TotalExpense), money(f.Annual.TotalProfit),
			format.Percent(f.Annual.AvgMargin), format.Percent(f.Annual.GrowthRate))
		for _, year := range summary.Years(f.Yearly) {
			y := f.Yearly[year]
			_, _ = p.Fprintf(w, "  %d: income $%.2f, expense $%.2f, profit $%.2f over %d months\n",
				year, money(y.TotalIncome), money(y.TotalExpense), money(y.TotalProfit), y.Periods)
		}

		if len(f.Insights) > 0 {
			_, _ = fmt.Fprintf(w, "Insights:\n")
			for _, in := range f.Insights {
				_, _ = fmt.Fprintf(w, "  [%s] %s: %s\n", in.Severity, in.Title, in.Description)
			}
		}
		if i < len(report.Forecasts)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

// CsvFormat writes the report as two comma-separated tables, scenario
// metrics first and then every forecast row.
func CsvFormat(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)

	if len(report.Scenarios) > 0 {
		if err := cw.Write([]string{"scenario", "type", "npv", "roi", "irr", "irr_converged", "payback_period", "payback_reached"}); err != nil {
			return err
		}
		for _, s := range report.Scenarios {
			m := s.Metrics
			if err := cw.Write([]string{
				s.Name, string(s.Type), m.NPV.StringFixed(2), m.ROI.StringFixed(2), m.IRR.StringFixed(2),
				strconv.FormatBool(m.IRRConverged), strconv.Itoa(m.PaybackPeriod), strconv.FormatBool(m.PaybackReached),
			}); err != nil {
				return err
			}
		}
	}

	if len(report.Forecasts) > 0 {
		if err := cw.Write([]string{"forecast", "date", "income", "expense", "profit", "margin", "confidence", "method"}); err != nil {
			return err
		}
		for _, f := range report.Forecasts {
			for _, r := range f.Run.Results {
				if err := cw.Write([]string{
					f.Name, r.Date(), r.ForecastIncome.StringFixed(2), r.ForecastExpense.StringFixed(2),
					r.ForecastProfit.StringFixed(2), r.ForecastMargin.StringFixed(2), r.ConfidenceLevel.StringFixed(2),
					string(r.Method),
				}); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func irrLabel(m projection.Metrics) string {
	label := format.Percent(m.IRR)
	if !m.IRRConverged {
		label += " (approx.)"
	}
	return label
}

func paybackLabel(m projection.Metrics) string {
	if !m.PaybackReached {
		return fmt.Sprintf("not reached (%d)", m.PaybackPeriod)
	}
	return strconv.Itoa(m.PaybackPeriod)
}
