// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/internal/insight"
	"github.com/iwvelando/finance-projection/pkg/output"
	"github.com/shopspring/decimal"
)

// FindScenario finds a scenario report by name.
// Returns a pointer to the report if found, nil otherwise.
func FindScenario(reports []output.ScenarioReport, name string) *output.ScenarioReport {
	for i := range reports {
		if reports[i].Name == name {
			return &reports[i]
		}
	}
	return nil
}

// FindForecast finds a forecast report by name, or returns nil.
func FindForecast(reports []output.ForecastReport, name string) *output.ForecastReport {
	for i := range reports {
		if reports[i].Name == name {
			return &reports[i]
		}
	}
	return nil
}

// InsightsOfType returns the insights of the given type in their original order.
func InsightsOfType(insights []insight.Insight, t insight.Type) []insight.Insight {
	var out []insight.Insight
	for _, in := range insights {
		if in.Type == t {
			out = append(out, in)
		}
	}
	return out
}

// Historical builds a baseline month with a single income and a single
// expense component.
func Historical(year, month int, income, expense string) *forecast.HistoricalPeriod {
	return &forecast.HistoricalPeriod{
		Year:    year,
		Month:   month,
		Income:  []forecast.Component{{Name: "income", Amount: decimal.RequireFromString(income)}},
		Expense: []forecast.Component{{Name: "expense", Amount: decimal.RequireFromString(expense)}},
	}
}
