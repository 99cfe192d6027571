package validation

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func baseline(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestValidateScenario(t *testing.T) {
	tests := []struct {
		name     string
		scenario ScenarioConfig
		contains []string
	}{
		{
			name: "Clean scenario",
			scenario: ScenarioConfig{
				Name: "Base", Type: "realistic", DiscountRate: decimal.RequireFromString("0.08"),
				BaselineCapital: baseline("1000"), Periods: 3,
			},
		},
		{
			name: "Generated years count as cash flows",
			scenario: ScenarioConfig{
				Name: "Grow", DiscountRate: decimal.RequireFromString("0.1"),
				BaselineCapital: baseline("1000"), Years: 5,
			},
		},
		{
			name: "Unknown type",
			scenario: ScenarioConfig{
				Name: "Odd", Type: "bullish", BaselineCapital: baseline("1"), Periods: 1,
			},
			contains: []string{"unknown scenario type"},
		},
		{
			name:     "No cash flows",
			scenario: ScenarioConfig{Name: "Empty", BaselineCapital: baseline("1")},
			contains: []string{"no cash flows"},
		},
		{
			name:     "Missing baseline",
			scenario: ScenarioConfig{Name: "Open", Periods: 2},
			contains: []string{"no baseline capital"},
		},
		{
			name:     "Negative baseline",
			scenario: ScenarioConfig{Name: "Neg", BaselineCapital: baseline("-5"), Periods: 2},
			contains: []string{"negative baseline capital"},
		},
		{
			name: "Percentage entered as discount rate",
			scenario: ScenarioConfig{
				Name: "Pct", DiscountRate: decimal.RequireFromString("8"), BaselineCapital: baseline("1"), Periods: 2,
			},
			contains: []string{"must be between 0 and 1"},
		},
		{
			name: "High but valid discount rate",
			scenario: ScenarioConfig{
				Name: "Steep", DiscountRate: decimal.RequireFromString("0.8"), BaselineCapital: baseline("1"), Periods: 2,
			},
			contains: []string{"unusually high discount rate"},
		},
		{
			name: "Negative discount rate",
			scenario: ScenarioConfig{
				Name: "Bad", DiscountRate: decimal.RequireFromString("-0.9"), BaselineCapital: baseline("1"), Periods: 2,
			},
			contains: []string{"must be between 0 and 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateScenario(tt.scenario)
			if len(warnings) != len(tt.contains) {
				t.Fatalf("ValidateScenario() = %v, expected %d warnings", warnings, len(tt.contains))
			}
			for i, want := range tt.contains {
				if !strings.Contains(warnings[i], want) {
					t.Errorf("warning %q does not mention %q", warnings[i], want)
				}
			}
		})
	}
}

func TestValidateForecast(t *testing.T) {
	if warnings := ValidateForecast(ForecastConfig{Name: "ok", Method: "arima", Horizon: 12, Month: 6}); len(warnings) != 0 {
		t.Errorf("ValidateForecast() unexpected warnings %v", warnings)
	}

	warnings := ValidateForecast(ForecastConfig{Name: "bad", Method: "magic", Horizon: 72, Month: 0})
	if len(warnings) != 3 {
		t.Errorf("ValidateForecast() = %v, expected 3 warnings", warnings)
	}
}

func TestValidateAll(t *testing.T) {
	cv := ConfigValidator{
		LedgerBackend: "etcd",
		Scenarios: []ScenarioConfig{
			{Name: "A", Active: false},
			{Name: "A", Active: false},
		},
		Forecasts: []ForecastConfig{{Name: "f", Horizon: 0, Month: 1}},
	}

	warnings := cv.ValidateAll()
	expected := []string{
		"expected ledger backend",
		"defined more than once",
		"No active scenarios",
		"Forecast 'f'",
	}
	if len(warnings) != len(expected) {
		t.Fatalf("ValidateAll() = %v, expected %d warnings", warnings, len(expected))
	}
	for i, want := range expected {
		if !strings.Contains(warnings[i], want) {
			t.Errorf("warning %d = %q, expected it to contain %q", i, warnings[i], want)
		}
	}
}

func TestValidateAllSkipsInactiveScenarios(t *testing.T) {
	cv := ConfigValidator{
		Scenarios: []ScenarioConfig{
			{Name: "Live", Active: true, BaselineCapital: baseline("100"), Periods: 1},
			{Name: "Draft", Active: false},
		},
	}
	if warnings := cv.ValidateAll(); len(warnings) != 0 {
		t.Errorf("ValidateAll() = %v, expected no warnings", warnings)
	}
}
