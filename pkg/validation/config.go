// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/finance-projection/internal/projection"
	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/iwvelando/finance-projection/pkg/datetime"
	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
)

var (
	// HighDiscountRate is the discount rate above which a scenario is flagged.
	HighDiscountRate = mathutil.MustParse("0.5")

	minDiscountRate = mathutil.MustParse(constants.MinDiscountRate)
	maxDiscountRate = mathutil.MustParse(constants.MaxDiscountRate)
)

// ConfigValidator collects what ValidateAll needs from a configuration.
type ConfigValidator struct {
	LedgerBackend string
	Scenarios     []ScenarioConfig
	Forecasts     []ForecastConfig
}

type ScenarioConfig struct {
	Name            string
	Active          bool
	Type            string
	DiscountRate    decimal.Decimal
	BaselineCapital decimal.NullDecimal
	Periods         int
	Years           int
}

type ForecastConfig struct {
	Name    string
	Method  string
	Horizon int
	Month   int
}

// ValidateScenario returns warnings for a single active scenario.
func ValidateScenario(s ScenarioConfig) []string {
	var warnings []string

	if _, err := projection.ParseType(s.Type); err != nil {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s': %v", s.Name, err))
	}

	if s.Periods == 0 && s.Years <= 0 {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' has no cash flows and no years to project - metrics cannot be computed", s.Name))
	}

	if !s.BaselineCapital.Valid {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' has no baseline capital - initial investment will be used if set", s.Name))
	} else if s.BaselineCapital.Decimal.Sign() < 0 {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' has negative baseline capital (%s) - payback will be immediate and ROI zero",
			s.Name, s.BaselineCapital.Decimal))
	}

	if s.DiscountRate.LessThan(minDiscountRate) || s.DiscountRate.GreaterThan(maxDiscountRate) {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' discount rate %s must be between %s and %s - rates are fractions, not percentages",
			s.Name, s.DiscountRate, minDiscountRate, maxDiscountRate))
	} else if s.DiscountRate.GreaterThan(HighDiscountRate) {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' has an unusually high discount rate (%s > %s) - rates are fractions, not percentages",
			s.Name, s.DiscountRate, HighDiscountRate))
	}

	return warnings
}

// ValidateForecast returns warnings for a single forecast.
func ValidateForecast(f ForecastConfig) []string {
	var warnings []string

	if err := ValidateMethod(f.Method); err != nil {
		warnings = append(warnings, fmt.Sprintf("Forecast '%s': %v", f.Name, err))
	}
	if err := ValidateHorizon(f.Horizon); err != nil {
		warnings = append(warnings, fmt.Sprintf("Forecast '%s': %v", f.Name, err))
	}
	if err := datetime.ValidateMonth(f.Month); err != nil {
		warnings = append(warnings, fmt.Sprintf("Forecast '%s' historical %v", f.Name, err))
	}

	return warnings
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if cv.LedgerBackend != "" {
		if err := ValidateLedgerBackend(cv.LedgerBackend); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	seen := make(map[string]bool)
	active := 0
	for _, scenario := range cv.Scenarios {
		if seen[scenario.Name] {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' is defined more than once", scenario.Name))
		}
		seen[scenario.Name] = true

		if !scenario.Active {
			continue
		}
		active++
		warnings = append(warnings, ValidateScenario(scenario)...)
	}
	if len(cv.Scenarios) > 0 && active == 0 {
		warnings = append(warnings, "No active scenarios - no projection metrics will be computed")
	}

	for _, f := range cv.Forecasts {
		warnings = append(warnings, ValidateForecast(f)...)
	}

	return warnings
}
