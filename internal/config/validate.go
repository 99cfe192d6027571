package config

import (
	"github.com/iwvelando/finance-projection/pkg/validation"
)

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{
		LedgerBackend: c.Ledger.Backend,
	}

	for _, scenario := range c.Scenarios {
		validator.Scenarios = append(validator.Scenarios, validation.ScenarioConfig{
			Name:            scenario.Name,
			Active:          scenario.Active,
			Type:            scenario.Type,
			DiscountRate:    scenario.DiscountRate,
			BaselineCapital: scenario.BaselineCapital,
			Periods:         len(scenario.CashFlows),
			Years:           scenario.Years,
		})
	}

	for _, f := range c.Forecasts {
		validator.Forecasts = append(validator.Forecasts, validation.ForecastConfig{
			Name:    f.Name,
			Method:  f.Method,
			Horizon: f.Horizon,
			Month:   f.Historical.Month,
		})
	}

	return validator.ValidateAll()
}
