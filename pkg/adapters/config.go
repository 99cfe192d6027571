// Package adapters converts configuration records into engine inputs.
package adapters

import (
	"fmt"

	"github.com/iwvelando/finance-projection/internal/cashflow"
	"github.com/iwvelando/finance-projection/internal/config"
	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/internal/projection"
)

// ScenarioFromConfig builds a projection scenario. Explicit cash flows win
// over the generated yearly projection and are used as given; the type only
// scales revenue when the series is generated from baseRevenue.
func ScenarioFromConfig(s config.Scenario) (projection.Scenario, error) {
	t, err := projection.ParseType(s.Type)
	if err != nil {
		return projection.Scenario{}, fmt.Errorf("scenario %q: %w", s.Name, err)
	}

	if len(s.CashFlows) > 0 {
		return projection.Scenario{
			Name:            s.Name,
			Type:            t,
			DiscountRate:    s.DiscountRate,
			GrowthRate:      s.GrowthRate,
			BaselineCapital: s.BaselineCapital,
			Series:          SeriesFromConfig(s.CashFlows),
		}, nil
	}

	if s.Years <= 0 || !s.BaseRevenue.Valid || !s.BaseCost.Valid {
		return projection.Scenario{}, fmt.Errorf("scenario %q: needs cashFlows or baseRevenue, baseCost and years", s.Name)
	}
	scenario := projection.NewScenario(s.Name, t, s.DiscountRate, s.GrowthRate,
		s.BaselineCapital.Decimal, s.BaseRevenue.Decimal, s.BaseCost.Decimal, s.Years)
	scenario.BaselineCapital = s.BaselineCapital
	return scenario, nil
}

// OpeningScenario builds the scenario a ledger position opens with. Without
// an explicit baseline capital the initial investment becomes the opening
// balance.
func OpeningScenario(s config.Scenario) (projection.Scenario, error) {
	scenario, err := ScenarioFromConfig(s)
	if err != nil {
		return projection.Scenario{}, err
	}
	if !scenario.BaselineCapital.Valid && s.InitialInvestment.Valid {
		scenario.BaselineCapital = s.InitialInvestment
	}
	return scenario, nil
}

// SeriesFromConfig converts configured periods, deriving net profit from
// revenue and cost where it is not given.
func SeriesFromConfig(flows []config.CashFlow) cashflow.Series {
	series := make(cashflow.Series, 0, len(flows))
	for _, f := range flows {
		p := cashflow.NewPeriod(f.Period, f.Revenue, f.Cost)
		if f.NetProfit.Valid {
			p.NetProfit = f.NetProfit.Decimal
		}
		series = append(series, p)
	}
	return series
}

// ProjectionOptions returns the calculator options a scenario configures.
func ProjectionOptions(s config.Scenario) []projection.Option {
	if s.InitialInvestment.Valid {
		return []projection.Option{projection.WithInitialInvestment(s.InitialInvestment.Decimal)}
	}
	return nil
}

// HistoricalFromConfig builds the baseline month of a forecast.
func HistoricalFromConfig(h config.Historical) *forecast.HistoricalPeriod {
	return &forecast.HistoricalPeriod{
		Year:            h.Year,
		Month:           h.Month,
		Income:          componentsFromConfig(h.Income),
		Expense:         componentsFromConfig(h.Expenses),
		SeasonalFactor:  h.SeasonalFactor,
		SeasonalProfile: h.SeasonalProfile,
		TrendRate:       h.TrendRate,
	}
}

func componentsFromConfig(components []config.Component) []forecast.Component {
	if components == nil {
		return nil
	}
	out := make([]forecast.Component, len(components))
	for i, c := range components {
		out[i] = forecast.Component{Name: c.Name, Amount: c.Amount}
	}
	return out
}

// ForecastRequest is a configured forecast resolved into generator inputs.
type ForecastRequest struct {
	Name       string
	Method     forecast.Method
	Horizon    int
	Historical *forecast.HistoricalPeriod
}

// ForecastFromConfig resolves a configured forecast.
func ForecastFromConfig(f config.Forecast) (ForecastRequest, error) {
	method, err := forecast.ParseMethod(f.Method)
	if err != nil {
		return ForecastRequest{}, fmt.Errorf("forecast %q: %w", f.Name, err)
	}
	return ForecastRequest{
		Name:       f.Name,
		Method:     method,
		Horizon:    f.Horizon,
		Historical: HistoricalFromConfig(f.Historical),
	}, nil
}
