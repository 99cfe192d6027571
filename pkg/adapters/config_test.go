package adapters

import (
	"testing"

	"github.com/iwvelando/finance-projection/internal/config"
	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/internal/projection"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestScenarioFromConfigCashFlows(t *testing.T) {
	conf := config.Scenario{
		Name:            "Expansion",
		Type:            "optimistic",
		DiscountRate:    d("0.1"),
		BaselineCapital: decimal.NewNullDecimal(d("1000")),
		CashFlows: []config.CashFlow{
			{Period: 1, Revenue: d("800"), Cost: d("300")},
			{Period: 2, Revenue: d("800"), Cost: d("300"), NetProfit: decimal.NewNullDecimal(d("450"))},
		},
	}

	scenario, err := ScenarioFromConfig(conf)
	if err != nil {
		t.Fatalf("ScenarioFromConfig() error = %v", err)
	}
	if scenario.Type != projection.Optimistic {
		t.Errorf("type = %s, expected optimistic", scenario.Type)
	}

	// Explicit periods are used as given whatever the type.
	expected := []struct {
		revenue string
		net     string
	}{
		{"800", "500"},
		{"800", "450"},
	}
	for i, want := range expected {
		p := scenario.Series[i]
		if !p.Revenue.Equal(d(want.revenue)) || !p.NetProfit.Equal(d(want.net)) {
			t.Errorf("period %d = revenue %s net %s, expected %s / %s", i+1, p.Revenue, p.NetProfit, want.revenue, want.net)
		}
	}
}

func TestScenarioTypeDoesNotChangeExplicitMetrics(t *testing.T) {
	flows := []config.CashFlow{
		{Period: 1, Revenue: d("100"), NetProfit: decimal.NewNullDecimal(d("100"))},
		{Period: 2, Revenue: d("150"), NetProfit: decimal.NewNullDecimal(d("150"))},
		{Period: 3, Revenue: d("200"), NetProfit: decimal.NewNullDecimal(d("200"))},
	}

	for _, scenarioType := range []string{"optimistic", "realistic", "pessimistic"} {
		t.Run(scenarioType, func(t *testing.T) {
			scenario, err := ScenarioFromConfig(config.Scenario{
				Name:            "Worked",
				Type:            scenarioType,
				DiscountRate:    d("0.10"),
				BaselineCapital: decimal.NewNullDecimal(d("300")),
				CashFlows:       flows,
			})
			if err != nil {
				t.Fatalf("ScenarioFromConfig() error = %v", err)
			}
			metrics, err := projection.ComputeMetrics(&scenario)
			if err != nil {
				t.Fatalf("ComputeMetrics() error = %v", err)
			}
			if !metrics.ROI.Equal(d("150")) {
				t.Errorf("ROI = %s, expected 150", metrics.ROI)
			}
			if !metrics.NPV.Round(1).Equal(d("65.1")) {
				t.Errorf("NPV = %s, expected approximately 65.1", metrics.NPV)
			}
			if metrics.PaybackPeriod != 3 {
				t.Errorf("PaybackPeriod = %d, expected 3", metrics.PaybackPeriod)
			}
		})
	}
}

func TestScenarioFromConfigGenerated(t *testing.T) {
	conf := config.Scenario{
		Name:         "Grow",
		DiscountRate: d("0.08"),
		GrowthRate:   d("0.1"),
		BaseRevenue:  decimal.NewNullDecimal(d("1000")),
		BaseCost:     decimal.NewNullDecimal(d("600")),
		Years:        3,
	}

	scenario, err := ScenarioFromConfig(conf)
	if err != nil {
		t.Fatalf("ScenarioFromConfig() error = %v", err)
	}
	if len(scenario.Series) != 3 {
		t.Fatalf("series has %d periods, expected 3", len(scenario.Series))
	}
	if !scenario.Series[2].Revenue.Equal(d("1210")) {
		t.Errorf("year 3 revenue = %s, expected 1210", scenario.Series[2].Revenue)
	}
	if scenario.BaselineCapital.Valid {
		t.Error("an unset baseline should stay unset")
	}

	if _, err := projection.ComputeMetrics(&scenario); err == nil {
		t.Error("ComputeMetrics() without baseline or initial investment should fail")
	}
	conf.InitialInvestment = decimal.NewNullDecimal(d("500"))
	if _, err := projection.ComputeMetrics(&scenario, ProjectionOptions(conf)...); err != nil {
		t.Errorf("ComputeMetrics() with initial investment error = %v", err)
	}
}

func TestScenarioFromConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		conf config.Scenario
	}{
		{"Unknown type", config.Scenario{Name: "x", Type: "bullish", CashFlows: []config.CashFlow{{Period: 1}}}},
		{"Nothing to project", config.Scenario{Name: "x"}},
		{"Years without revenue", config.Scenario{Name: "x", Years: 3, BaseCost: decimal.NewNullDecimal(d("1"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ScenarioFromConfig(tt.conf); err == nil {
				t.Error("ScenarioFromConfig() expected error but got none")
			}
		})
	}
}

func TestOpeningScenario(t *testing.T) {
	flows := []config.CashFlow{{Period: 1, Revenue: d("500"), Cost: d("100")}}

	tests := []struct {
		name     string
		conf     config.Scenario
		expected decimal.NullDecimal
	}{
		{
			"Baseline wins",
			config.Scenario{Name: "a", BaselineCapital: decimal.NewNullDecimal(d("100")), InitialInvestment: decimal.NewNullDecimal(d("900")), CashFlows: flows},
			decimal.NewNullDecimal(d("100")),
		},
		{
			"Initial investment fills in",
			config.Scenario{Name: "b", InitialInvestment: decimal.NewNullDecimal(d("900")), CashFlows: flows},
			decimal.NewNullDecimal(d("900")),
		},
		{
			"Neither set",
			config.Scenario{Name: "c", CashFlows: flows},
			decimal.NullDecimal{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario, err := OpeningScenario(tt.conf)
			if err != nil {
				t.Fatalf("OpeningScenario() error = %v", err)
			}
			got := scenario.BaselineCapital
			if got.Valid != tt.expected.Valid || !got.Decimal.Equal(tt.expected.Decimal) {
				t.Errorf("baseline = %v, expected %v", got, tt.expected)
			}
		})
	}

	if _, err := OpeningScenario(config.Scenario{Name: "x"}); err == nil {
		t.Error("OpeningScenario() expected error for a scenario with nothing to project")
	}
}

func TestForecastFromConfig(t *testing.T) {
	conf := config.Forecast{
		Name:    "Shop",
		Horizon: 6,
		Historical: config.Historical{
			Year:      2024,
			Month:     12,
			Income:    []config.Component{{Name: "sales", Amount: d("1000")}, {Name: "fees", Amount: d("50")}},
			Expenses:  []config.Component{{Name: "rent", Amount: d("400")}},
			TrendRate: d("0.02"),
		},
	}

	req, err := ForecastFromConfig(conf)
	if err != nil {
		t.Fatalf("ForecastFromConfig() error = %v", err)
	}
	if req.Method != forecast.Auto {
		t.Errorf("method = %s, expected auto", req.Method)
	}
	if !req.Historical.TotalIncome().Equal(d("1050")) || !req.Historical.TotalExpense().Equal(d("400")) {
		t.Errorf("totals = %s / %s, expected 1050 / 400", req.Historical.TotalIncome(), req.Historical.TotalExpense())
	}

	seq, err := forecast.Generate(req.Historical, req.Method, req.Horizon)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if seq.Len() != 6 {
		t.Errorf("sequence length = %d, expected 6", seq.Len())
	}

	conf.Method = "crystal_ball"
	if _, err := ForecastFromConfig(conf); err == nil {
		t.Error("ForecastFromConfig() expected error for unknown method")
	}
}
