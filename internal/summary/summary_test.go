package summary

import (
	"errors"
	"testing"

	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(period int, income, expense, confidence string) forecast.Result {
	in, ex := d(income), d(expense)
	profit := in.Sub(ex)
	return forecast.Result{
		PeriodIndex:     period,
		ForecastIncome:  in,
		ForecastExpense: ex,
		ForecastProfit:  profit,
		ForecastMargin:  forecast.Margin(profit, in),
		ConfidenceLevel: d(confidence),
		Method:          forecast.Manual,
	}
}

func TestAnnual(t *testing.T) {
	results := []forecast.Result{
		row(1, "1000", "800", "90"),  // margin 20
		row(2, "1200", "900", "88"),  // margin 25
		row(3, "1100", "1000", "86"), // margin 9.09
	}
	s := Annual(results)

	checks := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{"TotalIncome", s.TotalIncome, "3300"},
		{"TotalExpense", s.TotalExpense, "2700"},
		{"TotalProfit", s.TotalProfit, "600"},
		{"AvgMargin", s.AvgMargin, "18.03"},
		{"AvgConfidence", s.AvgConfidence, "88"},
		{"GrowthRate", s.GrowthRate, "10"},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !c.got.Equal(d(c.expected)) {
				t.Errorf("%s = %s, expected %s", c.name, c.got, c.expected)
			}
		})
	}

	if s.Periods != 3 {
		t.Errorf("Periods = %d, expected 3", s.Periods)
	}
	if s.PeakIncomePeriod != 2 {
		t.Errorf("PeakIncomePeriod = %d, expected 2", s.PeakIncomePeriod)
	}
	if s.PeakProfitPeriod != 2 {
		t.Errorf("PeakProfitPeriod = %d, expected 2", s.PeakProfitPeriod)
	}
}

func TestAnnualEmpty(t *testing.T) {
	s := Annual(nil)
	if s.Periods != 0 || !s.TotalIncome.IsZero() || !s.AvgMargin.IsZero() {
		t.Errorf("Annual(nil) = %+v, expected zero summary", s)
	}
	if s.PeakIncomePeriod != 0 || s.PeakProfitPeriod != 0 {
		t.Errorf("Annual(nil) peaks = %d/%d, expected 0/0", s.PeakIncomePeriod, s.PeakProfitPeriod)
	}
}

func TestAnnualTotalsMatchRows(t *testing.T) {
	var results []forecast.Result
	for i := 1; i <= 24; i++ {
		results = append(results, row(i, "1000.10", "999.95", "85"))
	}
	s := Annual(results)
	if !s.TotalProfit.Equal(s.TotalIncome.Sub(s.TotalExpense)) {
		t.Errorf("TotalProfit %s != TotalIncome %s - TotalExpense %s", s.TotalProfit, s.TotalIncome, s.TotalExpense)
	}
	if !s.TotalProfit.Equal(d("3.6")) {
		t.Errorf("TotalProfit = %s, expected 3.6", s.TotalProfit)
	}
}

func TestYearly(t *testing.T) {
	var results []forecast.Result
	for i := 1; i <= 14; i++ {
		results = append(results, row(i, "100", "50", "85"))
	}

	tests := []struct {
		name       string
		startYear  int
		startMonth int
		expected   map[int]int
	}{
		{"January start", 2024, 1, map[int]int{2024: 12, 2025: 2}},
		{"November start", 2024, 11, map[int]int{2024: 2, 2025: 12}},
		{"December start", 2024, 12, map[int]int{2024: 1, 2025: 12, 2026: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries, err := Yearly(results, tt.startYear, tt.startMonth)
			if err != nil {
				t.Fatalf("Yearly() error = %v", err)
			}
			if len(summaries) != len(tt.expected) {
				t.Fatalf("Yearly() returned %d years, expected %d", len(summaries), len(tt.expected))
			}
			total := 0
			for year, periods := range tt.expected {
				s, ok := summaries[year]
				if !ok {
					t.Fatalf("missing year %d", year)
				}
				if s.Periods != periods {
					t.Errorf("year %d has %d periods, expected %d", year, s.Periods, periods)
				}
				total += s.Periods
			}
			if total != len(results) {
				t.Errorf("yearly groups hold %d rows, expected %d", total, len(results))
			}
		})
	}
}

func TestYearlyInvalidMonth(t *testing.T) {
	if _, err := Yearly(nil, 2024, 13); err == nil {
		t.Error("Yearly() with month 13 should fail")
	}
}

func TestYears(t *testing.T) {
	summaries := map[int]Summary{2026: {}, 2024: {}, 2025: {}}
	years := Years(summaries)
	expected := []int{2024, 2025, 2026}
	for i := range expected {
		if years[i] != expected[i] {
			t.Fatalf("Years() = %v, expected %v", years, expected)
		}
	}
}

func TestCompareBounds(t *testing.T) {
	series := Series{Name: "base", Results: []forecast.Result{row(1, "100", "50", "85")}}

	tests := []struct {
		count   int
		wantErr bool
	}{
		{0, true},
		{1, true},
		{2, false},
		{3, false},
		{4, false},
		{5, true},
	}

	for _, tt := range tests {
		list := make([]Series, tt.count)
		for i := range list {
			list[i] = series
		}
		comparisons, err := Compare(list)
		if tt.wantErr {
			var bound *TooFewOrTooManySeries
			if !errors.As(err, &bound) {
				t.Errorf("Compare(%d series) error = %v, expected TooFewOrTooManySeries", tt.count, err)
				continue
			}
			if bound.Count != tt.count {
				t.Errorf("error count = %d, expected %d", bound.Count, tt.count)
			}
			continue
		}
		if err != nil {
			t.Errorf("Compare(%d series) unexpected error: %v", tt.count, err)
			continue
		}
		if len(comparisons) != tt.count {
			t.Errorf("Compare(%d series) returned %d comparisons", tt.count, len(comparisons))
		}
	}
}

func TestCompare(t *testing.T) {
	optimistic := []forecast.Result{row(1, "1200", "800", "90"), row(2, "1300", "800", "88")}
	pessimistic := []forecast.Result{row(1, "800", "900", "90")}

	comparisons, err := Compare([]Series{
		{Name: "optimistic", Results: optimistic},
		{Results: pessimistic},
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if comparisons[0].Name != "optimistic" || comparisons[1].Name != "series 2" {
		t.Errorf("names = %q, %q", comparisons[0].Name, comparisons[1].Name)
	}
	if !comparisons[0].Summary.TotalProfit.Equal(d("900")) {
		t.Errorf("optimistic TotalProfit = %s, expected 900", comparisons[0].Summary.TotalProfit)
	}
	if !comparisons[1].Summary.TotalProfit.Equal(d("-100")) {
		t.Errorf("pessimistic TotalProfit = %s, expected -100", comparisons[1].Summary.TotalProfit)
	}
	if len(comparisons[0].Results) != 2 || len(comparisons[1].Results) != 1 {
		t.Errorf("raw results not carried through")
	}

	comparisons[0].Results[0].ForecastIncome = d("0")
	if optimistic[0].ForecastIncome.IsZero() {
		t.Error("Compare() results alias the caller's rows")
	}
}
