package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected string
	}{
		{"Zero", "0", "$0.00"},
		{"Small", "5.5", "$5.50"},
		{"Thousands", "1234.56", "$1,234.56"},
		{"Millions", "1234567.891", "$1,234,567.89"},
		{"Negative", "-1234.5", "-$1,234.50"},
		{"Rounds to zero", "-0.001", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			if got := Currency(amount); got != tt.expected {
				t.Errorf("Currency(%s) = %s, expected %s", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(decimal.RequireFromString("12.5")); got != "12.50%" {
		t.Errorf("Percent() = %s, expected 12.50%%", got)
	}
	if got := Percent(decimal.RequireFromString("-3.456")); got != "-3.46%" {
		t.Errorf("Percent() = %s, expected -3.46%%", got)
	}
}
