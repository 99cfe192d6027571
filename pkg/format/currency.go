// Package format renders decimal money and percentage values for display.
package format

import (
	"strings"

	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount decimal.Decimal) string {
	formatted := formatPositiveCurrency(amount.Abs())
	if amount.Round(constants.CurrencyPlaces).Sign() < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// Percent renders a percentage with two decimals and a percent sign (e.g., "12.50%").
func Percent(value decimal.Decimal) string {
	return value.StringFixed(constants.PercentPlaces) + "%"
}

func formatPositiveCurrency(value decimal.Decimal) string {
	formatted := value.StringFixed(constants.CurrencyPlaces)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
