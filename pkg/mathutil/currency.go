// Package mathutil provides common decimal arithmetic helpers for currency
// and rate values.
package mathutil

import (
	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	// Hundred is the percentage multiplier as a decimal.
	Hundred = decimal.NewFromInt(constants.PercentageMultiplier)

	// One is the decimal 1.
	One = decimal.NewFromInt(1)
)

// MustParse converts a constant string to a decimal and panics on error.
// Intended for package-level constants known to be valid.
func MustParse(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.CurrencyPlaces)
}

// RoundPercent rounds a percentage for display.
func RoundPercent(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.PercentPlaces)
}

// Truncate rounds a value to the intermediate computation precision so that
// repeated multiplication does not grow the coefficient without bound.
func Truncate(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.ComputePrecision)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance decimal.Decimal) bool {
	return val1.Sub(val2).Abs().LessThanOrEqual(tolerance)
}

// Max returns the maximum of two values
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return value.Div(total).Mul(Hundred)
}

// PowInt raises base to a non-negative integer exponent, truncating every
// intermediate product to the computation precision.
func PowInt(base decimal.Decimal, exp int) decimal.Decimal {
	result := One
	for exp > 0 {
		if exp&1 == 1 {
			result = Truncate(result.Mul(base))
		}
		base = Truncate(base.Mul(base))
		exp >>= 1
	}
	return result
}

// Average returns the arithmetic mean of the values, or zero for none.
func Average(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total.Div(decimal.NewFromInt(int64(len(values))))
}
