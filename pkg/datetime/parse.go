// Package datetime provides year-month arithmetic for forecast periods.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/finance-projection/pkg/constants"
)

const (
	// DateTimeLayout is the year-month format used for forecast periods.
	DateTimeLayout = constants.DateTimeLayout
)

// ParseMonth parses a DateTimeLayout string into a (year, month) pair.
func ParseMonth(date string) (int, int, error) {
	t, err := time.Parse(DateTimeLayout, date)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", date, err)
	}
	return t.Year(), int(t.Month()), nil
}

// OffsetMonth rolls a (year, month) pair forward by the given number of
// months. Month is 1-based; negative offsets roll backwards.
func OffsetMonth(year, month, months int) (int, int) {
	total := year*constants.MonthsPerYear + (month - 1) + months
	y := total / constants.MonthsPerYear
	m := total % constants.MonthsPerYear
	if m < 0 {
		m += constants.MonthsPerYear
		y--
	}
	return y, m + 1
}

// ValidateMonth reports an error for months outside 1..12.
func ValidateMonth(month int) error {
	if month < 1 || month > constants.MonthsPerYear {
		return fmt.Errorf("month must be between 1 and %d, got %d", constants.MonthsPerYear, month)
	}
	return nil
}

// FormatMonth renders a (year, month) pair with DateTimeLayout.
func FormatMonth(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format(DateTimeLayout)
}
