package forecast

import (
	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/iwvelando/finance-projection/pkg/datetime"
	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
)

var defaultSeasonalFactor = mathutil.MustParse(constants.DefaultSeasonalFactor)

// Component is one named line of monthly income or expense, e.g. sales or
// salaries.
type Component struct {
	Name   string          `json:"name" mapstructure:"name"`
	Amount decimal.Decimal `json:"amount" mapstructure:"amount"`
}

// HistoricalPeriod is the baseline month a forecast rolls forward from.
type HistoricalPeriod struct {
	Year    int         `json:"year" mapstructure:"year"`
	Month   int         `json:"month" mapstructure:"month"`
	Income  []Component `json:"income" mapstructure:"income"`
	Expense []Component `json:"expense" mapstructure:"expense"`
	// SeasonalFactor scales every forecast month; 1.0 when unset.
	SeasonalFactor decimal.NullDecimal `json:"seasonal_factor" mapstructure:"seasonalFactor"`
	// SeasonalProfile, when it has 12 entries, overrides SeasonalFactor with
	// a per-calendar-month multiplier (index 0 is January).
	SeasonalProfile []decimal.Decimal `json:"seasonal_profile,omitempty" mapstructure:"seasonalProfile"`
	// TrendRate is the monthly growth fraction trend-following methods use.
	TrendRate decimal.Decimal `json:"trend_rate" mapstructure:"trendRate"`
}

// TotalIncome sums all income components.
func (h HistoricalPeriod) TotalIncome() decimal.Decimal {
	return sumComponents(h.Income)
}

// TotalExpense sums all expense components.
func (h HistoricalPeriod) TotalExpense() decimal.Decimal {
	return sumComponents(h.Expense)
}

// Profit is income minus expense for the baseline month.
func (h HistoricalPeriod) Profit() decimal.Decimal {
	return h.TotalIncome().Sub(h.TotalExpense())
}

// Seasonal returns the multiplier applied to the given calendar month.
func (h HistoricalPeriod) Seasonal(month int) decimal.Decimal {
	if len(h.SeasonalProfile) == constants.MonthsPerYear && month >= 1 && month <= constants.MonthsPerYear {
		return h.SeasonalProfile[month-1]
	}
	if h.SeasonalFactor.Valid {
		return h.SeasonalFactor.Decimal
	}
	return defaultSeasonalFactor
}

// Validate checks the fields Generate depends on.
func (h HistoricalPeriod) Validate() error {
	if err := datetime.ValidateMonth(h.Month); err != nil {
		return invalid("historical.month", "%v", err)
	}
	if h.Year < 1 {
		return invalid("historical.year", "year must be positive, got %d", h.Year)
	}
	if h.SeasonalFactor.Valid && h.SeasonalFactor.Decimal.Sign() < 0 {
		return invalid("historical.seasonal_factor", "must not be negative, got %s", h.SeasonalFactor.Decimal)
	}
	if n := len(h.SeasonalProfile); n != 0 && n != constants.MonthsPerYear {
		return invalid("historical.seasonal_profile", "expected %d entries, got %d", constants.MonthsPerYear, n)
	}
	for i, factor := range h.SeasonalProfile {
		if factor.Sign() < 0 {
			return invalid("historical.seasonal_profile", "entry %d must not be negative, got %s", i+1, factor)
		}
	}
	if mathutil.One.Add(h.TrendRate).Sign() <= 0 {
		return invalid("historical.trend_rate", "must be greater than -1, got %s", h.TrendRate)
	}
	return nil
}

func sumComponents(components []Component) decimal.Decimal {
	total := decimal.Zero
	for _, c := range components {
		total = total.Add(c.Amount)
	}
	return total
}
