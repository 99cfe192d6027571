// Package forecast projects a baseline month forward into monthly forecast
// rows with confidence levels, and groups those rows into replaceable runs.
package forecast

import (
	"fmt"
	"iter"

	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/iwvelando/finance-projection/pkg/datetime"
	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Result is one forecast month.
type Result struct {
	PeriodIndex     int             `json:"period_index"`
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	ForecastIncome  decimal.Decimal `json:"forecast_income"`
	ForecastExpense decimal.Decimal `json:"forecast_expense"`
	ForecastProfit  decimal.Decimal `json:"forecast_profit"`
	ForecastMargin  decimal.Decimal `json:"forecast_margin"`
	ConfidenceLevel decimal.Decimal `json:"confidence_level"`
	Method          Method          `json:"method"`
}

// Date renders the row's month with the shared year-month layout.
func (r Result) Date() string {
	return datetime.FormatMonth(r.Year, r.Month)
}

// Generator holds the strategy registry and defaults used to build forecasts.
type Generator struct {
	logger            *zap.Logger
	strategies        map[Method]Strategy
	defaultConfidence decimal.Decimal
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithStrategy registers or replaces the strategy for its method.
func WithStrategy(s Strategy) GeneratorOption {
	return func(g *Generator) {
		g.strategies[s.Method()] = s
	}
}

// WithDefaultConfidence overrides the confidence attached when a strategy
// provides none.
func WithDefaultConfidence(confidence decimal.Decimal) GeneratorOption {
	return func(g *Generator) {
		g.defaultConfidence = confidence
	}
}

// NewGenerator creates a generator with the built-in strategies.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewGenerator(logger *zap.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{
		logger:            logger,
		strategies:        DefaultStrategies(),
		defaultConfidence: decimal.NewFromInt(constants.DefaultConfidenceLevel),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a forecast with the default generator.
func Generate(historical *HistoricalPeriod, method Method, horizonMonths int) (Sequence, error) {
	return NewGenerator(nil).Generate(historical, method, horizonMonths)
}

// Generate validates its inputs and returns a lazy sequence of exactly
// horizonMonths rows, one per calendar month after the historical period.
func (g *Generator) Generate(historical *HistoricalPeriod, method Method, horizonMonths int) (Sequence, error) {
	if historical == nil {
		return Sequence{}, invalid("historical", "historical period is required")
	}
	if horizonMonths < constants.MinHorizonMonths || horizonMonths > constants.MaxHorizonMonths {
		return Sequence{}, invalid("horizon", "must be between %d and %d months, got %d",
			constants.MinHorizonMonths, constants.MaxHorizonMonths, horizonMonths)
	}
	if method == "" {
		method = Auto
	}
	strategy, ok := g.strategies[method.Resolve()]
	if !ok {
		return Sequence{}, invalid("method", "unknown forecast method %q", method)
	}
	if err := historical.Validate(); err != nil {
		return Sequence{}, err
	}

	g.logger.Debug("generating forecast",
		zap.String("op", "forecast.Generate"),
		zap.String("method", string(method)),
		zap.String("strategy", string(strategy.Method())),
		zap.Int("horizon", horizonMonths),
		zap.String("baseline", datetime.FormatMonth(historical.Year, historical.Month)),
	)

	return Sequence{
		historical:        cloneHistorical(*historical),
		method:            method,
		strategy:          strategy,
		horizon:           horizonMonths,
		defaultConfidence: g.defaultConfidence,
	}, nil
}

// Sequence is a finite, restartable, lazily evaluated list of forecast rows.
// Each call to All recomputes the rows from the captured baseline.
type Sequence struct {
	historical        HistoricalPeriod
	method            Method
	strategy          Strategy
	horizon           int
	defaultConfidence decimal.Decimal
}

// Len returns the number of rows the sequence yields.
func (s Sequence) Len() int {
	return s.horizon
}

// Method returns the method the sequence was requested with.
func (s Sequence) Method() Method {
	return s.method
}

// Historical returns the baseline the sequence rolls forward from.
func (s Sequence) Historical() HistoricalPeriod {
	return cloneHistorical(s.historical)
}

// All yields the rows in increasing (year, month) order.
func (s Sequence) All() iter.Seq[Result] {
	return func(yield func(Result) bool) {
		if s.strategy == nil {
			return
		}
		for step := 1; step <= s.horizon; step++ {
			if !yield(s.row(step)) {
				return
			}
		}
	}
}

// Collect materializes every row.
func (s Sequence) Collect() []Result {
	results := make([]Result, 0, s.horizon)
	for r := range s.All() {
		results = append(results, r)
	}
	return results
}

func (s Sequence) row(step int) Result {
	year, month := datetime.OffsetMonth(s.historical.Year, s.historical.Month, step)
	estimate := s.strategy.Estimate(s.historical, step)
	seasonal := s.historical.Seasonal(month)

	income := mathutil.Round(s.historical.TotalIncome().Mul(estimate.IncomeFactor).Mul(seasonal))
	expense := mathutil.Round(s.historical.TotalExpense().Mul(estimate.ExpenseFactor).Mul(seasonal))
	profit := income.Sub(expense)

	confidence := s.defaultConfidence
	if estimate.Confidence.Valid {
		confidence = estimate.Confidence.Decimal
	}

	return Result{
		PeriodIndex:     step,
		Year:            year,
		Month:           month,
		ForecastIncome:  income,
		ForecastExpense: expense,
		ForecastProfit:  profit,
		ForecastMargin:  Margin(profit, income),
		ConfidenceLevel: mathutil.RoundPercent(confidence),
		Method:          s.method,
	}
}

// Margin returns profit as a percentage of income, or zero without income.
func Margin(profit, income decimal.Decimal) decimal.Decimal {
	if income.IsZero() {
		return decimal.Zero
	}
	return mathutil.RoundPercent(mathutil.CalculatePercentage(profit, income))
}

func cloneHistorical(h HistoricalPeriod) HistoricalPeriod {
	out := h
	out.Income = append([]Component(nil), h.Income...)
	out.Expense = append([]Component(nil), h.Expense...)
	out.SeasonalProfile = append([]decimal.Decimal(nil), h.SeasonalProfile...)
	return out
}

// String describes the sequence for logs.
func (s Sequence) String() string {
	return fmt.Sprintf("%s forecast of %d months from %s", s.method, s.horizon,
		datetime.FormatMonth(s.historical.Year, s.historical.Month))
}
