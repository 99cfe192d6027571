package projection

import (
	"errors"
	"fmt"

	"github.com/iwvelando/finance-projection/internal/cashflow"
	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	irrInitialGuess = mathutil.MustParse(constants.IRRInitialGuess)
	irrTolerance    = mathutil.MustParse(constants.IRRTolerance)
	minDiscountRate = mathutil.MustParse(constants.MinDiscountRate)
	maxDiscountRate = mathutil.MustParse(constants.MaxDiscountRate)
)

// Option adjusts how ComputeMetrics resolves its inputs.
type Option func(*options)

type options struct {
	initialInvestment *decimal.Decimal
}

// WithInitialInvestment supplies the capital outlay to use when the scenario
// has no explicit baseline capital. It is ignored when the baseline is set.
func WithInitialInvestment(amount decimal.Decimal) Option {
	return func(o *options) {
		o.initialInvestment = &amount
	}
}

// Calculator computes projection metrics and logs what it does.
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator creates a calculator with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{logger: logger}
}

// ComputeMetrics computes the scenario's metrics using a no-op logger.
func ComputeMetrics(scenario *Scenario, opts ...Option) (Metrics, error) {
	return NewCalculator(nil).ComputeMetrics(scenario, opts...)
}

// ComputeMetrics computes NPV, ROI, IRR and payback period for the scenario
// and stores them on scenario.Metrics. On error the scenario is left
// untouched.
func (c *Calculator) ComputeMetrics(scenario *Scenario, opts ...Option) (Metrics, error) {
	if scenario == nil {
		return Metrics{}, &ComputationError{Reason: "scenario is nil"}
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	baseline := scenario.BaselineCapital.Decimal
	if !scenario.BaselineCapital.Valid {
		if o.initialInvestment == nil {
			return Metrics{}, &ComputationError{Scenario: scenario.Name, Reason: "no baseline capital and no initial investment supplied"}
		}
		baseline = *o.initialInvestment
		c.logger.Debug("using initial investment as baseline capital",
			zap.String("op", "projection.ComputeMetrics"),
			zap.String("scenario", scenario.Name),
			zap.String("baseline", baseline.String()),
		)
	}

	metrics, err := Calculate(scenario.Series, scenario.DiscountRate, baseline)
	if err != nil {
		var ce *ComputationError
		if errors.As(err, &ce) {
			ce.Scenario = scenario.Name
		}
		return Metrics{}, err
	}

	if !metrics.IRRConverged {
		c.logger.Warn("irr is approximate",
			zap.String("op", "projection.ComputeMetrics"),
			zap.String("scenario", scenario.Name),
			zap.Int("iterations", metrics.IRRIterations),
			zap.String("reason", metrics.IRRNote),
		)
	}

	c.logger.Debug("computed projection metrics",
		zap.String("op", "projection.ComputeMetrics"),
		zap.String("scenario", scenario.Name),
		zap.String("npv", metrics.NPV.StringFixed(2)),
		zap.String("roi", metrics.ROI.StringFixed(2)),
		zap.String("irr", metrics.IRR.StringFixed(2)),
		zap.Int("payback", metrics.PaybackPeriod),
	)

	stored := metrics
	scenario.Metrics = &stored
	return metrics, nil
}

// Calculate is the pure metrics computation over explicit inputs. Identical
// inputs always produce identical output.
func Calculate(series cashflow.Series, discountRate, baseline decimal.Decimal) (Metrics, error) {
	if len(series) == 0 {
		return Metrics{}, &ComputationError{Reason: "series is empty"}
	}
	if err := series.Validate(); err != nil {
		return Metrics{}, &ComputationError{Reason: err.Error()}
	}
	if discountRate.LessThan(minDiscountRate) || discountRate.GreaterThan(maxDiscountRate) {
		return Metrics{}, &ComputationError{Reason: fmt.Sprintf("discount rate %s must be between %s and %s",
			discountRate, minDiscountRate, maxDiscountRate)}
	}

	payback, reached := PaybackPeriod(series, baseline)
	irr := IRR(series, baseline)

	return Metrics{
		NPV:            NPV(series, discountRate, baseline),
		ROI:            ROI(series, baseline),
		IRR:            irr.Percent,
		PaybackPeriod:  payback,
		PaybackReached: reached,
		IRRIterations:  irr.Iterations,
		IRRConverged:   irr.Converged,
		IRRNote:        irr.Note,
	}, nil
}

// DiscountedValue returns amount / (1 + rate)^periods. When the factor
// truncates to zero, which only a rate near -1 can cause, ok is false.
func DiscountedValue(amount, rate decimal.Decimal, periods int) (value decimal.Decimal, ok bool) {
	factor := mathutil.PowInt(mathutil.One.Add(rate), periods)
	if factor.IsZero() {
		return decimal.Zero, false
	}
	return amount.DivRound(factor, constants.ComputePrecision), true
}

// NPV returns the sum of each period's net profit discounted by its period
// index, minus the undiscounted baseline capital. Periods whose discount
// factor underflows contribute nothing; Calculate never gets there since it
// keeps the rate within [0, 1].
func NPV(series cashflow.Series, discountRate, baseline decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, period := range series {
		if v, ok := DiscountedValue(period.NetProfit, discountRate, period.PeriodIndex); ok {
			total = total.Add(v)
		}
	}
	return total.Sub(baseline)
}

// ROI returns total net profit as a percentage of baseline capital, or zero
// when there is no positive baseline.
func ROI(series cashflow.Series, baseline decimal.Decimal) decimal.Decimal {
	if baseline.Sign() <= 0 {
		return decimal.Zero
	}
	return mathutil.CalculatePercentage(series.TotalNetProfit(), baseline)
}

// PaybackPeriod returns the index of the first period whose cumulative net
// profit reaches the baseline. A baseline of zero or less pays back
// immediately (period 0). When the threshold is never reached the result is
// one past the last period index and reached is false.
func PaybackPeriod(series cashflow.Series, baseline decimal.Decimal) (period int, reached bool) {
	if baseline.Sign() <= 0 {
		return 0, true
	}
	cumulative := decimal.Zero
	for _, p := range series {
		cumulative = cumulative.Add(p.NetProfit)
		if cumulative.GreaterThanOrEqual(baseline) {
			return p.PeriodIndex, true
		}
	}
	last, ok := series.Last()
	if !ok {
		return 1, false
	}
	// Equals count+1 for a contiguous series starting at 1.
	return last.PeriodIndex + 1, false
}

// IRRResult is the outcome of the Newton-Raphson IRR search.
type IRRResult struct {
	Percent    decimal.Decimal
	Rate       decimal.Decimal
	Iterations int
	Converged  bool
	Note       string
}

// IRR solves -baseline + Σ net_i/(1+r)^idx_i = 0 for r by Newton-Raphson,
// starting at 10% and stopping after IRRMaxIterations. The rate is returned
// as a percentage. With no positive baseline the IRR is zero.
func IRR(series cashflow.Series, baseline decimal.Decimal) IRRResult {
	if baseline.Sign() <= 0 {
		return IRRResult{Percent: decimal.Zero, Rate: decimal.Zero, Converged: true, Note: "no capital outlay"}
	}

	rate := irrInitialGuess
	for i := 1; i <= constants.IRRMaxIterations; i++ {
		value, derivative, ok := irrFunction(series, baseline, rate)
		if !ok {
			return irrResult(rate, i, false, "rate left the domain above -100%")
		}
		if mathutil.WithinTolerance(value, decimal.Zero, irrTolerance) {
			return irrResult(rate, i, true, "")
		}
		if derivative.IsZero() {
			return irrResult(rate, i, false, "zero derivative")
		}
		rate = mathutil.Truncate(rate.Sub(value.DivRound(derivative, constants.ComputePrecision)))
	}
	return irrResult(rate, constants.IRRMaxIterations, false, "iteration cap reached")
}

func irrResult(rate decimal.Decimal, iterations int, converged bool, note string) IRRResult {
	return IRRResult{
		Percent:    rate.Mul(mathutil.Hundred),
		Rate:       rate,
		Iterations: iterations,
		Converged:  converged,
		Note:       note,
	}
}

// irrFunction evaluates f(rate) and f'(rate). ok is false when 1+rate is not
// positive or a discount factor truncates to zero, as happens when the
// iterate approaches -1 with large period indices.
func irrFunction(series cashflow.Series, baseline, rate decimal.Decimal) (value, derivative decimal.Decimal, ok bool) {
	base := mathutil.One.Add(rate)
	if base.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, false
	}
	value = baseline.Neg()
	derivative = decimal.Zero
	for _, period := range series {
		factor := mathutil.PowInt(base, period.PeriodIndex)
		if factor.IsZero() {
			return decimal.Zero, decimal.Zero, false
		}
		value = value.Add(period.NetProfit.DivRound(factor, constants.ComputePrecision))
		denominator := mathutil.Truncate(factor.Mul(base))
		if denominator.IsZero() {
			return decimal.Zero, decimal.Zero, false
		}
		weighted := period.NetProfit.Mul(decimal.NewFromInt(int64(period.PeriodIndex)))
		derivative = derivative.Sub(weighted.DivRound(denominator, constants.ComputePrecision))
	}
	return value, derivative, true
}
