package forecast

import (
	"fmt"

	"github.com/iwvelando/finance-projection/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Method selects a forecasting strategy.
type Method string

const (
	Auto                 Method = "auto"
	ARIMA                Method = "arima"
	Manual               Method = "manual"
	ExponentialSmoothing Method = "exponential_smoothing"
)

// Methods lists every accepted method.
var Methods = []Method{Auto, ARIMA, Manual, ExponentialSmoothing}

// ParseMethod validates a method string. An empty string is auto.
func ParseMethod(value string) (Method, error) {
	if value == "" {
		return Auto, nil
	}
	for _, m := range Methods {
		if string(m) == value {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown forecast method %q", value)
}

// Resolve maps auto onto the concrete default method.
func (m Method) Resolve() Method {
	if m == Auto {
		return ExponentialSmoothing
	}
	return m
}

// Estimate is a strategy's output for one forecast month: multipliers on the
// baseline income and expense, and an optional confidence percentage.
type Estimate struct {
	IncomeFactor  decimal.Decimal
	ExpenseFactor decimal.Decimal
	Confidence    decimal.NullDecimal
}

// Strategy produces estimates for month step (1-based) after the baseline.
type Strategy interface {
	Method() Method
	Estimate(h HistoricalPeriod, step int) Estimate
}

type manualStrategy struct{}

func (manualStrategy) Method() Method { return Manual }

// Estimate holds the baseline flat and leaves confidence to the default.
func (manualStrategy) Estimate(_ HistoricalPeriod, _ int) Estimate {
	return Estimate{IncomeFactor: mathutil.One, ExpenseFactor: mathutil.One}
}

var (
	half             = mathutil.MustParse("0.5")
	arimaConfidence  = mathutil.MustParse("90")
	arimaDecay       = mathutil.MustParse("1.5")
	arimaFloor       = mathutil.MustParse("50")
	smoothingDamping = mathutil.MustParse("0.9")
	smoothingStart   = mathutil.MustParse("88")
	smoothingDecay   = mathutil.MustParse("1")
	smoothingFloor   = mathutil.MustParse("55")
)

type arimaStrategy struct{}

func (arimaStrategy) Method() Method { return ARIMA }

// Estimate compounds income by the trend rate and expense by half of it.
// Confidence decays linearly with distance from the baseline.
func (arimaStrategy) Estimate(h HistoricalPeriod, step int) Estimate {
	income := mathutil.PowInt(mathutil.One.Add(h.TrendRate), step)
	expense := mathutil.PowInt(mathutil.One.Add(h.TrendRate.Mul(half)), step)
	return Estimate{
		IncomeFactor:  income,
		ExpenseFactor: expense,
		Confidence:    decimal.NewNullDecimal(decayedConfidence(arimaConfidence, arimaDecay, arimaFloor, step)),
	}
}

type smoothingStrategy struct{}

func (smoothingStrategy) Method() Method { return ExponentialSmoothing }

// Estimate applies a damped additive trend: the k-th month grows by
// trend * (φ + φ² + ... + φᵏ).
func (smoothingStrategy) Estimate(h HistoricalPeriod, step int) Estimate {
	damped := decimal.Zero
	weight := mathutil.One
	for i := 0; i < step; i++ {
		weight = mathutil.Truncate(weight.Mul(smoothingDamping))
		damped = damped.Add(weight)
	}
	return Estimate{
		IncomeFactor:  mathutil.One.Add(mathutil.Truncate(h.TrendRate.Mul(damped))),
		ExpenseFactor: mathutil.One.Add(mathutil.Truncate(h.TrendRate.Mul(half).Mul(damped))),
		Confidence:    decimal.NewNullDecimal(decayedConfidence(smoothingStart, smoothingDecay, smoothingFloor, step)),
	}
}

func decayedConfidence(start, decay, floor decimal.Decimal, step int) decimal.Decimal {
	value := start.Sub(decay.Mul(decimal.NewFromInt(int64(step - 1))))
	return mathutil.Max(value, floor)
}

// DefaultStrategies returns the built-in strategy for every concrete method.
func DefaultStrategies() map[Method]Strategy {
	return map[Method]Strategy{
		Manual:               manualStrategy{},
		ARIMA:                arimaStrategy{},
		ExponentialSmoothing: smoothingStrategy{},
	}
}
