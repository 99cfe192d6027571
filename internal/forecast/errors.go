package forecast

import "fmt"

// InvalidForecastInput is returned when a forecast cannot be generated from
// the given historical period, method or horizon.
type InvalidForecastInput struct {
	Field  string
	Reason string
}

func (e *InvalidForecastInput) Error() string {
	return fmt.Sprintf("invalid forecast input %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) error {
	return &InvalidForecastInput{Field: field, Reason: fmt.Sprintf(format, args...)}
}
