package summary

import "fmt"

// TooFewOrTooManySeries is returned when a comparison is asked for outside
// the supported number of forecasts.
type TooFewOrTooManySeries struct {
	Count int
	Min   int
	Max   int
}

func (e *TooFewOrTooManySeries) Error() string {
	return fmt.Sprintf("comparison needs between %d and %d series, got %d", e.Min, e.Max, e.Count)
}
