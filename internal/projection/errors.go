package projection

import "fmt"

// ComputationError is returned when a scenario cannot produce metrics, e.g.
// because its series is empty or badly ordered.
type ComputationError struct {
	Scenario string
	Reason   string
}

func (e *ComputationError) Error() string {
	if e.Scenario == "" {
		return fmt.Sprintf("projection computation failed: %s", e.Reason)
	}
	return fmt.Sprintf("projection computation failed for scenario %q: %s", e.Scenario, e.Reason)
}

// NonConvergentIRR reports that the IRR solver stopped before |NPV| fell
// below the tolerance. The IRR attached to the metrics is the solver's last
// estimate and should be treated as approximate.
type NonConvergentIRR struct {
	Iterations int
	Reason     string
	Estimate   string
}

func (e *NonConvergentIRR) Error() string {
	return fmt.Sprintf("irr did not converge after %d iterations (%s); estimate %s%%", e.Iterations, e.Reason, e.Estimate)
}
