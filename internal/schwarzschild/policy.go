package schwarzschild

import "fmt"

// Default interpretation thresholds. These are presentation heuristics, not
// derived physics.
const (
	DefaultTimeDilationThreshold = 10.0
	DefaultEscapeFraction        = 0.5
)

// Policy decides when a result is flagged as extreme.
type Policy struct {
	// TimeDilationThreshold flags defined factors strictly above it.
	TimeDilationThreshold float64 `json:"time_dilation_threshold"`
	// EscapeFraction flags escape velocities strictly above
	// EscapeFraction * ReferenceSpeed.
	EscapeFraction float64 `json:"escape_fraction"`
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		TimeDilationThreshold: DefaultTimeDilationThreshold,
		EscapeFraction:        DefaultEscapeFraction,
	}
}

// Validate rejects non-finite or non-positive thresholds.
func (p Policy) Validate() error {
	if !finitePositive(p.TimeDilationThreshold) {
		return fmt.Errorf("time dilation threshold must be a finite positive number, got %g", p.TimeDilationThreshold)
	}
	if !finitePositive(p.EscapeFraction) {
		return fmt.Errorf("escape fraction must be a finite positive number, got %g", p.EscapeFraction)
	}
	return nil
}

// Assessment is the severity tagging of one result.
type Assessment struct {
	ExtremeTimeDilation   bool `json:"extreme_time_dilation"`
	ExtremeEscapeVelocity bool `json:"extreme_escape_velocity"`
}

// Assess tags res against the policy thresholds. An undefined time dilation
// is never flagged; the classification already says the point is at or
// inside the horizon.
func (p Policy) Assess(in Input, res Result) Assessment {
	var a Assessment
	if f, ok := res.TimeDilation.Value(); ok && f > p.TimeDilationThreshold {
		a.ExtremeTimeDilation = true
	}
	if res.EscapeVelocity > p.EscapeFraction*in.ReferenceSpeed {
		a.ExtremeEscapeVelocity = true
	}
	return a
}
