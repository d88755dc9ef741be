package schwarzschild

import (
	"encoding/json"
	"math"
)

// Input holds the three scalars the calculator works from.
type Input struct {
	Mass              float64 `json:"mass"`            // solar masses
	ObservationRadius float64 `json:"radius"`          // km from the centre
	ReferenceSpeed    float64 `json:"reference_speed"` // km/s, conventionally c
}

// Classification places the observation point relative to the horizon.
type Classification int

const (
	Outside Classification = iota
	AtOrInside
)

// String returns the wire name of the classification.
func (c Classification) String() string {
	switch c {
	case Outside:
		return "outside"
	case AtOrInside:
		return "at_or_inside"
	default:
		return "unknown"
	}
}

// MarshalText encodes the classification by name.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Factor is a time-dilation factor that may be undefined.
// The zero value is undefined, which keeps it distinct from a numeric zero.
type Factor struct {
	value   float64
	defined bool
}

// DefinedFactor wraps a computed factor.
func DefinedFactor(v float64) Factor {
	return Factor{value: v, defined: true}
}

// Value returns the factor and whether it is defined.
func (f Factor) Value() (float64, bool) {
	return f.value, f.defined
}

// Defined reports whether the factor holds a real value.
func (f Factor) Defined() bool {
	return f.defined
}

// MarshalJSON encodes an undefined factor as null.
func (f Factor) MarshalJSON() ([]byte, error) {
	if !f.defined {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// Result holds the derived quantities for one Input.
type Result struct {
	HorizonRadius  float64        `json:"horizon_radius"`  // km
	TimeDilation   Factor         `json:"time_dilation"`   // undefined at or inside the horizon
	EscapeVelocity float64        `json:"escape_velocity"` // km/s
	CurvatureProxy float64        `json:"curvature_proxy"` // km^-2 (simplified, not the Kretschmann scalar)
	Classification Classification `json:"classification"`

	// ObservationRadius is carried so derived values can be computed
	// without the originating Input.
	ObservationRadius float64 `json:"-"`
}

// DistanceToHorizon returns how far the observation point sits outside the
// horizon in km. Negative inside.
func (r Result) DistanceToHorizon() float64 {
	return r.ObservationRadius - r.HorizonRadius
}

// MarshalJSON adds an explicit definedness flag next to the time dilation.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		TimeDilationDefined bool    `json:"time_dilation_defined"`
		DistanceToHorizon   float64 `json:"distance_to_horizon"`
	}{
		plain:               plain(r),
		TimeDilationDefined: r.TimeDilation.Defined(),
		DistanceToHorizon:   r.DistanceToHorizon(),
	})
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
