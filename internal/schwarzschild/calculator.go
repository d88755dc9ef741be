// Package schwarzschild derives horizon radius, time dilation, escape velocity
// and a curvature proxy near a static, spherically symmetric mass.
//
// All outputs use kilometre units to match the inputs: horizon radius in km,
// escape velocity in km/s and the curvature proxy in km^-2. Evaluation is a
// pure function of its Input and is safe for concurrent use.
package schwarzschild

import "math"

// Physical constants.
const (
	G         = 6.67430e-11 // gravitational constant (m^3 kg^-1 s^-2)
	SolarMass = 1.989e30    // kg

	// SpeedOfLight is the conventional reference speed in km/s. Callers that
	// need a different scenario set Input.ReferenceSpeed explicitly.
	SpeedOfLight = 299792.458
)

// Reset values.
const (
	DefaultMass   = 1.0  // solar masses
	DefaultRadius = 10.0 // km
)

// DefaultInput returns the documented reset values.
func DefaultInput() Input {
	return Input{
		Mass:              DefaultMass,
		ObservationRadius: DefaultRadius,
		ReferenceSpeed:    SpeedOfLight,
	}
}

// Validate checks the preconditions of Evaluate.
func Validate(in Input) error {
	if !finitePositive(in.Mass) {
		return invalid("mass", in.Mass, "must be a finite positive number")
	}
	if !finitePositive(in.ObservationRadius) {
		return invalid("radius", in.ObservationRadius, "must be a finite positive number")
	}
	if !finitePositive(in.ReferenceSpeed) {
		return invalid("reference_speed", in.ReferenceSpeed, "must be a finite positive number")
	}
	return nil
}

// HorizonRadius returns the Schwarzschild radius in km for a mass in solar
// masses and a reference speed in km/s:
//
//	r_s = 2GM / c²
func HorizonRadius(mass, referenceSpeed float64) float64 {
	massKg := mass * SolarMass
	speedMS := referenceSpeed * 1000.0
	return (2 * G * massKg) / (speedMS * speedMS) / 1000.0
}

// Evaluate computes the derived quantities for in. It returns an
// *InvalidInputError when a precondition fails or a derived quantity is not
// representable as a finite float64.
func Evaluate(in Input) (Result, error) {
	if err := Validate(in); err != nil {
		return Result{}, err
	}

	r := in.ObservationRadius
	rs := HorizonRadius(in.Mass, in.ReferenceSpeed)
	if !finitePositive(rs) {
		return Result{}, invalid("mass", in.Mass, "horizon radius out of range for this reference speed")
	}

	res := Result{
		HorizonRadius:     rs,
		EscapeVelocity:    in.ReferenceSpeed * math.Sqrt(rs/r),
		CurvatureProxy:    rs / (r * r * r),
		ObservationRadius: r,
	}

	if r <= rs {
		res.Classification = AtOrInside
	} else {
		res.Classification = Outside
		res.TimeDilation = DefinedFactor(timeDilation(r, rs))
	}

	if math.IsInf(res.EscapeVelocity, 0) || math.IsNaN(res.EscapeVelocity) {
		return Result{}, invalid("radius", r, "escape velocity out of range")
	}
	if math.IsInf(res.CurvatureProxy, 0) || math.IsNaN(res.CurvatureProxy) {
		return Result{}, invalid("radius", r, "curvature proxy out of range")
	}

	return res, nil
}

// timeDilation returns 1/sqrt(1 - rs/r) for r > rs.
//
// It is evaluated as sqrt(r / (r - rs)): the subtraction r - rs is exact
// when r is within a factor of two of rs, so the factor keeps growing as
// r approaches the horizon instead of collapsing through 1 - rs/r.
func timeDilation(r, rs float64) float64 {
	return math.Sqrt(r / (r - rs))
}
