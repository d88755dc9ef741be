// Package sweep evaluates the calculator across a range of observation radii
// for a fixed mass, producing the profile a chart or slider needs.
package sweep

import (
	"context"
	"fmt"

	"github.com/star/horizon/internal/schwarzschild"
)

const (
	// DefaultTo is the upper end of the radius range in km.
	DefaultTo = 1000.0
	// SpanFactor scales From into the default upper end when that exceeds
	// DefaultTo.
	SpanFactor = 10.0
	// HorizonMargin is added to the horizon radius when From is unset.
	HorizonMargin = 0.1
	DefaultSteps  = 100
	MinSteps      = 2
	MaxSteps      = 2000
)

// Request holds the parameters for a radius sweep.
type Request struct {
	Mass           float64 // solar masses
	ReferenceSpeed float64 // km/s, defaults to the speed of light
	From           float64 // km, defaults to horizon + HorizonMargin
	To             float64 // km, defaults to max(DefaultTo, From*SpanFactor)
	Steps          int     // number of samples including both ends
}

// Sample is one evaluated radius.
type Sample struct {
	Index      int                      `json:"index"`
	Radius     float64                  `json:"radius"`
	Result     schwarzschild.Result     `json:"result"`
	Assessment schwarzschild.Assessment `json:"assessment"`
}

// Resolve fills defaults and validates the request.
func Resolve(req Request) (Request, error) {
	if req.ReferenceSpeed == 0 {
		req.ReferenceSpeed = schwarzschild.SpeedOfLight
	}
	if req.Steps == 0 {
		req.Steps = DefaultSteps
	}
	if req.Steps < MinSteps || req.Steps > MaxSteps {
		return req, fmt.Errorf("steps must be %d-%d, got %d", MinSteps, MaxSteps, req.Steps)
	}

	// Validate mass and speed through the calculator's own contract.
	probe := schwarzschild.Input{Mass: req.Mass, ObservationRadius: 1, ReferenceSpeed: req.ReferenceSpeed}
	if err := schwarzschild.Validate(probe); err != nil {
		return req, err
	}

	if req.From == 0 {
		req.From = schwarzschild.HorizonRadius(req.Mass, req.ReferenceSpeed) + HorizonMargin
	}
	if req.To == 0 {
		req.To = max(DefaultTo, req.From*SpanFactor)
	}
	if err := schwarzschild.Validate(schwarzschild.Input{Mass: req.Mass, ObservationRadius: req.From, ReferenceSpeed: req.ReferenceSpeed}); err != nil {
		return req, fmt.Errorf("from: %w", err)
	}
	if err := schwarzschild.Validate(schwarzschild.Input{Mass: req.Mass, ObservationRadius: req.To, ReferenceSpeed: req.ReferenceSpeed}); err != nil {
		return req, fmt.Errorf("to: %w", err)
	}
	if req.To <= req.From {
		return req, fmt.Errorf("to (%g km) must be greater than from (%g km)", req.To, req.From)
	}
	return req, nil
}

// Radius returns the i-th radius of a resolved request. The last sample
// lands exactly on To.
func (r Request) Radius(i int) float64 {
	if i >= r.Steps-1 {
		return r.To
	}
	return r.From + (r.To-r.From)*float64(i)/float64(r.Steps-1)
}

// Each evaluates every radius of req in ascending order and hands the sample
// to fn. It stops at the first error from the calculator or fn, or when ctx
// is cancelled.
func Each(ctx context.Context, req Request, p schwarzschild.Policy, fn func(Sample) error) error {
	req, err := Resolve(req)
	if err != nil {
		return err
	}

	for i := 0; i < req.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		in := schwarzschild.Input{Mass: req.Mass, ObservationRadius: req.Radius(i), ReferenceSpeed: req.ReferenceSpeed}
		res, err := schwarzschild.Evaluate(in)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}

		if err := fn(Sample{
			Index:      i,
			Radius:     in.ObservationRadius,
			Result:     res,
			Assessment: p.Assess(in, res),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Profile collects every sample of req.
func Profile(ctx context.Context, req Request, p schwarzschild.Policy) ([]Sample, error) {
	var samples []Sample
	err := Each(ctx, req, p, func(s Sample) error {
		samples = append(samples, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}
