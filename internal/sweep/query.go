package sweep

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/star/horizon/internal/schwarzschild"
)

// ParseQuery reads a Request from URL query parameters:
// mass (required), from, to, steps, reference_speed.
// Resolve still has to be applied to the result. Only absent parameters are
// left zero for Resolve to default; an explicit from, to or reference_speed
// that is not finite and positive is rejected here.
func ParseQuery(q url.Values) (Request, error) {
	var req Request
	var err error

	if req.Mass, err = queryFloat(q, "mass", 0); err != nil {
		return req, err
	}
	if q.Get("mass") == "" {
		return req, fmt.Errorf("mass parameter is required")
	}
	if req.From, err = queryFloat(q, "from", 0); err != nil {
		return req, err
	}
	if req.To, err = queryFloat(q, "to", 0); err != nil {
		return req, err
	}
	if req.ReferenceSpeed, err = queryFloat(q, "reference_speed", 0); err != nil {
		return req, err
	}
	if err := checkExplicit(q, req); err != nil {
		return req, err
	}
	if v := q.Get("steps"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid steps parameter %q", v)
		}
		req.Steps = n
	}
	return req, nil
}

func queryFloat(q url.Values, name string, def float64) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter %q", name, v)
	}
	return f, nil
}

// checkExplicit validates the optional parameters that were actually sent,
// since Resolve treats zero as "use the default".
func checkExplicit(q url.Values, req Request) error {
	if q.Get("reference_speed") != "" {
		in := schwarzschild.Input{Mass: 1, ObservationRadius: 1, ReferenceSpeed: req.ReferenceSpeed}
		if err := schwarzschild.Validate(in); err != nil {
			return err
		}
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"from", req.From},
		{"to", req.To},
	} {
		if q.Get(p.name) == "" {
			continue
		}
		in := schwarzschild.Input{Mass: 1, ObservationRadius: p.v, ReferenceSpeed: schwarzschild.SpeedOfLight}
		if err := schwarzschild.Validate(in); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	return nil
}
