package schwarzschild

import (
	"math"
	"strings"
	"testing"
)

func TestPolicyAssess(t *testing.T) {
	rs := HorizonRadius(1, SpeedOfLight)
	p := DefaultPolicy()

	tests := []struct {
		name        string
		radius      float64
		wantDil     bool
		wantEscape  bool
		wantDefined bool
	}{
		// v_esc = c*sqrt(rs/r) > c/2 once r < 4rs.
		{"far away", rs * 1000, false, false, true},
		{"just beyond escape threshold", rs * 4.1, false, false, true},
		{"inside escape threshold", rs * 3.9, false, true, true},
		// factor > 10 once r < rs/(1-1/100) ~ 1.0101rs.
		{"extreme dilation", rs * 1.005, true, true, true},
		{"inside horizon", rs * 0.5, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Mass: 1, ObservationRadius: tt.radius, ReferenceSpeed: SpeedOfLight}
			res, err := Evaluate(in)
			if err != nil {
				t.Fatal(err)
			}
			if res.TimeDilation.Defined() != tt.wantDefined {
				t.Errorf("time dilation defined = %v, want %v", res.TimeDilation.Defined(), tt.wantDefined)
			}
			a := p.Assess(in, res)
			if a.ExtremeTimeDilation != tt.wantDil {
				t.Errorf("ExtremeTimeDilation = %v, want %v", a.ExtremeTimeDilation, tt.wantDil)
			}
			if a.ExtremeEscapeVelocity != tt.wantEscape {
				t.Errorf("ExtremeEscapeVelocity = %v, want %v", a.ExtremeEscapeVelocity, tt.wantEscape)
			}
		})
	}
}

func TestPolicyCustomThresholds(t *testing.T) {
	in := DefaultInput()
	res, err := Evaluate(in)
	if err != nil {
		t.Fatal(err)
	}

	// Default input: factor ~1.19, escape ~0.54c.
	strict := Policy{TimeDilationThreshold: 1.1, EscapeFraction: 0.9}
	a := strict.Assess(in, res)
	if !a.ExtremeTimeDilation || a.ExtremeEscapeVelocity {
		t.Errorf("strict assess = %+v, want dilation only", a)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("default policy invalid: %v", err)
	}
	bad := []Policy{
		{TimeDilationThreshold: 0, EscapeFraction: 0.5},
		{TimeDilationThreshold: 10, EscapeFraction: -1},
		{TimeDilationThreshold: math.NaN(), EscapeFraction: 0.5},
		{TimeDilationThreshold: 10, EscapeFraction: math.Inf(1)},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", p)
		}
	}
}

func TestDescribe(t *testing.T) {
	rs := HorizonRadius(1, SpeedOfLight)

	outside, _ := Evaluate(DefaultInput())
	inside, _ := Evaluate(Input{Mass: 1, ObservationRadius: rs / 2, ReferenceSpeed: SpeedOfLight})

	tests := []struct {
		name string
		kind HoleType
		in   Input
		res  Result
		want []string
	}{
		{"black outside", BlackHole, DefaultInput(), outside, []string{"event horizon is located at 2.95 km", "You are 7.05 km from the event horizon."}},
		{"black inside", BlackHole, Input{Mass: 1, ObservationRadius: rs / 2}, inside, []string{"Escape is impossible."}},
		{"white outside", WhiteHole, DefaultInput(), outside, []string{"ejection horizon would be at", "7.05 km from the ejection horizon."}},
		{"white inside", WhiteHole, Input{Mass: 1, ObservationRadius: rs / 2}, inside, []string{"You are inside the ejection horizon!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.kind, tt.in, tt.res)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Describe() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestParseHoleType(t *testing.T) {
	tests := []struct {
		in      string
		want    HoleType
		wantErr bool
	}{
		{"", BlackHole, false},
		{"black", BlackHole, false},
		{" White ", WhiteHole, false},
		{"grey", "", true},
	}
	for _, tt := range tests {
		got, err := ParseHoleType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHoleType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseHoleType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNotes(t *testing.T) {
	if n := Notes(Assessment{}); len(n) != 0 {
		t.Errorf("Notes(none) = %v, want empty", n)
	}
	n := Notes(Assessment{ExtremeTimeDilation: true, ExtremeEscapeVelocity: true})
	if len(n) != 2 {
		t.Errorf("Notes(both) = %v, want 2 entries", n)
	}
}
