package sweep

import (
	"context"
	"errors"
	"math"
	"net/url"
	"testing"

	"github.com/star/horizon/internal/schwarzschild"
)

func TestProfileDefaults(t *testing.T) {
	samples, err := Profile(context.Background(), Request{Mass: 1}, schwarzschild.DefaultPolicy())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(samples) != DefaultSteps {
		t.Fatalf("len(samples) = %d, want %d", len(samples), DefaultSteps)
	}

	rs := schwarzschild.HorizonRadius(1, schwarzschild.SpeedOfLight)
	if math.Abs(samples[0].Radius-(rs+HorizonMargin)) > 1e-12 {
		t.Errorf("first radius = %v, want horizon + margin %v", samples[0].Radius, rs+HorizonMargin)
	}
	if samples[len(samples)-1].Radius != DefaultTo {
		t.Errorf("last radius = %v, want %v", samples[len(samples)-1].Radius, DefaultTo)
	}

	for i, s := range samples {
		if s.Index != i {
			t.Errorf("sample %d has index %d", i, s.Index)
		}
		if s.Result.Classification != schwarzschild.Outside {
			t.Errorf("sample %d at r=%v classified %v", i, s.Radius, s.Result.Classification)
		}
	}
}

func TestResolveHeavyMassDefaultRange(t *testing.T) {
	req, err := Resolve(Request{Mass: 1000})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	rs := schwarzschild.HorizonRadius(1000, schwarzschild.SpeedOfLight)
	if math.Abs(req.From-(rs+HorizonMargin)) > 1e-9 {
		t.Errorf("From = %v, want %v", req.From, rs+HorizonMargin)
	}
	if want := req.From * SpanFactor; req.To != want {
		t.Errorf("To = %v, want %v", req.To, want)
	}

	// Light masses keep the fixed upper end.
	req, err = Resolve(Request{Mass: 1})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if req.To != DefaultTo {
		t.Errorf("To = %v, want %v", req.To, DefaultTo)
	}
}

func TestProfileMonotonic(t *testing.T) {
	samples, err := Profile(context.Background(), Request{Mass: 10, Steps: 50}, schwarzschild.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if cur.Radius <= prev.Radius {
			t.Fatalf("radius not ascending at %d: %v <= %v", i, cur.Radius, prev.Radius)
		}
		pf, _ := prev.Result.TimeDilation.Value()
		cf, _ := cur.Result.TimeDilation.Value()
		if cf >= pf {
			t.Errorf("time dilation not decreasing at %d: %v >= %v", i, cf, pf)
		}
		if cur.Result.CurvatureProxy >= prev.Result.CurvatureProxy {
			t.Errorf("curvature not decreasing at %d", i)
		}
	}
	// Near the horizon the default policy flags both regimes.
	if !samples[0].Assessment.ExtremeEscapeVelocity {
		t.Error("first sample should flag extreme escape velocity")
	}
}

func TestProfileCrossesHorizon(t *testing.T) {
	rs := schwarzschild.HorizonRadius(1, schwarzschild.SpeedOfLight)
	samples, err := Profile(context.Background(), Request{Mass: 1, From: rs / 2, To: rs * 2, Steps: 5}, schwarzschild.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	var inside, outside int
	for _, s := range samples {
		if s.Result.Classification == schwarzschild.AtOrInside {
			inside++
			if s.Result.TimeDilation.Defined() {
				t.Errorf("r=%v: time dilation defined inside horizon", s.Radius)
			}
		} else {
			outside++
		}
	}
	if inside == 0 || outside == 0 {
		t.Errorf("inside=%d outside=%d, want both non-zero", inside, outside)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		invalid bool
	}{
		{"negative mass", Request{Mass: -1}, true},
		{"NaN mass", Request{Mass: math.NaN()}, true},
		{"negative speed", Request{Mass: 1, ReferenceSpeed: -5}, true},
		{"negative from", Request{Mass: 1, From: -2, To: 10}, true},
		{"too few steps", Request{Mass: 1, Steps: 1}, false},
		{"too many steps", Request{Mass: 1, Steps: MaxSteps + 1}, false},
		{"negative steps", Request{Mass: 1, Steps: -3}, false},
		{"to below from", Request{Mass: 1, From: 50, To: 20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Profile(context.Background(), tt.req, schwarzschild.DefaultPolicy())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := errors.Is(err, schwarzschild.ErrInvalidInput); got != tt.invalid {
				t.Errorf("errors.Is(ErrInvalidInput) = %v, want %v (%v)", got, tt.invalid, err)
			}
		})
	}
}

func TestEachStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	var calls int
	err := Each(context.Background(), Request{Mass: 1, Steps: 10}, schwarzschild.DefaultPolicy(), func(Sample) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("err = %v, want stop", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestEachCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Each(ctx, Request{Mass: 1}, schwarzschild.DefaultPolicy(), func(Sample) error {
		t.Fatal("callback invoked after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		query   string
		want    Request
		wantErr bool
	}{
		{"mass=2", Request{Mass: 2}, false},
		{"mass=2&from=10&to=20&steps=11", Request{Mass: 2, From: 10, To: 20, Steps: 11}, false},
		{"mass=1&reference_speed=1000", Request{Mass: 1, ReferenceSpeed: 1000}, false},
		{"", Request{}, true},
		{"mass=abc", Request{}, true},
		{"mass=1&steps=ten", Request{}, true},
		{"mass=1&to=far", Request{}, true},
		{"mass=1&reference_speed=0", Request{}, true},
		{"mass=1&reference_speed=-3", Request{}, true},
		{"mass=1&from=0", Request{}, true},
		{"mass=1&to=-5", Request{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseQuery(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuery(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseQueryExplicitZeroIsInvalidInput(t *testing.T) {
	for _, query := range []string{
		"mass=1&reference_speed=0",
		"mass=1&from=0&to=10",
		"mass=1&to=0",
	} {
		q, _ := url.ParseQuery(query)
		_, err := ParseQuery(q)
		if !errors.Is(err, schwarzschild.ErrInvalidInput) {
			t.Errorf("ParseQuery(%q) error = %v, want ErrInvalidInput", query, err)
		}
	}

	var ie *schwarzschild.InvalidInputError
	q, _ := url.ParseQuery("mass=1&reference_speed=0")
	_, err := ParseQuery(q)
	if !errors.As(err, &ie) || ie.Field != "reference_speed" {
		t.Errorf("field = %+v, want reference_speed", ie)
	}
}
