package health

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz(t *testing.T) {
	p := New(func() error { return errors.New("broken") })
	w := httptest.NewRecorder()
	p.Healthz(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok\n" {
		t.Errorf("Healthz = %d %q, want 200 ok", w.Code, w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		drain  bool
		want   int
	}{
		{"no checks", nil, false, http.StatusOK},
		{"passing check", []Check{func() error { return nil }}, false, http.StatusOK},
		{"failing check", []Check{func() error { return nil }, func() error { return errors.New("down") }}, false, http.StatusServiceUnavailable},
		{"draining", nil, true, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.checks...)
			if tt.drain {
				p.Drain()
			}
			w := httptest.NewRecorder()
			p.Readyz(w, httptest.NewRequest("GET", "/readyz", nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%q)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
