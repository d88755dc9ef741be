// Package health serves liveness and readiness probes.
package health

import (
	"net/http"
	"sync/atomic"
)

// Check reports whether one dependency of the service is usable.
type Check func() error

// Probes holds the readiness checks and the shutdown flag.
type Probes struct {
	checks   []Check
	draining atomic.Bool
}

// New creates probes that are ready once every check passes.
func New(checks ...Check) *Probes {
	return &Probes{checks: checks}
}

// Drain makes Readyz fail so load balancers stop routing during shutdown.
func (p *Probes) Drain() {
	p.draining.Store(true)
}

// Healthz returns 200 "ok\n" unconditionally.
func (p *Probes) Healthz(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok\n")
}

// Readyz returns 200 "ready\n" when every check passes, 503 otherwise.
func (p *Probes) Readyz(w http.ResponseWriter, r *http.Request) {
	if p.draining.Load() {
		writeText(w, http.StatusServiceUnavailable, "draining\n")
		return
	}
	for _, check := range p.checks {
		if err := check(); err != nil {
			writeText(w, http.StatusServiceUnavailable, "not ready: "+err.Error()+"\n")
			return
		}
	}
	writeText(w, http.StatusOK, "ready\n")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
