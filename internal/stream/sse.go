// Package stream delivers radius sweeps as Server-Sent Events so a front end
// can animate an observer moving towards or away from the horizon.
// Clients connect via GET /api/v1/stream/sweep with the sweep parameters.
//
// SSE message format:
//
//	event: metadata
//	data: {"mass":1,"reference_speed":299792.458,"horizon_radius":2.95,...}
//
//	event: sample
//	data: {"index":0,"radius":3.05,"result":{...},"assessment":{...}}
//
//	event: done
//	data: {"samples":100}
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval while the
// stream is paced slower than that.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/star/horizon/internal/httputil"
	"github.com/star/horizon/internal/metrics"
	"github.com/star/horizon/internal/schwarzschild"
	"github.com/star/horizon/internal/sweep"
)

const (
	defaultIntervalMs = 50
	maxIntervalMs     = 5000
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	MaxTotal           int           // Global stream cap (default: 1000).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Honour X-Forwarded-For / X-Real-IP.
	ReferenceSpeed     float64       // Used when the request omits reference_speed.
}

// Handler manages SSE sweep connections.
type Handler struct {
	policy  schwarzschild.Policy
	config  Config
	limiter *limiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(policy schwarzschild.Policy, config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		policy:  policy,
		config:  config,
		limiter: newLimiter(config.MaxConcurrentPerIP, config.MaxTotal),
		logger:  logger,
	}
}

type metadataMessage struct {
	Mass           float64              `json:"mass"`
	ReferenceSpeed float64              `json:"reference_speed"`
	HorizonRadius  float64              `json:"horizon_radius"`
	From           float64              `json:"from"`
	To             float64              `json:"to"`
	Steps          int                  `json:"steps"`
	Direction      string               `json:"direction"`
	IntervalMs     int                  `json:"interval_ms"`
	Policy         schwarzschild.Policy `json:"policy"`
}

type doneMessage struct {
	Samples int `json:"samples"`
}

// HandleSweep serves the SSE sweep stream.
// GET /api/v1/stream/sweep?mass=1&from=3&to=100&steps=50&interval_ms=50&direction=inward
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req, err := sweep.ParseQuery(q)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	if req.ReferenceSpeed == 0 {
		req.ReferenceSpeed = h.config.ReferenceSpeed
	}
	req, err = sweep.Resolve(req)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	intervalMs := defaultIntervalMs
	if v := q.Get("interval_ms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxIntervalMs {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid interval_ms parameter, must be 0-%d", maxIntervalMs))
			return
		}
		intervalMs = n
	}

	direction := q.Get("direction")
	switch direction {
	case "":
		direction = "outward"
	case "outward", "inward":
	default:
		writeError(w, http.StatusBadRequest, "invalid direction parameter, must be inward or outward")
		return
	}

	samples, err := sweep.Profile(r.Context(), req, h.policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if direction == "inward" {
		for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
			samples[i], samples[j] = samples[j], samples[i]
		}
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"mass", req.Mass,
		"steps", req.Steps,
		"direction", direction,
	)

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	ew := &eventWriter{w: w, flusher: flusher, rc: rc, logger: h.logger}

	// Jittered retry interval (3-7s) to spread reconnects after a restart.
	fmt.Fprintf(w, "retry: %d\n\n", 3000+rand.Intn(4000))
	flusher.Flush()

	meta := metadataMessage{
		Mass:           req.Mass,
		ReferenceSpeed: req.ReferenceSpeed,
		HorizonRadius:  schwarzschild.HorizonRadius(req.Mass, req.ReferenceSpeed),
		From:           req.From,
		To:             req.To,
		Steps:          req.Steps,
		Direction:      direction,
		IntervalMs:     intervalMs,
		Policy:         h.policy,
	}
	if err := ew.event("metadata", meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}

	ctx := r.Context()

	if intervalMs == 0 {
		for _, s := range samples {
			if ctx.Err() != nil {
				return
			}
			if err := ew.sample(s); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
		}
	} else {
		ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
		defer ticker.Stop()

		keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
		defer keepaliveTicker.Stop()

		for next := 0; next < len(samples); {
			select {
			case <-ctx.Done():
				return

			case <-ticker.C:
				if err := ew.sample(samples[next]); err != nil {
					metrics.IncStreamErrors("send_error")
					h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
					return
				}
				next++
				keepaliveTicker.Reset(h.config.KeepaliveInterval)

			case <-keepaliveTicker.C:
				if err := ew.keepalive(); err != nil {
					metrics.IncStreamErrors("send_error")
					h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
					return
				}
			}
		}
	}

	if err := ew.event("done", doneMessage{Samples: ew.samples}); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (done)", "remote_ip", ip, "error", err)
	}
}

// writeInvalid writes a 400 naming the offending field when there is one.
func writeInvalid(w http.ResponseWriter, err error) {
	body := map[string]string{"error": err.Error()}
	var ie *schwarzschild.InvalidInputError
	if errors.As(err, &ie) {
		body["field"] = ie.Field
		metrics.IncInvalidInputs(ie.Field)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
