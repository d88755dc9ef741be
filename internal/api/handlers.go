package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/star/horizon/internal/cache"
	"github.com/star/horizon/internal/metrics"
	"github.com/star/horizon/internal/schwarzschild"
	"github.com/star/horizon/internal/sweep"
)

type handlers struct {
	logger   *slog.Logger
	policy   schwarzschild.Policy
	defaults schwarzschild.Input
	results  *cache.Results
}

// evaluateRequest is the POST body of /api/v1/evaluate. Pointers make an
// omitted field distinguishable from an explicit zero.
type evaluateRequest struct {
	Mass           *float64 `json:"mass" validate:"required,gt=0"`
	Radius         *float64 `json:"radius" validate:"required,gt=0"`
	ReferenceSpeed *float64 `json:"reference_speed" validate:"omitempty,gt=0"`
	HoleType       string   `json:"hole_type" validate:"omitempty,oneof=black white"`
}

type evaluateResponse struct {
	Input          schwarzschild.Input      `json:"input"`
	Result         schwarzschild.Result     `json:"result"`
	Assessment     schwarzschild.Assessment `json:"assessment"`
	Notes          []string                 `json:"notes"`
	Interpretation string                   `json:"interpretation"`
}

type sweepResponse struct {
	Mass           float64        `json:"mass"`
	ReferenceSpeed float64        `json:"reference_speed"`
	From           float64        `json:"from"`
	To             float64        `json:"to"`
	Steps          int            `json:"steps"`
	Samples        []sweep.Sample `json:"samples"`
}

func (h *handlers) defaultsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.defaults)
}

func (h *handlers) evaluateJSONHandler(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	in := schwarzschild.Input{
		Mass:              *req.Mass,
		ObservationRadius: *req.Radius,
		ReferenceSpeed:    h.defaults.ReferenceSpeed,
	}
	if req.ReferenceSpeed != nil {
		in.ReferenceSpeed = *req.ReferenceSpeed
	}

	kind, err := schwarzschild.ParseHoleType(req.HoleType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.respondEvaluation(w, in, kind)
}

// GET /api/v1/evaluate?mass=1&radius=10[&reference_speed=...][&hole_type=white]
func (h *handlers) evaluateQueryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	in, err := h.inputFromQuery(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	kind, err := schwarzschild.ParseHoleType(q.Get("hole_type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.respondEvaluation(w, in, kind)
}

func (h *handlers) inputFromQuery(q url.Values) (schwarzschild.Input, error) {
	in := h.defaults
	for _, p := range []struct {
		name     string
		dst      *float64
		required bool
	}{
		{"mass", &in.Mass, true},
		{"radius", &in.ObservationRadius, true},
		{"reference_speed", &in.ReferenceSpeed, false},
	} {
		v := q.Get(p.name)
		if v == "" {
			if p.required {
				return in, fmt.Errorf("%s parameter is required", p.name)
			}
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, fmt.Errorf("invalid %s parameter %q", p.name, v)
		}
		*p.dst = f
	}
	return in, nil
}

func (h *handlers) respondEvaluation(w http.ResponseWriter, in schwarzschild.Input, kind schwarzschild.HoleType) {
	res, err := h.results.Evaluate(in)
	if err != nil {
		h.writeEvaluationError(w, err)
		return
	}
	metrics.IncEvaluations(res.Classification.String())

	assessment := h.policy.Assess(in, res)
	notes := schwarzschild.Notes(assessment)
	if notes == nil {
		notes = []string{}
	}

	writeJSON(w, http.StatusOK, evaluateResponse{
		Input:          in,
		Result:         res,
		Assessment:     assessment,
		Notes:          notes,
		Interpretation: schwarzschild.Describe(kind, in, res),
	})
}

func (h *handlers) writeEvaluationError(w http.ResponseWriter, err error) {
	if errors.Is(err, schwarzschild.ErrInvalidInput) {
		writeBadRequest(w, err)
		return
	}
	h.logger.Error("evaluation failed", "component", "api", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (h *handlers) lastHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.results.Last()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no evaluation yet"})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// GET /api/v1/sweep?mass=1[&from=3][&to=1000][&steps=100][&reference_speed=...]
func (h *handlers) sweepHandler(w http.ResponseWriter, r *http.Request) {
	req, err := sweep.ParseQuery(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.ReferenceSpeed == 0 {
		req.ReferenceSpeed = h.defaults.ReferenceSpeed
	}
	req, err = sweep.Resolve(req)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	samples, err := sweep.Profile(r.Context(), req, h.policy)
	if err != nil {
		h.writeEvaluationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sweepResponse{
		Mass:           req.Mass,
		ReferenceSpeed: req.ReferenceSpeed,
		From:           req.From,
		To:             req.To,
		Steps:          req.Steps,
		Samples:        samples,
	})
}

func (h *handlers) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.results.Stats())
}

func (h *handlers) cacheFlushHandler(w http.ResponseWriter, r *http.Request) {
	h.results.Flush()
	h.logger.Info("result cache flushed", "component", "api")
	w.WriteHeader(http.StatusNoContent)
}

// writeBadRequest writes a 400. Errors attributed to an input field carry
// it in the body and count towards the invalid input metric.
func writeBadRequest(w http.ResponseWriter, err error) {
	body := map[string]string{"error": err.Error()}

	var (
		ie *schwarzschild.InvalidInputError
		fe *fieldError
	)
	switch {
	case errors.As(err, &ie):
		body["field"] = ie.Field
	case errors.As(err, &fe):
		body["field"] = fe.Field
	}
	if field, ok := body["field"]; ok {
		metrics.IncInvalidInputs(field)
	}

	writeJSON(w, http.StatusBadRequest, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
