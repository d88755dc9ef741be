package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horizon_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_evaluations_total",
			Help: "Calculator evaluations by horizon classification.",
		},
		[]string{"classification"},
	)

	invalidInputsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_invalid_inputs_total",
			Help: "Rejected calculator inputs by offending field.",
		},
		[]string{"field"},
	)

	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "horizon_cache_hits_total",
		Help: "Result cache hits.",
	})

	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "horizon_cache_misses_total",
		Help: "Result cache misses.",
	})

	cacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "horizon_cache_entries",
		Help: "Number of memoized results.",
	})

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_stream_connections_total",
			Help: "Sweep stream connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "horizon_streams_active",
		Help: "Currently open sweep streams.",
	})

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_stream_errors_total",
			Help: "Sweep stream errors by reason.",
		},
		[]string{"reason"},
	)

	streamSamplesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "horizon_stream_samples_sent_total",
		Help: "Sweep samples written to streams.",
	})
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(evaluationsTotal)
	prometheus.MustRegister(invalidInputsTotal)
	prometheus.MustRegister(cacheHitsTotal)
	prometheus.MustRegister(cacheMissesTotal)
	prometheus.MustRegister(cacheEntries)
	prometheus.MustRegister(streamConnectionsTotal)
	prometheus.MustRegister(streamsActive)
	prometheus.MustRegister(streamErrorsTotal)
	prometheus.MustRegister(streamSamplesSent)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncEvaluations counts one successful evaluation.
func IncEvaluations(classification string) {
	evaluationsTotal.WithLabelValues(classification).Inc()
}

// IncInvalidInputs counts one rejected input.
func IncInvalidInputs(field string) {
	invalidInputsTotal.WithLabelValues(field).Inc()
}

// IncCacheHits counts one result cache hit.
func IncCacheHits() { cacheHitsTotal.Inc() }

// IncCacheMisses counts one result cache miss.
func IncCacheMisses() { cacheMissesTotal.Inc() }

// SetCacheEntries publishes the number of memoized results.
func SetCacheEntries(n int) { cacheEntries.Set(float64(n)) }

func IncStreamsActive() { streamsActive.Inc() }
func DecStreamsActive() { streamsActive.Dec() }
func IncStreamSamplesSent() { streamSamplesSent.Inc() }

// IncStreamConnections records a connect or disconnect event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamErrors records a stream failure by reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// knownRoutes are the exact paths served by the API. Anything else is
// reported as "other" to keep label cardinality bounded.
var knownRoutes = map[string]bool{
	"/":                     true,
	"/healthz":              true,
	"/readyz":               true,
	"/metrics":              true,
	"/api/v1/defaults":      true,
	"/api/v1/evaluate":      true,
	"/api/v1/evaluate/last": true,
	"/api/v1/sweep":         true,
	"/api/v1/stream/sweep":  true,
	"/api/v1/cache":         true,
	"/api/v1/cache/stats":   true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes through so SSE handlers keep working behind the middleware.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
