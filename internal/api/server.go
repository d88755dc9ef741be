package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"

	"github.com/star/horizon/internal/auth"
	"github.com/star/horizon/internal/cache"
	"github.com/star/horizon/internal/health"
	"github.com/star/horizon/internal/metrics"
	"github.com/star/horizon/internal/schwarzschild"
	"github.com/star/horizon/internal/stream"
)

// Options carries the collaborators of the HTTP server.
type Options struct {
	Auth        auth.Config
	CORSOrigins []string
	Policy      schwarzschild.Policy
	Defaults    schwarzschild.Input // reset values, reference speed included
	Results     *cache.Results
	Stream      *stream.Handler
	Probes      *health.Probes
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, opts Options) *Server {
	h := &handlers{
		logger:   logger,
		policy:   opts.Policy,
		defaults: opts.Defaults,
		results:  opts.Results,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", opts.Probes.Healthz)
	mux.HandleFunc("GET /readyz", opts.Probes.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/defaults", h.defaultsHandler)
	mux.HandleFunc("POST /api/v1/evaluate", h.evaluateJSONHandler)
	mux.HandleFunc("GET /api/v1/evaluate", h.evaluateQueryHandler)
	mux.HandleFunc("GET /api/v1/evaluate/last", h.lastHandler)
	mux.HandleFunc("GET /api/v1/sweep", h.sweepHandler)
	mux.HandleFunc("GET /api/v1/stream/sweep", opts.Stream.HandleSweep)
	mux.HandleFunc("GET /api/v1/cache/stats", h.cacheStatsHandler)
	mux.HandleFunc("DELETE /api/v1/cache", h.cacheFlushHandler)

	// Build middleware chain: metrics -> logging -> cors -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(opts.Auth)(handler)
	handler = corsMiddleware(opts.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
