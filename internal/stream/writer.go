package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/star/horizon/internal/metrics"
)

// writeTimeout bounds each individual SSE write.
const writeTimeout = 30 * time.Second

// eventWriter serializes SSE frames onto one connection.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
	logger  *slog.Logger

	samples int
}

// event writes v as a named SSE event:
//
//	event: <name>
//	data: {json}
func (e *eventWriter) event(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	e.extendDeadline()
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	e.flusher.Flush()
	return nil
}

// keepalive writes an SSE comment line.
func (e *eventWriter) keepalive() error {
	e.extendDeadline()
	if _, err := fmt.Fprint(e.w, ":\n\n"); err != nil {
		return fmt.Errorf("keepalive write: %w", err)
	}
	e.flusher.Flush()
	return nil
}

func (e *eventWriter) extendDeadline() {
	if err := e.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		e.logger.Debug("could not set write deadline", "error", err)
	}
}

func (e *eventWriter) sample(v any) error {
	if err := e.event("sample", v); err != nil {
		return err
	}
	e.samples++
	metrics.IncStreamSamplesSent()
	return nil
}
