// Package cache memoizes calculator results for display.
//
// Evaluation is cheap and pure, so the cache is a presentation optimization:
// it remembers the most recent input/result pair and keeps recently seen
// inputs for a configurable TTL so repeated slider positions are served
// without recomputation. Entries are keyed by the exact bit pattern of the
// input, which preserves bit-identical results.
package cache

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/star/horizon/internal/metrics"
	"github.com/star/horizon/internal/schwarzschild"
)

// Config holds cache configuration.
type Config struct {
	TTL     time.Duration // How long an evaluated input is kept (default: 5m)
	Cleanup time.Duration // Expired entry sweep interval (default: 10m)
}

// Entry is one memoized evaluation.
type Entry struct {
	Input       schwarzschild.Input  `json:"input"`
	Result      schwarzschild.Result `json:"result"`
	EvaluatedAt time.Time            `json:"evaluated_at"`
}

// Results is a memoizing front for schwarzschild.Evaluate.
// Safe for concurrent use by multiple goroutines.
type Results struct {
	items  *gocache.Cache
	logger *slog.Logger

	mu   sync.RWMutex
	last *Entry

	// Counters (lock-free).
	hits   atomic.Int64
	misses atomic.Int64
}

// NewResults creates a result cache.
func NewResults(cfg Config, logger *slog.Logger) *Results {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = 2 * cfg.TTL
	}
	return &Results{
		items:  gocache.New(cfg.TTL, cfg.Cleanup),
		logger: logger,
	}
}

// Evaluate returns the result for in, computing it on a miss. Invalid
// inputs are never cached and do not replace the last pair.
func (c *Results) Evaluate(in schwarzschild.Input) (schwarzschild.Result, error) {
	key := inputKey(in)

	if v, ok := c.items.Get(key); ok {
		entry := v.(*Entry)
		c.hits.Add(1)
		metrics.IncCacheHits()
		c.setLast(entry)
		return entry.Result, nil
	}

	c.misses.Add(1)
	metrics.IncCacheMisses()

	res, err := schwarzschild.Evaluate(in)
	if err != nil {
		return schwarzschild.Result{}, err
	}

	entry := &Entry{Input: in, Result: res, EvaluatedAt: time.Now().UTC()}
	c.items.SetDefault(key, entry)
	c.setLast(entry)
	metrics.SetCacheEntries(c.items.ItemCount())

	c.logger.Debug("cache store",
		"component", "cache",
		"mass", in.Mass,
		"radius", in.ObservationRadius,
		"classification", res.Classification.String(),
	)

	return res, nil
}

// Last returns the most recently evaluated pair.
func (c *Results) Last() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return Entry{}, false
	}
	return *c.last, true
}

// Flush drops every memoized entry and the last pair.
func (c *Results) Flush() {
	c.items.Flush()
	c.mu.Lock()
	c.last = nil
	c.mu.Unlock()
	metrics.SetCacheEntries(0)
}

// Stats holds cache statistics for the stats endpoint.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	HasLast bool  `json:"has_last"`
}

// Stats returns current cache statistics.
func (c *Results) Stats() Stats {
	c.mu.RLock()
	hasLast := c.last != nil
	c.mu.RUnlock()

	return Stats{
		Entries: c.items.ItemCount(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		HasLast: hasLast,
	}
}

func (c *Results) setLast(e *Entry) {
	c.mu.Lock()
	c.last = e
	c.mu.Unlock()
}

// inputKey encodes the exact float bits so that only bit-identical inputs
// share an entry.
func inputKey(in schwarzschild.Input) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(math.Float64bits(in.Mass), 16))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(math.Float64bits(in.ObservationRadius), 16))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(math.Float64bits(in.ReferenceSpeed), 16))
	return b.String()
}
