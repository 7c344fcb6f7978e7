// Package hooks provides production-ready CacheHook and Logger
// implementations.
package hooks

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Skryldev/pixelcache/core"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

func (s *SlogLogger) Debug(msg string, fields ...interface{}) { s.log.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...interface{})  { s.log.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...interface{})  { s.log.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...interface{}) { s.log.Error(msg, fields...) }

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs cache events at debug level.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) OnHit(key string)  { h.logger.Debug("cache.hit", "key", key) }
func (h *LoggingHook) OnMiss(key string) { h.logger.Debug("cache.miss", "key", key) }

func (h *LoggingHook) OnStore(key string, computeTime time.Duration) {
	h.logger.Debug("cache.store", "key", key, "compute_ms", computeTime.Milliseconds())
}

func (h *LoggingHook) OnEvict(key string) { h.logger.Debug("cache.evict", "key", key) }

// ── In-memory metrics ─────────────────────────────────────────────────────────

// InMemoryMetrics accumulates cache statistics; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.Mutex

	hits, misses      int64
	stores, evictions int64
	computeMs         int64 // cumulative compute time across stores
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics { return &InMemoryMetrics{} }

func (m *InMemoryMetrics) OnHit(string) {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) OnMiss(string) {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) OnStore(_ string, computeTime time.Duration) {
	m.mu.Lock()
	m.stores++
	m.computeMs += computeTime.Milliseconds()
	m.mu.Unlock()
}

func (m *InMemoryMetrics) OnEvict(string) {
	m.mu.Lock()
	m.evictions++
	m.mu.Unlock()
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	Hits      int64
	Misses    int64
	Stores    int64
	Evictions int64
	ComputeMs int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s MetricsSnapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Hits:      m.hits,
		Misses:    m.misses,
		Stores:    m.stores,
		Evictions: m.evictions,
		ComputeMs: m.computeMs,
	}
}

var _ core.CacheHook = (*LoggingHook)(nil)
var _ core.CacheHook = (*InMemoryMetrics)(nil)
var _ core.Logger = (*SlogLogger)(nil)
