// Package pixelcache exposes a single logical image value backed by any
// of several in-memory representations, with every expensive
// transformation memoized by a content-addressable fingerprint in a
// bounded LRU cache.
package pixelcache

import (
	"net/http"

	"github.com/Skryldev/pixelcache/adapters/array"
	"github.com/Skryldev/pixelcache/adapters/bitmap"
	"github.com/Skryldev/pixelcache/cache"
	"github.com/Skryldev/pixelcache/config"
	"github.com/Skryldev/pixelcache/core"
	"github.com/Skryldev/pixelcache/fingerprint"
	"github.com/Skryldev/pixelcache/process"
)

// Re-export the backend kinds for convenience.
const (
	Bitmap = core.KindBitmap
	Array  = core.KindArray
	Vips   = core.KindVips
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// ConfigFromEnv returns the default configuration overridden by
// PIXELCACHE_* environment variables (and a .env file when present).
func ConfigFromEnv() config.Config { return config.FromEnv() }

// Engine is the explicit process-wide handle: it owns the adapter
// registry, the processing collaborator, and the memoization cache, and
// is injected into every image it creates.  Construct one at startup and
// share it; all methods are safe for concurrent use.
type Engine struct {
	cfg    config.Config
	reg    *core.DefaultRegistry
	ops    core.Ops
	cache  *cache.Cache[fingerprint.Fingerprint, any]
	logger core.Logger
	client *http.Client
}

// New creates an Engine with the bitmap and array backends registered and
// the default processing collaborator wired.  The vips backend is cgo and
// opt-in: register it via adapters/vips.Register.
func New(cfg config.Config) *Engine {
	reg := core.NewRegistry()
	reg.Register(bitmap.NewAdapter())
	reg.Register(array.NewAdapter())

	c := cache.New[fingerprint.Fingerprint, any](cfg.CacheCapacity, fingerprint.Fingerprint.String)
	if cfg.DisableCache {
		c.SetEnabled(false)
	}

	return &Engine{
		cfg:    cfg,
		reg:    reg,
		ops:    process.New(),
		cache:  c,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Registry returns the adapter registry so callers can register custom
// backends after construction.
func (e *Engine) Registry() core.Registry { return e.reg }

// SetOps swaps the image-processing collaborator.  Call before issuing
// transformations; cached results computed by a previous collaborator are
// not invalidated.
func (e *Engine) SetOps(ops core.Ops) { e.ops = ops }

// SetLogger attaches a structured logger.
func (e *Engine) SetLogger(l core.Logger) { e.logger = l }

// AddCacheHook registers an observer for cache events.  Wire hooks before
// issuing transformations.
func (e *Engine) AddCacheHook(h core.CacheHook) { e.cache.AddHook(h) }

// SetCacheEnabled toggles memoization at runtime.
func (e *Engine) SetCacheEnabled(on bool) { e.cache.SetEnabled(on) }

// CacheEnabled reports whether memoization is active.
func (e *Engine) CacheEnabled() bool { return e.cache.Enabled() }

// ClearCache drops every memoized entry.
func (e *Engine) ClearCache() { e.cache.Clear() }

// EvictKey removes one memoized entry.
func (e *Engine) EvictKey(key fingerprint.Fingerprint) { e.cache.Evict(key) }

// CacheLen returns the number of live cache entries.
func (e *Engine) CacheLen() int { return e.cache.Len() }

func (e *Engine) debugf(msg string, fields ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, fields...)
	}
}
