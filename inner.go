package pixelcache

import (
	"github.com/Skryldev/pixelcache/cache"
	"github.com/Skryldev/pixelcache/fingerprint"
)

// Cache exposes the underlying memoization core for advanced use (e.g.,
// direct inspection in tests).  Prefer the high-level API for normal usage.
func (e *Engine) Cache() *cache.Cache[fingerprint.Fingerprint, any] { return e.cache }
