package tlsclient

import (
	"crypto/tls"
	"math"
	"sync"
	"time"

	"github.com/vyrodovalexey/tlsctx/pkg/observability"
)

// SessionCacheSettings tunes the session cache used for abbreviated handshake
// resumption. Values of zero or below leave the platform default in effect;
// positive values are clamped to the maximum representable 32-bit signed
// value before being applied.
type SessionCacheSettings struct {
	// Size is the maximum number of cached sessions.
	Size int64

	// Timeout is the per-session lifetime in seconds.
	Timeout int64
}

// isDefault reports whether both settings leave the platform default.
func (s SessionCacheSettings) isDefault() bool {
	return s.Size <= 0 && s.Timeout <= 0
}

// apply configures the session cache on the underlying TLS configuration.
// This is the only mutation of the configuration performed after its
// creation, and it happens exactly once during assembly.
func (s SessionCacheSettings) apply(cfg *tls.Config, logger observability.Logger) {
	if s.isDefault() {
		return
	}

	capacity := 0
	if s.Size > 0 {
		capacity = clampToInt32(s.Size)
	}

	var cache tls.ClientSessionCache = tls.NewLRUClientSessionCache(capacity)

	if s.Timeout > 0 {
		ttl := time.Duration(clampToInt32(s.Timeout)) * time.Second
		cache = newExpiringSessionCache(cache, ttl)
	}

	cfg.ClientSessionCache = cache

	logger.Debug("session cache configured",
		observability.Int64("size", s.Size),
		observability.Int64("timeoutSeconds", s.Timeout),
	)
}

// clampToInt32 clamps a positive 64-bit count to the 32-bit signed maximum.
func clampToInt32(v int64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// expiringSessionCache wraps a session cache with time-based expiry so cached
// sessions older than the configured timeout are not resumed.
type expiringSessionCache struct {
	inner tls.ClientSessionCache
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	storedAt map[string]time.Time
}

func newExpiringSessionCache(inner tls.ClientSessionCache, ttl time.Duration) *expiringSessionCache {
	return &expiringSessionCache{
		inner:    inner,
		ttl:      ttl,
		now:      time.Now,
		storedAt: make(map[string]time.Time),
	}
}

// Put stores a session and records its storage time. A nil session removes
// the entry, matching the crypto/tls LRU cache contract.
func (c *expiringSessionCache) Put(sessionKey string, cs *tls.ClientSessionState) {
	c.mu.Lock()
	if cs == nil {
		delete(c.storedAt, sessionKey)
	} else {
		c.storedAt[sessionKey] = c.now()
	}
	c.mu.Unlock()

	c.inner.Put(sessionKey, cs)
}

// Get returns a cached session unless it has outlived the timeout.
func (c *expiringSessionCache) Get(sessionKey string) (*tls.ClientSessionState, bool) {
	c.mu.Lock()
	stored, ok := c.storedAt[sessionKey]
	expired := ok && c.now().Sub(stored) > c.ttl
	if expired {
		delete(c.storedAt, sessionKey)
	}
	c.mu.Unlock()

	if expired {
		c.inner.Put(sessionKey, nil)
		return nil, false
	}

	return c.inner.Get(sessionKey)
}

var _ tls.ClientSessionCache = (*expiringSessionCache)(nil)
