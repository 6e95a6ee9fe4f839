// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file is the in-memory token-bucket rate limiter. One bucket per
// caller identity, golang.org/x/time/rate underneath, idle buckets evicted
// opportunistically. Process-local only: with several replicas each one
// enforces its own budget, which is acceptable for abuse control on a
// single-process deployment.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Idle buckets older than visitorTTL are dropped; the sweep runs every
// cleanupEvery lookups instead of on a timer.
const (
	visitorTTL   = 10 * time.Minute
	cleanupEvery = 5000
)

// ErrCodeRateLimited is the stable code carried in the 429 envelope. Part
// of the API contract: renaming it breaks clients.
const ErrCodeRateLimited = "rate_limited"

// keyFunc maps a request to the identity owning its bucket. The result
// must be stable for the duration of the request.
type keyFunc func(*gin.Context) string

// KeyByAgentOrIP keys buckets by the authenticated agent when the auth
// middleware stored one in the context, otherwise by client IP. Prefixes
// keep the two namespaces from colliding.
func KeyByAgentOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("agentID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "agent:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds per-key token buckets behind a mutex. Safe for
// concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with
// the given burst capacity (coerced to at least 1). rps of 0 blocks every
// request once the burst is spent.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
	}
}

// bucket returns the limiter for key, creating it on first sight. The
// idle sweep runs before the key is refreshed so a bucket that has been
// quiet past the TTL is evicted even when it is the one being asked for.
func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= cleanupEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns the enforcement middleware. Rejected requests get a 429
// with the standard error envelope and a Retry-After hint.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.bucket(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       ErrCodeRateLimited,
			"message":    "rate limit exceeded",
		})
	}
}
