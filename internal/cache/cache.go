// Package cache provides the translation result cache backed by Redis.
//
// The store is deliberately forgiving: an unreachable Redis is treated as a
// pure miss on reads and a reported-but-ignored failure on writes, so cache
// trouble can never block a translation. Every operation feeds both the
// in-process counters served by the monitoring endpoints and the Prometheus
// collectors scraped from /metrics.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Store is the key→value cache capability consumed by the translation
// orchestrator. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the cached value and true on a hit. Unavailability is a
	// miss, never an error.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores value under key with the given TTL and reports success.
	Set(ctx context.Context, key, value string, ttl time.Duration) bool

	// Delete removes a key and reports success.
	Delete(ctx context.Context, key string) bool
}

// cacheOps mirrors the in-process counters into Prometheus, labelled by
// operation and outcome (get/hit, get/miss, set/ok, set/error, ...).
var cacheOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "translation_cache_operations_total",
		Help: "Total number of translation cache operations by outcome.",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(cacheOps)
}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Sets    uint64  `json:"sets"`
	Deletes uint64  `json:"deletes"`
	HitRate float64 `json:"hit_rate"` // percentage over hits+misses
}

// counters accumulates operation outcomes; resettable from the monitoring
// surface.
type counters struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	sets    atomic.Uint64
	deletes atomic.Uint64
}

func (c *counters) snapshot() Stats {
	s := Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

func (c *counters) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
	c.deletes.Store(0)
}

// MemoryStats reports the backing store's memory footprint, taken from Redis
// INFO. Zero values mean the store is unreachable.
type MemoryStats struct {
	UsedMemory      int64  `json:"used_memory"`
	UsedMemoryHuman string `json:"used_memory_human"`
	PeakMemoryHuman string `json:"used_memory_peak_human"`
	Keys            int64  `json:"keys"`
}

// Redis is the Store implementation over go-redis. A Redis constructed from
// an unparseable URL (or whose server is down) degrades to an always-miss
// store rather than failing.
type Redis struct {
	client *redis.Client
	stats  counters
}

var _ Store = (*Redis)(nil)

// NewRedis builds a store from a redis:// URL. Connection problems are
// discovered lazily on first use; call Ping for an eager health probe.
func NewRedis(url string) *Redis {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("invalid redis url, cache disabled")
		return &Redis{}
	}
	return &Redis{client: redis.NewClient(opt)}
}

// Ping probes the backing server. Used at startup for a log line only; a
// failed ping does not disable the store since Redis may come up later.
func (r *Redis) Ping(ctx context.Context) error {
	if r.client == nil {
		return redis.ErrClosed
	}
	return r.client.Ping(ctx).Err()
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	if r.client == nil {
		r.miss()
		return "", false
	}
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Error().Err(err).Msg("cache get failed")
		}
		r.miss()
		return "", false
	}
	r.stats.hits.Add(1)
	cacheOps.WithLabelValues("get", "hit").Inc()
	return val, true
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	if r.client == nil {
		cacheOps.WithLabelValues("set", "error").Inc()
		return false
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Error().Err(err).Msg("cache set failed")
		cacheOps.WithLabelValues("set", "error").Inc()
		return false
	}
	r.stats.sets.Add(1)
	cacheOps.WithLabelValues("set", "ok").Inc()
	return true
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) bool {
	if r.client == nil {
		cacheOps.WithLabelValues("delete", "error").Inc()
		return false
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		log.Error().Err(err).Msg("cache delete failed")
		cacheOps.WithLabelValues("delete", "error").Inc()
		return false
	}
	r.stats.deletes.Add(1)
	cacheOps.WithLabelValues("delete", "ok").Inc()
	return true
}

// Stats returns the current counter snapshot.
func (r *Redis) Stats() Stats { return r.stats.snapshot() }

// ResetStats zeroes the in-process counters (Prometheus counters are
// monotonic by design and are not reset).
func (r *Redis) ResetStats() { r.stats.reset() }

// Memory reports the backing server's memory usage and key count.
func (r *Redis) Memory(ctx context.Context) (MemoryStats, error) {
	if r.client == nil {
		return MemoryStats{}, redis.ErrClosed
	}
	info, err := r.client.Info(ctx, "memory").Result()
	if err != nil {
		return MemoryStats{}, err
	}
	keys, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return MemoryStats{}, err
	}
	ms := parseMemoryInfo(info)
	ms.Keys = keys
	return ms, nil
}

func (r *Redis) miss() {
	r.stats.misses.Add(1)
	cacheOps.WithLabelValues("get", "miss").Inc()
}
