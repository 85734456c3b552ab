package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eco2-team/backend/domains/platform-authz/internal/metrics"
)

// DefaultCleanupInterval applies when no cleanup interval is configured.
const DefaultCleanupInterval = time.Minute

var (
	memorySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "platform_authz",
		Subsystem: "memory_role_cache",
		Name:      "size",
		Help:      "Current number of entries in the in-process role cache",
	})

	memoryEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "platform_authz",
		Subsystem: "memory_role_cache",
		Name:      "evictions_total",
		Help:      "Total number of expired entries evicted from the in-process role cache",
	})
)

type memoryEntry struct {
	roles    []string
	expireAt time.Time
}

// MemoryCache is a per-process role cache for single-replica or development deployments.
// It uses sync.Map for lock-free reads and expires entries lazily and on a cleanup tick.
type MemoryCache struct {
	items    sync.Map // map[string]memoryEntry (key -> entry)
	ttl      time.Duration
	ttlCheck time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

var _ RoleCache = (*MemoryCache)(nil)

// NewMemoryCache creates a MemoryCache with a background cleanup goroutine.
func NewMemoryCache(ttl, cleanupInterval time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	c := &MemoryCache{
		ttl:      ttl,
		ttlCheck: cleanupInterval,
		done:     make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func (c *MemoryCache) Get(_ context.Context, email string) ([]string, bool) {
	start := time.Now()
	defer func() {
		metrics.CacheLookupDuration.WithLabelValues(BackendMemory).Observe(time.Since(start).Seconds())
	}()

	key := Key(email)
	val, ok := c.items.Load(key)
	if !ok {
		metrics.CacheLookups.WithLabelValues(BackendMemory, metrics.ResultMiss).Inc()
		return nil, false
	}

	entry, ok := val.(memoryEntry)
	if !ok {
		c.items.Delete(key)
		metrics.CacheLookups.WithLabelValues(BackendMemory, metrics.ResultError).Inc()
		return nil, false
	}

	if time.Now().After(entry.expireAt) {
		// Lazy deletion of expired entry
		c.items.Delete(key)
		memoryEvictions.Inc()
		c.updateSizeMetric()
		metrics.CacheLookups.WithLabelValues(BackendMemory, metrics.ResultMiss).Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues(BackendMemory, metrics.ResultHit).Inc()
	return slices.Clone(entry.roles), true
}

// Set overwrites any existing entry for email.
func (c *MemoryCache) Set(_ context.Context, email string, roles []string) {
	if len(roles) == 0 {
		metrics.CacheWrites.WithLabelValues(BackendMemory, metrics.ResultSkipped).Inc()
		return
	}
	c.items.Store(Key(email), memoryEntry{roles: slices.Clone(roles), expireAt: time.Now().Add(c.ttl)})
	metrics.CacheWrites.WithLabelValues(BackendMemory, metrics.ResultOK).Inc()
	c.updateSizeMetric()
}

func (c *MemoryCache) Invalidate(_ context.Context, email string) {
	c.items.Delete(Key(email))
	c.updateSizeMetric()
}

func (c *MemoryCache) Healthy(context.Context) bool { return true }

func (c *MemoryCache) Enabled() bool { return true }

// Close stops the cleanup goroutine. The cache stays readable.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.done) })
	return nil
}

// Size returns the current number of entries, expired ones included.
func (c *MemoryCache) Size() int {
	count := 0
	c.items.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(c.ttlCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

// cleanup removes all expired entries from the cache.
func (c *MemoryCache) cleanup() {
	now := time.Now()
	evicted := 0

	c.items.Range(func(key, value any) bool {
		entry, ok := value.(memoryEntry)
		if !ok || now.After(entry.expireAt) {
			c.items.Delete(key)
			evicted++
		}
		return true
	})

	if evicted > 0 {
		memoryEvictions.Add(float64(evicted))
		c.updateSizeMetric()
	}
}

func (c *MemoryCache) updateSizeMetric() {
	memorySize.Set(float64(c.Size()))
}
