// Package cache holds the optional email -> roles cache in front of the role source.
//
// Every implementation degrades instead of failing: reads that cannot be served are misses
// and writes that cannot be stored are dropped after logging.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
)

// Backend names accepted by New.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNone   = "none"
)

const keyPrefix = "platform_roles:"

// RoleCache caches role sets by email.
type RoleCache interface {
	// Get returns the cached roles. Backend failures are reported as a miss.
	Get(ctx context.Context, email string) ([]string, bool)
	// Set stores a non-empty role set. Empty sets are ignored.
	Set(ctx context.Context, email string, roles []string)
	// Invalidate drops the entry for email.
	Invalidate(ctx context.Context, email string)
	// Flush drops every entry and returns how many were removed.
	Flush(ctx context.Context) (int, error)
	// Healthy reports backend reachability.
	Healthy(ctx context.Context) bool
	// Enabled is false for the no-op cache; health endpoints omit disabled caches.
	Enabled() bool
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend         string
	RedisURL        string
	Pool            *PoolOptions
	TTL             time.Duration
	CleanupInterval time.Duration
}

// New builds the configured backend. A Redis backend that cannot be reached at startup is
// still returned: it serves misses until Redis comes back.
func New(ctx context.Context, opts Options, logger *logging.Logger) (RoleCache, error) {
	switch opts.Backend {
	case BackendNone, "":
		return NopCache{}, nil
	case BackendMemory:
		return NewMemoryCache(opts.TTL, opts.CleanupInterval), nil
	case BackendRedis:
		c, err := NewRedis(ctx, opts.RedisURL, opts.Pool, opts.TTL, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf(constants.ErrUnknownCacheKind, opts.Backend)
	}
}

// Key is the cache key for email. Emails are compared case-insensitively downstream, so the
// key is lower-cased to keep one entry per identity.
func Key(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// NopCache is used when caching is disabled.
type NopCache struct{}

var _ RoleCache = NopCache{}

func (NopCache) Get(context.Context, string) ([]string, bool) { return nil, false }
func (NopCache) Set(context.Context, string, []string)        {}
func (NopCache) Invalidate(context.Context, string)           {}
func (NopCache) Healthy(context.Context) bool                 { return false }
func (NopCache) Enabled() bool                                { return false }
func (NopCache) Close() error                                 { return nil }
