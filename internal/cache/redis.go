package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
	"github.com/eco2-team/backend/domains/platform-authz/internal/metrics"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// RedisClient is the minimal surface RedisCache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

var _ RedisClient = (*redis.Client)(nil)

// PoolOptions contains Redis connection pool settings.
type PoolOptions struct {
	PoolSize     int           // Maximum number of connections
	MinIdleConns int           // Minimum idle connections to maintain
	PoolTimeout  time.Duration // Time to wait for a connection from the pool
	ReadTimeout  time.Duration // Timeout for read operations
	WriteTimeout time.Duration // Timeout for write operations
}

// RedisCache stores role sets as JSON arrays with a TTL.
type RedisCache struct {
	client RedisClient
	ttl    time.Duration
	logger *logging.Logger
}

var _ RoleCache = (*RedisCache)(nil)

// NewRedis creates a RedisCache with the given Redis URL and pool options.
func NewRedis(ctx context.Context, redisURL string, poolOpts *PoolOptions, ttl time.Duration, logger *logging.Logger) (*RedisCache, error) {
	if redisURL == "" {
		return nil, errors.New(constants.ErrRedisURLMissing)
	}
	if poolOpts == nil {
		return nil, errors.New(constants.ErrPoolOptionsRequired)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf(constants.ErrRedisURLParse, err)
	}

	// Apply pool options
	opts.PoolSize = poolOpts.PoolSize
	opts.MinIdleConns = poolOpts.MinIdleConns
	opts.PoolTimeout = poolOpts.PoolTimeout
	opts.ReadTimeout = poolOpts.ReadTimeout
	opts.WriteTimeout = poolOpts.WriteTimeout

	c, err := NewRedisWithClient(redis.NewClient(opts), ttl, logger)
	if err != nil {
		return nil, err
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Warn("Redis unreachable at startup, role cache will miss until it recovers",
			constants.ECSFieldErrorMessage, err.Error())
	}
	return c, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client RedisClient, ttl time.Duration, logger *logging.Logger) (*RedisCache, error) {
	if client == nil {
		return nil, errors.New(constants.ErrRedisClientNil)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, email string) ([]string, bool) {
	start := time.Now()
	defer func() {
		metrics.CacheLookupDuration.WithLabelValues(BackendRedis).Observe(time.Since(start).Seconds())
	}()

	raw, err := c.client.Get(ctx, Key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues(BackendRedis, metrics.ResultMiss).Inc()
		return nil, false
	}
	if err != nil {
		c.fail("Role cache read failed", email, err)
		metrics.CacheLookups.WithLabelValues(BackendRedis, metrics.ResultError).Inc()
		return nil, false
	}

	var roles []string
	if err := json.Unmarshal(raw, &roles); err != nil || len(roles) == 0 {
		if err != nil {
			c.fail("Role cache entry undecodable", email, err)
		}
		metrics.CacheLookups.WithLabelValues(BackendRedis, metrics.ResultError).Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues(BackendRedis, metrics.ResultHit).Inc()
	return roles, true
}

func (c *RedisCache) Set(ctx context.Context, email string, roles []string) {
	if len(roles) == 0 {
		metrics.CacheWrites.WithLabelValues(BackendRedis, metrics.ResultSkipped).Inc()
		return
	}
	raw, err := json.Marshal(roles)
	if err != nil {
		c.fail("Role cache encode failed", email, err)
		metrics.CacheWrites.WithLabelValues(BackendRedis, metrics.ResultError).Inc()
		return
	}
	if err := c.client.Set(ctx, Key(email), raw, c.ttl).Err(); err != nil {
		c.fail("Role cache write failed", email, err)
		metrics.CacheWrites.WithLabelValues(BackendRedis, metrics.ResultError).Inc()
		return
	}
	metrics.CacheWrites.WithLabelValues(BackendRedis, metrics.ResultOK).Inc()
}

func (c *RedisCache) Invalidate(ctx context.Context, email string) {
	if err := c.client.Del(ctx, Key(email)).Err(); err != nil {
		c.fail("Role cache invalidation failed", email, err)
	}
}

func (c *RedisCache) Healthy(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *RedisCache) Enabled() bool { return true }

func (c *RedisCache) Close() error {
	if c == nil {
		return errors.New(constants.ErrStoreNil)
	}
	if c.client == nil {
		return errors.New(constants.ErrRedisClientNil)
	}
	return c.client.Close()
}

func (c *RedisCache) fail(msg, email string, err error) {
	metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeCache).Inc()
	c.logger.WithUser(email).Warn(msg,
		constants.ECSFieldErrorMessage, fmt.Errorf(constants.ErrRedisOperation, err).Error())
}
