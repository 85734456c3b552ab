// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/eco2-team/backend/domains/platform-authz/internal/cache"
	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/roles"
)

// Role sources
const (
	SourceStatic   = "static"
	SourcePostgres = "postgres"
)

// Default values (tune here for system-wide changes)
const (
	// Servers
	DefaultHTTPPort         = 9000
	DefaultGRPCPort         = 50051 // 0 disables the gRPC ext_authz listener
	DefaultMetricsPort      = 9090
	DefaultCustomerHTTPPort = 8000
	DefaultProductHTTPPort  = 8001

	// Role cache
	DefaultCacheTTLSec = 300

	// Redis pool
	DefaultRedisPoolSize       = 100  // go-redis default: 20
	DefaultRedisMinIdleConns   = 20   // warm connections to prevent cold start
	DefaultRedisPoolTimeoutMs  = 2000 // 2s - fast fail, a slow cache is a miss
	DefaultRedisReadTimeoutMs  = 1000 // 1s
	DefaultRedisWriteTimeoutMs = 1000 // 1s

	// Postgres pool
	DefaultDBMaxOpenConns     = 20
	DefaultDBMaxIdleConns     = 5
	DefaultDBConnMaxLifetimeS = 300
)

type Config struct {
	HTTPPort         int
	GRPCPort         int
	MetricsPort      int
	CustomerHTTPPort int
	ProductHTTPPort  int

	CacheBackend string
	RedisURL     string
	CacheTTLSec  int

	RoleSource  string
	DatabaseURL string

	AMQPURL string

	// Redis Pool Settings
	RedisPoolSize       int
	RedisMinIdleConns   int
	RedisPoolTimeoutMs  int
	RedisReadTimeoutMs  int
	RedisWriteTimeoutMs int

	// Postgres Pool Settings
	DBMaxOpenConns     int
	DBMaxIdleConns     int
	DBConnMaxLifetimeS int
}

func Load() *Config {
	redisURL := getEnv("AUTHZ_REDIS_URL", "")

	// Caching is opt-in: without a Redis URL the service runs uncached.
	defaultBackend := cache.BackendNone
	if redisURL != "" {
		defaultBackend = cache.BackendRedis
	}

	return &Config{
		HTTPPort:         getEnvAsInt("AUTHZ_HTTP_PORT", DefaultHTTPPort),
		GRPCPort:         getEnvAsInt("AUTHZ_GRPC_PORT", DefaultGRPCPort),
		MetricsPort:      getEnvAsInt("AUTHZ_METRICS_PORT", DefaultMetricsPort),
		CustomerHTTPPort: getEnvAsInt("CUSTOMER_HTTP_PORT", DefaultCustomerHTTPPort),
		ProductHTTPPort:  getEnvAsInt("PRODUCT_HTTP_PORT", DefaultProductHTTPPort),

		CacheBackend: strings.ToLower(getEnv("AUTHZ_CACHE_BACKEND", defaultBackend)),
		RedisURL:     redisURL,
		CacheTTLSec:  getEnvAsInt("AUTHZ_CACHE_TTL_SEC", DefaultCacheTTLSec),

		RoleSource:  strings.ToLower(getEnv("AUTHZ_ROLE_SOURCE", SourceStatic)),
		DatabaseURL: getEnv("AUTHZ_DATABASE_URL", ""),

		AMQPURL: getEnv("AUTHZ_AMQP_URL", ""),

		RedisPoolSize:       getEnvAsInt("REDIS_POOL_SIZE", DefaultRedisPoolSize),
		RedisMinIdleConns:   getEnvAsInt("REDIS_MIN_IDLE_CONNS", DefaultRedisMinIdleConns),
		RedisPoolTimeoutMs:  getEnvAsInt("REDIS_POOL_TIMEOUT_MS", DefaultRedisPoolTimeoutMs),
		RedisReadTimeoutMs:  getEnvAsInt("REDIS_READ_TIMEOUT_MS", DefaultRedisReadTimeoutMs),
		RedisWriteTimeoutMs: getEnvAsInt("REDIS_WRITE_TIMEOUT_MS", DefaultRedisWriteTimeoutMs),

		DBMaxOpenConns:     getEnvAsInt("AUTHZ_DB_MAX_OPEN_CONNS", DefaultDBMaxOpenConns),
		DBMaxIdleConns:     getEnvAsInt("AUTHZ_DB_MAX_IDLE_CONNS", DefaultDBMaxIdleConns),
		DBConnMaxLifetimeS: getEnvAsInt("AUTHZ_DB_CONN_MAX_LIFETIME_SEC", DefaultDBConnMaxLifetimeS),
	}
}

// Validate rejects combinations the authz service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.CacheBackend {
	case cache.BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New(constants.ErrRedisURLMissing))
		}
	case cache.BackendMemory, cache.BackendNone:
	default:
		errs = append(errs, fmt.Errorf(constants.ErrUnknownCacheKind, c.CacheBackend))
	}

	switch c.RoleSource {
	case SourcePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New(constants.ErrDatabaseURLMissing))
		}
	case SourceStatic:
	default:
		errs = append(errs, fmt.Errorf(constants.ErrUnknownSourceKind, c.RoleSource))
	}

	return errors.Join(errs...)
}

// CacheOptions maps the cache settings onto cache.Options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:  c.CacheBackend,
		RedisURL: c.RedisURL,
		Pool: &cache.PoolOptions{
			PoolSize:     c.RedisPoolSize,
			MinIdleConns: c.RedisMinIdleConns,
			PoolTimeout:  time.Duration(c.RedisPoolTimeoutMs) * time.Millisecond,
			ReadTimeout:  time.Duration(c.RedisReadTimeoutMs) * time.Millisecond,
			WriteTimeout: time.Duration(c.RedisWriteTimeoutMs) * time.Millisecond,
		},
		TTL: time.Duration(c.CacheTTLSec) * time.Second,
	}
}

// PostgresOptions maps the pool settings onto roles.PostgresOptions.
func (c *Config) PostgresOptions() roles.PostgresOptions {
	return roles.PostgresOptions{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(c.DBConnMaxLifetimeS) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
