package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"AUTHZ_HTTP_PORT", "AUTHZ_GRPC_PORT", "AUTHZ_METRICS_PORT",
	"CUSTOMER_HTTP_PORT", "PRODUCT_HTTP_PORT",
	"AUTHZ_CACHE_BACKEND", "AUTHZ_REDIS_URL", "AUTHZ_CACHE_TTL_SEC",
	"AUTHZ_ROLE_SOURCE", "AUTHZ_DATABASE_URL", "AUTHZ_AMQP_URL",
	"REDIS_POOL_SIZE", "REDIS_MIN_IDLE_CONNS", "REDIS_POOL_TIMEOUT_MS",
	"REDIS_READ_TIMEOUT_MS", "REDIS_WRITE_TIMEOUT_MS",
	"AUTHZ_DB_MAX_OPEN_CONNS", "AUTHZ_DB_MAX_IDLE_CONNS", "AUTHZ_DB_CONN_MAX_LIFETIME_SEC",
}

// clearEnv unsets every key Load reads. t.Setenv restores the previous values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetenv %s: %v", key, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, DefaultHTTPPort, cfg.HTTPPort)
	assert.Equal(t, DefaultGRPCPort, cfg.GRPCPort)
	assert.Equal(t, DefaultMetricsPort, cfg.MetricsPort)
	assert.Equal(t, DefaultCustomerHTTPPort, cfg.CustomerHTTPPort)
	assert.Equal(t, DefaultProductHTTPPort, cfg.ProductHTTPPort)
	assert.Equal(t, "none", cfg.CacheBackend)
	assert.Equal(t, SourceStatic, cfg.RoleSource)
	assert.Equal(t, DefaultCacheTTLSec, cfg.CacheTTLSec)
	assert.Empty(t, cfg.AMQPURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_RedisURLEnablesRedis(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTHZ_REDIS_URL", "redis://redis:6379/0")

	cfg := Load()
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTHZ_HTTP_PORT", "9100")
	t.Setenv("AUTHZ_GRPC_PORT", "0")
	t.Setenv("AUTHZ_CACHE_BACKEND", "Memory")
	t.Setenv("AUTHZ_CACHE_TTL_SEC", "60")
	t.Setenv("AUTHZ_ROLE_SOURCE", "postgres")
	t.Setenv("AUTHZ_DATABASE_URL", "postgres://authz@db/platform")
	t.Setenv("REDIS_POOL_TIMEOUT_MS", "250")
	t.Setenv("AUTHZ_METRICS_PORT", "not-a-number")

	cfg := Load()
	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, 0, cfg.GRPCPort)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, SourcePostgres, cfg.RoleSource)
	assert.Equal(t, DefaultMetricsPort, cfg.MetricsPort, "invalid ints fall back to defaults")
	require.NoError(t, cfg.Validate())

	opts := cfg.CacheOptions()
	assert.Equal(t, "memory", opts.Backend)
	assert.Equal(t, time.Minute, opts.TTL)
	assert.Equal(t, 250*time.Millisecond, opts.Pool.PoolTimeout)

	pg := cfg.PostgresOptions()
	assert.Equal(t, DefaultDBMaxOpenConns, pg.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, pg.ConnMaxLifetime)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"static uncached", Config{CacheBackend: "none", RoleSource: "static"}, false},
		{"memory cache", Config{CacheBackend: "memory", RoleSource: "static"}, false},
		{"redis without url", Config{CacheBackend: "redis", RoleSource: "static"}, true},
		{"redis with url", Config{CacheBackend: "redis", RedisURL: "redis://r:6379", RoleSource: "static"}, false},
		{"unknown backend", Config{CacheBackend: "memcached", RoleSource: "static"}, true},
		{"postgres without dsn", Config{CacheBackend: "none", RoleSource: "postgres"}, true},
		{"postgres with dsn", Config{CacheBackend: "none", RoleSource: "postgres", DatabaseURL: "postgres://db"}, false},
		{"unknown source", Config{CacheBackend: "none", RoleSource: "ldap"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
