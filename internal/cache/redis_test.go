package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
)

type fakeRedisClient struct {
	getReturn  *redis.StringCmd
	setReturn  *redis.StatusCmd
	delReturn  *redis.IntCmd
	pingReturn *redis.StatusCmd
	closeErr   error
	scanErr    error

	lastGetKey string
	lastSetKey string
	lastSetTTL time.Duration
	setCalls   int
}

func (f *fakeRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	f.lastGetKey = key
	return f.getReturn
}

func (f *fakeRedisClient) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.setCalls++
	f.lastSetKey = key
	f.lastSetTTL = expiration
	if f.setReturn != nil {
		return f.setReturn
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.delReturn != nil {
		return f.delReturn
	}
	return redis.NewIntResult(1, nil)
}

func (f *fakeRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	if f.pingReturn != nil {
		return f.pingReturn
	}
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedisClient) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	cmd := redis.NewScanCmd(ctx, nil)
	if f.scanErr != nil {
		cmd.SetErr(f.scanErr)
	}
	return cmd
}

func (f *fakeRedisClient) Close() error {
	return f.closeErr
}

// setupMiniRedis creates a miniredis server and a RedisCache bound to it.
func setupMiniRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c, err := NewRedisWithClient(client, ttl, logging.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestNewRedisWithClientNil(t *testing.T) {
	_, err := NewRedisWithClient(nil, time.Minute, nil)
	assert.Error(t, err)
}

func TestNewRedis_Validation(t *testing.T) {
	ctx := context.Background()
	pool := &PoolOptions{PoolSize: 4}

	_, err := NewRedis(ctx, "", pool, time.Minute, nil)
	assert.Error(t, err, "empty url")

	_, err = NewRedis(ctx, "redis://localhost:6379/0", nil, time.Minute, nil)
	assert.Error(t, err, "nil pool options")

	_, err = NewRedis(ctx, "invalid://url", pool, time.Minute, nil)
	assert.Error(t, err, "bad scheme")
}

func TestNewRedis_UnreachableStillServes(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := NewRedis(ctx, "redis://"+addr+"/0", &PoolOptions{
		PoolSize:    2,
		PoolTimeout: 100 * time.Millisecond,
		ReadTimeout: 100 * time.Millisecond,
	}, time.Minute, logging.NewTestLogger())
	require.NoError(t, err)
	defer c.Close()

	roles, ok := c.Get(ctx, "testuser@example.com")
	assert.False(t, ok)
	assert.Nil(t, roles)
	assert.False(t, c.Healthy(ctx))

	// Best-effort write must not panic or block
	c.Set(ctx, "testuser@example.com", []string{"user"})
}

func TestRedisCache_SetThenGet(t *testing.T) {
	mr, c := setupMiniRedis(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "TestUserCM@Example.com", []string{"user", "customer-manager"})

	stored, err := mr.Get("platform_roles:testusercm@example.com")
	require.NoError(t, err)
	assert.JSONEq(t, `["user","customer-manager"]`, stored)
	assert.Equal(t, time.Minute, mr.TTL("platform_roles:testusercm@example.com"))

	roles, ok := c.Get(ctx, "testusercm@example.com")
	require.True(t, ok)
	assert.Equal(t, []string{"user", "customer-manager"}, roles)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr, c := setupMiniRedis(t, 30*time.Second)
	ctx := context.Background()

	c.Set(ctx, "testuser@example.com", []string{"user"})
	_, ok := c.Get(ctx, "testuser@example.com")
	require.True(t, ok)

	mr.FastForward(31 * time.Second)

	_, ok = c.Get(ctx, "testuser@example.com")
	assert.False(t, ok)
}

func TestRedisCache_EmptyRolesNotCached(t *testing.T) {
	mr, c := setupMiniRedis(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "norole@example.com", nil)
	c.Set(ctx, "norole@example.com", []string{})

	assert.False(t, mr.Exists("platform_roles:norole@example.com"))
}

func TestRedisCache_Overwrite(t *testing.T) {
	_, c := setupMiniRedis(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "testuser@example.com", []string{"user"})
	c.Set(ctx, "testuser@example.com", []string{"user", "admin"})

	roles, ok := c.Get(ctx, "testuser@example.com")
	require.True(t, ok)
	assert.Equal(t, []string{"user", "admin"}, roles)
}

func TestRedisCache_Invalidate(t *testing.T) {
	mr, c := setupMiniRedis(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "testuser@example.com", []string{"user"})
	c.Invalidate(ctx, "TESTUSER@example.com")

	assert.False(t, mr.Exists("platform_roles:testuser@example.com"))
}

func TestRedisCache_UndecodableEntryIsMiss(t *testing.T) {
	mr, c := setupMiniRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, mr.Set("platform_roles:testuser@example.com", "not-json"))
	_, ok := c.Get(ctx, "testuser@example.com")
	assert.False(t, ok)

	require.NoError(t, mr.Set("platform_roles:testuser@example.com", "[]"))
	_, ok = c.Get(ctx, "testuser@example.com")
	assert.False(t, ok)
}

func TestRedisCache_BackendErrorIsMiss(t *testing.T) {
	client := &fakeRedisClient{
		getReturn: redis.NewStringResult("", errors.New("connection refused")),
		setReturn: redis.NewStatusResult("", errors.New("connection refused")),
	}
	c, err := NewRedisWithClient(client, time.Minute, logging.NewTestLogger())
	require.NoError(t, err)

	roles, ok := c.Get(context.Background(), "testuser@example.com")
	assert.False(t, ok)
	assert.Nil(t, roles)
	assert.Equal(t, "platform_roles:testuser@example.com", client.lastGetKey)

	c.Set(context.Background(), "testuser@example.com", []string{"user"})
	assert.Equal(t, 1, client.setCalls)
	assert.Equal(t, time.Minute, client.lastSetTTL)
}

func TestRedisCache_DefaultTTL(t *testing.T) {
	client := &fakeRedisClient{}
	c, err := NewRedisWithClient(client, 0, nil)
	require.NoError(t, err)

	c.Set(context.Background(), "testuser@example.com", []string{"user"})
	assert.Equal(t, DefaultTTL, client.lastSetTTL)
}

func TestRedisCache_Healthy(t *testing.T) {
	ok := &fakeRedisClient{}
	c, _ := NewRedisWithClient(ok, time.Minute, nil)
	assert.True(t, c.Healthy(context.Background()))
	assert.True(t, c.Enabled())

	down := &fakeRedisClient{pingReturn: redis.NewStatusResult("", errors.New("down"))}
	c, _ = NewRedisWithClient(down, time.Minute, nil)
	assert.False(t, c.Healthy(context.Background()))
}

func TestRedisCache_Close(t *testing.T) {
	c, _ := NewRedisWithClient(&fakeRedisClient{}, time.Minute, nil)
	assert.NoError(t, c.Close())

	c, _ = NewRedisWithClient(&fakeRedisClient{closeErr: errors.New("close error")}, time.Minute, nil)
	assert.Error(t, c.Close())

	var nilCache *RedisCache
	assert.Error(t, nilCache.Close())

	assert.Error(t, (&RedisCache{}).Close())
}

func TestKey(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"testuser@example.com", "platform_roles:testuser@example.com"},
		{"TestUserCM@Example.COM", "platform_roles:testusercm@example.com"},
		{"  padded@example.com ", "platform_roles:padded@example.com"},
		{"", "platform_roles:"},
	}

	for _, tt := range tests {
		if got := Key(tt.email); got != tt.expected {
			t.Errorf("Key(%q): expected %q, got %q", tt.email, tt.expected, got)
		}
	}
}
