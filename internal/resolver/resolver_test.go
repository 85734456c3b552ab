package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eco2-team/backend/domains/platform-authz/internal/cache"
	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/roles"
)

// countingSource wraps a static directory and counts lookups per email.
type countingSource struct {
	mu    sync.Mutex
	users map[string][]string
	err   error
	calls map[string]int
}

func newCountingSource(users map[string][]string) *countingSource {
	return &countingSource{users: users, calls: make(map[string]int)}
}

func (s *countingSource) Roles(_ context.Context, email string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[email]++
	if s.err != nil {
		return nil, s.err
	}
	list, ok := s.users[email]
	if !ok {
		return nil, roles.ErrUserNotFound
	}
	return list, nil
}

func (s *countingSource) count(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[email]
}

func newMemoryResolver(t *testing.T, src roles.Source) (*Resolver, *cache.MemoryCache) {
	t.Helper()
	c := cache.NewMemoryCache(time.Hour, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	r, err := New(c, src, nil)
	require.NoError(t, err)
	return r, c
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := New(cache.NopCache{}, nil, nil)
	assert.Error(t, err)
}

func TestNew_NilCacheDisablesCaching(t *testing.T) {
	src := newCountingSource(map[string][]string{"testuser@example.com": {"user"}})
	r, err := New(nil, src, nil)
	require.NoError(t, err)
	assert.False(t, r.CacheEnabled())

	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background(), "testuser@example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"user"}, got)
	}
	assert.Equal(t, 3, src.count("testuser@example.com"))
}

func TestResolve_KnownUser(t *testing.T) {
	src := newCountingSource(map[string][]string{
		"testusercm@example.com": {"user", "customer-manager"},
	})
	r, c := newMemoryResolver(t, src)
	ctx := context.Background()

	got, err := r.Resolve(ctx, "testusercm@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "customer-manager"}, got)

	cached, ok := c.Get(ctx, "testusercm@example.com")
	require.True(t, ok, "resolved roles must be cached before returning")
	assert.Equal(t, got, cached)
}

func TestResolve_CacheHitSkipsSource(t *testing.T) {
	src := newCountingSource(map[string][]string{"testuser@example.com": {"user"}})
	r, c := newMemoryResolver(t, src)
	ctx := context.Background()

	c.Set(ctx, "testuser@example.com", []string{"user", "admin"})

	got, err := r.Resolve(ctx, "testuser@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "admin"}, got)
	assert.Zero(t, src.count("testuser@example.com"))
}

func TestResolve_RepeatedRequestsHitSourceOnce(t *testing.T) {
	src := newCountingSource(map[string][]string{"testuser@example.com": {"user"}})
	r, _ := newMemoryResolver(t, src)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "testuser@example.com")
	require.NoError(t, err)
	second, err := r.Resolve(ctx, "testuser@example.com")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.count("testuser@example.com"))
}

func TestResolve_UnknownUserIsUnverifiedAndNotCached(t *testing.T) {
	src := newCountingSource(map[string][]string{})
	r, c := newMemoryResolver(t, src)
	ctx := context.Background()

	got, err := r.Resolve(ctx, "testuserUNV@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{constants.RoleUnverifiedUser}, got)

	_, ok := c.Get(ctx, "testuserUNV@example.com")
	assert.False(t, ok)

	// Provisioning takes effect on the next request
	src.mu.Lock()
	src.users["testuserUNV@example.com"] = []string{"user"}
	src.mu.Unlock()

	got, err = r.Resolve(ctx, "testuserUNV@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, got)
}

func TestResolve_EmptyRolesIsUnverifiedAndNotCached(t *testing.T) {
	src := newCountingSource(map[string][]string{"norole@example.com": {}})
	r, c := newMemoryResolver(t, src)
	ctx := context.Background()

	got, err := r.Resolve(ctx, "norole@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{constants.RoleUnverifiedUser}, got)
	assert.Zero(t, c.Size())
}

func TestResolve_SourceFailure(t *testing.T) {
	src := newCountingSource(nil)
	src.err = errors.New("connection reset")
	r, c := newMemoryResolver(t, src)

	got, err := r.Resolve(context.Background(), "testuser@example.com")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrResolution)
	assert.Zero(t, c.Size())
}

func TestResolve_InvalidRoleNameIsFailure(t *testing.T) {
	src := newCountingSource(map[string][]string{"bad@example.com": {"user", "a,b"}})
	r, _ := newMemoryResolver(t, src)

	_, err := r.Resolve(context.Background(), "bad@example.com")
	assert.ErrorIs(t, err, ErrResolution)
}

func TestResolve_StaticDirectory(t *testing.T) {
	src, err := roles.NewStaticSource(roles.DefaultDirectory())
	require.NoError(t, err)
	r, err := New(cache.NopCache{}, src, nil)
	require.NoError(t, err)

	tests := []struct {
		email    string
		expected string
	}{
		{"testuser@example.com", "user"},
		{"testuserCM@example.com", "user,customer-manager"},
		{"testuserPCM@example.com", "user,product-manager,customer-manager"},
		{"testuserUNV@example.com", "unverified-user"},
		{"norole@example.com", "unverified-user"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, JoinRoles(got))
		})
	}
}

func TestJoinAndSplitRoles(t *testing.T) {
	assert.Equal(t, "user,customer-manager", JoinRoles([]string{"user", "customer-manager"}))
	assert.Equal(t, "guest", JoinRoles([]string{"guest"}))
	assert.Equal(t, "", JoinRoles(nil))

	assert.Equal(t, []string{"user", "customer-manager"}, SplitRoles("user,customer-manager"))
	assert.Nil(t, SplitRoles(""))
}
