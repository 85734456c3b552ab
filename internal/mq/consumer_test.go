package mq

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eco2-team/backend/domains/platform-authz/internal/cache"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
)

func newTestConsumer(t *testing.T) (*RoleEventConsumer, *cache.MemoryCache) {
	t.Helper()
	roleCache := cache.NewMemoryCache(time.Hour, time.Minute)
	t.Cleanup(func() { _ = roleCache.Close() })
	return NewRoleEventConsumer("amqp://localhost:5672", roleCache, logging.NewTestLogger()), roleCache
}

func cached(c *cache.MemoryCache, email string) ([]string, bool) {
	return c.Get(context.Background(), email)
}

func TestRoleEventConsumer_HandleMessage(t *testing.T) {
	tests := []struct {
		name      string
		seed      []string
		message   string
		email     string
		wantHit   bool
		wantRoles string
	}{
		{
			name:    "invalidate evicts entry",
			seed:    []string{"user"},
			message: `{"type":"invalidate","email":"testuser@example.com"}`,
			email:   "testuser@example.com",
			wantHit: false,
		},
		{
			name:    "invalidate is case-insensitive",
			seed:    []string{"user"},
			message: `{"type":"invalidate","email":"TESTUSER@example.com"}`,
			email:   "testuser@example.com",
			wantHit: false,
		},
		{
			name:      "update replaces roles",
			seed:      []string{"user"},
			message:   `{"type":"update","email":"testuser@example.com","roles":["user","customer-manager"]}`,
			email:     "testuser@example.com",
			wantHit:   true,
			wantRoles: "user,customer-manager",
		},
		{
			name:    "update with no roles evicts",
			seed:    []string{"user"},
			message: `{"type":"update","email":"testuser@example.com","roles":[]}`,
			email:   "testuser@example.com",
			wantHit: false,
		},
		{
			name:    "update with invalid role evicts",
			seed:    []string{"user"},
			message: `{"type":"update","email":"testuser@example.com","roles":["user","bad role"]}`,
			email:   "testuser@example.com",
			wantHit: false,
		},
		{
			name:      "unknown type leaves entry",
			seed:      []string{"user"},
			message:   `{"type":"delete","email":"testuser@example.com"}`,
			email:     "testuser@example.com",
			wantHit:   true,
			wantRoles: "user",
		},
		{
			name:      "empty email leaves entry",
			seed:      []string{"user"},
			message:   `{"type":"invalidate","email":""}`,
			email:     "testuser@example.com",
			wantHit:   true,
			wantRoles: "user",
		},
		{
			name:      "malformed json leaves entry",
			seed:      []string{"user"},
			message:   `{"type":"invalidate","email":`,
			email:     "testuser@example.com",
			wantHit:   true,
			wantRoles: "user",
		},
		{
			name:      "empty body leaves entry",
			seed:      []string{"user"},
			message:   ``,
			email:     "testuser@example.com",
			wantHit:   true,
			wantRoles: "user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer, roleCache := newTestConsumer(t)
			if tt.seed != nil {
				roleCache.Set(context.Background(), tt.email, tt.seed)
			}

			consumer.handleMessage([]byte(tt.message))

			got, ok := cached(roleCache, tt.email)
			if ok != tt.wantHit {
				t.Fatalf("cache hit: expected %v, got %v", tt.wantHit, ok)
			}
			if ok {
				joined := fmt.Sprint(got)
				want := fmt.Sprint(strings.Split(tt.wantRoles, ","))
				if joined != want {
					t.Errorf("roles: expected %s, got %s", want, joined)
				}
			}
		})
	}
}

func TestNewRoleEventConsumer(t *testing.T) {
	roleCache := cache.NewMemoryCache(time.Hour, time.Minute)
	defer roleCache.Close()

	consumer := NewRoleEventConsumer("amqp://localhost:5672", roleCache, nil)

	if consumer == nil {
		t.Fatal("Expected consumer to be created")
	}
	if consumer.amqpURL != "amqp://localhost:5672" {
		t.Errorf("Expected amqpURL to be 'amqp://localhost:5672', got '%s'", consumer.amqpURL)
	}
	if consumer.cache != roleCache {
		t.Error("Expected cache to be set correctly")
	}
	if consumer.logger == nil {
		t.Error("Expected a default logger")
	}
}

func TestRoleEventConsumer_Stop(t *testing.T) {
	consumer, _ := newTestConsumer(t)

	// Stop should not panic even without Start, nor when repeated
	consumer.Stop()
	consumer.Stop()

	select {
	case <-consumer.done:
	default:
		t.Error("Expected done channel to be closed")
	}
}

func TestRoleEventConsumer_StartAndStop(t *testing.T) {
	roleCache := cache.NewMemoryCache(time.Hour, time.Minute)
	defer roleCache.Close()

	consumer := NewRoleEventConsumer("amqp://invalid-url", roleCache, logging.NewTestLogger())

	// Start should not block
	consumer.Start()
	time.Sleep(10 * time.Millisecond)
	consumer.Stop()

	select {
	case <-consumer.done:
	case <-time.After(100 * time.Millisecond):
		t.Error("Expected consumer to stop gracefully")
	}
}

func TestRoleEventConsumer_HandleMessage_Concurrent(t *testing.T) {
	consumer, roleCache := newTestConsumer(t)

	const numGoroutines = 50
	const numMessages = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numMessages; j++ {
				msg := fmt.Sprintf(`{"type":"update","email":"user-%d-%d@example.com","roles":["user"]}`, id, j)
				consumer.handleMessage([]byte(msg))
			}
		}(i)
	}

	wg.Wait()

	if roleCache.Size() != numGoroutines*numMessages {
		t.Errorf("Expected %d cached entries, got %d", numGoroutines*numMessages, roleCache.Size())
	}
}

func TestRoleEventConsumer_Flush(t *testing.T) {
	consumer, roleCache := newTestConsumer(t)
	ctx := context.Background()

	roleCache.Set(ctx, "testuser@example.com", []string{"user"})
	roleCache.Set(ctx, "testuserCM@example.com", []string{"user", "customer-manager"})

	consumer.handleMessage([]byte(`{"type":"flush"}`))

	if roleCache.Size() != 0 {
		t.Errorf("Expected empty cache after flush, got %d entries", roleCache.Size())
	}
}
