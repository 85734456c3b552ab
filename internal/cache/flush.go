package cache

import (
	"context"
	"time"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

// scanBatchSize is the number of keys to scan per iteration.
const scanBatchSize = 1000

// Flush deletes every role entry. It is used after bulk directory changes, when evicting
// users one by one is not practical. Returns the number of keys deleted.
func (c *RedisCache) Flush(ctx context.Context) (int, error) {
	var cursor uint64
	pattern := keyPrefix + "*"

	start := time.Now()
	deleted := 0

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			c.logger.Error("Redis SCAN failed during role cache flush",
				constants.ECSFieldErrorMessage, err.Error(),
				"cursor", cursor,
				"deleted_so_far", deleted,
			)
			return deleted, err
		}

		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				c.logger.Error("Redis DEL failed during role cache flush",
					constants.ECSFieldErrorMessage, err.Error(),
					"deleted_so_far", deleted,
				)
				return deleted, err
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Info("Role cache flushed",
		"deleted_entries", deleted,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return deleted, nil
}

// Flush drops every entry.
func (c *MemoryCache) Flush(context.Context) (int, error) {
	deleted := 0
	c.items.Range(func(key, _ any) bool {
		c.items.Delete(key)
		deleted++
		return true
	})
	c.updateSizeMetric()
	return deleted, nil
}

func (NopCache) Flush(context.Context) (int, error) { return 0, nil }
