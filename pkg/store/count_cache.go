package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const countCachePrefix = "mailsnap:counts"

// CountCache serves per-folder unread/total counts from Redis, falling back
// to the store on miss. Concurrent misses for the same folder are collapsed
// through singleflight.
type CountCache struct {
	client *redis.Client
	store  Store
	ttl    time.Duration
	group  singleflight.Group
}

// NewCountCache builds a Redis-backed count cache around the store.
func NewCountCache(addr, password string, store Store, ttl time.Duration) *CountCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CountCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		store: store,
		ttl:   ttl,
	}
}

type folderCounts struct {
	Unread int64
	Total  int64
}

// FolderCounts returns unread and total message counts for a folder.
func (c *CountCache) FolderCounts(folderID int64) (int64, int64, error) {
	key := countKey(folderID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if val, err := c.client.Get(ctx, key).Result(); err == nil {
		var counts folderCounts
		if _, scanErr := fmt.Sscanf(val, "%d|%d", &counts.Unread, &counts.Total); scanErr == nil {
			return counts.Unread, counts.Total, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		unread, err := c.store.CountUnread(folderID)
		if err != nil {
			return nil, fmt.Errorf("count unread: %w", err)
		}
		total, err := c.store.CountMessages(folderID)
		if err != nil {
			return nil, fmt.Errorf("count total: %w", err)
		}
		setCtx, setCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer setCancel()
		// Cache write failures are not fatal; the next call recomputes.
		_ = c.client.Set(setCtx, key, fmt.Sprintf("%d|%d", unread, total), c.ttl).Err()
		return folderCounts{Unread: unread, Total: total}, nil
	})
	if err != nil {
		return 0, 0, err
	}
	counts := v.(folderCounts)
	return counts.Unread, counts.Total, nil
}

// InvalidateFolders drops cached counts for the given folders.
func (c *CountCache) InvalidateFolders(folderIDs ...int64) {
	if c == nil || len(folderIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(folderIDs))
	for _, id := range folderIDs {
		keys = append(keys, countKey(id))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.client.Del(ctx, keys...).Err()
}

// InvalidateAll drops cached counts for every known folder.
func (c *CountCache) InvalidateAll() {
	if c == nil {
		return
	}
	folders, err := c.store.ListFolders()
	if err != nil {
		return
	}
	ids := make([]int64, 0, len(folders))
	for _, f := range folders {
		ids = append(ids, f.FolderID)
	}
	c.InvalidateFolders(ids...)
}

// Ping verifies the Redis connection, used at startup.
func (c *CountCache) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("count cache redis ping: %w", err)
	}
	return nil
}

func countKey(folderID int64) string {
	return fmt.Sprintf("%s:%d", countCachePrefix, folderID)
}
