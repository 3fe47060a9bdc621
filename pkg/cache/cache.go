package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskboard/pkg/models"
	"taskboard/pkg/tasks"
)

const keyPrefix = "tasks:"

// TaskCache is the shared redis-backed cache for list pages and single
// tasks. List keys embed the owner id so a write can sweep one owner's
// namespace; invalidation is deliberately broad rather than precise. Any
// redis failure degrades to a miss.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

var _ tasks.Cache = (*TaskCache)(nil)

func (c *TaskCache) GetList(ctx context.Context, key string) (*tasks.Page, bool) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var page tasks.Page
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		zap.L().Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &page, true
}

func (c *TaskCache) SetList(ctx context.Context, key string, page *tasks.Page) {
	payload, err := json.Marshal(page)
	if err != nil {
		zap.L().Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		zap.L().Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *TaskCache) GetTask(ctx context.Context, id uint) (*models.Task, bool) {
	raw, err := c.rdb.Get(ctx, taskKey(id)).Result()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("cache read failed", zap.Uint("task_id", id), zap.Error(err))
		}
		return nil, false
	}
	var task models.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		zap.L().Warn("cache entry corrupt", zap.Uint("task_id", id), zap.Error(err))
		return nil, false
	}
	return &task, true
}

func (c *TaskCache) SetTask(ctx context.Context, task *models.Task) {
	payload, err := json.Marshal(task)
	if err != nil {
		zap.L().Warn("cache encode failed", zap.Uint("task_id", task.ID), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, taskKey(task.ID), payload, c.ttl).Err(); err != nil {
		zap.L().Warn("cache write failed", zap.Uint("task_id", task.ID), zap.Error(err))
	}
}

func (c *TaskCache) InvalidateTask(ctx context.Context, id uint) {
	if err := c.rdb.Del(ctx, taskKey(id)).Err(); err != nil {
		zap.L().Warn("cache invalidation failed", zap.Uint("task_id", id), zap.Error(err))
	}
}

// InvalidateOwner drops every list page cached for the owner.
func (c *TaskCache) InvalidateOwner(ctx context.Context, ownerID uint) {
	c.deleteByPattern(ctx, fmt.Sprintf("%slist:%d:*", keyPrefix, ownerID))
}

// InvalidateAll sweeps the whole task namespace. Used by the reminder job,
// which mutates tasks across owners.
func (c *TaskCache) InvalidateAll(ctx context.Context) {
	c.deleteByPattern(ctx, keyPrefix+"*")
}

func (c *TaskCache) deleteByPattern(ctx context.Context, pattern string) {
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		zap.L().Warn("cache scan failed", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		zap.L().Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func taskKey(id uint) string {
	return fmt.Sprintf("%sitem:%d", keyPrefix, id)
}
