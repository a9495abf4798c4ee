package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	redisv9 "github.com/redis/go-redis/v9"
)

const (
	defaultTagTTL = 5 * time.Minute
	tagListKey    = "recipes:tags:list"
)

// TagCache — кэш тегов в Redis: отдельные теги и весь список, JSON с TTL
type TagCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewTagCache(client *redisv9.Client, ttl time.Duration) *TagCache {
	if ttl <= 0 {
		ttl = defaultTagTTL
	}
	return &TagCache{client: client, ttl: ttl}
}

func (c *TagCache) GetTag(ctx context.Context, id int64) (*domain.Tag, bool, error) {
	var tag domain.Tag
	ok, err := c.get(ctx, c.tagKey(id), &tag)
	if err != nil || !ok {
		return nil, false, err
	}
	return &tag, true, nil
}

func (c *TagCache) SetTag(ctx context.Context, tag *domain.Tag) error {
	return c.set(ctx, c.tagKey(tag.ID), tag)
}

func (c *TagCache) GetTagList(ctx context.Context) ([]domain.Tag, bool, error) {
	var tags []domain.Tag
	ok, err := c.get(ctx, tagListKey, &tags)
	if err != nil || !ok {
		return nil, false, err
	}
	return tags, true, nil
}

func (c *TagCache) SetTagList(ctx context.Context, tags []domain.Tag) error {
	return c.set(ctx, tagListKey, tags)
}

// Invalidate сбрасывает тег и весь список
func (c *TagCache) Invalidate(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, c.tagKey(id), tagListKey).Err(); err != nil {
		return fmt.Errorf("redis delete tag cache failed: %w", err)
	}
	return nil
}

func (c *TagCache) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s failed: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("unmarshal cached %s failed: %w", key, err)
	}
	return true, nil
}

func (c *TagCache) set(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s cache failed: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

func (c *TagCache) tagKey(id int64) string {
	return fmt.Sprintf("recipes:tags:%d", id)
}

// NopTagCache — пустой кэш, когда Redis не настроен
type NopTagCache struct{}

func (NopTagCache) GetTag(context.Context, int64) (*domain.Tag, bool, error) { return nil, false, nil }
func (NopTagCache) SetTag(context.Context, *domain.Tag) error                { return nil }
func (NopTagCache) GetTagList(context.Context) ([]domain.Tag, bool, error)   { return nil, false, nil }
func (NopTagCache) SetTagList(context.Context, []domain.Tag) error           { return nil }
func (NopTagCache) Invalidate(context.Context, int64) error                  { return nil }
