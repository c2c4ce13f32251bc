package redisimpl

import (
	"context"
	"encoding/json"
	"time"

	"social-feed/postfeed"

	"github.com/redis/go-redis/v9"
)

const (
	feedCacheKey = "feed:all"
	feedCacheTTL = time.Minute
)

func NewRedisManager(
	client *redis.Client,
	persistentManager postfeed.Manager,
) *RedisManager {

	return &RedisManager{
		client:            client,
		persistentManager: persistentManager,
	}
}

// RedisManager caches the rendered feed listing in front of a persistent
// manager. Any write drops the cached listing; reads repopulate it.
type RedisManager struct {
	client            *redis.Client
	persistentManager postfeed.Manager
}

// AddPost writes through to persistent storage and invalidates the cache.
func (r RedisManager) AddPost(ctx context.Context, author postfeed.Author, text string, imageRef string) (postfeed.PostRecord, error) {
	created, err := r.persistentManager.AddPost(ctx, author, text, imageRef)
	if err != nil {
		return created, err
	}
	r.invalidate(ctx)
	return created, nil
}

// ListPosts uses a read-through cache backed by persistent storage.
func (r RedisManager) ListPosts(ctx context.Context) ([]postfeed.PostRecord, error) {
	if bytes, err := r.client.Get(ctx, feedCacheKey).Bytes(); err == nil {
		var cached []postfeed.PostRecord
		if uErr := json.Unmarshal(bytes, &cached); uErr == nil {
			return cached, nil
		}
	}

	records, err := r.persistentManager.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	if r.client != nil {
		if raw, mErr := json.Marshal(records); mErr == nil {
			_ = r.client.Set(ctx, feedCacheKey, raw, feedCacheTTL).Err()
		}
	}
	return records, nil
}

// DeletePost writes through and invalidates the cache.
func (r RedisManager) DeletePost(ctx context.Context, postID int64) error {
	if err := r.persistentManager.DeletePost(ctx, postID); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// SetReaction writes through and invalidates the cache.
func (r RedisManager) SetReaction(ctx context.Context, postID int64, userID string, kind postfeed.ReactionKind) (postfeed.PostRecord, error) {
	updated, err := r.persistentManager.SetReaction(ctx, postID, userID, kind)
	if err != nil {
		return updated, err
	}
	r.invalidate(ctx)
	return updated, nil
}

// ClearReaction writes through and invalidates the cache.
func (r RedisManager) ClearReaction(ctx context.Context, postID int64, userID string, kind postfeed.ReactionKind) (postfeed.PostRecord, error) {
	updated, err := r.persistentManager.ClearReaction(ctx, postID, userID, kind)
	if err != nil {
		return updated, err
	}
	r.invalidate(ctx)
	return updated, nil
}

// IsReady checks both Redis and the persistent manager health.
func (r RedisManager) IsReady(ctx context.Context) bool {
	if r.client == nil {
		return false
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return false
	}
	return r.persistentManager.IsReady(ctx)
}

func (r RedisManager) invalidate(ctx context.Context) {
	if r.client != nil {
		_ = r.client.Del(ctx, feedCacheKey).Err()
	}
}
