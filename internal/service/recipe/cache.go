package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"fridgefriend/internal/models"
	"fridgefriend/internal/redis"
)

const (
	redisInvalidateChannel = "recipe:invalidate"
	redisResultTTL         = 30 * time.Minute
)

// resultCache mirrors the latest result per user into Redis so other
// instances can serve it, and fans out invalidations over pub/sub. Every
// method is a no-op when Redis is not configured.
type resultCache struct {
	client *redis.Client
	log    *zap.Logger
}

func newResultCache(client *redis.Client, log *zap.Logger) *resultCache {
	return &resultCache{client: client, log: log}
}

func resultKey(userID int64) string {
	return fmt.Sprintf("recipe:latest:%d", userID)
}

func (r *resultCache) store(ctx context.Context, userID int64, res *models.RecipeResult) {
	if r.client == nil || res == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		r.log.Warn("recipe cache marshal failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, resultKey(userID), data, redisResultTTL); err != nil {
		r.log.Warn("recipe cache store failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (r *resultCache) load(ctx context.Context, userID int64) (*models.RecipeResult, bool) {
	if r.client == nil {
		return nil, false
	}
	raw, err := r.client.Get(ctx, resultKey(userID))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			r.log.Warn("recipe cache load failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return nil, false
	}
	var res models.RecipeResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		r.log.Warn("recipe cache decode failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, false
	}
	return &res, true
}

func (r *resultCache) drop(ctx context.Context, userID int64) {
	if r.client == nil {
		return
	}
	if err := r.client.Del(ctx, resultKey(userID)); err != nil {
		r.log.Warn("recipe cache delete failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// publishInvalidation tells every instance to forget userID's result.
func (r *resultCache) publishInvalidation(ctx context.Context, userID int64) {
	if r.client == nil {
		return
	}
	if err := r.client.Publish(ctx, redisInvalidateChannel, strconv.FormatInt(userID, 10)); err != nil {
		r.log.Warn("recipe invalidation publish failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// startListener runs handler for each invalidated user id until ctx ends.
func (r *resultCache) startListener(ctx context.Context, handler func(userID int64)) {
	r.client.Subscribe(ctx, redisInvalidateChannel, func(payload string) {
		userID, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			r.log.Warn("recipe invalidation decode failed", zap.String("payload", payload), zap.Error(err))
			return
		}
		handler(userID)
	})
}
