package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	visibleKey   = "board:visible"
	nextResetKey = "board:next_reset"
)

// RedisVisibleCache caches the viewer-facing projection and persists the
// expiry clock across restarts.
type RedisVisibleCache struct {
	client *redis.Client
	logger *logger.Logger
}

// NewRedisClient connects and pings a Redis instance.
func NewRedisClient(addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", zap.String("address", addr), zap.Error(err))
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	log.Info("Successfully connected to Redis", zap.String("address", addr))
	return rdb, nil
}

// NewRedisVisibleCache creates the cache adapter around an existing client.
func NewRedisVisibleCache(client *redis.Client, log *logger.Logger) *RedisVisibleCache {
	return &RedisVisibleCache{
		client: client,
		logger: log.Named("RedisVisibleCache"),
	}
}

func (c *RedisVisibleCache) GetVisible(ctx context.Context) ([]*domain.VisibleListing, error) {
	val, err := c.client.Get(ctx, visibleKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		c.logger.Error("Redis Get operation failed", zap.String("key", visibleKey), zap.Error(err))
		return nil, fmt.Errorf("RedisVisibleCache.GetVisible: %w", err)
	}

	var listings []*domain.VisibleListing
	if err := json.Unmarshal(val, &listings); err != nil {
		// A corrupt entry behaves like a miss; the caller recomputes and overwrites it.
		c.logger.Warn("Cached visible set is corrupt, treating as miss", zap.Error(err))
		return nil, domain.ErrCacheMiss
	}
	return listings, nil
}

func (c *RedisVisibleCache) SetVisible(ctx context.Context, listings []*domain.VisibleListing, ttl time.Duration) error {
	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("RedisVisibleCache.SetVisible: marshal: %w", err)
	}
	if err := c.client.Set(ctx, visibleKey, data, ttl).Err(); err != nil {
		c.logger.Error("Redis Set operation failed", zap.String("key", visibleKey), zap.Error(err))
		return fmt.Errorf("RedisVisibleCache.SetVisible: %w", err)
	}
	c.logger.Debug("Visible set cached", zap.Int("listings", len(listings)), zap.Duration("ttl", ttl))
	return nil
}

func (c *RedisVisibleCache) InvalidateVisible(ctx context.Context) error {
	if err := c.client.Del(ctx, visibleKey).Err(); err != nil {
		c.logger.Error("Redis Del operation failed", zap.String("key", visibleKey), zap.Error(err))
		return fmt.Errorf("RedisVisibleCache.InvalidateVisible: %w", err)
	}
	return nil
}

func (c *RedisVisibleCache) GetNextReset(ctx context.Context) (time.Time, error) {
	val, err := c.client.Get(ctx, nextResetKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, domain.ErrCacheMiss
		}
		c.logger.Error("Redis Get operation failed", zap.String("key", nextResetKey), zap.Error(err))
		return time.Time{}, fmt.Errorf("RedisVisibleCache.GetNextReset: %w", err)
	}
	return time.Unix(val, 0).UTC(), nil
}

// SetNextReset persists the expiry clock without a TTL so a restarted process
// resumes the running cycle instead of granting everyone a fresh interval.
func (c *RedisVisibleCache) SetNextReset(ctx context.Context, t time.Time) error {
	if err := c.client.Set(ctx, nextResetKey, t.Unix(), 0).Err(); err != nil {
		c.logger.Error("Redis Set operation failed", zap.String("key", nextResetKey), zap.Error(err))
		return fmt.Errorf("RedisVisibleCache.SetNextReset: %w", err)
	}
	return nil
}
