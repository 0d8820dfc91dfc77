package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ChopRaffle/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	// StatusKey 最近一次成功读取的链上抽奖状态
	StatusKey = "chop:raffle:status"
	// DefaultStatusTTL 状态缓存默认过期时间
	DefaultStatusTTL = 10 * time.Minute
)

// StatusCache 在 Redis 中保存最近一次成功的 RaffleStatus，链上读取失败时作为回退
type StatusCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStatusCache 创建状态缓存
func NewStatusCache(client redis.Cmdable, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &StatusCache{client: client, ttl: ttl}
}

// Set 写入状态
func (c *StatusCache) Set(ctx context.Context, status *model.RaffleStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshaling raffle status: %w", err)
	}
	return c.client.Set(ctx, StatusKey, data, c.ttl).Err()
}

// Get 读取状态，不存在时返回 nil, nil
func (c *StatusCache) Get(ctx context.Context) (*model.RaffleStatus, error) {
	data, err := c.client.Get(ctx, StatusKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading raffle status: %w", err)
	}
	var status model.RaffleStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("unmarshaling raffle status: %w", err)
	}
	return &status, nil
}
