package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dackJaniel/bogof-engine/internal/domain"
)

// RedisNoticeSink queues user-facing notices per cart as a Redis list. The
// storefront drains the list when it next renders the cart page.
type RedisNoticeSink struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisNoticeSink(client *redis.Client, ttl time.Duration) *RedisNoticeSink {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisNoticeSink{client: client, ttl: ttl}
}

func noticesKey(cartID string) string { return "bogof:cart:" + cartID + ":notices" }

func (s *RedisNoticeSink) Notify(ctx context.Context, cartID string, notice domain.Notice) error {
	raw, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, noticesKey(cartID), raw)
	pipe.Expire(ctx, noticesKey(cartID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push notice: %w", err)
	}
	return nil
}

func (s *RedisNoticeSink) Drain(ctx context.Context, cartID string) ([]domain.Notice, error) {
	pipe := s.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, noticesKey(cartID), 0, -1)
	pipe.Del(ctx, noticesKey(cartID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("drain notices: %w", err)
	}
	raws, err := rangeCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("read notices: %w", err)
	}
	notices := make([]domain.Notice, 0, len(raws))
	for _, raw := range raws {
		var notice domain.Notice
		if err := json.Unmarshal([]byte(raw), &notice); err != nil {
			continue
		}
		notices = append(notices, notice)
	}
	return notices, nil
}
