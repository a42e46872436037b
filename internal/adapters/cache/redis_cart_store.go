package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dackJaniel/bogof-engine/internal/domain"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

// RedisCartStore keeps cart sessions in Redis: the ordered line list as one
// JSON document and the applied coupons as a set. A cart is only ever touched
// by the request currently reconciling it, so plain read-modify-write is
// sufficient; the TTL sweeps abandoned sessions.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisCartStore{client: client, ttl: ttl}
}

func linesKey(cartID string) string   { return "bogof:cart:" + cartID + ":lines" }
func couponsKey(cartID string) string { return "bogof:cart:" + cartID + ":coupons" }

func (s *RedisCartStore) loadLines(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	raw, err := s.client.Get(ctx, linesKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart lines: %w", err)
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode cart lines: %w", err)
	}
	return lines, nil
}

func (s *RedisCartStore) storeLines(ctx context.Context, cartID string, lines []domain.CartLine) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart lines: %w", err)
	}
	if err := s.client.Set(ctx, linesKey(cartID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set cart lines: %w", err)
	}
	return nil
}

func (s *RedisCartStore) LineItems(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	return s.loadLines(ctx, cartID)
}

func (s *RedisCartStore) AddLineItem(ctx context.Context, cartID string, in ports.AddLineItemInput) (string, error) {
	if in.ProductID <= 0 || in.Quantity < 1 {
		return "", domain.ErrInvalidInput
	}
	lines, err := s.loadLines(ctx, cartID)
	if err != nil {
		return "", err
	}
	key := uuid.NewString()
	lines = append(lines, domain.CartLine{
		Key:         key,
		ProductID:   in.ProductID,
		VariationID: in.VariationID,
		Quantity:    in.Quantity,
	})
	if err := s.storeLines(ctx, cartID, lines); err != nil {
		return "", err
	}
	return key, nil
}

func (s *RedisCartStore) RemoveLineItem(ctx context.Context, cartID, key string) error {
	lines, err := s.loadLines(ctx, cartID)
	if err != nil {
		return err
	}
	for i, line := range lines {
		if line.Key == key {
			return s.storeLines(ctx, cartID, append(lines[:i], lines[i+1:]...))
		}
	}
	return domain.ErrNotFound
}

func (s *RedisCartStore) MarkFreeGrant(ctx context.Context, cartID, key, campaignName string) error {
	return s.updateLine(ctx, cartID, key, func(line *domain.CartLine) {
		line.FreeGrant = true
		line.CampaignName = campaignName
	})
}

func (s *RedisCartStore) SetLineItemPrice(ctx context.Context, cartID, key string, amount float64) error {
	return s.updateLine(ctx, cartID, key, func(line *domain.CartLine) {
		line.UnitPrice = amount
	})
}

func (s *RedisCartStore) SetLineItemQuantity(ctx context.Context, cartID, key string, quantity int) error {
	return s.updateLine(ctx, cartID, key, func(line *domain.CartLine) {
		line.Quantity = quantity
	})
}

func (s *RedisCartStore) updateLine(ctx context.Context, cartID, key string, apply func(*domain.CartLine)) error {
	lines, err := s.loadLines(ctx, cartID)
	if err != nil {
		return err
	}
	for i := range lines {
		if lines[i].Key == key {
			apply(&lines[i])
			return s.storeLines(ctx, cartID, lines)
		}
	}
	return domain.ErrNotFound
}

func (s *RedisCartStore) AppliedCoupons(ctx context.Context, cartID string) ([]string, error) {
	codes, err := s.client.SMembers(ctx, couponsKey(cartID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get applied coupons: %w", err)
	}
	return codes, nil
}

func (s *RedisCartStore) ApplyCoupon(ctx context.Context, cartID, code string) error {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return domain.ErrInvalidInput
	}
	added, err := s.client.SAdd(ctx, couponsKey(cartID), code).Result()
	if err != nil {
		return fmt.Errorf("apply coupon: %w", err)
	}
	if added == 0 {
		return domain.ErrConflict
	}
	if err := s.client.Expire(ctx, couponsKey(cartID), s.ttl).Err(); err != nil {
		return fmt.Errorf("refresh coupon ttl: %w", err)
	}
	return nil
}

func (s *RedisCartStore) RemoveCoupon(ctx context.Context, cartID, code string) error {
	code = domain.NormalizeCouponCode(code)
	removed, err := s.client.SRem(ctx, couponsKey(cartID), code).Result()
	if err != nil {
		return fmt.Errorf("remove coupon: %w", err)
	}
	if removed == 0 {
		return domain.ErrNotFound
	}
	return nil
}
