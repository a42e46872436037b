package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dackJaniel/bogof-engine/internal/domain"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

// CartStore is an in-memory cart, used by the unit tests and as the wiring
// fallback when no Redis URL is configured.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]*cartState
}

type cartState struct {
	lines   []domain.CartLine
	coupons []string
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]*cartState)}
}

func (s *CartStore) cart(cartID string) *cartState {
	if c, ok := s.carts[cartID]; ok {
		return c
	}
	c := &cartState{}
	s.carts[cartID] = c
	return c
}

func (s *CartStore) LineItems(_ context.Context, cartID string) ([]domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[cartID]
	if !ok {
		return []domain.CartLine{}, nil
	}
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out, nil
}

func (s *CartStore) AddLineItem(_ context.Context, cartID string, in ports.AddLineItemInput) (string, error) {
	if in.ProductID <= 0 || in.Quantity < 1 {
		return "", domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := uuid.NewString()
	s.cart(cartID).lines = append(s.cart(cartID).lines, domain.CartLine{
		Key:         key,
		ProductID:   in.ProductID,
		VariationID: in.VariationID,
		Quantity:    in.Quantity,
	})
	return key, nil
}

func (s *CartStore) RemoveLineItem(_ context.Context, cartID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(cartID)
	for i, line := range c.lines {
		if line.Key == key {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *CartStore) MarkFreeGrant(_ context.Context, cartID, key, campaignName string) error {
	return s.updateLine(cartID, key, func(line *domain.CartLine) {
		line.FreeGrant = true
		line.CampaignName = campaignName
	})
}

func (s *CartStore) SetLineItemPrice(_ context.Context, cartID, key string, amount float64) error {
	return s.updateLine(cartID, key, func(line *domain.CartLine) {
		line.UnitPrice = amount
	})
}

func (s *CartStore) SetLineItemQuantity(_ context.Context, cartID, key string, quantity int) error {
	return s.updateLine(cartID, key, func(line *domain.CartLine) {
		line.Quantity = quantity
	})
}

func (s *CartStore) updateLine(cartID, key string, apply func(*domain.CartLine)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(cartID)
	for i := range c.lines {
		if c.lines[i].Key == key {
			apply(&c.lines[i])
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *CartStore) AppliedCoupons(_ context.Context, cartID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[cartID]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, len(c.coupons))
	copy(out, c.coupons)
	return out, nil
}

func (s *CartStore) ApplyCoupon(_ context.Context, cartID, code string) error {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(cartID)
	for _, applied := range c.coupons {
		if applied == code {
			return domain.ErrConflict
		}
	}
	c.coupons = append(c.coupons, code)
	return nil
}

func (s *CartStore) RemoveCoupon(_ context.Context, cartID, code string) error {
	code = domain.NormalizeCouponCode(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(cartID)
	for i, applied := range c.coupons {
		if applied == code {
			c.coupons = append(c.coupons[:i], c.coupons[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
