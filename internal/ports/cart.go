package ports

import (
	"context"

	"github.com/dackJaniel/bogof-engine/internal/domain"
)

// AddLineItemInput describes a line to add to a cart. VariationID and
// Attributes are zero/nil for simple products.
type AddLineItemInput struct {
	ProductID   int64
	Quantity    int
	VariationID int64
	Attributes  map[string]string
}

// CartStore is the hosting storefront's cart. The engine reads snapshots and
// is the only writer of free-grant state; everything else about the cart
// belongs to the host.
type CartStore interface {
	// LineItems returns the cart's lines in cart order.
	LineItems(ctx context.Context, cartID string) ([]domain.CartLine, error)
	// AddLineItem appends a line and returns its stable key.
	AddLineItem(ctx context.Context, cartID string, in AddLineItemInput) (string, error)
	RemoveLineItem(ctx context.Context, cartID, key string) error
	// MarkFreeGrant flags an existing line as a campaign grant.
	MarkFreeGrant(ctx context.Context, cartID, key, campaignName string) error
	SetLineItemPrice(ctx context.Context, cartID, key string, amount float64) error
	SetLineItemQuantity(ctx context.Context, cartID, key string, quantity int) error
	// AppliedCoupons returns the coupon codes currently applied to the cart.
	AppliedCoupons(ctx context.Context, cartID string) ([]string, error)
	ApplyCoupon(ctx context.Context, cartID, code string) error
	RemoveCoupon(ctx context.Context, cartID, code string) error
}
