package application

import (
	"time"

	"github.com/dackJaniel/bogof-engine/internal/domain"
)

// Registry is the immutable, ordered campaign list. Construct it once at
// process start and pass it in by reference; the slice is never mutated after
// NewRegistry, so sharing one instance across requests is safe. Configuration
// order encodes priority: earlier campaigns win ambiguous matches.
type Registry struct {
	campaigns []domain.Campaign
}

func NewRegistry(campaigns []domain.Campaign) *Registry {
	return &Registry{campaigns: append([]domain.Campaign(nil), campaigns...)}
}

// All returns every loaded campaign in configuration order.
func (r *Registry) All() []domain.Campaign {
	out := make([]domain.Campaign, len(r.campaigns))
	copy(out, r.campaigns)
	return out
}

// Active returns the campaigns passing the date-window and kill-switch check
// for the given day, preserving configuration order.
func (r *Registry) Active(today time.Time) []domain.Campaign {
	out := make([]domain.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		if c.IsValid(today) {
			out = append(out, c)
		}
	}
	return out
}

// ByName resolves the campaign a free-grant line references. Names are the
// stable link between a granted line and its campaign.
func (r *Registry) ByName(name string) (domain.Campaign, bool) {
	for _, c := range r.campaigns {
		if c.Name == name {
			return c, true
		}
	}
	return domain.Campaign{}, false
}

// ActiveByCoupon finds the first active campaign owning the given coupon
// code.
func (r *Registry) ActiveByCoupon(code string, today time.Time) (domain.Campaign, bool) {
	for _, c := range r.Active(today) {
		if c.HasCoupon(code) {
			return c, true
		}
	}
	return domain.Campaign{}, false
}

// ActiveByFreeProduct finds the first active campaign granting the given
// product. Used as a fallback when a grant line carries no campaign name.
func (r *Registry) ActiveByFreeProduct(productID int64, today time.Time) (domain.Campaign, bool) {
	for _, c := range r.Active(today) {
		if c.FreeProductID == productID {
			return c, true
		}
	}
	return domain.Campaign{}, false
}

// Len reports how many campaigns were loaded.
func (r *Registry) Len() int {
	return len(r.campaigns)
}
