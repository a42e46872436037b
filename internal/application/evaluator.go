package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/dackJaniel/bogof-engine/internal/domain"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

// evaluation carries the per-pass state of an eligibility check: a cache of
// variation-to-parent lookups so the catalog is hit at most once per
// variation within a single reconciliation pass.
type evaluation struct {
	catalog ports.Catalog
	parents map[int64]int64
}

func (s *Service) newEvaluation() *evaluation {
	return &evaluation{catalog: s.catalog, parents: make(map[int64]int64)}
}

// FindMatchingCampaign returns the first campaign in registry order that is
// valid today, has one of its coupons applied, and has a required product in
// the cart. Deterministic for a fixed snapshot: registry order is the only
// tiebreaker.
func (s *Service) FindMatchingCampaign(ctx context.Context, cart []domain.CartLine, appliedCoupons []string, today time.Time) (domain.Campaign, bool) {
	return s.findMatching(ctx, s.newEvaluation(), cart, appliedCoupons, today)
}

func (s *Service) findMatching(ctx context.Context, eval *evaluation, cart []domain.CartLine, appliedCoupons []string, today time.Time) (domain.Campaign, bool) {
	for _, campaign := range s.registry.Active(today) {
		if !campaign.HasAnyCoupon(appliedCoupons) {
			continue
		}
		if eval.hasRequiredProduct(ctx, campaign, cart) {
			return campaign, true
		}
	}
	return domain.Campaign{}, false
}

// hasRequiredProduct builds three projections of the cart in one pass: the
// product ids present, the variation ids present, and each present
// variation's parent product. A line whose variation is excluded by the
// campaign is skipped entirely. A required id matches directly against either
// id set, or as the parent of a present variation; the parent branch
// re-checks the exclusion so an excluded variation can never satisfy a
// requirement through its parent.
func (e *evaluation) hasRequiredProduct(ctx context.Context, campaign domain.Campaign, cart []domain.CartLine) bool {
	productIDs := make(map[int64]bool, len(cart))
	variationIDs := make(map[int64]bool, len(cart))
	variationParents := make(map[int64]int64, len(cart))

	for _, line := range cart {
		if campaign.ExcludesVariation(line.VariationID) {
			continue
		}
		productIDs[line.ProductID] = true
		if line.VariationID > 0 {
			variationIDs[line.VariationID] = true
			if parent, ok := e.parentOf(ctx, line.VariationID); ok {
				variationParents[line.VariationID] = parent
			}
		}
	}

	for _, required := range campaign.RequiredProducts {
		if productIDs[required] || variationIDs[required] {
			return true
		}
		for variationID, parentID := range variationParents {
			if parentID == required && !campaign.ExcludesVariation(variationID) {
				return true
			}
		}
	}
	return false
}

// parentOf resolves a variation's parent product via the catalog, caching the
// answer for the rest of the pass. A failed lookup is "no parent": the line
// still matches by its own ids, it just cannot match through a parent.
func (e *evaluation) parentOf(ctx context.Context, variationID int64) (int64, bool) {
	if parent, ok := e.parents[variationID]; ok {
		return parent, parent > 0
	}
	info, err := e.catalog.Product(ctx, variationID)
	if err != nil {
		slog.Default().DebugContext(ctx, "variation parent lookup failed",
			"module", "evaluator",
			"operation", "parent_of",
			"outcome", "skipped",
			"variation_id", variationID,
			"error", err,
		)
		e.parents[variationID] = 0
		return 0, false
	}
	e.parents[variationID] = info.ParentID
	return info.ParentID, info.ParentID > 0
}
