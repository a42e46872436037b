package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dackJaniel/bogof-engine/internal/domain"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

// ReconcileResult reports what a single reconciliation pass changed.
type ReconcileResult struct {
	Granted         bool     `json:"granted"`
	GrantedCampaign string   `json:"granted_campaign,omitempty"`
	GrantedLineKey  string   `json:"granted_line_key,omitempty"`
	RemovedLineKeys []string `json:"removed_line_keys,omitempty"`
	ClampedLineKeys []string `json:"clamped_line_keys,omitempty"`
}

// Reconciliation is the request-scoped execution token for one reconciliation
// pass. The triggering event can fire more than once within a request; Run
// executes the pass on the first call and replays its result on every later
// one. Tokens are not shared across requests.
type Reconciliation struct {
	svc    *Service
	cartID string
	done   bool
	result ReconcileResult
	err    error
}

func (s *Service) NewReconciliation(cartID string) *Reconciliation {
	return &Reconciliation{svc: s, cartID: cartID}
}

func (r *Reconciliation) Run(ctx context.Context) (ReconcileResult, error) {
	if r.done {
		return r.result, r.err
	}
	r.done = true
	r.result, r.err = r.svc.reconcile(ctx, r.cartID)
	return r.result, r.err
}

// reconcile runs the full pass: removal first, then grant, then price pin and
// quantity clamp. Removal has to precede the grant so a campaign that lapsed
// this tick is gone before a campaign that became eligible this tick is
// granted. Mutation failures inside the pass are logged and skipped; only a
// failure to read the cart snapshot is returned.
func (s *Service) reconcile(ctx context.Context, cartID string) (ReconcileResult, error) {
	var result ReconcileResult
	today := domain.Today(s.nowFn())
	eval := s.newEvaluation()

	lines, err := s.carts.LineItems(ctx, cartID)
	if err != nil {
		return result, fmt.Errorf("load cart %s: %w", cartID, err)
	}
	coupons, err := s.carts.AppliedCoupons(ctx, cartID)
	if err != nil {
		return result, fmt.Errorf("load coupons for cart %s: %w", cartID, err)
	}

	lines = s.removalPass(ctx, eval, cartID, lines, coupons, today, &result)
	lines = s.grantPass(ctx, eval, cartID, lines, coupons, today, &result)
	s.pricePinPass(ctx, cartID, lines)
	s.quantityClampPass(ctx, cartID, lines, today, &result)

	return result, nil
}

// removalPass drops every free-grant line whose backing campaign no longer
// holds up: unknown campaign, kill switch or date window failed, coupon gone,
// or required product gone. Returns the surviving lines.
func (s *Service) removalPass(ctx context.Context, eval *evaluation, cartID string, lines []domain.CartLine, coupons []string, today time.Time, result *ReconcileResult) []domain.CartLine {
	kept := make([]domain.CartLine, 0, len(lines))
	for _, line := range lines {
		if !line.FreeGrant {
			kept = append(kept, line)
			continue
		}
		if s.grantStillBacked(ctx, eval, line, lines, coupons, today) {
			kept = append(kept, line)
			continue
		}
		if err := s.carts.RemoveLineItem(ctx, cartID, line.Key); err != nil {
			slog.Default().WarnContext(ctx, "free grant removal failed",
				"module", "reconciler",
				"operation", "removal_pass",
				"outcome", "failure",
				"cart_id", cartID,
				"line_key", line.Key,
				"error", err,
			)
			kept = append(kept, line)
			continue
		}
		result.RemovedLineKeys = append(result.RemovedLineKeys, line.Key)
		slog.Default().InfoContext(ctx, "free grant removed",
			"module", "reconciler",
			"operation", "removal_pass",
			"outcome", "success",
			"cart_id", cartID,
			"product_id", line.ProductID,
			"campaign", line.CampaignName,
		)
	}
	return kept
}

// grantStillBacked re-runs the full eligibility of the campaign a grant line
// references. Lines without a usable reference fall back to the first active
// campaign granting the same product.
func (s *Service) grantStillBacked(ctx context.Context, eval *evaluation, line domain.CartLine, lines []domain.CartLine, coupons []string, today time.Time) bool {
	campaign, ok := s.registry.ByName(line.CampaignName)
	if !ok || campaign.FreeProductID != line.ProductID {
		campaign, ok = s.registry.ActiveByFreeProduct(line.ProductID, today)
	}
	if !ok {
		return false
	}
	return campaign.IsValid(today) &&
		campaign.HasAnyCoupon(coupons) &&
		eval.hasRequiredProduct(ctx, campaign, lines)
}

// grantPass adds the free item for the best-matching campaign, unless one is
// already in the cart. Catalog or cart-store refusals leave the cart
// unchanged; they are never raised to the caller.
func (s *Service) grantPass(ctx context.Context, eval *evaluation, cartID string, lines []domain.CartLine, coupons []string, today time.Time, result *ReconcileResult) []domain.CartLine {
	campaign, ok := s.findMatching(ctx, eval, lines, coupons, today)
	if !ok {
		return lines
	}
	for _, line := range lines {
		if line.IsGrantFor(campaign) {
			return lines
		}
	}

	key, variationID, err := s.addFreeItem(ctx, cartID, campaign)
	if err != nil {
		slog.Default().WarnContext(ctx, "free item grant failed",
			"module", "reconciler",
			"operation", "grant_pass",
			"outcome", "failure",
			"cart_id", cartID,
			"campaign", campaign.Name,
			"product_id", campaign.FreeProductID,
			"error", err,
		)
		return lines
	}

	if err := s.carts.MarkFreeGrant(ctx, cartID, key, campaign.Name); err != nil {
		slog.Default().WarnContext(ctx, "marking free grant failed",
			"module", "reconciler",
			"operation", "grant_pass",
			"outcome", "failure",
			"cart_id", cartID,
			"line_key", key,
			"error", err,
		)
	}
	if err := s.carts.SetLineItemPrice(ctx, cartID, key, 0); err != nil {
		slog.Default().WarnContext(ctx, "zeroing grant price failed",
			"module", "reconciler",
			"operation", "grant_pass",
			"outcome", "failure",
			"cart_id", cartID,
			"line_key", key,
			"error", err,
		)
	}
	s.notify(ctx, cartID, domain.Notice{
		Message:  fmt.Sprintf("A free product from the %q campaign was added to your cart!", campaign.Name),
		Severity: domain.NoticeSuccess,
	})
	slog.Default().InfoContext(ctx, "free item granted",
		"module", "reconciler",
		"operation", "grant_pass",
		"outcome", "success",
		"cart_id", cartID,
		"campaign", campaign.Name,
		"product_id", campaign.FreeProductID,
	)

	result.Granted = true
	result.GrantedCampaign = campaign.Name
	result.GrantedLineKey = key
	return append(lines, domain.CartLine{
		Key:          key,
		ProductID:    campaign.FreeProductID,
		VariationID:  variationID,
		Quantity:     1,
		UnitPrice:    0,
		FreeGrant:    true,
		CampaignName: campaign.Name,
	})
}

// addFreeItem adds one unit of the campaign's target. A configured variation
// id is added as that variation; otherwise the base product is tried first,
// falling back to the first available variation when the product turns out to
// be variable.
func (s *Service) addFreeItem(ctx context.Context, cartID string, campaign domain.Campaign) (string, int64, error) {
	if campaign.FreeVariationID > 0 {
		product, err := s.catalog.Product(ctx, campaign.FreeProductID)
		if err != nil {
			return "", 0, fmt.Errorf("free product lookup: %w", err)
		}
		if !product.Variable {
			return "", 0, fmt.Errorf("free product %d is not variable: %w", campaign.FreeProductID, domain.ErrInvalidInput)
		}
		variation, err := s.catalog.Variation(ctx, campaign.FreeVariationID)
		if err != nil {
			return "", 0, fmt.Errorf("free variation lookup: %w", err)
		}
		key, err := s.carts.AddLineItem(ctx, cartID, ports.AddLineItemInput{
			ProductID:   campaign.FreeProductID,
			Quantity:    1,
			VariationID: variation.VariationID,
			Attributes:  variation.Attributes,
		})
		if err != nil {
			return "", 0, fmt.Errorf("add variation line: %w", err)
		}
		return key, variation.VariationID, nil
	}

	key, err := s.carts.AddLineItem(ctx, cartID, ports.AddLineItemInput{
		ProductID: campaign.FreeProductID,
		Quantity:  1,
	})
	if err == nil {
		return key, 0, nil
	}

	// The base product was refused; a variable product needs a concrete
	// variation, so pick the first one the catalog reports.
	product, lookupErr := s.catalog.Product(ctx, campaign.FreeProductID)
	if lookupErr != nil || !product.Variable {
		return "", 0, fmt.Errorf("add product line: %w", err)
	}
	variations, lookupErr := s.catalog.AvailableVariations(ctx, campaign.FreeProductID)
	if lookupErr != nil || len(variations) == 0 {
		return "", 0, fmt.Errorf("no available variation for product %d: %w", campaign.FreeProductID, err)
	}
	first := variations[0]
	key, err = s.carts.AddLineItem(ctx, cartID, ports.AddLineItemInput{
		ProductID:   campaign.FreeProductID,
		Quantity:    1,
		VariationID: first.VariationID,
		Attributes:  first.Attributes,
	})
	if err != nil {
		return "", 0, fmt.Errorf("add fallback variation line: %w", err)
	}
	return key, first.VariationID, nil
}

// pricePinPass re-asserts the zero price on every grant line. The host's
// pricing engine recomputes prices each cycle and would otherwise restore the
// catalog price. Lines already at zero are left alone so a repeated pass on a
// consistent cart issues no writes.
func (s *Service) pricePinPass(ctx context.Context, cartID string, lines []domain.CartLine) {
	for _, line := range lines {
		if !line.FreeGrant || line.UnitPrice == 0 {
			continue
		}
		if err := s.carts.SetLineItemPrice(ctx, cartID, line.Key, 0); err != nil {
			slog.Default().WarnContext(ctx, "price pin failed",
				"module", "reconciler",
				"operation", "price_pin_pass",
				"outcome", "failure",
				"cart_id", cartID,
				"line_key", line.Key,
				"error", err,
			)
		}
	}
}

// quantityClampPass caps every grant line at its campaign's max quantity and
// tells the shopper when it does.
func (s *Service) quantityClampPass(ctx context.Context, cartID string, lines []domain.CartLine, today time.Time, result *ReconcileResult) {
	for _, line := range lines {
		if !line.FreeGrant {
			continue
		}
		campaign, ok := s.grantCampaign(line, today)
		if !ok || line.Quantity <= campaign.MaxQuantity {
			continue
		}
		if err := s.carts.SetLineItemQuantity(ctx, cartID, line.Key, campaign.MaxQuantity); err != nil {
			slog.Default().WarnContext(ctx, "quantity clamp failed",
				"module", "reconciler",
				"operation", "quantity_clamp_pass",
				"outcome", "failure",
				"cart_id", cartID,
				"line_key", line.Key,
				"error", err,
			)
			continue
		}
		result.ClampedLineKeys = append(result.ClampedLineKeys, line.Key)
		s.notify(ctx, cartID, domain.Notice{
			Message:  fmt.Sprintf("The quantity of the free product from %q was limited to %d.", campaign.Name, campaign.MaxQuantity),
			Severity: domain.NoticeInfo,
		})
	}
}

// grantCampaign resolves the campaign backing a grant line: the tagged name
// first, then the first active campaign granting the same product.
func (s *Service) grantCampaign(line domain.CartLine, today time.Time) (domain.Campaign, bool) {
	if campaign, ok := s.registry.ByName(line.CampaignName); ok && campaign.FreeProductID == line.ProductID {
		return campaign, true
	}
	return s.registry.ActiveByFreeProduct(line.ProductID, today)
}

// ValidateQuantityEdit rejects a user-submitted quantity for a free-grant
// line when it exceeds the granting campaign's cap. No cart state changes
// here; the caller owns the mutation.
func (s *Service) ValidateQuantityEdit(ctx context.Context, cartID, lineKey string, quantity int) error {
	lines, err := s.carts.LineItems(ctx, cartID)
	if err != nil {
		return fmt.Errorf("load cart %s: %w", cartID, err)
	}
	for _, line := range lines {
		if line.Key != lineKey || !line.FreeGrant {
			continue
		}
		maxQuantity := 1
		if campaign, ok := s.grantCampaign(line, domain.Today(s.nowFn())); ok {
			maxQuantity = campaign.MaxQuantity
		}
		if quantity > maxQuantity {
			s.notify(ctx, cartID, domain.Notice{
				Message:  fmt.Sprintf("The maximum quantity for this free gift is %d.", maxQuantity),
				Severity: domain.NoticeError,
			})
			return fmt.Errorf("line %s capped at %d: %w", lineKey, maxQuantity, domain.ErrQuantityExceedsCap)
		}
	}
	return nil
}

// ChangeLineQuantity applies a user-submitted quantity change after the
// free-grant validation passes.
func (s *Service) ChangeLineQuantity(ctx context.Context, cartID, lineKey string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity %d: %w", quantity, domain.ErrInvalidInput)
	}
	if err := s.ValidateQuantityEdit(ctx, cartID, lineKey, quantity); err != nil {
		return err
	}
	return s.carts.SetLineItemQuantity(ctx, cartID, lineKey, quantity)
}

// RemoveAllGrants strips every free-grant line from a cart. Maintenance
// operation; returns how many lines were removed.
func (s *Service) RemoveAllGrants(ctx context.Context, cartID string) (int, error) {
	lines, err := s.carts.LineItems(ctx, cartID)
	if err != nil {
		return 0, fmt.Errorf("load cart %s: %w", cartID, err)
	}
	removed := 0
	for _, line := range lines {
		if !line.FreeGrant {
			continue
		}
		if err := s.carts.RemoveLineItem(ctx, cartID, line.Key); err != nil {
			return removed, fmt.Errorf("remove line %s: %w", line.Key, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Service) notify(ctx context.Context, cartID string, notice domain.Notice) {
	if s.notices == nil {
		return
	}
	if err := s.notices.Notify(ctx, cartID, notice); err != nil {
		slog.Default().WarnContext(ctx, "notice delivery failed",
			"module", "reconciler",
			"operation", "notify",
			"outcome", "failure",
			"cart_id", cartID,
			"error", err,
		)
	}
}
