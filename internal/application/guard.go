package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dackJaniel/bogof-engine/internal/domain"
)

// CouponOutcome reports how a coupon-applied event was handled. A coupon that
// belongs to no campaign is not ours to judge; the host's own validation
// applies and BogofCoupon stays false.
type CouponOutcome struct {
	BogofCoupon bool            `json:"bogof_coupon"`
	Campaign    string          `json:"campaign,omitempty"`
	Reconcile   ReconcileResult `json:"reconcile,omitempty"`
}

// HandleCouponApplied is the coupon guard. The coupon is already on the cart
// when this runs; policy violations roll it back (remove the coupon, emit an
// error notice) and return ErrCouponExclusive or ErrCouponNotEligible. On
// success the grant pass runs immediately so the shopper sees the free item
// without another round trip.
func (s *Service) HandleCouponApplied(ctx context.Context, cartID, code string) (CouponOutcome, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return CouponOutcome{}, fmt.Errorf("empty coupon code: %w", domain.ErrInvalidInput)
	}
	today := domain.Today(s.nowFn())

	campaign, ok := s.registry.ActiveByCoupon(code, today)
	if !ok {
		slog.Default().DebugContext(ctx, "coupon belongs to no active campaign",
			"module", "guard",
			"operation", "handle_coupon_applied",
			"outcome", "skipped",
			"cart_id", cartID,
			"coupon", code,
		)
		return CouponOutcome{}, nil
	}
	outcome := CouponOutcome{BogofCoupon: true, Campaign: campaign.Name}

	applied, err := s.carts.AppliedCoupons(ctx, cartID)
	if err != nil {
		return outcome, fmt.Errorf("load coupons for cart %s: %w", cartID, err)
	}

	// One campaign coupon per order. The count includes the code that just
	// arrived, so anything above one means a second campaign coupon.
	if s.countCampaignCoupons(applied, today) > 1 {
		s.rollbackCoupon(ctx, cartID, code, domain.Notice{
			Message:  "Only one coupon can be applied per order.",
			Severity: domain.NoticeError,
		})
		return outcome, fmt.Errorf("coupon %q: %w", code, domain.ErrCouponExclusive)
	}

	eval := s.newEvaluation()
	lines, err := s.carts.LineItems(ctx, cartID)
	if err != nil {
		return outcome, fmt.Errorf("load cart %s: %w", cartID, err)
	}
	if !eval.hasRequiredProduct(ctx, campaign, lines) {
		s.rollbackCoupon(ctx, cartID, code, domain.Notice{
			Message:  fmt.Sprintf("The coupon code %q cannot be used with the products in your cart.", code),
			Severity: domain.NoticeError,
		})
		return outcome, fmt.Errorf("coupon %q: %w", code, domain.ErrCouponNotEligible)
	}

	result, err := s.NewReconciliation(cartID).Run(ctx)
	if err != nil {
		return outcome, err
	}
	outcome.Reconcile = result
	return outcome, nil
}

// countCampaignCoupons counts applied coupons owned by any active campaign.
func (s *Service) countCampaignCoupons(applied []string, today time.Time) int {
	active := s.registry.Active(today)
	count := 0
	for _, code := range applied {
		for _, campaign := range active {
			if campaign.HasCoupon(code) {
				count++
				break
			}
		}
	}
	return count
}

func (s *Service) rollbackCoupon(ctx context.Context, cartID, code string, notice domain.Notice) {
	if err := s.carts.RemoveCoupon(ctx, cartID, code); err != nil {
		slog.Default().WarnContext(ctx, "coupon rollback failed",
			"module", "guard",
			"operation", "rollback_coupon",
			"outcome", "failure",
			"cart_id", cartID,
			"coupon", code,
			"error", err,
		)
	}
	s.notify(ctx, cartID, notice)
	slog.Default().InfoContext(ctx, "coupon rejected",
		"module", "guard",
		"operation", "handle_coupon_applied",
		"outcome", "rejected",
		"cart_id", cartID,
		"coupon", code,
	)
}
