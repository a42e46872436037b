package application

import (
	"context"
	"errors"
	"testing"

	"github.com/dackJaniel/bogof-engine/internal/domain"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

func TestHandleCouponAppliedIgnoresForeignCoupon(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	if err := f.carts.ApplyCoupon(ctx, "cart-1", "sommer10"); err != nil {
		t.Fatalf("apply coupon: %v", err)
	}

	outcome, err := f.svc.HandleCouponApplied(ctx, "cart-1", "sommer10")
	if err != nil {
		t.Fatalf("handle coupon: %v", err)
	}
	if outcome.BogofCoupon {
		t.Fatalf("foreign coupon flagged as campaign coupon")
	}

	coupons, _ := f.carts.AppliedCoupons(ctx, "cart-1")
	if len(coupons) != 1 {
		t.Fatalf("foreign coupon must stay on the cart, got %v", coupons)
	}
}

func TestHandleCouponAppliedGrantsImmediately(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	if _, err := f.carts.AddLineItem(ctx, "cart-1", ports.AddLineItemInput{ProductID: 698, Quantity: 1}); err != nil {
		t.Fatalf("seed line: %v", err)
	}
	if err := f.carts.ApplyCoupon(ctx, "cart-1", "Hagebutte"); err != nil {
		t.Fatalf("apply coupon: %v", err)
	}

	outcome, err := f.svc.HandleCouponApplied(ctx, "cart-1", "Hagebutte")
	if err != nil {
		t.Fatalf("handle coupon: %v", err)
	}
	if !outcome.BogofCoupon || outcome.Campaign != "Hagebutte Kampagne" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !outcome.Reconcile.Granted {
		t.Fatalf("expected immediate grant, got %+v", outcome.Reconcile)
	}
	if _, ok := findGrantLine(t, f, "cart-1"); !ok {
		t.Fatalf("no grant line after coupon application")
	}
}

func TestHandleCouponAppliedEnforcesExclusivity(t *testing.T) {
	t.Parallel()

	other := mustCampaign(t, domain.CampaignConfig{
		Name:             "Holunder Kampagne",
		CouponCodes:      []string{"holunder"},
		RequiredProducts: []int64{698},
		FreeProductID:    9624,
	})
	f := newTestFixture(t, roseHipCampaign(t), other)
	ctx := context.Background()
	if _, err := f.carts.AddLineItem(ctx, "cart-1", ports.AddLineItemInput{ProductID: 698, Quantity: 1}); err != nil {
		t.Fatalf("seed line: %v", err)
	}
	if err := f.carts.ApplyCoupon(ctx, "cart-1", "hagebutte"); err != nil {
		t.Fatalf("apply first coupon: %v", err)
	}
	if _, err := f.svc.HandleCouponApplied(ctx, "cart-1", "hagebutte"); err != nil {
		t.Fatalf("first coupon rejected: %v", err)
	}
	f.notices.Drain(ctx, "cart-1")

	if err := f.carts.ApplyCoupon(ctx, "cart-1", "holunder"); err != nil {
		t.Fatalf("apply second coupon: %v", err)
	}
	_, err := f.svc.HandleCouponApplied(ctx, "cart-1", "holunder")
	if !errors.Is(err, domain.ErrCouponExclusive) {
		t.Fatalf("expected ErrCouponExclusive, got %v", err)
	}

	coupons, _ := f.carts.AppliedCoupons(ctx, "cart-1")
	if len(coupons) != 1 || coupons[0] != "hagebutte" {
		t.Fatalf("second coupon must be rolled back, got %v", coupons)
	}
	notices, _ := f.notices.Drain(ctx, "cart-1")
	if len(notices) != 1 || notices[0].Severity != domain.NoticeError {
		t.Fatalf("expected one error notice, got %+v", notices)
	}
}

func TestHandleCouponAppliedRejectsIneligibleCart(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	// Cart holds an unrelated product only.
	if _, err := f.carts.AddLineItem(ctx, "cart-1", ports.AddLineItemInput{ProductID: 555, Quantity: 1}); err != nil {
		t.Fatalf("seed line: %v", err)
	}
	if err := f.carts.ApplyCoupon(ctx, "cart-1", "hagebutte"); err != nil {
		t.Fatalf("apply coupon: %v", err)
	}

	_, err := f.svc.HandleCouponApplied(ctx, "cart-1", "hagebutte")
	if !errors.Is(err, domain.ErrCouponNotEligible) {
		t.Fatalf("expected ErrCouponNotEligible, got %v", err)
	}
	coupons, _ := f.carts.AppliedCoupons(ctx, "cart-1")
	if len(coupons) != 0 {
		t.Fatalf("ineligible coupon must be rolled back, got %v", coupons)
	}
	notices, _ := f.notices.Drain(ctx, "cart-1")
	if len(notices) != 1 || notices[0].Severity != domain.NoticeError {
		t.Fatalf("expected one error notice, got %+v", notices)
	}
}

func TestHandleCouponAppliedRejectsEmptyCode(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	_, err := f.svc.HandleCouponApplied(context.Background(), "cart-1", "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
