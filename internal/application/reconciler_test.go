package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dackJaniel/bogof-engine/internal/adapters/memory"
	"github.com/dackJaniel/bogof-engine/internal/domain"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

func seedEligibleCart(t *testing.T, f *testFixture, cartID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.carts.AddLineItem(ctx, cartID, ports.AddLineItemInput{ProductID: 698, Quantity: 1}); err != nil {
		t.Fatalf("seed line: %v", err)
	}
	if err := f.carts.ApplyCoupon(ctx, cartID, "hagebutte"); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
}

func findGrantLine(t *testing.T, f *testFixture, cartID string) (domain.CartLine, bool) {
	t.Helper()
	lines, err := f.carts.LineItems(context.Background(), cartID)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	for _, line := range lines {
		if line.FreeGrant {
			return line, true
		}
	}
	return domain.CartLine{}, false
}

func TestReconcileGrantsFreeItem(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	seedEligibleCart(t, f, "cart-1")

	result, err := f.svc.NewReconciliation("cart-1").Run(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !result.Granted || result.GrantedCampaign != "Hagebutte Kampagne" {
		t.Fatalf("expected grant for rose hip campaign, got %+v", result)
	}

	grant, ok := findGrantLine(t, f, "cart-1")
	if !ok {
		t.Fatalf("no grant line in cart")
	}
	if grant.ProductID != 9624 || grant.Quantity != 1 || grant.UnitPrice != 0 {
		t.Fatalf("unexpected grant line %+v", grant)
	}
	if grant.CampaignName != "Hagebutte Kampagne" {
		t.Fatalf("grant line not tagged with campaign, got %q", grant.CampaignName)
	}

	notices, _ := f.notices.Drain(ctx, "cart-1")
	if len(notices) != 1 || notices[0].Severity != domain.NoticeSuccess {
		t.Fatalf("expected one success notice, got %+v", notices)
	}
	if !strings.Contains(notices[0].Message, "Hagebutte Kampagne") {
		t.Fatalf("notice does not name the campaign: %q", notices[0].Message)
	}
}

func TestReconcileIsIdempotentAcrossPasses(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	seedEligibleCart(t, f, "cart-1")

	if _, err := f.svc.NewReconciliation("cart-1").Run(ctx); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	second, err := f.svc.NewReconciliation("cart-1").Run(ctx)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if second.Granted || len(second.RemovedLineKeys) != 0 || len(second.ClampedLineKeys) != 0 {
		t.Fatalf("second pass on a consistent cart must be a no-op, got %+v", second)
	}

	lines, _ := f.carts.LineItems(ctx, "cart-1")
	grants := 0
	for _, line := range lines {
		if line.FreeGrant {
			grants++
		}
	}
	if grants != 1 {
		t.Fatalf("expected exactly one grant line, got %d", grants)
	}
}

func TestReconciliationTokenReplaysResult(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	seedEligibleCart(t, f, "cart-1")

	token := f.svc.NewReconciliation("cart-1")
	first, err := token.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	replay, err := token.Run(ctx)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.Granted || replay.GrantedLineKey != first.GrantedLineKey {
		t.Fatalf("replay must return the original result, got %+v vs %+v", replay, first)
	}
}

func TestReconcileRemovesGrantWhenCouponGone(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	seedEligibleCart(t, f, "cart-1")
	if _, err := f.svc.NewReconciliation("cart-1").Run(ctx); err != nil {
		t.Fatalf("grant reconcile: %v", err)
	}
	if err := f.carts.RemoveCoupon(ctx, "cart-1", "hagebutte"); err != nil {
		t.Fatalf("remove coupon: %v", err)
	}

	result, err := f.svc.NewReconciliation("cart-1").Run(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.RemovedLineKeys) != 1 {
		t.Fatalf("expected one removed grant, got %+v", result)
	}
	if _, ok := findGrantLine(t, f, "cart-1"); ok {
		t.Fatalf("grant line survived coupon removal")
	}
}

func TestReconcileRemovesGrantWhenRequiredProductGone(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	seedEligibleCart(t, f, "cart-1")
	if _, err := f.svc.NewReconciliation("cart-1").Run(ctx); err != nil {
		t.Fatalf("grant reconcile: %v", err)
	}

	lines, _ := f.carts.LineItems(ctx, "cart-1")
	for _, line := range lines {
		if !line.FreeGrant {
			if err := f.carts.RemoveLineItem(ctx, "cart-1", line.Key); err != nil {
				t.Fatalf("remove trigger line: %v", err)
			}
		}
	}

	result, err := f.svc.NewReconciliation("cart-1").Run(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.RemovedLineKeys) != 1 {
		t.Fatalf("expected grant removal, got %+v", result)
	}
	remaining, _ := f.carts.LineItems(ctx, "cart-1")
	if len(remaining) != 0 {
		t.Fatalf("expected empty cart, got %+v", remaining)
	}
}

func TestReconcileRemovesGrantWhenCampaignExpires(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	seedEligibleCart(t, f, "cart-1")
	if _, err := f.svc.NewReconciliation("cart-1").Run(ctx); err != nil {
		t.Fatalf("grant reconcile: %v", err)
	}

	// The campaign has no end date; simulate expiry by moving the clock
	// before its start date.
	f.svc.nowFn = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }

	result, err := f.svc.NewReconciliation("cart-1").Run(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.RemovedLineKeys) != 1 {
		t.Fatalf("expected grant removal after expiry, got %+v", result)
	}
}

func TestReconcileRePinsPriceAndClampsQuantity(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	seedEligibleCart(t, f, "cart-1")
	if _, err := f.svc.NewReconciliation("cart-1").Run(ctx); err != nil {
		t.Fatalf("grant reconcile: %v", err)
	}
	f.notices.Drain(ctx, "cart-1")

	grant, ok := findGrantLine(t, f, "cart-1")
	if !ok {
		t.Fatalf("no grant line")
	}
	// The host's pricing engine restored the catalog price and the shopper
	// bumped the quantity.
	if err := f.carts.SetLineItemPrice(ctx, "cart-1", grant.Key, 14.50); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if err := f.carts.SetLineItemQuantity(ctx, "cart-1", grant.Key, 3); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	result, err := f.svc.NewReconciliation("cart-1").Run(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.ClampedLineKeys) != 1 || result.ClampedLineKeys[0] != grant.Key {
		t.Fatalf("expected quantity clamp on %s, got %+v", grant.Key, result)
	}

	grant, _ = findGrantLine(t, f, "cart-1")
	if grant.UnitPrice != 0 {
		t.Fatalf("price not re-pinned, got %v", grant.UnitPrice)
	}
	if grant.Quantity != 1 {
		t.Fatalf("quantity not clamped, got %d", grant.Quantity)
	}

	notices, _ := f.notices.Drain(ctx, "cart-1")
	if len(notices) != 1 || notices[0].Severity != domain.NoticeInfo {
		t.Fatalf("expected one clamp notice, got %+v", notices)
	}
}

func TestReconcileGrantsConfiguredVariation(t *testing.T) {
	t.Parallel()

	campaign := mustCampaign(t, domain.CampaignConfig{
		Name:             "variation gift",
		CouponCodes:      []string{"vargift"},
		RequiredProducts: []int64{698},
		FreeProductID:    4239,
		FreeVariationID:  4240,
	})
	f := newTestFixture(t, campaign)
	ctx := context.Background()
	if _, err := f.carts.AddLineItem(ctx, "cart-1", ports.AddLineItemInput{ProductID: 698, Quantity: 1}); err != nil {
		t.Fatalf("seed line: %v", err)
	}
	if err := f.carts.ApplyCoupon(ctx, "cart-1", "vargift"); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}

	result, err := f.svc.NewReconciliation("cart-1").Run(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !result.Granted {
		t.Fatalf("expected grant, got %+v", result)
	}
	grant, _ := findGrantLine(t, f, "cart-1")
	if grant.ProductID != 4239 || grant.VariationID != 4240 {
		t.Fatalf("expected variation 4240 of product 4239, got %+v", grant)
	}
}

// variationOnlyStore refuses base-product adds for variable products, the way
// a storefront does when a variable product needs a concrete variation.
type variationOnlyStore struct {
	*memory.CartStore
	variableProducts map[int64]bool
}

func (s *variationOnlyStore) AddLineItem(ctx context.Context, cartID string, in ports.AddLineItemInput) (string, error) {
	if s.variableProducts[in.ProductID] && in.VariationID == 0 {
		return "", domain.ErrInvalidInput
	}
	return s.CartStore.AddLineItem(ctx, cartID, in)
}

func TestReconcileFallsBackToFirstAvailableVariation(t *testing.T) {
	t.Parallel()

	campaign := mustCampaign(t, domain.CampaignConfig{
		Name:             "variable gift",
		CouponCodes:      []string{"vargift"},
		RequiredProducts: []int64{698},
		FreeProductID:    4239,
	})
	carts := &variationOnlyStore{
		CartStore:        memory.NewCartStore(),
		variableProducts: map[int64]bool{4239: true},
	}
	catalog := memory.NewCatalog()
	catalog.AddProduct(698, false)
	catalog.AddProduct(4239, true)
	catalog.AddVariation(4239, 4240, map[string]string{"size": "250g"})
	catalog.AddVariation(4239, 4241, map[string]string{"size": "500g"})
	notices := memory.NewNoticeRecorder()

	svc := NewService(Dependencies{
		Registry: NewRegistry([]domain.Campaign{campaign}),
		Carts:    carts,
		Catalog:  catalog,
		Notices:  notices,
	})
	svc.nowFn = func() time.Time { return testNow }

	ctx := context.Background()
	if _, err := carts.AddLineItem(ctx, "cart-1", ports.AddLineItemInput{ProductID: 698, Quantity: 1}); err != nil {
		t.Fatalf("seed line: %v", err)
	}
	if err := carts.ApplyCoupon(ctx, "cart-1", "vargift"); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}

	result, err := svc.NewReconciliation("cart-1").Run(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !result.Granted {
		t.Fatalf("expected grant via fallback variation, got %+v", result)
	}
	lines, _ := carts.LineItems(ctx, "cart-1")
	var grant domain.CartLine
	for _, line := range lines {
		if line.FreeGrant {
			grant = line
		}
	}
	if grant.VariationID != 4240 {
		t.Fatalf("expected first available variation 4240, got %+v", grant)
	}
}

func TestValidateQuantityEditRejectsOverCap(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	seedEligibleCart(t, f, "cart-1")
	if _, err := f.svc.NewReconciliation("cart-1").Run(ctx); err != nil {
		t.Fatalf("grant reconcile: %v", err)
	}
	f.notices.Drain(ctx, "cart-1")
	grant, _ := findGrantLine(t, f, "cart-1")

	err := f.svc.ValidateQuantityEdit(ctx, "cart-1", grant.Key, 2)
	if !errors.Is(err, domain.ErrQuantityExceedsCap) {
		t.Fatalf("expected ErrQuantityExceedsCap, got %v", err)
	}
	notices, _ := f.notices.Drain(ctx, "cart-1")
	if len(notices) != 1 || notices[0].Severity != domain.NoticeError {
		t.Fatalf("expected one error notice, got %+v", notices)
	}

	if err := f.svc.ValidateQuantityEdit(ctx, "cart-1", grant.Key, 1); err != nil {
		t.Fatalf("in-cap edit rejected: %v", err)
	}
}

func TestValidateQuantityEditIgnoresRegularLines(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	key, err := f.carts.AddLineItem(ctx, "cart-1", ports.AddLineItemInput{ProductID: 698, Quantity: 1})
	if err != nil {
		t.Fatalf("seed line: %v", err)
	}
	if err := f.svc.ValidateQuantityEdit(ctx, "cart-1", key, 25); err != nil {
		t.Fatalf("regular line edit rejected: %v", err)
	}
}

func TestChangeLineQuantity(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	key, err := f.carts.AddLineItem(ctx, "cart-1", ports.AddLineItemInput{ProductID: 698, Quantity: 1})
	if err != nil {
		t.Fatalf("seed line: %v", err)
	}

	if err := f.svc.ChangeLineQuantity(ctx, "cart-1", key, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for quantity 0, got %v", err)
	}
	if err := f.svc.ChangeLineQuantity(ctx, "cart-1", key, 4); err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	lines, _ := f.carts.LineItems(ctx, "cart-1")
	if lines[0].Quantity != 4 {
		t.Fatalf("quantity not applied, got %d", lines[0].Quantity)
	}
}

func TestRemoveAllGrants(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t, roseHipCampaign(t))
	ctx := context.Background()
	seedEligibleCart(t, f, "cart-1")
	if _, err := f.svc.NewReconciliation("cart-1").Run(ctx); err != nil {
		t.Fatalf("grant reconcile: %v", err)
	}

	removed, err := f.svc.RemoveAllGrants(ctx, "cart-1")
	if err != nil {
		t.Fatalf("remove all grants: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed grant, got %d", removed)
	}
	lines, _ := f.carts.LineItems(ctx, "cart-1")
	for _, line := range lines {
		if line.FreeGrant {
			t.Fatalf("grant line survived: %+v", line)
		}
	}
	if len(lines) != 1 {
		t.Fatalf("regular line must survive, got %+v", lines)
	}
}
