package application

import (
	"testing"
	"time"

	"github.com/dackJaniel/bogof-engine/internal/adapters/memory"
	"github.com/dackJaniel/bogof-engine/internal/domain"
)

// All application tests run against a frozen clock inside the rose hip
// campaign's window.
var testNow = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func mustCampaign(t *testing.T, cfg domain.CampaignConfig) domain.Campaign {
	t.Helper()
	c, err := domain.NewCampaign(cfg)
	if err != nil {
		t.Fatalf("new campaign: %v", err)
	}
	return c
}

// roseHipCampaign mirrors the shape of a production campaign: two required
// products (one of them variable with an excluded variation), a simple free
// product, a start date and the default quantity cap.
func roseHipCampaign(t *testing.T) domain.Campaign {
	t.Helper()
	return mustCampaign(t, domain.CampaignConfig{
		Name:               "Hagebutte Kampagne",
		CouponCodes:        []string{"Hagebutte"},
		RequiredProducts:   []int64{698, 4239},
		ExcludedVariations: []int64{7485},
		FreeProductID:      9624,
		StartDate:          "2025-05-11",
	})
}

type testFixture struct {
	svc     *Service
	carts   *memory.CartStore
	catalog *memory.Catalog
	notices *memory.NoticeRecorder
}

func newTestFixture(t *testing.T, campaigns ...domain.Campaign) *testFixture {
	t.Helper()
	carts := memory.NewCartStore()
	catalog := memory.NewCatalog()
	notices := memory.NewNoticeRecorder()

	catalog.AddProduct(698, false)
	catalog.AddProduct(9624, false)
	catalog.AddProduct(4239, true)
	catalog.AddVariation(4239, 4240, map[string]string{"size": "250g"})
	catalog.AddVariation(4239, 7485, map[string]string{"size": "sample"})

	svc := NewService(Dependencies{
		Registry: NewRegistry(campaigns),
		Carts:    carts,
		Catalog:  catalog,
		Notices:  notices,
	})
	svc.nowFn = func() time.Time { return testNow }

	return &testFixture{svc: svc, carts: carts, catalog: catalog, notices: notices}
}
