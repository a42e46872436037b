package application

import (
	"testing"

	"github.com/dackJaniel/bogof-engine/internal/domain"
)

func TestRegistryLookups(t *testing.T) {
	t.Parallel()

	campaign := roseHipCampaign(t)
	reg := NewRegistry([]domain.Campaign{campaign})

	if _, ok := reg.ByName("Hagebutte Kampagne"); !ok {
		t.Fatalf("ByName miss")
	}
	if _, ok := reg.ByName("nope"); ok {
		t.Fatalf("ByName false hit")
	}
	if _, ok := reg.ActiveByCoupon("HAGEBUTTE", testNow); !ok {
		t.Fatalf("ActiveByCoupon must normalize the code")
	}
	if _, ok := reg.ActiveByFreeProduct(9624, testNow); !ok {
		t.Fatalf("ActiveByFreeProduct miss")
	}
	if _, ok := reg.ActiveByFreeProduct(1, testNow); ok {
		t.Fatalf("ActiveByFreeProduct false hit")
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d", reg.Len())
	}
}

func TestRegistryCopiesInput(t *testing.T) {
	t.Parallel()

	campaigns := []domain.Campaign{roseHipCampaign(t)}
	reg := NewRegistry(campaigns)
	campaigns[0].Name = "mutated"

	if _, ok := reg.ByName("Hagebutte Kampagne"); !ok {
		t.Fatalf("registry must hold its own copy of the campaign list")
	}
}
