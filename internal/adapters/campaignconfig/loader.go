package campaignconfig

import (
	"context"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dackJaniel/bogof-engine/internal/domain"
)

type campaignFile struct {
	Campaigns []campaignEntry `yaml:"campaigns"`
}

type campaignEntry struct {
	Name               string   `yaml:"name"`
	CouponCodes        []string `yaml:"coupon_codes"`
	RequiredProducts   []int64  `yaml:"required_products"`
	ExcludedVariations []int64  `yaml:"excluded_variations"`
	FreeProductID      int64    `yaml:"free_product_id"`
	FreeVariationID    int64    `yaml:"free_variation_id"`
	StartDate          string   `yaml:"start_date"`
	EndDate            string   `yaml:"end_date"`
	MaxQuantity        *int     `yaml:"max_quantity"`
	Active             *bool    `yaml:"active"`
}

// Load reads the ordered campaign definitions from a YAML file. The feature
// must never take the storefront down: a missing or unparseable file yields
// an empty list with a logged diagnostic, and an individual entry that fails
// validation is skipped while the rest load.
func Load(ctx context.Context, path string) []domain.Campaign {
	logger := slog.Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.WarnContext(ctx, "campaign configuration unavailable, promotions disabled",
			"module", "campaignconfig",
			"layer", "adapter",
			"operation", "load",
			"outcome", "empty",
			"path", path,
			"error", err,
		)
		return []domain.Campaign{}
	}

	var file campaignFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		logger.ErrorContext(ctx, "campaign configuration malformed, promotions disabled",
			"module", "campaignconfig",
			"layer", "adapter",
			"operation", "load",
			"outcome", "empty",
			"path", path,
			"error", err,
		)
		return []domain.Campaign{}
	}

	campaigns := make([]domain.Campaign, 0, len(file.Campaigns))
	for i, entry := range file.Campaigns {
		campaign, err := domain.NewCampaign(domain.CampaignConfig{
			Name:               entry.Name,
			CouponCodes:        entry.CouponCodes,
			RequiredProducts:   entry.RequiredProducts,
			ExcludedVariations: entry.ExcludedVariations,
			FreeProductID:      entry.FreeProductID,
			FreeVariationID:    entry.FreeVariationID,
			StartDate:          entry.StartDate,
			EndDate:            entry.EndDate,
			MaxQuantity:        entry.MaxQuantity,
			Active:             entry.Active,
		})
		if err != nil {
			logger.WarnContext(ctx, "campaign entry rejected",
				"module", "campaignconfig",
				"layer", "adapter",
				"operation", "load",
				"outcome", "skipped",
				"path", path,
				"index", i,
				"error", err,
			)
			continue
		}
		campaigns = append(campaigns, campaign)
	}

	logger.InfoContext(ctx, "campaigns loaded",
		"module", "campaignconfig",
		"layer", "adapter",
		"operation", "load",
		"outcome", "success",
		"path", path,
		"campaign_count", len(campaigns),
	)
	return campaigns
}
