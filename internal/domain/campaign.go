package domain

import (
	"fmt"
	"strings"
	"time"
)

// CampaignConfig is one raw campaign definition as it appears in the
// configuration source, before defaults and validation are applied.
type CampaignConfig struct {
	Name               string
	CouponCodes        []string
	RequiredProducts   []int64
	ExcludedVariations []int64
	FreeProductID      int64
	FreeVariationID    int64
	StartDate          string
	EndDate            string
	MaxQuantity        *int
	Active             *bool
}

// Campaign is a single buy-one-get-one-free rule. Campaigns are immutable
// after construction; effective eligibility still varies over time because
// IsValid reads the wall-clock date on every call.
type Campaign struct {
	Name               string     `json:"name"`
	CouponCodes        []string   `json:"coupon_codes"`
	RequiredProducts   []int64    `json:"required_products"`
	ExcludedVariations []int64    `json:"excluded_variations"`
	FreeProductID      int64      `json:"free_product_id"`
	FreeVariationID    int64      `json:"free_variation_id"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	MaxQuantity        int        `json:"max_quantity"`
	Active             bool       `json:"active"`
}

const campaignDateLayout = "2006-01-02"

// NewCampaign builds a Campaign from a raw definition. Defaults: active true,
// max quantity 1, free variation 0, missing lists empty, name "unnamed
// campaign". Coupon codes are lower-cased once here so every later comparison
// is case-insensitive. Returns ErrInvalidInput-wrapped errors for malformed
// dates and a max quantity below 1.
func NewCampaign(cfg CampaignConfig) (Campaign, error) {
	c := Campaign{
		Name:               strings.TrimSpace(cfg.Name),
		CouponCodes:        make([]string, 0, len(cfg.CouponCodes)),
		RequiredProducts:   append([]int64(nil), cfg.RequiredProducts...),
		ExcludedVariations: append([]int64(nil), cfg.ExcludedVariations...),
		FreeProductID:      cfg.FreeProductID,
		FreeVariationID:    cfg.FreeVariationID,
		MaxQuantity:        1,
		Active:             true,
	}
	if c.Name == "" {
		c.Name = "unnamed campaign"
	}
	if c.RequiredProducts == nil {
		c.RequiredProducts = []int64{}
	}
	if c.ExcludedVariations == nil {
		c.ExcludedVariations = []int64{}
	}
	for _, code := range cfg.CouponCodes {
		code = NormalizeCouponCode(code)
		if code != "" {
			c.CouponCodes = append(c.CouponCodes, code)
		}
	}
	if cfg.MaxQuantity != nil {
		if *cfg.MaxQuantity < 1 {
			return Campaign{}, fmt.Errorf("campaign %q: max_quantity %d: %w", c.Name, *cfg.MaxQuantity, ErrInvalidInput)
		}
		c.MaxQuantity = *cfg.MaxQuantity
	}
	if cfg.Active != nil {
		c.Active = *cfg.Active
	}
	var err error
	if c.StartDate, err = parseCampaignDate(cfg.StartDate); err != nil {
		return Campaign{}, fmt.Errorf("campaign %q: start_date: %w", c.Name, err)
	}
	if c.EndDate, err = parseCampaignDate(cfg.EndDate); err != nil {
		return Campaign{}, fmt.Errorf("campaign %q: end_date: %w", c.Name, err)
	}
	return c, nil
}

func parseCampaignDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(campaignDateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, ErrInvalidInput)
	}
	return &t, nil
}

// NormalizeCouponCode is the single place coupon codes are canonicalized.
func NormalizeCouponCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Today truncates a timestamp to its calendar date in UTC, the granularity at
// which campaign windows are compared.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsValid reports whether the campaign is switched on and today falls inside
// its date window. Both bounds are inclusive; a nil bound is unbounded.
func (c Campaign) IsValid(today time.Time) bool {
	if !c.Active {
		return false
	}
	today = Today(today)
	if c.StartDate != nil && today.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && today.After(*c.EndDate) {
		return false
	}
	return true
}

// HasCoupon reports whether the (already normalized) code belongs to this
// campaign.
func (c Campaign) HasCoupon(code string) bool {
	code = NormalizeCouponCode(code)
	for _, own := range c.CouponCodes {
		if own == code {
			return true
		}
	}
	return false
}

// HasAnyCoupon reports whether the intersection of the campaign's coupon
// codes and the applied coupons is non-empty.
func (c Campaign) HasAnyCoupon(applied []string) bool {
	for _, code := range applied {
		if c.HasCoupon(code) {
			return true
		}
	}
	return false
}

// ExcludesVariation reports whether a variation id is invisible to this
// campaign's matching and grant checks.
func (c Campaign) ExcludesVariation(variationID int64) bool {
	if variationID <= 0 {
		return false
	}
	for _, excluded := range c.ExcludedVariations {
		if excluded == variationID {
			return true
		}
	}
	return false
}
