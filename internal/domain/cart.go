package domain

// CartLine is one line item of a cart snapshot as seen by the engine. Key is
// the cart store's stable handle for the line. A line granted by a campaign
// carries FreeGrant plus the granting campaign's name; both are owned by the
// reconciler and never set by the host.
type CartLine struct {
	Key          string  `json:"key"`
	ProductID    int64   `json:"product_id"`
	VariationID  int64   `json:"variation_id"` // 0 = not a variation
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	FreeGrant    bool    `json:"free_grant"`
	CampaignName string  `json:"campaign_name,omitempty"`
}

// IsGrantFor reports whether this line is the free item granted for the given
// campaign's target product.
func (l CartLine) IsGrantFor(c Campaign) bool {
	return l.FreeGrant && l.ProductID == c.FreeProductID
}
