package ports

import "context"

// ProductInfo is the catalog's view of a product or variation. For a
// variation, ParentID is the owning variable product.
type ProductInfo struct {
	ID       int64
	ParentID int64
	Variable bool
}

// Variation is one purchasable variation of a variable product.
type Variation struct {
	VariationID int64
	Attributes  map[string]string
}

// Catalog resolves product and variation details. Lookups return
// domain.ErrNotFound for unknown ids; callers treat lookup failures as
// "no match" rather than propagating them.
type Catalog interface {
	Product(ctx context.Context, id int64) (ProductInfo, error)
	Variation(ctx context.Context, variationID int64) (Variation, error)
	// AvailableVariations lists a variable product's purchasable variations
	// in catalog order.
	AvailableVariations(ctx context.Context, productID int64) ([]Variation, error)
}
