package memory

import (
	"context"
	"sync"

	"github.com/dackJaniel/bogof-engine/internal/domain"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

// Catalog is an in-memory product/variation catalog for tests and local
// development.
type Catalog struct {
	mu         sync.RWMutex
	products   map[int64]ports.ProductInfo
	variations map[int64]ports.Variation
	parents    map[int64]int64
	order      map[int64][]int64
}

func NewCatalog() *Catalog {
	return &Catalog{
		products:   make(map[int64]ports.ProductInfo),
		variations: make(map[int64]ports.Variation),
		parents:    make(map[int64]int64),
		order:      make(map[int64][]int64),
	}
}

// AddProduct registers a simple or variable product.
func (c *Catalog) AddProduct(id int64, variable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[id] = ports.ProductInfo{ID: id, Variable: variable}
}

// AddVariation registers a variation under its parent product, in call
// order.
func (c *Catalog) AddVariation(parentID, variationID int64, attributes map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variations[variationID] = ports.Variation{VariationID: variationID, Attributes: attributes}
	c.parents[variationID] = parentID
	c.order[parentID] = append(c.order[parentID], variationID)
}

func (c *Catalog) Product(_ context.Context, id int64) (ports.ProductInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if info, ok := c.products[id]; ok {
		return info, nil
	}
	if parent, ok := c.parents[id]; ok {
		return ports.ProductInfo{ID: id, ParentID: parent}, nil
	}
	return ports.ProductInfo{}, domain.ErrNotFound
}

func (c *Catalog) Variation(_ context.Context, variationID int64) (ports.Variation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.variations[variationID]; ok {
		return v, nil
	}
	return ports.Variation{}, domain.ErrNotFound
}

func (c *Catalog) AvailableVariations(_ context.Context, productID int64) ([]ports.Variation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.products[productID]; !ok {
		return nil, domain.ErrNotFound
	}
	ids := c.order[productID]
	out := make([]ports.Variation, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.variations[id])
	}
	return out, nil
}
