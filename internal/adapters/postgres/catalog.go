package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dackJaniel/bogof-engine/internal/domain"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

const productTypeVariable = "variable"

// Catalog resolves products and variations from the storefront's catalog
// tables.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// Product looks up an id in the products table first, then in the variations
// table; a variation id resolves to an entry pointing at its parent product.
func (c *Catalog) Product(ctx context.Context, id int64) (ports.ProductInfo, error) {
	var product productModel
	err := c.db.WithContext(ctx).First(&product, "product_id = ?", id).Error
	if err == nil {
		return ports.ProductInfo{
			ID:       product.ProductID,
			Variable: product.ProductType == productTypeVariable,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ProductInfo{}, fmt.Errorf("load product %d: %w", id, err)
	}

	var variation variationModel
	err = c.db.WithContext(ctx).First(&variation, "variation_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ProductInfo{}, domain.ErrNotFound
	}
	if err != nil {
		return ports.ProductInfo{}, fmt.Errorf("load variation %d: %w", id, err)
	}
	return ports.ProductInfo{ID: variation.VariationID, ParentID: variation.ProductID}, nil
}

func (c *Catalog) Variation(ctx context.Context, variationID int64) (ports.Variation, error) {
	var variation variationModel
	err := c.db.WithContext(ctx).First(&variation, "variation_id = ?", variationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.Variation{}, domain.ErrNotFound
	}
	if err != nil {
		return ports.Variation{}, fmt.Errorf("load variation %d: %w", variationID, err)
	}
	return toPortVariation(variation)
}

func (c *Catalog) AvailableVariations(ctx context.Context, productID int64) ([]ports.Variation, error) {
	var rows []variationModel
	err := c.db.WithContext(ctx).
		Where("product_id = ? AND in_stock", productID).
		Order("position ASC, variation_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list variations for product %d: %w", productID, err)
	}
	out := make([]ports.Variation, 0, len(rows))
	for _, row := range rows {
		variation, err := toPortVariation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, variation)
	}
	return out, nil
}

func toPortVariation(row variationModel) (ports.Variation, error) {
	attributes := map[string]string{}
	if row.Attributes != "" {
		if err := json.Unmarshal([]byte(row.Attributes), &attributes); err != nil {
			return ports.Variation{}, fmt.Errorf("decode attributes for variation %d: %w", row.VariationID, err)
		}
	}
	return ports.Variation{VariationID: row.VariationID, Attributes: attributes}, nil
}
