package postgres

import "time"

type productModel struct {
	ProductID   int64     `gorm:"column:product_id;primaryKey"`
	Name        string    `gorm:"column:name"`
	ProductType string    `gorm:"column:product_type"` // simple | variable
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "products" }

type variationModel struct {
	VariationID int64     `gorm:"column:variation_id;primaryKey"`
	ProductID   int64     `gorm:"column:product_id"`
	Attributes  string    `gorm:"column:attributes;type:jsonb"`
	Position    int       `gorm:"column:position"`
	InStock     bool      `gorm:"column:in_stock"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (variationModel) TableName() string { return "product_variations" }
