package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WholesalerProduct is a wholesaler's sellable listing. AvailableQuantity is
// the contended stock counter and never drops below zero.
type WholesalerProduct struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID            uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	WholesalerID         uuid.UUID       `gorm:"column:wholesaler_id;type:uuid;not null"`
	Price                decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	AvailableQuantity    int             `gorm:"column:available_quantity;not null;default:0"`
	MinimumOrderQuantity int             `gorm:"column:minimum_order_quantity;not null;default:1"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// DisplayName returns the catalog name when loaded, falling back to the id.
func (w WholesalerProduct) DisplayName() string {
	if w.Product != nil && w.Product.Name != "" {
		return w.Product.Name
	}
	return w.ID.String()
}
