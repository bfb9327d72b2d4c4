package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one retailer cart line. Lines are unique per wholesaler product.
type CartItem struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RetailerID          uuid.UUID `gorm:"column:retailer_id;type:uuid;not null"`
	WholesalerProductID uuid.UUID `gorm:"column:wholesaler_product_id;type:uuid;not null"`
	Quantity            int       `gorm:"column:quantity;not null"`
	AddedAt             time.Time `gorm:"column:added_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`

	WholesalerProduct *WholesalerProduct `gorm:"foreignKey:WholesalerProductID"`
}
