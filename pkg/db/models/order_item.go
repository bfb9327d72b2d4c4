package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem captures quantity and price at the moment the order was placed.
type OrderItem struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID           uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	WholesalerProductID uuid.UUID       `gorm:"column:wholesaler_product_id;type:uuid;not null"`
	ProductName         string          `gorm:"column:product_name;not null"`
	Quantity            int             `gorm:"column:quantity;not null"`
	UnitPrice           decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// LineTotal is quantity times the captured unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
