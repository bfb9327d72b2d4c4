package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
)

// Order groups the lines one retailer bought from one wholesaler during a
// checkout. Orders of the same checkout share CheckoutID.
type Order struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID            uuid.UUID           `gorm:"column:checkout_id;type:uuid;not null"`
	RetailerID            uuid.UUID           `gorm:"column:retailer_id;type:uuid;not null"`
	WholesalerID          uuid.UUID           `gorm:"column:wholesaler_id;type:uuid;not null"`
	OrderDate             time.Time           `gorm:"column:order_date;not null"`
	Status                enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	DeliveryAddress       string              `gorm:"column:delivery_address;not null"`
	ContactPhone          string              `gorm:"column:contact_phone;not null"`
	PreferredDeliveryDate *time.Time          `gorm:"column:preferred_delivery_date"`
	DeliveryInstructions  *string             `gorm:"column:delivery_instructions"`
	PaymentMethod         enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	WholesalerNotes       *string             `gorm:"column:wholesaler_notes"`
	TrackingNumber        *string             `gorm:"column:tracking_number"`
	TotalAmount           decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	RetailerStockCredited bool                `gorm:"column:retailer_stock_credited;not null;default:false"`
	ShippedAt             *time.Time          `gorm:"column:shipped_at"`
	DeliveredAt           *time.Time          `gorm:"column:delivered_at"`
	CancelledAt           *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}
