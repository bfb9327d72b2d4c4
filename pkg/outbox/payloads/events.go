package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once per order created by a checkout.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	CheckoutID    uuid.UUID           `json:"checkout_id"`
	RetailerID    uuid.UUID           `json:"retailer_id"`
	WholesalerID  uuid.UUID           `json:"wholesaler_id"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Items         []OrderPlacedItem   `json:"items"`
}

// OrderPlacedItem mirrors an order line at placement time.
type OrderPlacedItem struct {
	WholesalerProductID uuid.UUID       `json:"wholesaler_product_id"`
	ProductID           uuid.UUID       `json:"product_id"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
}

// OrderStatusChangedEvent is emitted when a wholesaler moves an order forward.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	RetailerID     uuid.UUID         `json:"retailer_id"`
	WholesalerID   uuid.UUID         `json:"wholesaler_id"`
	From           enums.OrderStatus `json:"from"`
	To             enums.OrderStatus `json:"to"`
	TrackingNumber *string           `json:"tracking_number,omitempty"`
	Note           *string           `json:"note,omitempty"`
}

// OrderCancelledEvent is emitted when a retailer cancels a pending order.
type OrderCancelledEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	CheckoutID    uuid.UUID `json:"checkout_id"`
	RetailerID    uuid.UUID `json:"retailer_id"`
	WholesalerID  uuid.UUID `json:"wholesaler_id"`
	CancelledAt   time.Time `json:"cancelled_at"`
	RestoredUnits int       `json:"restored_units"`
}
