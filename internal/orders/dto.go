package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	"github.com/angelmondragon/tradeflow-backend/pkg/pagination"
)

// OrderItemDTO is an order line as returned to either party.
type OrderItemDTO struct {
	ID                  uuid.UUID       `json:"id"`
	WholesalerProductID uuid.UUID       `json:"wholesalerProductId"`
	ProductID           uuid.UUID       `json:"productId"`
	ProductName         string          `json:"productName"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	LineTotal           decimal.Decimal `json:"lineTotal"`
}

// OrderDTO is the public shape of an order.
type OrderDTO struct {
	ID                    uuid.UUID           `json:"id"`
	CheckoutID            uuid.UUID           `json:"checkoutId"`
	RetailerID            uuid.UUID           `json:"retailerId"`
	WholesalerID          uuid.UUID           `json:"wholesalerId"`
	Status                enums.OrderStatus   `json:"status"`
	OrderDate             time.Time           `json:"orderDate"`
	DeliveryAddress       string              `json:"deliveryAddress"`
	ContactPhone          string              `json:"contactPhone"`
	PreferredDeliveryDate *time.Time          `json:"preferredDeliveryDate,omitempty"`
	DeliveryInstructions  *string             `json:"deliveryInstructions,omitempty"`
	PaymentMethod         enums.PaymentMethod `json:"paymentMethod"`
	WholesalerNotes       *string             `json:"wholesalerNotes,omitempty"`
	TrackingNumber        *string             `json:"trackingNumber,omitempty"`
	TotalAmount           decimal.Decimal     `json:"totalAmount"`
	ShippedAt             *time.Time          `json:"shippedAt,omitempty"`
	DeliveredAt           *time.Time          `json:"deliveredAt,omitempty"`
	CancelledAt           *time.Time          `json:"cancelledAt,omitempty"`
	Items                 []OrderItemDTO      `json:"items"`
	AllowedTransitions    []enums.OrderStatus `json:"allowedTransitions,omitempty"`
}

// OrderList is a page of orders.
type OrderList = pagination.Page[OrderDTO]

// ListParams carries listing inputs from controllers.
type ListParams struct {
	Status *enums.OrderStatus
	pagination.Params
}

// UpdateStatusInput is a wholesaler's request to move an order forward.
type UpdateStatusInput struct {
	Status         enums.OrderStatus
	TrackingNumber *string
	Note           *string
}

// FromModel maps an order row, with whatever items were loaded, to its DTO.
func FromModel(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                    order.ID,
		CheckoutID:            order.CheckoutID,
		RetailerID:            order.RetailerID,
		WholesalerID:          order.WholesalerID,
		Status:                order.Status,
		OrderDate:             order.OrderDate,
		DeliveryAddress:       order.DeliveryAddress,
		ContactPhone:          order.ContactPhone,
		PreferredDeliveryDate: order.PreferredDeliveryDate,
		DeliveryInstructions:  order.DeliveryInstructions,
		PaymentMethod:         order.PaymentMethod,
		WholesalerNotes:       order.WholesalerNotes,
		TrackingNumber:        order.TrackingNumber,
		TotalAmount:           order.TotalAmount,
		ShippedAt:             order.ShippedAt,
		DeliveredAt:           order.DeliveredAt,
		CancelledAt:           order.CancelledAt,
		Items:                 make([]OrderItemDTO, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:                  item.ID,
			WholesalerProductID: item.WholesalerProductID,
			ProductID:           item.ProductID,
			ProductName:         item.ProductName,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			LineTotal:           item.LineTotal(),
		})
	}
	return dto
}
