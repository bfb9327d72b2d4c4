package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	"github.com/angelmondragon/tradeflow-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByParty(ctx context.Context, party Party, partyID uuid.UUID, filter ListFilter) ([]models.Order, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, change StatusChange) (bool, error)
	CancelPending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// Party selects which side of an order a listing is scoped to.
type Party string

const (
	PartyRetailer   Party = "retailer"
	PartyWholesaler Party = "wholesaler"
)

func (p Party) column() string {
	if p == PartyWholesaler {
		return "wholesaler_id"
	}
	return "retailer_id"
}

// ListFilter narrows an order listing.
type ListFilter struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor *pagination.Cursor
}

// StatusChange carries the columns written by a wholesaler transition.
type StatusChange struct {
	To             enums.OrderStatus
	TrackingNumber *string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	At             time.Time
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
