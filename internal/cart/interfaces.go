package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart and checkout services.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.CartItem, error)
	FindByIDForRetailer(ctx context.Context, id, retailerID uuid.UUID) (*models.CartItem, error)
	FindByWholesalerProduct(ctx context.Context, retailerID, wholesalerProductID uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, id, retailerID uuid.UUID, quantity int) error
	DeleteForRetailer(ctx context.Context, retailerID uuid.UUID, ids []uuid.UUID) (int64, error)
	DeleteAddedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type listingLoader interface {
	FindWholesalerProduct(ctx context.Context, id uuid.UUID) (*models.WholesalerProduct, error)
}
