package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
)

// Repository implements CartRepository on gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByRetailer returns the retailer's lines with listing and product loaded,
// oldest first.
func (r *Repository) ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("WholesalerProduct").
		Preload("WholesalerProduct.Product").
		Where("retailer_id = ?", retailerID).
		Order("added_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *Repository) FindByIDForRetailer(ctx context.Context, id, retailerID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Preload("WholesalerProduct").
		Preload("WholesalerProduct.Product").
		Where("id = ? AND retailer_id = ?", id, retailerID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindByWholesalerProduct(ctx context.Context, retailerID, wholesalerProductID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Where("retailer_id = ? AND wholesaler_product_id = ?", retailerID, wholesalerProductID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) Create(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *Repository) UpdateQuantity(ctx context.Context, id, retailerID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND retailer_id = ?", id, retailerID).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteForRetailer removes the given lines, ignoring ids owned by someone else.
func (r *Repository) DeleteForRetailer(ctx context.Context, retailerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("retailer_id = ? AND id IN ?", retailerID, ids).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteAddedBefore drops lines that sat in a cart since before cutoff.
func (r *Repository) DeleteAddedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("added_at < ?", cutoff).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
