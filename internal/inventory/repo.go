package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
)

// ErrStockConflict is returned when a conditional decrement matched no row:
// the listing no longer holds enough units.
var ErrStockConflict = errors.New("stock changed concurrently")

// Repository owns wholesaler stock and retailer resale listings.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindWholesalerProduct loads a listing with its catalog product.
func (r *Repository) FindWholesalerProduct(ctx context.Context, id uuid.UUID) (*models.WholesalerProduct, error) {
	var wp models.WholesalerProduct
	if err := r.db.WithContext(ctx).
		Preload("Product").
		First(&wp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wp, nil
}

// DecrementStock removes qty units only when at least qty remain.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.WholesalerProduct{}).
		Where("id = ? AND available_quantity >= ?", id, qty).
		Updates(map[string]any{
			"available_quantity": gorm.Expr("available_quantity - ?", qty),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}

// RestoreStock returns qty units to a listing.
func (r *Repository) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.WholesalerProduct{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"available_quantity": gorm.Expr("available_quantity + ?", qty),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreditRetailer adds qty units to the retailer's listing for productID,
// creating it at price when missing. An existing listing keeps its price.
func (r *Repository) CreditRetailer(ctx context.Context, retailerID, productID uuid.UUID, qty int, price decimal.Decimal) error {
	if qty <= 0 {
		return nil
	}
	now := time.Now().UTC()
	row := models.RetailerProduct{
		ID:            uuid.New(),
		RetailerID:    retailerID,
		ProductID:     productID,
		Price:         price,
		StockQuantity: qty,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "retailer_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"stock_quantity": gorm.Expr("retailer_products.stock_quantity + ?", qty),
				"updated_at":     now,
			}),
		}).
		Create(&row).Error
}

// DebitRetailer reverses a credit, never taking stock below zero.
func (r *Repository) DebitRetailer(ctx context.Context, retailerID, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.RetailerProduct{}).
		Where("retailer_id = ? AND product_id = ?", retailerID, productID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("CASE WHEN stock_quantity > ? THEN stock_quantity - ? ELSE 0 END", qty, qty),
			"updated_at":     time.Now().UTC(),
		}).Error
}
