package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	"github.com/angelmondragon/tradeflow-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order row only; items are written with CreateItem.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"total_amount": total,
			"updated_at":   time.Now().UTC(),
		}).Error
}

// FindByID loads an order with its items ordered by creation.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByParty returns up to filter.Limit+1 orders, newest first, so the
// caller can tell whether another page exists.
func (r *repository) ListByParty(ctx context.Context, party Party, partyID uuid.UUID, filter ListFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where(party.column()+" = ?", partyID)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	var rows []models.Order
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TransitionStatus moves an order out of from. It reports false when the
// order was no longer in from, leaving the row untouched.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, change StatusChange) (bool, error) {
	updates := map[string]any{
		"status":     change.To,
		"updated_at": change.At,
	}
	if change.TrackingNumber != nil {
		updates["tracking_number"] = *change.TrackingNumber
	}
	if change.ShippedAt != nil {
		updates["shipped_at"] = *change.ShippedAt
	}
	if change.DeliveredAt != nil {
		updates["delivered_at"] = *change.DeliveredAt
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CancelPending flips a pending order to cancelled. Only one of several
// racing callers observes true.
func (r *repository) CancelPending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
