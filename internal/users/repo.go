package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
)

// profileColumns are the fields checkout needs for prefill and party checks.
var profileColumns = []string{"id", "email", "display_name", "user_type", "address", "phone", "created_at", "updated_at"}

// Repository reads identity records. Users are owned by the identity
// service and are never written here.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID returns gorm.ErrRecordNotFound for unknown ids.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select(profileColumns).
		Where("id = ?", id).
		Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
