package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry independent of any seller.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	Description  *string         `gorm:"column:description"`
	Category     *string         `gorm:"column:category"`
	DefaultPrice decimal.Decimal `gorm:"column:default_price;type:numeric(12,2);not null;default:0"`
	ImageURL     *string         `gorm:"column:image_url"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
