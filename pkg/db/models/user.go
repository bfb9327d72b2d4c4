package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
)

// User is the identity record shared by retailers and wholesalers.
type User struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string         `gorm:"column:email;not null;uniqueIndex"`
	DisplayName string         `gorm:"column:display_name;not null"`
	UserType    enums.UserType `gorm:"column:user_type;type:text;not null"`
	Address     *string        `gorm:"column:address"`
	Phone       *string        `gorm:"column:phone"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
