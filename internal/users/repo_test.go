package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
)

func TestFindByID(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	seeded := dbtest.SeedUser(t, db, enums.UserTypeRetailer)

	got, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.Email, got.Email)
	assert.Equal(t, enums.UserTypeRetailer, got.UserType)
	require.NotNil(t, got.Address)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
