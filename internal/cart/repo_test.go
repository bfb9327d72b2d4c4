package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
)

func TestDeleteForRetailerIgnoresForeignLines(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	owner := uuid.New()
	wp := dbtest.SeedListing(t, db, dbtest.Listing{Available: 5})
	mine := dbtest.SeedCartItem(t, db, owner, wp.ID, 1)
	theirs := dbtest.SeedCartItem(t, db, uuid.New(), wp.ID, 1)

	n, err := repo.DeleteForRetailer(context.Background(), owner, []uuid.UUID{mine.ID, theirs.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteForRetailer(context.Background(), owner, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteAddedBefore(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	wp := dbtest.SeedListing(t, db, dbtest.Listing{Available: 5})
	stale := dbtest.SeedCartItem(t, db, uuid.New(), wp.ID, 1)
	fresh := dbtest.SeedCartItem(t, db, uuid.New(), wp.ID, 1)
	require.NoError(t, db.Model(&models.CartItem{}).Where("id = ?", stale.ID).
		Update("added_at", time.Now().UTC().AddDate(0, 0, -40)).Error)

	n, err := repo.DeleteAddedBefore(context.Background(), time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var remaining []models.CartItem
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}

func TestListByRetailerLoadsListing(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	owner := uuid.New()
	wp := dbtest.SeedListing(t, db, dbtest.Listing{Name: "Rice 25kg", Available: 5})
	dbtest.SeedCartItem(t, db, owner, wp.ID, 2)

	items, err := repo.ListByRetailer(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].WholesalerProduct)
	assert.Equal(t, "Rice 25kg", items[0].WholesalerProduct.DisplayName())
}
