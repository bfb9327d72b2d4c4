package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradeflow-backend/internal/cart"
	"github.com/angelmondragon/tradeflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
)

func TestStaleCartJobRemovesOldLines(t *testing.T) {
	gdb := dbtest.Open(t)
	retailerID := uuid.New()
	fresh := dbtest.SeedListing(t, gdb, dbtest.Listing{Available: 5})
	stale := dbtest.SeedListing(t, gdb, dbtest.Listing{Available: 5})
	dbtest.SeedCartItem(t, gdb, retailerID, fresh.ID, 1)
	old := dbtest.SeedCartItem(t, gdb, retailerID, stale.ID, 1)
	if err := gdb.Model(&models.CartItem{}).
		Where("id = ?", old.ID).
		Update("added_at", time.Now().UTC().AddDate(0, 0, -40)).Error; err != nil {
		t.Fatalf("age cart line: %v", err)
	}

	job, err := NewStaleCartJob(StaleCartJobParams{
		Logger:     quietLogger(),
		Repository: cart.NewRepository(gdb),
	})
	if err != nil {
		t.Fatalf("NewStaleCartJob: %v", err)
	}
	deleted, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 stale line removed, got %d", deleted)
	}
	if n := dbtest.CartCount(t, gdb, retailerID); n != 1 {
		t.Fatalf("expected 1 line left, got %d", n)
	}
}
