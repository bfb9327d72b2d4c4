// Package dbtest opens throwaway SQLite databases carrying the service schema.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/pkg/migrate"
)

// Open returns an in-memory database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:tf_" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.ApplySQLiteSchema(context.Background(), db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
