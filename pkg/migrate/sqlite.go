package migrate

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

//go:embed sqlite/schema.sql
var sqliteSchema string

// ApplySQLiteSchema creates the tables on a SQLite connection. The goose
// migrations target Postgres; local SQLite runs and tests use this mirror.
func ApplySQLiteSchema(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	conn := db.WithContext(ctx)
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
