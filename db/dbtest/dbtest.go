// Package dbtest opens throwaway catalog databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"hastingtx/db"
	"hastingtx/logger"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a migrated in-memory SQLite catalog private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	gormDB, err := db.OpenDialector(sqlite.Open(dsn), logger.NewGormLogger("silent"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	// A single connection keeps the shared in-memory database alive and
	// serializes writers the way SQLite would on disk.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return gormDB
}
