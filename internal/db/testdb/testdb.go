// Package testdb provides throwaway databases for tests.
package testdb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bienesraices/internal/db"
)

// Open returns a migrated in-memory SQLite database that is closed on test cleanup.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := db.Open(db.Config{Driver: "sqlite", LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gormDB))

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return gormDB
}
