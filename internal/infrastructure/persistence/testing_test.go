package persistence

import (
	"testing"

	"github.com/pharmasync/backend/internal/domain/catalog"
	"github.com/pharmasync/backend/internal/domain/inventory"
	"github.com/pharmasync/backend/internal/domain/trade"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&catalog.Product{},
		&catalog.Supplier{},
		&catalog.Category{},
		&trade.Purchase{},
		&trade.PurchaseItem{},
		&trade.Transfer{},
		&inventory.Movement{},
	)
	require.NoError(t, err)

	return db
}
