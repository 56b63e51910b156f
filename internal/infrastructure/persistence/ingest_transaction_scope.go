package persistence

import (
	"context"

	"github.com/pharmasync/backend/internal/application/ingest"
	"github.com/pharmasync/backend/internal/domain/catalog"
	"github.com/pharmasync/backend/internal/domain/inventory"
	"github.com/pharmasync/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormIngestTransactionScope implements ingest.TransactionScope using GORM
// transactions. Every batch of an upload runs through Execute, so its
// reconciliation and posting commit or roll back as one unit.
type GormIngestTransactionScope struct {
	db *gorm.DB
}

// NewGormIngestTransactionScope creates a new GormIngestTransactionScope
func NewGormIngestTransactionScope(db *gorm.DB) *GormIngestTransactionScope {
	return &GormIngestTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormIngestTransactionScope) Execute(ctx context.Context, fn func(repos ingest.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormIngestRepositories{tx: tx})
	})
}

// gormIngestRepositories provides access to all repositories within a transaction
type gormIngestRepositories struct {
	tx *gorm.DB
}

// Products returns the product repository scoped to the current transaction
func (r *gormIngestRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Suppliers returns the supplier repository scoped to the current transaction
func (r *gormIngestRepositories) Suppliers() catalog.SupplierRepository {
	return NewGormSupplierRepository(r.tx)
}

// Categories returns the category repository scoped to the current transaction
func (r *gormIngestRepositories) Categories() catalog.CategoryRepository {
	return NewGormCategoryRepository(r.tx)
}

// Purchases returns the purchase repository scoped to the current transaction
func (r *gormIngestRepositories) Purchases() trade.PurchaseRepository {
	return NewGormPurchaseRepository(r.tx)
}

// Movements returns the inventory movement repository scoped to the current transaction
func (r *gormIngestRepositories) Movements() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

var _ ingest.TransactionScope = (*GormIngestTransactionScope)(nil)
var _ ingest.TransactionalRepositories = (*gormIngestRepositories)(nil)
