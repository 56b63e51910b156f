package ingest

import (
	"context"

	"github.com/pharmasync/backend/internal/domain/catalog"
	"github.com/pharmasync/backend/internal/domain/inventory"
	"github.com/pharmasync/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories a
// batch touches. All repository operations inside Execute share one
// database transaction and commit or roll back together; each batch runs
// in its own scope so a failed batch never disturbs a committed one.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories scoped to the
// current transaction.
type TransactionalRepositories interface {
	// Products returns the product repository scoped to the current transaction
	Products() catalog.ProductRepository
	// Suppliers returns the supplier repository scoped to the current transaction
	Suppliers() catalog.SupplierRepository
	// Categories returns the category repository scoped to the current transaction
	Categories() catalog.CategoryRepository
	// Purchases returns the purchase repository scoped to the current transaction
	Purchases() trade.PurchaseRepository
	// Movements returns the inventory movement repository scoped to the current transaction
	Movements() inventory.MovementRepository
}

// NoOpTransactionScope runs the function against fixed repositories with
// no real transaction. Useful in tests that assert on repository calls
// without a database.
type NoOpTransactionScope struct {
	ProductRepo  catalog.ProductRepository
	SupplierRepo catalog.SupplierRepository
	CategoryRepo catalog.CategoryRepository
	PurchaseRepo trade.PurchaseRepository
	MovementRepo inventory.MovementRepository
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() catalog.ProductRepository { return s.ProductRepo }

// Suppliers returns the supplier repository.
func (s *NoOpTransactionScope) Suppliers() catalog.SupplierRepository { return s.SupplierRepo }

// Categories returns the category repository.
func (s *NoOpTransactionScope) Categories() catalog.CategoryRepository { return s.CategoryRepo }

// Purchases returns the purchase repository.
func (s *NoOpTransactionScope) Purchases() trade.PurchaseRepository { return s.PurchaseRepo }

// Movements returns the inventory movement repository.
func (s *NoOpTransactionScope) Movements() inventory.MovementRepository { return s.MovementRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
