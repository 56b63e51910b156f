package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	// FindByCodes returns the products whose code is in the given set.
	FindByCodes(ctx context.Context, codes []string) ([]Product, error)
	// FindByCode returns the product with the given code, or shared.ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Product, error)
	// CreateBatch inserts the given products, assigning identifiers.
	CreateBatch(ctx context.Context, products []*Product) error
	// Save creates or updates a product.
	Save(ctx context.Context, product *Product) error
	// UpdatePrices sets cost and price for the product with the given code.
	UpdatePrices(ctx context.Context, code string, cost, price decimal.Decimal) error
}

// SupplierRepository defines persistence operations for suppliers.
type SupplierRepository interface {
	// FindByNames returns the suppliers whose name is in the given set.
	FindByNames(ctx context.Context, names []string) ([]Supplier, error)
	// FindByName returns the supplier with the given name, or shared.ErrNotFound.
	FindByName(ctx context.Context, name string) (*Supplier, error)
	// CreateBatch inserts the given suppliers, assigning identifiers.
	CreateBatch(ctx context.Context, suppliers []*Supplier) error
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	// FindByKeys returns the categories whose (name, parent id) pair is in
	// the given set.
	FindByKeys(ctx context.Context, keys []CategoryKey) ([]Category, error)
	// FindTopLevelByNames returns top-level categories matching the names.
	FindTopLevelByNames(ctx context.Context, names []string) ([]Category, error)
	// CreateBatch inserts the given categories, assigning identifiers.
	CreateBatch(ctx context.Context, categories []*Category) error
}
