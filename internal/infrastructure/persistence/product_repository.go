package persistence

import (
	"context"
	"errors"

	"github.com/pharmasync/backend/internal/domain/catalog"
	"github.com/pharmasync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByCodes returns the products whose code is in the given set
func (r *GormProductRepository) FindByCodes(ctx context.Context, codes []string) ([]catalog.Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var products []catalog.Product
	if err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByCode returns the product with the given code
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// CreateBatch inserts the given products, assigning identifiers
func (r *GormProductRepository) CreateBatch(ctx context.Context, products []*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(products).Error
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// UpdatePrices sets cost and price for the product with the given code
func (r *GormProductRepository) UpdatePrices(ctx context.Context, code string, cost, price decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("code = ?", code).
		Updates(map[string]any{"cost": cost, "price": price})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
