package persistence

import (
	"context"
	"errors"

	"github.com/pharmasync/backend/internal/domain/catalog"
	"github.com/pharmasync/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSupplierRepository implements catalog.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByNames returns the suppliers whose name is in the given set
func (r *GormSupplierRepository) FindByNames(ctx context.Context, names []string) ([]catalog.Supplier, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var suppliers []catalog.Supplier
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// FindByName returns the supplier with the given name
func (r *GormSupplierRepository) FindByName(ctx context.Context, name string) (*catalog.Supplier, error) {
	var supplier catalog.Supplier
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// CreateBatch inserts the given suppliers, assigning identifiers
func (r *GormSupplierRepository) CreateBatch(ctx context.Context, suppliers []*catalog.Supplier) error {
	if len(suppliers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(suppliers).Error
}

var _ catalog.SupplierRepository = (*GormSupplierRepository)(nil)
