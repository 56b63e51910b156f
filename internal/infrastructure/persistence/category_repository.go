package persistence

import (
	"context"

	"github.com/pharmasync/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByKeys returns the categories whose (name, parent id) pair is in the
// given set
func (r *GormCategoryRepository) FindByKeys(ctx context.Context, keys []catalog.CategoryKey) ([]catalog.Category, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx)
	tuples := r.db.Session(&gorm.Session{NewDB: true})
	for _, key := range keys {
		tuples = tuples.Or("name = ? AND parent_id = ?", key.Name, key.ParentID)
	}
	var categories []catalog.Category
	if err := query.Where(tuples).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindTopLevelByNames returns top-level categories matching the names
func (r *GormCategoryRepository) FindTopLevelByNames(ctx context.Context, names []string) ([]catalog.Category, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var categories []catalog.Category
	if err := r.db.WithContext(ctx).
		Where("name IN ? AND parent_id = ?", names, catalog.TopLevelParentID).
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateBatch inserts the given categories, assigning identifiers
func (r *GormCategoryRepository) CreateBatch(ctx context.Context, categories []*catalog.Category) error {
	if len(categories) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(categories).Error
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
