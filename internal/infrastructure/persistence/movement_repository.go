package persistence

import (
	"context"

	"github.com/pharmasync/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormMovementRepository implements inventory.MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// CreateBatch inserts the given movements in one statement
func (r *GormMovementRepository) CreateBatch(ctx context.Context, movements []*inventory.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(movements).Error
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
