package persistence

import (
	"context"

	"github.com/pharmasync/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormPurchaseRepository implements trade.PurchaseRepository using GORM.
// Header inserts flush immediately so the assigned id is available to
// children within the same transaction.
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// CreatePurchase inserts a purchase header and assigns its ID
func (r *GormPurchaseRepository) CreatePurchase(ctx context.Context, purchase *trade.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

// CreateTransfer inserts a transfer header and assigns its ID
func (r *GormPurchaseRepository) CreateTransfer(ctx context.Context, transfer *trade.Transfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}

// CreateItems inserts the given line items
func (r *GormPurchaseRepository) CreateItems(ctx context.Context, items []*trade.PurchaseItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(items).Error
}

var _ trade.PurchaseRepository = (*GormPurchaseRepository)(nil)
