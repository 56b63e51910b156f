package persistence

import (
	"context"

	"github.com/pharmasync/backend/internal/application/report"
	"gorm.io/gorm"
)

// GormReportRepository implements report.Repository with aggregate queries
// over the posted purchase headers and lines.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// PurchaseSummaries returns one summary per purchase id, joined from
// header and lines, in id order
func (r *GormReportRepository) PurchaseSummaries(ctx context.Context, purchaseIDs []uint) ([]report.PurchaseSummary, error) {
	if len(purchaseIDs) == 0 {
		return nil, nil
	}
	var summaries []report.PurchaseSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS purchase_id,
		       p.date AS date,
		       COUNT(i.id) AS item_count,
		       COALESCE(SUM(i.quantity), 0) AS total_quantity,
		       p.total_net_purchase AS total_cost,
		       p.total_tax AS total_tax,
		       p.grand_total AS grand_total
		FROM purchases p
		LEFT JOIN purchase_items i ON i.purchase_id = p.id
		WHERE p.id IN ?
		GROUP BY p.id, p.date, p.total_net_purchase, p.total_tax, p.grand_total
		ORDER BY p.id`, purchaseIDs).
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// ProductSummaries aggregates the purchase lines of the given purchases
// by product code, in code order
func (r *GormReportRepository) ProductSummaries(ctx context.Context, purchaseIDs []uint) ([]report.ProductSummary, error) {
	if len(purchaseIDs) == 0 {
		return nil, nil
	}
	var summaries []report.ProductSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT i.product_code AS code,
		       MAX(i.product_name) AS name,
		       SUM(i.quantity) AS total_quantity,
		       SUM(i.total_before_vat) AS total_cost,
		       SUM(i.quantity * i.sale_price) AS total_sale
		FROM purchase_items i
		WHERE i.purchase_id IN ?
		GROUP BY i.product_code
		ORDER BY i.product_code`, purchaseIDs).
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

var _ report.Repository = (*GormReportRepository)(nil)
