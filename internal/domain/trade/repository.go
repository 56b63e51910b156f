package trade

import "context"

// PurchaseRepository defines persistence operations for purchases,
// transfers, and their line items. Create assigns the header identifier
// before returning so children can reference it within the same
// transaction.
type PurchaseRepository interface {
	// CreatePurchase inserts a purchase header and assigns its ID.
	CreatePurchase(ctx context.Context, purchase *Purchase) error
	// CreateTransfer inserts a transfer header and assigns its ID.
	CreateTransfer(ctx context.Context, transfer *Transfer) error
	// CreateItems inserts the given line items.
	CreateItems(ctx context.Context, items []*PurchaseItem) error
}
