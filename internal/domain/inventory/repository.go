package inventory

import "context"

// MovementRepository persists inventory ledger entries.
type MovementRepository interface {
	// CreateBatch inserts the given movements in one statement.
	CreateBatch(ctx context.Context, movements []*Movement) error
}
