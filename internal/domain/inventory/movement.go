package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies an inventory ledger entry.
type MovementType string

// Movement types.
const (
	MovementPurchase    MovementType = "purchase"
	MovementSale        MovementType = "sale"
	MovementTransferIn  MovementType = "transfer_in"
	MovementTransferOut MovementType = "transfer_out"
	MovementAdjustment  MovementType = "adjustment"
)

// IsValid checks if the movement type is one of the known kinds.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementTransferIn, MovementTransferOut, MovementAdjustment:
		return true
	}
	return false
}

// Movement is an append-only inventory ledger entry: a signed quantity
// change of a product batch at a location. ReferenceID points back to the
// purchase or transfer header that caused it. Outbound transfers carry a
// negative quantity so that for every transfer the transfer_out and
// transfer_in quantities of a (product, batch) pair sum to zero.
type Movement struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID    *uint           `gorm:"index" json:"product_id,omitempty"`
	BatchNumber  string          `gorm:"type:varchar(255);index" json:"batch_number"`
	MovementDate time.Time       `gorm:"not null;index" json:"movement_date"`
	Type         MovementType    `gorm:"type:varchar(30);not null;index" json:"type"`
	Quantity     decimal.Decimal `gorm:"type:decimal(25,5);not null" json:"quantity"`
	LocationID   uint            `gorm:"not null;index" json:"location_id"`
	NetUnitCost  decimal.Decimal `gorm:"type:decimal(25,5)" json:"net_unit_cost"`
	NetUnitSale  decimal.Decimal `gorm:"type:decimal(25,5)" json:"net_unit_sale"`
	RealUnitCost decimal.Decimal `gorm:"type:decimal(25,5)" json:"real_unit_cost"`
	RealUnitSale decimal.Decimal `gorm:"type:decimal(25,5)" json:"real_unit_sale"`
	ExpiryDate   *time.Time      `gorm:"type:date" json:"expiry_date,omitempty"`
	ReferenceID  uint            `gorm:"not null;index" json:"reference_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName returns the table name for GORM
func (Movement) TableName() string {
	return "inventory_movements"
}
