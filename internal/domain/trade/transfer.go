package trade

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer statuses and types.
const (
	TransferStatusCompleted = "completed"
	TransferTypePurchase    = "purchase"
)

// Transfer moves the quantities of a posted purchase from a source
// warehouse to a destination warehouse at sale-side valuation. It is
// optional: purchase-only postings create no transfer.
type Transfer struct {
	ID                uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	TransferNo        string          `gorm:"type:varchar(55)" json:"transfer_no"`
	Date              time.Time       `gorm:"not null" json:"date"`
	FromWarehouseID   uint            `gorm:"not null" json:"from_warehouse_id"`
	FromWarehouseCode string          `gorm:"type:varchar(55)" json:"from_warehouse_code"`
	FromWarehouseName string          `gorm:"type:varchar(255)" json:"from_warehouse_name"`
	ToWarehouseID     uint            `gorm:"not null" json:"to_warehouse_id"`
	ToWarehouseCode   string          `gorm:"type:varchar(255)" json:"to_warehouse_code"`
	ToWarehouseName   string          `gorm:"type:varchar(255)" json:"to_warehouse_name"`
	Note              string          `gorm:"type:varchar(1000)" json:"note"`
	Total             decimal.Decimal `gorm:"type:decimal(25,5)" json:"total"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(25,5)" json:"total_cost"`
	TotalTax          decimal.Decimal `gorm:"type:decimal(25,5)" json:"total_tax"`
	GrandTotal        decimal.Decimal `gorm:"type:decimal(25,2)" json:"grand_total"`
	Type              string          `gorm:"type:varchar(10)" json:"type"`
	SequenceCode      string          `gorm:"type:varchar(255)" json:"sequence_code"`
	InvoiceNumber     string          `gorm:"type:varchar(255)" json:"invoice_number"`
	Status            string          `gorm:"type:varchar(55)" json:"status"`
	CreatedBy         uint            `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Transfer) TableName() string {
	return "transfers"
}
