package trade

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase statuses.
const (
	PurchaseStatusReceived = "received"
)

// Purchase is the header of a posted purchase. It is created exactly once
// per successful batch posting and never mutated afterwards; its totals are
// the sums over its line items.
type Purchase struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferenceNo      string          `gorm:"type:varchar(55)" json:"reference_no"`
	Date             time.Time       `gorm:"not null" json:"date"`
	SupplierID       uint            `gorm:"index" json:"supplier_id"`
	SupplierName     string          `gorm:"type:varchar(255)" json:"supplier_name"`
	WarehouseID      uint            `gorm:"not null;index" json:"warehouse_id"`
	Note             string          `gorm:"type:varchar(1000)" json:"note"`
	Total            decimal.Decimal `gorm:"type:decimal(25,5)" json:"total"`
	TotalNetPurchase decimal.Decimal `gorm:"type:decimal(25,5)" json:"total_net_purchase"`
	TotalSale        decimal.Decimal `gorm:"type:decimal(25,5)" json:"total_sale"`
	TotalDiscount    decimal.Decimal `gorm:"type:decimal(25,5)" json:"total_discount"`
	TotalTax         decimal.Decimal `gorm:"type:decimal(25,5)" json:"total_tax"`
	GrandTotal       decimal.Decimal `gorm:"type:decimal(25,5)" json:"grand_total"`
	Status           string          `gorm:"type:varchar(55)" json:"status"`
	InvoiceNumber    string          `gorm:"type:varchar(255)" json:"invoice_number"`
	SequenceCode     string          `gorm:"type:varchar(255)" json:"sequence_code"`
	CreatedBy        uint            `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Purchase) TableName() string {
	return "purchases"
}

// PurchaseItem is one posted line. It belongs to exactly one purchase
// header or, for transfer-mirrored lines, to exactly one transfer header.
// ProductID is nullable: a line may be posted before product sync completes.
type PurchaseItem struct {
	ID              uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseID      *uint            `gorm:"index" json:"purchase_id,omitempty"`
	TransferID      *uint            `gorm:"index" json:"transfer_id,omitempty"`
	ProductID       *uint            `gorm:"index" json:"product_id,omitempty"`
	ProductCode     string           `gorm:"type:varchar(100)" json:"product_code"`
	ProductName     string           `gorm:"type:varchar(255)" json:"product_name"`
	WarehouseID     uint             `gorm:"not null" json:"warehouse_id"`
	Quantity        decimal.Decimal  `gorm:"type:decimal(25,5);not null" json:"quantity"`
	NetUnitCost     decimal.Decimal  `gorm:"type:decimal(25,5)" json:"net_unit_cost"`
	UnitCost        decimal.Decimal  `gorm:"type:decimal(25,5)" json:"unit_cost"`
	RealUnitCost    decimal.Decimal  `gorm:"type:decimal(25,5)" json:"real_unit_cost"`
	SalePrice       decimal.Decimal  `gorm:"type:decimal(25,5)" json:"sale_price"`
	ItemTax         decimal.Decimal  `gorm:"type:decimal(25,5)" json:"item_tax"`
	ItemDiscount    decimal.Decimal  `gorm:"type:decimal(25,5)" json:"item_discount"`
	DiscountPercent *decimal.Decimal `gorm:"type:decimal(25,5)" json:"discount_percent,omitempty"`
	Expiry          *time.Time       `gorm:"type:date" json:"expiry,omitempty"`
	BatchNumber     string           `gorm:"type:varchar(50)" json:"batch_number"`
	Subtotal        decimal.Decimal  `gorm:"type:decimal(25,5)" json:"subtotal"`
	TotalBeforeVAT  decimal.Decimal  `gorm:"type:decimal(25,5)" json:"total_before_vat"`
	MainNet         decimal.Decimal  `gorm:"type:decimal(25,5)" json:"main_net"`
	Status          string           `gorm:"type:varchar(50)" json:"status"`
	Date            time.Time        `gorm:"type:date" json:"date"`
	CreatedAt       time.Time        `json:"created_at"`
}

// TableName returns the table name for GORM
func (PurchaseItem) TableName() string {
	return "purchase_items"
}
