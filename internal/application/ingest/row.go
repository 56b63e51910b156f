package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one parsed spreadsheet line in canonical field order. The
// vendor-specific positional column mapping happens in the spreadsheet
// adapter; by the time a Row reaches the pipeline every field is typed.
type Row struct {
	Line            int
	ProductCode     string
	ProductName     string
	CategoryName    string
	SubcategoryName string
	SupplierName    string
	InvoiceNumber   string
	BatchNumber     string
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal
	UnitSalePrice   decimal.Decimal
	// VATRate is a fraction (0.15 for 15%). Only consulted by the
	// rate-column VAT policy; category-driven feeds leave it zero.
	VATRate decimal.Decimal
	// DiscountRate is a fraction in [0, 1). The observed UnitCost is the
	// post-discount price.
	DiscountRate decimal.Decimal
	ExpiryRaw    string
}

// EnrichedRow is a Row plus the derived financial fields.
type EnrichedRow struct {
	Row

	LineTotalCost     decimal.Decimal
	LineTotalSale     decimal.Decimal
	LineVAT           decimal.Decimal
	LineTotalAfterVAT decimal.Decimal
	TotalSaleVAT      decimal.Decimal
	TotalSale         decimal.Decimal

	// PreDiscountCost is the unit cost before the discount was applied.
	// Equal to UnitCost when no discount is recorded.
	PreDiscountCost decimal.Decimal
	// DiscountValue is the per-unit discount amount.
	DiscountValue decimal.Decimal
	// DiscountPercent is nil when no discount was recorded, which is
	// distinct from an explicit zero.
	DiscountPercent *decimal.Decimal

	Expiry *time.Time
}

// RowError describes a defect confined to a single input row. Defective
// rows are skipped and logged, never fatal to their batch.
type RowError struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Line, e.Field, e.Message)
}

var expiryLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"Jan-2006",
}

// ParseExpiry parses an expiry cell in any of the accepted layouts.
// An empty cell yields nil without error.
func ParseExpiry(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid expiry date: %s", raw)
}
