package spreadsheet

import (
	"github.com/pharmasync/backend/internal/application/ingest"
)

// Layout maps one positional spreadsheet row onto the canonical ingest
// row. Vendors do not agree on column order, so each feed ships with its
// own fixed layout; there is no header sniffing.
type Layout interface {
	// Name identifies the layout in logs.
	Name() string
	// MapRow converts the cells of one data row. A returned
	// ingest.RowError rejects the single row; any other error aborts the
	// whole file.
	MapRow(line int, cells []string) (ingest.Row, error)
}

// InventoryLayout is the purchase-feed export: one row per stocked batch
// with explicit VAT rate and supplier columns.
//
//	code | name | batch | expiry | qty | purchase price | vat rate |
//	cost | sale | supplier id | supplier name | [discount rate]
//
// The trailing discount column is optional; most exports omit it.
type InventoryLayout struct{}

// Name identifies the layout in logs.
func (InventoryLayout) Name() string { return "inventory" }

// MapRow converts one inventory-feed row.
func (InventoryLayout) MapRow(line int, cells []string) (ingest.Row, error) {
	row := ingest.Row{
		Line:         line,
		ProductCode:  cell(cells, 0),
		ProductName:  cell(cells, 1),
		BatchNumber:  cell(cells, 2),
		ExpiryRaw:    cell(cells, 3),
		SupplierName: cell(cells, 10),
	}
	if row.ProductCode == "" {
		return ingest.Row{}, ingest.RowError{Line: line, Field: "product_code", Message: "missing product code"}
	}

	var err error
	if row.Quantity, err = parseDecimal(line, "quantity", cell(cells, 4)); err != nil {
		return ingest.Row{}, err
	}
	if row.VATRate, err = parseDecimal(line, "vat_rate", cell(cells, 6)); err != nil {
		return ingest.Row{}, err
	}
	if row.UnitCost, err = parseDecimal(line, "unit_cost", cell(cells, 7)); err != nil {
		return ingest.Row{}, err
	}
	if row.UnitSalePrice, err = parseDecimal(line, "sale_price", cell(cells, 8)); err != nil {
		return ingest.Row{}, err
	}
	if row.DiscountRate, err = parseDecimal(line, "discount_rate", cell(cells, 11)); err != nil {
		return ingest.Row{}, err
	}
	return row, nil
}

// MetadataLayout is the stock-listing export carrying the master data
// columns the purchase feeds lack.
//
//	code | name | stock id | pack units | qty | units | sale | cost |
//	purchase | total sale | total cost | total purchase | batch |
//	expiry | branch | store | supplier | category | group
//
// The category column is the top-level category and group is its
// subcategory.
type MetadataLayout struct{}

// Name identifies the layout in logs.
func (MetadataLayout) Name() string { return "metadata" }

// MapRow converts one metadata-feed row.
func (MetadataLayout) MapRow(line int, cells []string) (ingest.Row, error) {
	row := ingest.Row{
		Line:            line,
		ProductCode:     cell(cells, 0),
		ProductName:     cell(cells, 1),
		BatchNumber:     cell(cells, 12),
		ExpiryRaw:       cell(cells, 13),
		SupplierName:    cell(cells, 16),
		CategoryName:    cell(cells, 17),
		SubcategoryName: cell(cells, 18),
	}
	if row.ProductCode == "" {
		return ingest.Row{}, ingest.RowError{Line: line, Field: "product_code", Message: "missing product code"}
	}

	var err error
	if row.Quantity, err = parseDecimal(line, "quantity", cell(cells, 4)); err != nil {
		return ingest.Row{}, err
	}
	if row.UnitSalePrice, err = parseDecimal(line, "sale_price", cell(cells, 6)); err != nil {
		return ingest.Row{}, err
	}
	if row.UnitCost, err = parseDecimal(line, "unit_cost", cell(cells, 7)); err != nil {
		return ingest.Row{}, err
	}
	return row, nil
}
