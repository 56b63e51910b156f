package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// PurchaseSummary is the header-level aggregate of one posted purchase.
type PurchaseSummary struct {
	PurchaseID    uint
	Date          time.Time
	ItemCount     int
	TotalQuantity decimal.Decimal
	TotalCost     decimal.Decimal
	TotalTax      decimal.Decimal
	GrandTotal    decimal.Decimal
}

// ProductSummary aggregates the posted lines of a run by product code.
type ProductSummary struct {
	Code          string
	Name          string
	TotalQuantity decimal.Decimal
	TotalCost     decimal.Decimal
	TotalSale     decimal.Decimal
}

// Repository answers the aggregate queries behind a report.
type Repository interface {
	// PurchaseSummaries returns one summary per purchase id, joined from
	// header and lines, in id order.
	PurchaseSummaries(ctx context.Context, purchaseIDs []uint) ([]PurchaseSummary, error)
	// ProductSummaries aggregates the purchase lines of the given
	// purchases by product code, in code order.
	ProductSummaries(ctx context.Context, purchaseIDs []uint) ([]ProductSummary, error)
}

// Builder renders the import report workbook for a finished run: one
// sheet with the per-purchase section, the per-product section, and a
// totals row under each.
type Builder struct {
	repo   Repository
	dir    string
	logger *zap.Logger
}

// NewBuilder creates a Builder writing workbooks under dir.
func NewBuilder(repo Repository, dir string, logger *zap.Logger) *Builder {
	return &Builder{repo: repo, dir: dir, logger: logger}
}

const sheetName = "Import Report"

// Build writes the workbook for the given purchases and returns its path.
func (b *Builder) Build(ctx context.Context, taskID string, purchaseIDs []uint) (string, error) {
	purchases, err := b.repo.PurchaseSummaries(ctx, purchaseIDs)
	if err != nil {
		return "", fmt.Errorf("failed to load purchase summaries: %w", err)
	}
	products, err := b.repo.ProductSummaries(ctx, purchaseIDs)
	if err != nil {
		return "", fmt.Errorf("failed to load product summaries: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}

	row := 1
	setRow(f, row, "Purchase ID", "Date", "Items", "Total Quantity", "Total Cost", "Total VAT", "Grand Total")
	row++

	var pQty, pCost, pTax, pGrand decimal.Decimal
	for _, p := range purchases {
		setRow(f, row, p.PurchaseID, p.Date.Format("2006-01-02"), p.ItemCount,
			toFloat(p.TotalQuantity), toFloat(p.TotalCost), toFloat(p.TotalTax), toFloat(p.GrandTotal))
		pQty = pQty.Add(p.TotalQuantity)
		pCost = pCost.Add(p.TotalCost)
		pTax = pTax.Add(p.TotalTax)
		pGrand = pGrand.Add(p.GrandTotal)
		row++
	}
	setRow(f, row, "Total", "", "", toFloat(pQty), toFloat(pCost), toFloat(pTax), toFloat(pGrand))
	row += 2

	setRow(f, row, "Code", "Name", "Total Quantity", "Total Cost", "Total Sale")
	row++

	var qty, cost, sale decimal.Decimal
	for _, p := range products {
		setRow(f, row, p.Code, p.Name, toFloat(p.TotalQuantity), toFloat(p.TotalCost), toFloat(p.TotalSale))
		qty = qty.Add(p.TotalQuantity)
		cost = cost.Add(p.TotalCost)
		sale = sale.Add(p.TotalSale)
		row++
	}
	setRow(f, row, "Total", "", toFloat(qty), toFloat(cost), toFloat(sale))

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path := filepath.Join(b.dir, taskID+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	b.logger.Info("report written",
		zap.String("task_id", taskID),
		zap.String("path", path),
		zap.Int("purchases", len(purchases)),
		zap.Int("products", len(products)))
	return path, nil
}

func setRow(f *excelize.File, row int, values ...any) {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			continue
		}
		f.SetCellValue(sheetName, cell, v)
	}
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
