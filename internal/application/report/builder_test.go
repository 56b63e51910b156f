package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type stubRepository struct {
	purchases []PurchaseSummary
	products  []ProductSummary
}

func (s *stubRepository) PurchaseSummaries(_ context.Context, _ []uint) ([]PurchaseSummary, error) {
	return s.purchases, nil
}

func (s *stubRepository) ProductSummaries(_ context.Context, _ []uint) ([]ProductSummary, error) {
	return s.products, nil
}

func TestBuildWritesWorkbook(t *testing.T) {
	repo := &stubRepository{
		purchases: []PurchaseSummary{
			{PurchaseID: 1, Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), ItemCount: 2,
				TotalQuantity: decimal.NewFromInt(6), TotalCost: decimal.NewFromInt(220),
				TotalTax: decimal.NewFromInt(33), GrandTotal: decimal.NewFromInt(253)},
			{PurchaseID: 2, Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), ItemCount: 1,
				TotalQuantity: decimal.NewFromInt(4), TotalCost: decimal.NewFromInt(100),
				TotalTax: decimal.NewFromInt(15), GrandTotal: decimal.NewFromInt(115)},
		},
		products: []ProductSummary{
			{Code: "A1", Name: "Aspirin", TotalQuantity: decimal.NewFromInt(6),
				TotalCost: decimal.NewFromInt(220), TotalSale: decimal.NewFromInt(290)},
			{Code: "B2", Name: "Bandage", TotalQuantity: decimal.NewFromInt(4),
				TotalCost: decimal.NewFromInt(100), TotalSale: decimal.NewFromInt(130)},
		},
	}

	dir := t.TempDir()
	builder := NewBuilder(repo, dir, zap.NewNop())

	path, err := builder.Build(context.Background(), "task-1", []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "task-1.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Import Report", cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Purchase ID", get("A1"))
	assert.Equal(t, "1", get("A2"))
	assert.Equal(t, "2026-03-01", get("B2"))
	// Purchase totals row follows the purchase rows.
	assert.Equal(t, "Total", get("A4"))
	assert.Equal(t, "368", get("G4"))

	// Product section starts after a blank row.
	assert.Equal(t, "Code", get("A6"))
	assert.Equal(t, "A1", get("A7"))
	assert.Equal(t, "Bandage", get("B8"))
	assert.Equal(t, "Total", get("A9"))
	assert.Equal(t, "10", get("C9"))
	assert.Equal(t, "320", get("D9"))
	assert.Equal(t, "420", get("E9"))
}

func TestBuildEmptyRun(t *testing.T) {
	builder := NewBuilder(&stubRepository{}, t.TempDir(), zap.NewNop())

	path, err := builder.Build(context.Background(), "task-2", nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Import Report", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Total", v)
}
