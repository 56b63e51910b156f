package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/pharmasync/backend/internal/application/ingest"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Reader loads vendor workbooks and maps their rows onto the canonical
// ingest row through a positional Layout. The first sheet is always the
// data sheet and its first row is always a header.
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a new Reader.
func NewReader(logger *zap.Logger) *Reader {
	return &Reader{logger: logger}
}

// Read opens the workbook at path and maps every data row with the given
// layout. Rows the layout rejects are returned as ingest.RowError values
// alongside the rows that parsed; only file-level failures are fatal.
func (r *Reader) Read(path string, layout Layout) ([]ingest.Row, []ingest.RowError, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn("failed to close workbook", zap.String("path", path), zap.Error(cerr))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return r.mapRows(raw, layout)
}

func (r *Reader) mapRows(raw [][]string, layout Layout) ([]ingest.Row, []ingest.RowError, error) {
	var rows []ingest.Row
	var rowErrs []ingest.RowError

	// Row 1 is the vendor header. Spreadsheet line numbers are kept
	// one-based so log lines match what the operator sees in Excel.
	for i, cells := range raw {
		line := i + 1
		if i == 0 || isBlank(cells) {
			continue
		}
		row, err := layout.MapRow(line, cells)
		if err != nil {
			var rowErr ingest.RowError
			if ok := asRowError(err, &rowErr); ok {
				rowErrs = append(rowErrs, rowErr)
				continue
			}
			return nil, nil, err
		}
		rows = append(rows, row)
	}

	r.logger.Info("workbook parsed",
		zap.Int("rows", len(rows)),
		zap.Int("rejected", len(rowErrs)))
	return rows, rowErrs, nil
}

func asRowError(err error, target *ingest.RowError) bool {
	re, ok := err.(ingest.RowError)
	if ok {
		*target = re
	}
	return ok
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cell returns the trimmed cell at idx, tolerating short rows. Trailing
// empty cells are routinely dropped by the xlsx format.
func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// parseDecimal parses a numeric cell. Empty cells count as zero, which
// mirrors how the vendors leave optional price columns blank.
func parseDecimal(line int, field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	// Some vendor exports carry thousands separators.
	value = strings.ReplaceAll(value, ",", "")
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, ingest.RowError{
			Line:    line,
			Field:   field,
			Message: fmt.Sprintf("not a number: %q", value),
		}
	}
	return d, nil
}
