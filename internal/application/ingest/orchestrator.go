package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmasync/backend/internal/application/task"
	"github.com/pharmasync/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// Orchestrator drives a whole upload run: it enriches the parsed rows,
// splits them into fixed-size batches, and processes each batch inside its
// own transaction scope. A failing batch is rolled back, logged against the
// task, and skipped; the run continues with the next batch. Created
// purchase ids are accumulated for the report builder.
type Orchestrator struct {
	scope          TransactionScope
	tasks          task.Store
	reconciler     *Reconciler
	poster         *Poster
	categoryPolicy *CategoryPolicy
	batchSize      int
	resyncPrices   bool
	logger         *zap.Logger
}

// NewOrchestrator wires an Orchestrator.
func NewOrchestrator(
	scope TransactionScope,
	tasks task.Store,
	reconciler *Reconciler,
	poster *Poster,
	categoryPolicy *CategoryPolicy,
	batchSize int,
	resyncPrices bool,
	logger *zap.Logger,
) *Orchestrator {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Orchestrator{
		scope:          scope,
		tasks:          tasks,
		reconciler:     reconciler,
		poster:         poster,
		categoryPolicy: categoryPolicy,
		batchSize:      batchSize,
		resyncPrices:   resyncPrices,
		logger:         logger,
	}
}

// RunResult summarizes one upload run.
type RunResult struct {
	PurchaseIDs   []uint
	PostedLines   int
	SyncedRecords int
	SkippedRows   int
	FailedBatches int
}

// SplitBatches slices rows into order-preserving batches of at most size
// rows; the last batch may be smaller.
func SplitBatches(rows []EnrichedRow, size int) [][]EnrichedRow {
	if size <= 0 || len(rows) == 0 {
		if len(rows) == 0 {
			return nil
		}
		return [][]EnrichedRow{rows}
	}
	batches := make([][]EnrichedRow, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, rows[start:end])
	}
	return batches
}

// logf appends a formatted line to the task's progress log.
func (o *Orchestrator) logf(ctx context.Context, taskID, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if err := o.tasks.AppendLog(ctx, taskID, line); err != nil {
		o.logger.Warn("failed to append task log",
			zap.String("task_id", taskID), zap.Error(err))
	}
}

func (o *Orchestrator) logRowErrors(ctx context.Context, taskID string, rowErrs []RowError) {
	for _, re := range rowErrs {
		o.logf(ctx, taskID, "skipped %s", re.Error())
	}
}

// finish appends the duration summary and moves the task to completed.
// Failed batches do not fail the run; only an error before any batch
// exists does, and that is the caller's to report.
func (o *Orchestrator) finish(ctx context.Context, taskID string, started time.Time, result *RunResult) {
	ended := time.Now()
	o.logf(ctx, taskID, "finished at %s, duration %s, %d purchases, %d lines, %d rows skipped, %d batches failed, status: %s",
		ended.Format(time.RFC3339), ended.Sub(started).Round(time.Millisecond),
		len(result.PurchaseIDs), result.PostedLines, result.SkippedRows,
		result.FailedBatches, task.StatusCompleted)
	if err := o.tasks.SetStatus(ctx, taskID, task.StatusCompleted); err != nil {
		o.logger.Warn("failed to set task status",
			zap.String("task_id", taskID), zap.Error(err))
	}
}

// productCandidates builds one catalog candidate per distinct code in the
// batch, carrying the spreadsheet name, prices, and optional category.
func (o *Orchestrator) productCandidates(batch []EnrichedRow, categoryID func(row *EnrichedRow) *uint) ([]*catalog.Product, error) {
	candidates := make([]*catalog.Product, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	for i := range batch {
		row := &batch[i]
		if row.ProductCode == "" {
			continue
		}
		if _, ok := seen[row.ProductCode]; ok {
			continue
		}
		seen[row.ProductCode] = struct{}{}
		product, err := catalog.NewProduct(row.ProductCode, row.ProductName)
		if err != nil {
			return nil, err
		}
		product.SetPrices(row.UnitCost, row.UnitSalePrice)
		product.TaxRate = int(row.VATRate.Mul(hundred).IntPart())
		if categoryID != nil {
			product.CategoryID = categoryID(row)
		}
		candidates = append(candidates, product)
	}
	return candidates, nil
}

// lookupProductIDs resolves existing product ids by code without inserting
// anything. Codes with no catalog row are simply absent from the map.
func lookupProductIDs(ctx context.Context, repos TransactionalRepositories, batch []EnrichedRow) (map[string]uint, error) {
	codes := make([]string, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	for i := range batch {
		code := batch[i].ProductCode
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	products, err := repos.Products().FindByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product codes: %w", err)
	}
	ids := make(map[string]uint, len(products))
	for i := range products {
		ids[products[i].Code] = products[i].ID
	}
	return ids, nil
}

func supplierNames(batch []EnrichedRow) []string {
	names := make([]string, 0, len(batch))
	for i := range batch {
		if batch[i].SupplierName != "" {
			names = append(names, batch[i].SupplierName)
		}
	}
	return names
}

func categoryPairs(batch []EnrichedRow) []CategoryPair {
	pairs := make([]CategoryPair, 0, len(batch))
	for i := range batch {
		row := &batch[i]
		if row.CategoryName == "" {
			continue
		}
		pairs = append(pairs, CategoryPair{Parent: row.CategoryName, Sub: row.SubcategoryName})
	}
	return pairs
}
