package ingest

import (
	"context"
	"time"

	"github.com/pharmasync/backend/internal/domain/catalog"
)

// RunInventoryFeed processes the inventory vendor layout: VAT comes from
// the explicit fractional rate column, product codes are reconciled before
// posting, and every batch posts in purchase-with-transfer mode so the
// goods land in the destination warehouse at sale-side valuation.
func (o *Orchestrator) RunInventoryFeed(ctx context.Context, taskID string, rows []Row) (*RunResult, error) {
	started := time.Now()
	o.logf(ctx, taskID, "inventory import started at %s, %d rows", started.Format(time.RFC3339), len(rows))

	deriver := NewDeriver(RateColumnPolicy{}, o.logger)
	enriched, rowErrs := deriver.Derive(rows)
	o.logRowErrors(ctx, taskID, rowErrs)

	batches := SplitBatches(enriched, o.batchSize)
	result := &RunResult{SkippedRows: len(rowErrs)}
	for i, batch := range batches {
		var post *PostResult
		err := o.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			candidates, err := o.productCandidates(batch, nil)
			if err != nil {
				return err
			}
			productIDs, err := o.reconciler.ReconcileProducts(ctx, repos.Products(), candidates)
			if err != nil {
				return err
			}
			post, err = o.poster.Post(ctx, repos, PostRequest{
				Rows:       batch,
				Mode:       PostModePurchaseWithTransfer,
				ProductIDs: productIDs,
				Date:       started,
				Note:       "inventory spreadsheet import",
			})
			return err
		})
		if err != nil {
			result.FailedBatches++
			o.logf(ctx, taskID, "batch %d/%d failed: %v", i+1, len(batches), err)
			continue
		}
		result.PurchaseIDs = append(result.PurchaseIDs, post.PurchaseID)
		result.PostedLines += post.Lines
		o.logf(ctx, taskID, "batch %d/%d: posted purchase %d (%d lines)", i+1, len(batches), post.PurchaseID, post.Lines)
	}

	o.finish(ctx, taskID, started, result)
	return result, nil
}

// RunCategoryVATFeed processes the layout whose VAT liability is decided
// by category membership. The supplier is resolved by name, falling back
// to the configured internal supplier; posting is purchase-only, with the
// product cost and sale price resynced from the posted lines when the
// reconcile policy allows updates.
func (o *Orchestrator) RunCategoryVATFeed(ctx context.Context, taskID string, rows []Row) (*RunResult, error) {
	started := time.Now()
	o.logf(ctx, taskID, "category import started at %s, %d rows", started.Format(time.RFC3339), len(rows))

	deriver := NewDeriver(o.categoryPolicy, o.logger)
	enriched, rowErrs := deriver.Derive(rows)
	o.logRowErrors(ctx, taskID, rowErrs)

	batches := SplitBatches(enriched, o.batchSize)
	result := &RunResult{SkippedRows: len(rowErrs)}
	for i, batch := range batches {
		var post *PostResult
		err := o.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			supplierIDs, err := o.reconciler.ReconcileSuppliers(ctx, repos.Suppliers(), supplierNames(batch), "")
			if err != nil {
				return err
			}
			var supplierID uint
			var supplierName string
			for j := range batch {
				if name := batch[j].SupplierName; name != "" {
					supplierID, supplierName = supplierIDs[name], name
					break
				}
			}

			// This feed posts before product sync completes: ids are
			// resolved for whatever already exists, nothing is inserted,
			// and unresolved lines keep a null product reference.
			productIDs, err := lookupProductIDs(ctx, repos, batch)
			if err != nil {
				return err
			}
			post, err = o.poster.Post(ctx, repos, PostRequest{
				Rows:         batch,
				Mode:         PostModePurchaseOnly,
				ProductIDs:   productIDs,
				SupplierID:   supplierID,
				SupplierName: supplierName,
				Date:         started,
				Note:         "category spreadsheet import",
				ResyncPrices: o.resyncPrices,
			})
			return err
		})
		if err != nil {
			result.FailedBatches++
			o.logf(ctx, taskID, "batch %d/%d failed: %v", i+1, len(batches), err)
			continue
		}
		result.PurchaseIDs = append(result.PurchaseIDs, post.PurchaseID)
		result.PostedLines += post.Lines
		o.logf(ctx, taskID, "batch %d/%d: posted purchase %d (%d lines)", i+1, len(batches), post.PurchaseID, post.Lines)
	}

	o.finish(ctx, taskID, started, result)
	return result, nil
}

// RunMetadataFeed synchronizes master data only: suppliers, the two-phase
// category tree, and products carrying their resolved category. Nothing is
// posted.
func (o *Orchestrator) RunMetadataFeed(ctx context.Context, taskID string, rows []Row) (*RunResult, error) {
	started := time.Now()
	o.logf(ctx, taskID, "metadata import started at %s, %d rows", started.Format(time.RFC3339), len(rows))

	deriver := NewDeriver(RateColumnPolicy{}, o.logger)
	enriched, rowErrs := deriver.Derive(rows)
	o.logRowErrors(ctx, taskID, rowErrs)

	batches := SplitBatches(enriched, o.batchSize)
	result := &RunResult{SkippedRows: len(rowErrs)}
	for i, batch := range batches {
		var synced int
		err := o.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if _, err := o.reconciler.ReconcileSuppliers(ctx, repos.Suppliers(), supplierNames(batch), ""); err != nil {
				return err
			}
			parentIDs, subIDs, err := o.reconciler.ReconcileCategories(ctx, repos.Categories(), categoryPairs(batch))
			if err != nil {
				return err
			}
			candidates, err := o.productCandidates(batch, func(row *EnrichedRow) *uint {
				if row.SubcategoryName != "" && row.CategoryName != "" {
					if parentID, ok := parentIDs[row.CategoryName]; ok {
						if id, ok := subIDs[catalog.CategoryKey{Name: row.SubcategoryName, ParentID: parentID}]; ok {
							return &id
						}
					}
				}
				if id, ok := parentIDs[row.CategoryName]; ok {
					return &id
				}
				return nil
			})
			if err != nil {
				return err
			}
			productIDs, err := o.reconciler.ReconcileProducts(ctx, repos.Products(), candidates)
			if err != nil {
				return err
			}
			synced = len(productIDs)
			return nil
		})
		if err != nil {
			result.FailedBatches++
			o.logf(ctx, taskID, "batch %d/%d failed: %v", i+1, len(batches), err)
			continue
		}
		result.SyncedRecords += synced
		o.logf(ctx, taskID, "batch %d/%d: synchronized %d products", i+1, len(batches), synced)
	}

	o.finish(ctx, taskID, started, result)
	return result, nil
}

// RunCatalogFeed is the products-only sync: distinct codes are inserted
// when missing and, depending on the reconcile policy, drifted existing
// products are either updated in place or left alone with a logged
// comparison.
func (o *Orchestrator) RunCatalogFeed(ctx context.Context, taskID string, rows []Row) (*RunResult, error) {
	started := time.Now()
	o.logf(ctx, taskID, "product import started at %s, %d rows", started.Format(time.RFC3339), len(rows))

	deriver := NewDeriver(RateColumnPolicy{}, o.logger)
	enriched, rowErrs := deriver.Derive(rows)
	o.logRowErrors(ctx, taskID, rowErrs)

	batches := SplitBatches(enriched, o.batchSize)
	result := &RunResult{SkippedRows: len(rowErrs)}
	for i, batch := range batches {
		var synced int
		err := o.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			candidates, err := o.productCandidates(batch, nil)
			if err != nil {
				return err
			}
			productIDs, err := o.reconciler.ReconcileProducts(ctx, repos.Products(), candidates)
			if err != nil {
				return err
			}
			synced = len(productIDs)
			return nil
		})
		if err != nil {
			result.FailedBatches++
			o.logf(ctx, taskID, "batch %d/%d failed: %v", i+1, len(batches), err)
			continue
		}
		result.SyncedRecords += synced
		o.logf(ctx, taskID, "batch %d/%d: synchronized %d products", i+1, len(batches), synced)
	}

	o.finish(ctx, taskID, started, result)
	return result, nil
}
