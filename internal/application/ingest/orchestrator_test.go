package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pharmasync/backend/internal/application/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSplitBatches(t *testing.T) {
	rows := make([]EnrichedRow, 7)
	for i := range rows {
		rows[i].Line = i + 2
	}

	batches := SplitBatches(rows, 3)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 1)

	// Order-preserving: rows stay in input order across batches.
	line := 2
	for _, batch := range batches {
		for _, row := range batch {
			assert.Equal(t, line, row.Line)
			line++
		}
	}

	assert.Nil(t, SplitBatches(nil, 3))
	assert.Len(t, SplitBatches(rows, 100), 1)
}

func newTestOrchestrator(t *testing.T, repos *fakeRepos, batchSize int) (*Orchestrator, *task.MemoryStore) {
	t.Helper()
	logger := zap.NewNop()
	store := task.NewMemoryStore(time.Minute, logger)
	t.Cleanup(store.Close)
	orch := NewOrchestrator(
		repos.scope(),
		store,
		NewReconciler(UpdatePolicySkip, logger),
		NewPoster(testPostingConfig(), logger),
		NewCategoryPolicy(dec("0.15"), []string{"Cosmetics"}),
		batchSize,
		true,
		logger,
	)
	return orch, store
}

func startTask(t *testing.T, store *task.MemoryStore, id string) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &task.Task{
		ID:     id,
		Name:   "test upload",
		Status: task.StatusProcessing,
	}))
}

func feedRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Line:          i + 2,
			ProductCode:   "P" + string(rune('A'+i)),
			ProductName:   "Product " + string(rune('A'+i)),
			Quantity:      dec("2"),
			UnitCost:      dec("10"),
			UnitSalePrice: dec("13"),
			VATRate:       dec("0.15"),
		}
	}
	return rows
}

func TestRunInventoryFeedCompletes(t *testing.T) {
	repos := newFakeRepos()
	orch, store := newTestOrchestrator(t, repos, 2)
	startTask(t, store, "t1")

	result, err := orch.RunInventoryFeed(context.Background(), "t1", feedRows(5))
	require.NoError(t, err)

	assert.Len(t, result.PurchaseIDs, 3)
	assert.Equal(t, 5, result.PostedLines)
	assert.Zero(t, result.FailedBatches)
	assert.Len(t, repos.purchaseRepo.purchases, 3)
	assert.Len(t, repos.purchaseRepo.transfers, 3)

	got, err := store.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, got.Status)
	require.NotEmpty(t, got.Log)
	assert.Contains(t, got.Log[0], "started at")
	last := got.Log[len(got.Log)-1]
	assert.Contains(t, last, "duration")
	assert.Contains(t, last, "status: completed")
}

func TestRunInventoryFeedContinuesPastFailedBatch(t *testing.T) {
	repos := newFakeRepos()
	// Product inserts fail only for the second batch; its posting is
	// abandoned while the surrounding batches proceed.
	repos.productRepo.failCreate = errors.New("duplicate key value violates unique constraint")
	repos.productRepo.failCreateOnCall = 2
	orch, store := newTestOrchestrator(t, repos, 2)
	startTask(t, store, "t1")

	result, err := orch.RunInventoryFeed(context.Background(), "t1", feedRows(6))
	require.NoError(t, err)

	assert.Equal(t, 1, result.FailedBatches)
	assert.Len(t, result.PurchaseIDs, 2, "batches 1 and 3 still post")
	assert.Equal(t, 4, result.PostedLines)

	got, err := store.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, got.Status)
	var failedLine string
	for _, line := range got.Log {
		if strings.Contains(line, "failed") {
			failedLine = line
		}
	}
	require.NotEmpty(t, failedLine)
	assert.Contains(t, failedLine, "batch 2/3")
	assert.Contains(t, failedLine, "duplicate key")
}

func TestRunInventoryFeedLogsSkippedRows(t *testing.T) {
	repos := newFakeRepos()
	orch, store := newTestOrchestrator(t, repos, 10)
	startTask(t, store, "t1")

	rows := feedRows(3)
	rows[1].ExpiryRaw = "not a date"

	result, err := orch.RunInventoryFeed(context.Background(), "t1", rows)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedRows)
	assert.Equal(t, 2, result.PostedLines)

	got, err := store.Get(context.Background(), "t1")
	require.NoError(t, err)
	var skipped bool
	for _, line := range got.Log {
		if strings.Contains(line, "skipped row 3") {
			skipped = true
		}
	}
	assert.True(t, skipped, "log must identify the skipped row: %v", got.Log)
}

func TestRunMetadataFeedSyncsMasterData(t *testing.T) {
	repos := newFakeRepos()
	orch, store := newTestOrchestrator(t, repos, 10)
	startTask(t, store, "t1")

	rows := []Row{
		{Line: 2, ProductCode: "A1", ProductName: "Aspirin", SupplierName: "Acme Pharma", CategoryName: "Medicines", SubcategoryName: "Painkillers", Quantity: dec("1"), UnitCost: dec("10"), UnitSalePrice: dec("13")},
		{Line: 3, ProductCode: "B2", ProductName: "Lipstick", SupplierName: "Beauty Co", CategoryName: "Cosmetics", Quantity: dec("1"), UnitCost: dec("5"), UnitSalePrice: dec("9")},
	}

	result, err := orch.RunMetadataFeed(context.Background(), "t1", rows)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SyncedRecords)
	assert.Empty(t, result.PurchaseIDs, "metadata feed never posts")
	assert.Empty(t, repos.purchaseRepo.purchases)
	assert.Equal(t, 2, repos.supplierRepo.inserted)
	assert.Equal(t, 3, repos.categoryRepo.inserted, "two parents plus one subcategory")

	// Products carry their resolved category.
	aspirin := repos.productRepo.products["A1"]
	require.NotNil(t, aspirin)
	require.NotNil(t, aspirin.CategoryID)

	got, err := store.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, got.Status)
}

func TestRunCategoryVATFeedPostsPurchaseOnly(t *testing.T) {
	repos := newFakeRepos()
	orch, store := newTestOrchestrator(t, repos, 10)
	startTask(t, store, "t1")

	rows := []Row{
		{Line: 2, ProductCode: "L1", ProductName: "Lipstick", CategoryName: "Cosmetics", SupplierName: "Beauty Co", Quantity: dec("2"), UnitCost: dec("100"), UnitSalePrice: dec("130")},
		{Line: 3, ProductCode: "M1", ProductName: "Syrup", CategoryName: "Medicines", SupplierName: "Beauty Co", Quantity: dec("1"), UnitCost: dec("40"), UnitSalePrice: dec("55")},
	}

	result, err := orch.RunCategoryVATFeed(context.Background(), "t1", rows)
	require.NoError(t, err)

	require.Len(t, result.PurchaseIDs, 1)
	assert.Empty(t, repos.purchaseRepo.transfers, "purchase-only mode creates no transfer")

	purchase := repos.purchaseRepo.purchases[0]
	assert.Equal(t, "Beauty Co", purchase.SupplierName)
	assert.NotZero(t, purchase.SupplierID)
	// Only the VAT-liable category row carries tax: 200 * 0.15.
	assert.True(t, purchase.TotalTax.Equal(dec("30")), "tax: %s", purchase.TotalTax)

	// No product sync in this feed: lines post with null references.
	for _, item := range repos.purchaseRepo.items {
		assert.Nil(t, item.ProductID)
	}
}
