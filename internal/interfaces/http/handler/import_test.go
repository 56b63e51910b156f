package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmasync/backend/internal/application/ingest"
	"github.com/pharmasync/backend/internal/application/report"
	"github.com/pharmasync/backend/internal/application/task"
	"github.com/pharmasync/backend/internal/domain/catalog"
	"github.com/pharmasync/backend/internal/domain/inventory"
	"github.com/pharmasync/backend/internal/domain/trade"
	"github.com/pharmasync/backend/internal/infrastructure/persistence"
	"github.com/pharmasync/backend/internal/infrastructure/spreadsheet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type importFixture struct {
	router *gin.Engine
	tasks  *task.MemoryStore
	db     *gorm.DB
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	logger := zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalog.Product{}, &catalog.Supplier{}, &catalog.Category{},
		&trade.Purchase{}, &trade.PurchaseItem{}, &trade.Transfer{},
		&inventory.Movement{},
	))

	tasks := task.NewMemoryStore(time.Minute, logger)
	t.Cleanup(tasks.Close)

	posting := ingest.PostingConfig{
		SourceWarehouse: ingest.Warehouse{ID: 32, Code: "WH-MAIN", Name: "Main Warehouse"},
		DestWarehouse:   ingest.Warehouse{ID: 38, Code: "WH-SHOP", Name: "Shop Warehouse"},
		CreatedBy:       1,
	}
	posting.DefaultSupplier.ID = 686
	posting.DefaultSupplier.Name = "Internal supplier"

	orchestrator := ingest.NewOrchestrator(
		persistence.NewGormIngestTransactionScope(db),
		tasks,
		ingest.NewReconciler(ingest.UpdatePolicySkip, logger),
		ingest.NewPoster(posting, logger),
		ingest.NewCategoryPolicy(decimal.NewFromFloat(0.15), []string{"Cosmetics"}),
		100,
		false,
		logger,
	)

	reportDir := t.TempDir()
	builder := report.NewBuilder(persistence.NewGormReportRepository(db), reportDir, logger)

	h := NewImportHandler(
		spreadsheet.NewReader(logger),
		orchestrator,
		builder,
		tasks,
		t.TempDir(),
		10<<20,
		logger,
	)

	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))
	return &importFixture{router: engine, tasks: tasks, db: db}
}

// buildInventoryWorkbook writes a small inventory-layout upload.
func buildInventoryWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Code", "Name", "Batch", "Expiry", "Qty", "Purchase", "VAT", "Cost", "Sale", "SupplierId", "SupplierName"},
		{"A1", "Aspirin", "B-7", "2030-01-01", 2, 95, 0.15, 100, 130, "", "Acme Pharma"},
		{"B2", "Bandage", "B-8", "2030-06-01", 3, 38, 0.15, 40, 55, "", "Acme Pharma"},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	path := filepath.Join(t.TempDir(), "inventory.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func uploadFile(t *testing.T, router *gin.Engine, url, path string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func waitForTerminal(t *testing.T, fix *importFixture, taskID string) TaskResponse {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/import/tasks/"+taskID, nil)
		w := httptest.NewRecorder()
		fix.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp TaskResponse
		decodeData(t, w, &resp)
		if resp.Status != string(task.StatusProcessing) {
			return resp
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("task did not reach a terminal state")
	return TaskResponse{}
}

func TestInventoryUploadRunsToCompletion(t *testing.T) {
	fix := newImportFixture(t)

	w := uploadFile(t, fix.router, "/api/v1/import/inventory", buildInventoryWorkbook(t))
	require.Equal(t, http.StatusAccepted, w.Code)

	var upload UploadResponse
	decodeData(t, w, &upload)
	require.NotEmpty(t, upload.TaskID)

	done := waitForTerminal(t, fix, upload.TaskID)
	assert.Equal(t, string(task.StatusCompleted), done.Status)
	assert.True(t, done.HasReport)

	var purchases int64
	require.NoError(t, fix.db.Model(&trade.Purchase{}).Count(&purchases).Error)
	assert.EqualValues(t, 1, purchases)
	var transfers int64
	require.NoError(t, fix.db.Model(&trade.Transfer{}).Count(&transfers).Error)
	assert.EqualValues(t, 1, transfers)

	// The report download must stream the workbook the run produced.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/tasks/"+upload.TaskID+"/report", nil)
	rw := httptest.NewRecorder()
	fix.router.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Header().Get("Content-Disposition"), "attachment")
}

func TestUploadWithoutFileIsRejected(t *testing.T) {
	fix := newImportFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/inventory", nil)
	w := httptest.NewRecorder()
	fix.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUnknownTaskReturnsNotFound(t *testing.T) {
	fix := newImportFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/tasks/does-not-exist", nil)
	w := httptest.NewRecorder()
	fix.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportUnavailableBeforePosting(t *testing.T) {
	fix := newImportFixture(t)
	ctx := context.Background()

	require.NoError(t, fix.tasks.Create(ctx, &task.Task{
		ID:     "metadata-task",
		Name:   "metadata",
		Status: task.StatusCompleted,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/tasks/metadata-task/report", nil)
	w := httptest.NewRecorder()
	fix.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
