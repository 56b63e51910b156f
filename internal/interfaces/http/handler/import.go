package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pharmasync/backend/internal/application/ingest"
	"github.com/pharmasync/backend/internal/application/report"
	"github.com/pharmasync/backend/internal/application/task"
	"github.com/pharmasync/backend/internal/domain/shared"
	"github.com/pharmasync/backend/internal/infrastructure/spreadsheet"
	"go.uber.org/zap"
)

// feed binds an upload endpoint to its column layout and pipeline.
type feed struct {
	name       string
	layout     spreadsheet.Layout
	run        func(ctx context.Context, taskID string, rows []ingest.Row) (*ingest.RunResult, error)
	withReport bool
}

// ImportHandler accepts vendor workbook uploads and runs the matching
// pipeline in the background. The response carries the task id; progress
// is polled through the task endpoints.
type ImportHandler struct {
	BaseHandler
	reader        *spreadsheet.Reader
	orchestrator  *ingest.Orchestrator
	reports       *report.Builder
	tasks         task.Store
	tempDir       string
	maxUploadSize int64
	logger        *zap.Logger
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(
	reader *spreadsheet.Reader,
	orchestrator *ingest.Orchestrator,
	reports *report.Builder,
	tasks task.Store,
	tempDir string,
	maxUploadSize int64,
	logger *zap.Logger,
) *ImportHandler {
	return &ImportHandler{
		reader:        reader,
		orchestrator:  orchestrator,
		reports:       reports,
		tasks:         tasks,
		tempDir:       tempDir,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// RegisterRoutes registers all import routes
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/import")
	{
		imports.POST("/inventory", h.uploadFeed(feed{
			name:       "inventory",
			layout:     spreadsheet.InventoryLayout{},
			run:        h.orchestrator.RunInventoryFeed,
			withReport: true,
		}))
		// The category feed ships in the metadata layout: VAT liability
		// and the supplier come from its category and supplier columns.
		imports.POST("/vat", h.uploadFeed(feed{
			name:       "category-vat",
			layout:     spreadsheet.MetadataLayout{},
			run:        h.orchestrator.RunCategoryVATFeed,
			withReport: true,
		}))
		imports.POST("/metadata", h.uploadFeed(feed{
			name:   "metadata",
			layout: spreadsheet.MetadataLayout{},
			run:    h.orchestrator.RunMetadataFeed,
		}))
		imports.POST("/products", h.uploadFeed(feed{
			name:   "products",
			layout: spreadsheet.InventoryLayout{},
			run:    h.orchestrator.RunCatalogFeed,
		}))
		imports.GET("/tasks/:id", h.GetTask)
		imports.GET("/tasks/:id/report", h.DownloadReport)
	}
}

// UploadResponse is returned on accepted uploads.
type UploadResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// TaskResponse is the task polling payload.
type TaskResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Log       []string `json:"log"`
	HasReport bool     `json:"has_report"`
}

func (h *ImportHandler) uploadFeed(f feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			h.BadRequest(c, "file is required")
			return
		}
		defer file.Close()

		if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
			h.Error(c, http.StatusRequestEntityTooLarge, "ERR_VALIDATION",
				fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxUploadSize))
			return
		}

		taskID := uuid.New().String()
		path := filepath.Join(h.tempDir, taskID+filepath.Ext(header.Filename))
		if err := os.MkdirAll(h.tempDir, 0o755); err != nil {
			h.InternalError(c, "failed to prepare upload directory")
			return
		}
		if err := c.SaveUploadedFile(header, path); err != nil {
			h.InternalError(c, "failed to store uploaded file")
			return
		}

		t := &task.Task{
			ID:     taskID,
			Name:   f.name,
			Status: task.StatusProcessing,
		}
		if err := h.tasks.Create(c.Request.Context(), t); err != nil {
			h.InternalError(c, "failed to register task")
			return
		}

		go h.process(f, taskID, path)

		h.Accepted(c, UploadResponse{TaskID: taskID, Status: string(task.StatusProcessing)})
	}
}

// process runs one upload end to end. It owns its own context because
// the request that started it has already been answered.
func (h *ImportHandler) process(f feed, taskID, path string) {
	ctx := context.Background()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("failed to remove upload", zap.String("path", path), zap.Error(err))
		}
	}()

	fail := func(err error) {
		h.logger.Error("import task failed",
			zap.String("task_id", taskID),
			zap.String("feed", f.name),
			zap.Error(err))
		h.appendLog(ctx, taskID, fmt.Sprintf("error: %s", err))
		if serr := h.tasks.SetStatus(ctx, taskID, task.StatusFailed); serr != nil {
			h.logger.Warn("failed to mark task failed", zap.String("task_id", taskID), zap.Error(serr))
		}
	}

	h.appendLog(ctx, taskID, fmt.Sprintf("reading workbook with %s layout", f.layout.Name()))
	rows, rowErrs, err := h.reader.Read(path, f.layout)
	if err != nil {
		fail(err)
		return
	}
	for _, re := range rowErrs {
		h.appendLog(ctx, taskID, fmt.Sprintf("rejected %s", re.Error()))
	}
	if len(rows) == 0 {
		fail(errors.New("workbook has no usable rows"))
		return
	}

	result, err := f.run(ctx, taskID, rows)
	if err != nil {
		fail(err)
		return
	}

	if f.withReport && len(result.PurchaseIDs) > 0 {
		reportPath, err := h.reports.Build(ctx, taskID, result.PurchaseIDs)
		if err != nil {
			// A finished import with a missing report is still a
			// finished import.
			h.logger.Warn("report generation failed", zap.String("task_id", taskID), zap.Error(err))
			h.appendLog(ctx, taskID, fmt.Sprintf("report generation failed: %s", err))
			return
		}
		if err := h.tasks.SetReportPath(ctx, taskID, reportPath); err != nil {
			h.logger.Warn("failed to record report path", zap.String("task_id", taskID), zap.Error(err))
		}
	}
}

func (h *ImportHandler) appendLog(ctx context.Context, taskID, line string) {
	if err := h.tasks.AppendLog(ctx, taskID, line); err != nil {
		h.logger.Warn("failed to append task log", zap.String("task_id", taskID), zap.Error(err))
	}
}

// GetTask returns the status and log of one task.
func (h *ImportHandler) GetTask(c *gin.Context) {
	t, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, shared.ErrNotFound) {
		h.NotFound(c, "task not found")
		return
	}
	if err != nil {
		h.InternalError(c, "failed to load task")
		return
	}
	h.Success(c, TaskResponse{
		ID:        t.ID,
		Name:      t.Name,
		Status:    string(t.Status),
		Log:       t.Log,
		HasReport: t.ReportPath != "",
	})
}

// DownloadReport streams the generated report workbook.
func (h *ImportHandler) DownloadReport(c *gin.Context) {
	t, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, shared.ErrNotFound) {
		h.NotFound(c, "task not found")
		return
	}
	if err != nil {
		h.InternalError(c, "failed to load task")
		return
	}
	if t.ReportPath == "" {
		h.NotFound(c, "task has no report")
		return
	}
	if _, err := os.Stat(t.ReportPath); err != nil {
		h.NotFound(c, "report file no longer exists")
		return
	}
	filename := fmt.Sprintf("import-report-%s.xlsx", time.Now().Format("2006-01-02"))
	c.FileAttachment(t.ReportPath, filename)
}
