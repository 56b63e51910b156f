package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmasync/backend/internal/application/ingest"
	"github.com/pharmasync/backend/internal/application/report"
	"github.com/pharmasync/backend/internal/application/task"
	"github.com/pharmasync/backend/internal/infrastructure/config"
	"github.com/pharmasync/backend/internal/infrastructure/logger"
	"github.com/pharmasync/backend/internal/infrastructure/persistence"
	"github.com/pharmasync/backend/internal/infrastructure/spreadsheet"
	infratask "github.com/pharmasync/backend/internal/infrastructure/task"
	"github.com/pharmasync/backend/internal/interfaces/http/handler"
	"github.com/pharmasync/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Task store: in-process by default, Redis when configured so task
	// state survives restarts and is shared across instances.
	var tasks task.Store
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cancel()
		defer client.Close()
		tasks = infratask.NewRedisStore(client, cfg.Import.TaskTTL)
		log.Info("Using Redis task store", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memStore := task.NewMemoryStore(cfg.Import.TaskTTL, log)
		defer memStore.Close()
		tasks = memStore
	}

	posting := ingest.PostingConfig{
		SourceWarehouse: ingest.Warehouse{
			ID:   cfg.Import.SourceWarehouse.ID,
			Code: cfg.Import.SourceWarehouse.Code,
			Name: cfg.Import.SourceWarehouse.Name,
		},
		DestWarehouse: ingest.Warehouse{
			ID:   cfg.Import.DestWarehouse.ID,
			Code: cfg.Import.DestWarehouse.Code,
			Name: cfg.Import.DestWarehouse.Name,
		},
		CreatedBy: cfg.Import.CreatedBy,
	}
	posting.DefaultSupplier.ID = cfg.Import.DefaultSupplierID
	posting.DefaultSupplier.Name = cfg.Import.DefaultSupplier

	orchestrator := ingest.NewOrchestrator(
		persistence.NewGormIngestTransactionScope(db.DB),
		tasks,
		ingest.NewReconciler(ingest.UpdatePolicy(cfg.Import.ReconcilePolicy), log),
		ingest.NewPoster(posting, log),
		ingest.NewCategoryPolicy(decimal.NewFromFloat(cfg.Import.VATRate), cfg.Import.VATLiableCategories),
		cfg.Import.BatchSize,
		cfg.Import.ResyncPrices,
		log,
	)

	reports := report.NewBuilder(
		persistence.NewGormReportRepository(db.DB),
		cfg.Import.ReportDir,
		log,
	)

	importHandler := handler.NewImportHandler(
		spreadsheet.NewReader(log),
		orchestrator,
		reports,
		tasks,
		cfg.Import.TempDir,
		cfg.HTTP.MaxUploadSize,
		log,
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	router.NewRouter(engine).
		Register(importHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
