package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/bkante/entrepot/internal/audit"
	excelaudit "github.com/bkante/entrepot/internal/audit/excel"
	sheetsaudit "github.com/bkante/entrepot/internal/audit/sheets"
	"github.com/bkante/entrepot/internal/config"
	"github.com/bkante/entrepot/internal/repository"
	"github.com/bkante/entrepot/internal/repository/mongodb"
	"github.com/bkante/entrepot/internal/repository/sqlite"
	"github.com/bkante/entrepot/internal/scanner"
	"github.com/bkante/entrepot/internal/scheduler"
	"github.com/bkante/entrepot/internal/server/handlers"
	"github.com/bkante/entrepot/internal/server/router"
	snapshotsvc "github.com/bkante/entrepot/internal/service/snapshot"
	workflowsvc "github.com/bkante/entrepot/internal/service/workflow"
	"github.com/bkante/entrepot/pkg/clients/scanbridge"
	"github.com/bkante/entrepot/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := newStore(cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init inventory store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close inventory store", zap.Error(err))
		}
	}()

	auditLog, err := newAuditLog(cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init audit log", zap.Error(err))
	}

	scan, err := newScanner(cfg)
	if err != nil {
		baseLogger.Fatal("failed to init scanner", zap.Error(err))
	}

	workflowSvc := workflowsvc.NewService(store, auditLog, scan, handlers.RequestDecider{}, baseLogger.Named("svc.workflow"))
	workflowHandler := handlers.NewWorkflowHandler(workflowSvc, baseLogger.Named("handlers.workflow"))
	engine := router.New(workflowHandler, baseLogger.Named("router"))

	snapshotSvc := snapshotsvc.NewService(store, cfg.Snapshot.OutputPath, baseLogger.Named("svc.snapshot"))
	sched := scheduler.NewScheduler(cfg.Snapshot.CronSchedule, snapshotSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newStore(cfg *config.Config, baseLogger *zap.Logger) (repository.InventoryStore, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		baseLogger.Info("using mongodb inventory store", zap.String("database", cfg.Store.MongoDB))
		return mongodb.NewStore(context.Background(), cfg.Store.MongoURI, cfg.Store.MongoDB)
	default:
		baseLogger.Info("using sqlite inventory store", zap.String("path", cfg.Store.SQLitePath))
		return sqlite.NewStore(cfg.Store.SQLitePath)
	}
}

func newAuditLog(cfg *config.Config, baseLogger *zap.Logger) (audit.Logger, error) {
	switch cfg.Audit.Sink {
	case config.AuditSinkSheets:
		return sheetsaudit.NewSink(context.Background(),
			cfg.Audit.SheetsCredentialsPath, cfg.Audit.SpreadsheetID, cfg.Audit.SheetRange,
			baseLogger.Named("audit.sheets"))
	default:
		return excelaudit.NewSink(cfg.Audit.ExcelPath, baseLogger.Named("audit.excel"))
	}
}

func newScanner(cfg *config.Config) (scanner.Scanner, error) {
	switch cfg.Scanner.Mode {
	case config.ScannerModeBridge:
		client := scanbridge.NewClient(cfg.Scanner.BridgeURL, cfg.Scanner.Timeout)
		return scanner.NewBridge(client, cfg.Scanner.Timeout), nil
	case config.ScannerModeConsole:
		return scanner.NewConsole(os.Stdin), nil
	default:
		return handlers.RequestScanner{}, nil
	}
}
