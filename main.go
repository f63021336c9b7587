package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/datapilot-labs/datapilot-engine/pkg/config"
	"github.com/datapilot-labs/datapilot-engine/pkg/database"
	"github.com/datapilot-labs/datapilot-engine/pkg/executor"
	"github.com/datapilot-labs/datapilot-engine/pkg/handlers"
	"github.com/datapilot-labs/datapilot-engine/pkg/llm"
	"github.com/datapilot-labs/datapilot-engine/pkg/logging"
	"github.com/datapilot-labs/datapilot-engine/pkg/middleware"
	"github.com/datapilot-labs/datapilot-engine/pkg/repositories"
	"github.com/datapilot-labs/datapilot-engine/pkg/retry"
	"github.com/datapilot-labs/datapilot-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrateDatabase(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	client, err := llm.NewClient(&llm.ProviderConfig{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	generator := llm.NewGenerator(client, cfg.LLM.Model, logger)

	runner := executor.NewRunner(executor.Config{
		PythonBin: cfg.Executor.PythonBin,
		BaseDir:   cfg.Executor.WorkDir,
		Timeout:   cfg.Executor.Timeout,
	}, logger)

	queryRepo := repositories.NewQueryRepository(db)
	historyRepo := repositories.NewDatasetHistoryRepository(db)
	resultRepo := repositories.NewAnalysisResultRepository(db)

	analysisService := services.NewAnalysisService(
		generator, runner, queryRepo, resultRepo, cfg.LLM.RequestTimeout, logger)
	datasetService := services.NewDatasetService(
		historyRepo, time.Duration(cfg.Retention.StaleAfterDays)*24*time.Hour, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewAnalysisHandler(analysisService, logger).RegisterRoutes(mux)
	handlers.NewHistoryHandler(datasetService, queryRepo, resultRepo, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting datapilot-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// connectDatabase connects with retries so the engine survives a
// database that is still starting up.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	return retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		db, err := database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		})
		if err != nil {
			logger.Warn("Database not ready, will retry",
				zap.String("error", logging.SanitizeError(err)))
		}
		return db, err
	})
}

func migrateDatabase(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}
