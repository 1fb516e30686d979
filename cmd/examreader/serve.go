package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/exam-reader-service/internal/cache"
	"github.com/SAP-F-2025/exam-reader-service/internal/config"
	"github.com/SAP-F-2025/exam-reader-service/internal/handlers"
	"github.com/SAP-F-2025/exam-reader-service/internal/ocr"
	"github.com/SAP-F-2025/exam-reader-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-reader-service/internal/services"
	"github.com/SAP-F-2025/exam-reader-service/pkg"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP grading API",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", "", "HTTP listen address (defaults to :$PORT)")
	addLogFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	logger := setupLogging(v)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := services.ExamServiceDeps{
		OCR:            ocr.NewFactory(cfg.OcrPreferredProvider, logger),
		DefaultOptions: cfg.Grading,
		CacheTTL:       cfg.AnalyticsCacheTTL,
		Logger:         logger,
	}

	if cfg.PersistenceEnabled {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return err
		}
		if err := pkg.Migrate(db); err != nil {
			return err
		}
		deps.Repo = postgres.NewExamRunPostgreSQL(db)
		logger.Info("Run persistence enabled")
	}

	if cfg.CacheEnabled {
		client, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		deps.Cache = cache.NewRedisCache(client, logger)
		logger.Info("Analytics cache enabled", "ttl", cfg.AnalyticsCacheTTL)
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return fmt.Errorf("create event publisher: %w", err)
	}
	defer publisher.Close()
	deps.Publisher = publisher

	router := handlers.NewHandlerManager(services.NewExamService(deps), logger).NewRouter()

	addr := v.GetString("addr")
	if addr == "" {
		addr = ":" + cfg.Port
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", addr, "environment", cfg.Environment)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
		return err
	}
	return nil
}
