package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/budget"
	"tally/internal/config"
	apphttp "tally/internal/http"
	"tally/internal/ledger"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/session"
	"tally/internal/storage"
	mem "tally/internal/storage/memory"
)

func main() {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	logger := applog.New(applog.ComponentApp, applog.Config{Level: slog.LevelInfo})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	var store ledger.Store
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open ledger database", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		store = repo
		rememberDatabase(logger, cfg.SQLiteDBPath)
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		store = mem.New()
		logger.Info("Initialized memory backend")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Events are best-effort; the ledger works without them.
			logger.Warn("AMQP unavailable, ledger events disabled", "error", err)
		} else {
			logger.Info("Connected to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	engine := budget.NewEngine(store)
	service := services.NewExpenseService(store, amqpClient)
	defer func() {
		if err := service.Close(); err != nil {
			logger.Error("Close error", "error", err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, store, engine, service, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tally server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// rememberDatabase records the opened database path so the next run (and
// the report CLI) can default to it.
func rememberDatabase(logger *applog.Logger, path string) {
	dir, err := session.DefaultDir()
	if err != nil {
		logger.Warn("Session directory unavailable", "error", err)
		return
	}
	st, err := session.Open(dir)
	if err != nil {
		logger.Warn("Session store unavailable", "error", err)
		return
	}
	defer st.Close()
	if err := st.Set(session.KeyLastDatabase, path); err != nil {
		logger.Warn("Failed to record last database", "error", err)
	}
}
