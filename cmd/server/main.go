package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/loyalty-ledger/internal/app"
	"github.com/hongminglow/loyalty-ledger/internal/config"
	"github.com/hongminglow/loyalty-ledger/internal/ledger"
	"github.com/hongminglow/loyalty-ledger/internal/metrics"
	"github.com/hongminglow/loyalty-ledger/internal/points"
	"github.com/hongminglow/loyalty-ledger/internal/server"
	"github.com/hongminglow/loyalty-ledger/internal/storage"
	"github.com/hongminglow/loyalty-ledger/internal/storage/leveldb"
	"github.com/hongminglow/loyalty-ledger/internal/storage/memory"
	"github.com/hongminglow/loyalty-ledger/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, logCloser := app.NewLogger(cfg.Log)
	err = run(cfg, logger)
	if err != nil {
		logger.Error("server stopped", slog.Any("error", err))
	}
	_ = logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()
	kv, err := openKV(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init %s storage: %w", cfg.StorageDriver, err)
	}
	defer kv.Close()

	calc, err := points.NewCalculator(cfg.ExchangeRate)
	if err != nil {
		return fmt.Errorf("init points calculator: %w", err)
	}

	repo := storage.NewCustomerRepository(kv, logger)
	store := ledger.New(repo, calc, logger, ledger.WithCurrency(cfg.Currency))
	if err := store.Init(ctx); err != nil {
		// A ledger that failed to load refuses every save.
		return fmt.Errorf("load customers: %w", err)
	}

	m := metrics.New()
	m.SetCustomers(len(store.List()))
	srv := server.New(cfg, store, m, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("loyalty ledger listening",
			slog.String("addr", cfg.HTTPAddress()),
			slog.String("storage", cfg.StorageDriver))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case <-sigCh:
	case serveErr = <-errCh:
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", slog.Any("error", err))
	}
	if err := store.Flush(ctxShutdown); err != nil {
		logger.Error("final flush failed", slog.Any("error", err))
	}
	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

func openKV(ctx context.Context, cfg config.Config) (storage.KV, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverLevelDB:
		store, err := leveldb.Open(cfg.LevelDBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.NewKVStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
