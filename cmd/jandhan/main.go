// The jandhan service processes benefit claims through the five-gate
// validator and records every approved disbursement in the hash-chained
// ledger. The ledger is verified before the first request is served; a
// tampered ledger leaves the process running but frozen.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rupesh-3/jandhan/pkg/api"
	"github.com/rupesh-3/jandhan/pkg/archive"
	"github.com/rupesh-3/jandhan/pkg/claims"
	"github.com/rupesh-3/jandhan/pkg/config"
	"github.com/rupesh-3/jandhan/pkg/ledger"
	"github.com/rupesh-3/jandhan/pkg/observability"
	"github.com/rupesh-3/jandhan/pkg/registry"
	"github.com/rupesh-3/jandhan/pkg/state"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.LedgerPath), 0o700); err != nil {
		return err
	}

	st := state.New(cfg.InitialBudget)
	led := ledger.New(cfg.LedgerPath, cfg.DigestPath, func() {
		st.Freeze(state.FreezeTamper)
	})

	// Boot integrity gate: a ledger we cannot trust blocks every approval
	// until an operator intervenes and restarts.
	if led.VerifyIntegrity() {
		logger.Info("ledger verified", "head", led.Head())
	} else {
		logger.Error("ledger integrity check failed; system frozen")
	}

	reg, closeReg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeReg()

	var catalog *config.SchemeCatalog
	if cfg.SchemesPath != "" {
		catalog, err = config.LoadSchemes(cfg.SchemesPath)
		if err != nil {
			return err
		}
	}

	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "jandhan",
		ServiceVersion: "1.0.0",
		Environment:    "production",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTLPEndpoint != "",
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	validator := claims.New(st, reg, led, logger)

	var auth *api.JWTValidator
	if cfg.MasterSecret != "" {
		auth, err = api.NewJWTValidator(cfg.MasterSecret)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("JANDHAN_MASTER_SECRET unset; admin surface disabled")
	}

	srv, err := api.NewServer(validator, led, reg, catalog, auth, obs, logger)
	if err != nil {
		return err
	}

	if cfg.ArchiveBucket != "" {
		archiver, err := archive.New(ctx, archive.Config{
			Driver: archive.Driver(cfg.ArchiveDriver),
			Bucket: cfg.ArchiveBucket,
			Region: cfg.ArchiveRegion,
			Prefix: cfg.ArchivePrefix,
		})
		if err != nil {
			return err
		}
		go runArchiver(ctx, archiver, led, logger)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func openRegistry(cfg *config.Config) (registry.Registry, func(), error) {
	switch cfg.RegistryDriver {
	case "memory":
		records, err := registry.LoadCSV(cfg.RegistryPath)
		if err != nil {
			return nil, nil, err
		}
		return registry.NewMemoryRegistry(records), func() {}, nil
	case "sqlite":
		reg, err := registry.OpenSQLite(cfg.RegistryPath)
		if err != nil {
			return nil, nil, err
		}
		return reg, func() { _ = reg.Close() }, nil
	case "postgres":
		reg, err := registry.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return reg, func() { _ = reg.Close() }, nil
	default:
		return nil, nil, errors.New("unknown registry driver " + cfg.RegistryDriver)
	}
}

func runArchiver(ctx context.Context, archiver archive.Archiver, led *ledger.Ledger, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manifest, err := archiver.Archive(ctx, led.Path(), led.DigestPath())
			if err != nil {
				logger.Error("ledger archive failed", "error", err)
				continue
			}
			logger.Info("ledger archived", "entries", manifest.Entries, "object", manifest.LedgerObject)
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
