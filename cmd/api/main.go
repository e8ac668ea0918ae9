package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/federation-tools/membership-checker/internal/adapters/csvimport"
	"github.com/federation-tools/membership-checker/internal/adapters/httpapi"
	memidempotency "github.com/federation-tools/membership-checker/internal/adapters/memory/idempotency"
	memmembershiprepo "github.com/federation-tools/membership-checker/internal/adapters/memory/membershiprepo"
	postgres "github.com/federation-tools/membership-checker/internal/adapters/postgres"
	pgidempotency "github.com/federation-tools/membership-checker/internal/adapters/postgres/idempotency"
	pgmembershiprepo "github.com/federation-tools/membership-checker/internal/adapters/postgres/membershiprepo"
	"github.com/federation-tools/membership-checker/internal/app/memberships"
	platformclock "github.com/federation-tools/membership-checker/internal/platform/clock"
	"github.com/federation-tools/membership-checker/internal/platform/config"
	"github.com/federation-tools/membership-checker/internal/platform/logging"
	"github.com/federation-tools/membership-checker/internal/platform/metrics"
	idempotencyport "github.com/federation-tools/membership-checker/internal/ports/out/idempotency"
	membershiprepoport "github.com/federation-tools/membership-checker/internal/ports/out/membershiprepo"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo      membershiprepoport.Repository
		idemStore idempotencyport.Store
	)
	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return fmt.Errorf("invalid postgres config: %w", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		repo = pgmembershiprepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	default:
		repo = memmembershiprepo.NewRepo()
		idemStore = memidempotency.NewStore()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := memberships.NewService(repo, platformclock.NewSystemClock(), logger, metrics.New(reg))
	if err := svc.Load(ctx); err != nil {
		return fmt.Errorf("load memberships: %w", err)
	}
	if cfg.MembershipsFile != "" {
		if err := importFile(ctx, svc, cfg.MembershipsFile); err != nil {
			return err
		}
	}

	handler := httpapi.NewRouter(httpapi.NewServer(svc, idemStore, logger), httpapi.RouterOptions{Gatherer: reg})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func importFile(ctx context.Context, svc *memberships.Service, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open memberships file: %w", err)
	}
	defer f.Close()

	ms, err := csvimport.ParseMemberships(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := svc.ImportMemberships(ctx, ms); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	return nil
}
