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

	"github.com/loveos/couple-api/internal/api"
	"github.com/loveos/couple-api/internal/api/metrics"
	"github.com/loveos/couple-api/internal/core/service"
	"github.com/loveos/couple-api/internal/infrastructure/config"
	"github.com/loveos/couple-api/internal/infrastructure/seed"
	"github.com/loveos/couple-api/internal/infrastructure/worker"
	"github.com/loveos/couple-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title                       Love OS couple API
// @version                     1.0
// @description                 Accounts, bearer sessions and partner linking for couples.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "couple-api:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "couple-api",
	})

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close(log)

	partners := service.NewPartnerService(store.users, log)
	auth := service.NewAuthService(
		store.users,
		service.NewPasswordAuthenticator(store.users),
		store.revocations,
		cfg.JWTSecret,
		cfg.TokenTTL,
		log,
	)
	couple := service.NewCoupleService(store.users, partners)

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, cfg.SeedFile, seed.NewSeeder(auth, partners, store.users, log)); err != nil {
			return err
		}
	}

	reconciler := worker.NewReconciler(partners, cfg.ReconcileInterval, metrics.ObserveReconcile, log)
	reconcilerDone := reconciler.Start(ctx)

	e := api.NewRouter(api.Deps{
		Auth:           auth,
		Partners:       partners,
		Couple:         couple,
		Checks:         store.checks,
		LoginRateLimit: cfg.LoginRateLimit,
		Log:            log,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	<-reconcilerDone

	log.Info().Msg("server stopped")
	return nil
}

func applySeed(ctx context.Context, path string, seeder *seed.Seeder) error {
	f, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	if _, err := seeder.Apply(ctx, f); err != nil {
		return fmt.Errorf("seed accounts %s: %w", path, err)
	}
	return nil
}
