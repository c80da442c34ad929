// Copyright (c) 2026 Wearmint. All rights reserved.

// Command api is the entry point for the Wearmint catalog HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire upstream clients (minting provider, scheduler, CMS).
//  7. Wire domain services and HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wearmint/catalog/internal/api"
	"github.com/wearmint/catalog/internal/catalog/collection"
	"github.com/wearmint/catalog/internal/catalog/drop"
	"github.com/wearmint/catalog/internal/catalog/edition"
	"github.com/wearmint/catalog/internal/catalog/nft"
	"github.com/wearmint/catalog/internal/catalog/serie"
	"github.com/wearmint/catalog/internal/cms"
	"github.com/wearmint/catalog/internal/minting"
	"github.com/wearmint/catalog/internal/platform/config"
	"github.com/wearmint/catalog/internal/platform/constants"
	"github.com/wearmint/catalog/internal/platform/migration"
	pgstore "github.com/wearmint/catalog/internal/platform/postgres"
	redisstore "github.com/wearmint/catalog/internal/platform/redis"
	"github.com/wearmint/catalog/internal/platform/sec"
	"github.com/wearmint/catalog/internal/scheduler"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lifetime context for long-lived background workers (rate limiter
	// cleanup). Cancelled when main exits.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Upstream Clients ───────────────────────────────────────────────
	verifier, err := sec.NewTokenVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt verifier")

	mintClient := minting.NewClient(
		cfg.MintAPIURL, cfg.MintAPIKey,
		cfg.NftStorageName, cfg.FtName, cfg.FtStorageName,
		log,
	)
	definitions := minting.NewDefinitions(mintClient, rdb, cfg.EnumCacheTTL, log)
	jobs := scheduler.NewClient(cfg.SchedulerURL, log)
	wearables := cms.NewClient(cfg.CmsURL, cfg.CmsAPIToken, log)

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	// Services are built leaf-first; the cyclic edges (serie → collection,
	// serie/collection → edition SKU cascade, edition → confirmer) are wired
	// with setters afterwards.
	nftService := nft.NewService(nft.NewPostgresRepository(pool), log)

	serieService := serie.NewService(serie.NewPostgresRepository(pool), mintClient, jobs, log)
	collectionService := collection.NewService(collection.NewPostgresRepository(pool), mintClient, jobs, serieService, log)

	editionService := edition.NewService(
		edition.NewPostgresRepository(pool),
		mintClient,
		wearables,
		definitions,
		jobs,
		collectionService,
		serieService,
		nftService,
		cfg.WearableImages, cfg.WearableVideos,
		cfg.MintTryLimit,
		log,
	)

	confirmer := edition.NewConfirmer(mintClient, editionService, cfg.PollingInterval, cfg.ConfirmTimeout, log)
	editionService.SetConfirmations(confirmer)

	serieService.SetCollectionCascade(collectionService)
	serieService.SetSKUCascade(editionService)
	collectionService.SetSKUCascade(editionService)

	dropService := drop.NewService(drop.NewPostgresRepository(pool), mintClient, jobs, editionService, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		Enumerations: api.NewEnumerationsHandler(definitions),
		Serie:        serie.NewHandler(serieService),
		Collection:   collection.NewHandler(collectionService),
		Edition:      edition.NewHandler(editionService),
		Drop:         drop.NewHandler(dropService),
		NFT:          nft.NewHandler(nftService),
	}

	server := api.NewServer(appCtx, cfg, log, verifier, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// In-flight confirmation polls finish on their own detached contexts.
	confirmer.Wait()

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
