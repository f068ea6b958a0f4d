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

	"go.uber.org/zap"

	"hirehub.dev/internal/assets"
	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/board"
	"hirehub.dev/internal/config"
	"hirehub.dev/internal/httpapi"
	"hirehub.dev/internal/migrate"
	"hirehub.dev/internal/obs"
	"hirehub.dev/internal/store/pg"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// backend is the persistence the API runs on.
type backend interface {
	board.Store
	auth.AccountStore
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hirehub-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	obs.SetLogger(logger)
	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store backend
		ready httpapi.ReadyProbe
	)
	if cfg.DatabaseURL != "" && !cfg.MemoryStore {
		pgStore, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer pgStore.Close()
		if err := migrate.NewManager(pgStore.DB()).Up(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store, ready = pgStore, httpapi.ReadyProbe{DB: pgStore}
	} else {
		logger.Warn("running on the in-memory store; data is lost on exit")
		store = board.NewInMemory()
	}

	hasher, err := auth.NewHasher(cfg.PasswordAlgo, cfg.BcryptCost)
	if err != nil {
		return err
	}
	authority, err := auth.NewAuthority(store, cfg.JWTSecret,
		auth.WithIssuer(cfg.JWTIssuer),
		auth.WithTTL(cfg.TokenTTL),
		auth.WithHasher(hasher),
	)
	if err != nil {
		return err
	}

	svcOpts := []board.Option{
		board.WithLogger(logger.Named("board")),
		board.WithCleanupTimeout(cfg.CleanupTimeout),
	}
	apiOpts := []httpapi.Option{
		httpapi.WithReadyProbe(ready),
		httpapi.WithVersion(version),
		httpapi.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		httpapi.WithCORSOrigins(cfg.CORSOrigins),
		httpapi.WithLogger(logger.Named("http")),
	}
	if cfg.Assets.Enabled() {
		s3Store, err := assets.NewS3(ctx, assets.S3Config{
			Bucket:          cfg.Assets.Bucket,
			Region:          cfg.Assets.Region,
			Endpoint:        cfg.Assets.Endpoint,
			PublicURL:       cfg.Assets.PublicURL,
			AccessKeyID:     cfg.Assets.AccessKeyID,
			SecretAccessKey: cfg.Assets.SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("asset store: %w", err)
		}
		svcOpts = append(svcOpts, board.WithAssets(s3Store))
		apiOpts = append(apiOpts, httpapi.WithAssetStore(s3Store))
	}

	svc, err := board.NewService(store, hasher, svcOpts...)
	if err != nil {
		return err
	}
	api := httpapi.New(svc, authority, apiOpts...)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting hirehub-api", zap.String("version", version), zap.String("addr", srv.Addr))
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
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
