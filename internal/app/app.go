package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"lumiere/internal/cache"
	"lumiere/internal/config"
	"lumiere/internal/database"
	"lumiere/internal/event"
	"lumiere/internal/handler"
	"lumiere/internal/objectstore"
	"lumiere/internal/repository"
	"lumiere/internal/router"
	"lumiere/internal/service"
)

const tokenSweepInterval = 15 * time.Minute

// sessionStore is a token store that can also drop expired rows.
type sessionStore interface {
	service.TokenStore
	CleanExpired(ctx context.Context) (int64, error)
}

type App struct {
	cfg          *config.Config
	server       *http.Server
	tokens       sessionStore
	audit        *service.AuditService
	checks       []handler.DependencyCheck
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseDSN(), cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)
	a.checks = append(a.checks, handler.DependencyCheck{Name: "database", Check: db.Ping})

	if err := db.EnsureSchema(ctx); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	galleryRepo := repository.NewGalleryRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	tokens, err := a.openTokenStore(ctx, db)
	if err != nil {
		a.cleanup()
		return nil, err
	}
	a.tokens = tokens

	codec, err := newTokenCodec(cfg)
	if err != nil {
		a.cleanup()
		return nil, err
	}

	objects, err := objectstore.NewS3Store(ctx, objectstore.Options{
		Region:          cfg.AWSRegion,
		Bucket:          cfg.S3Bucket,
		Endpoint:        cfg.S3Endpoint,
		UsePathStyle:    cfg.S3UsePathStyle,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}

	bus := event.NewBus()

	authService, err := service.NewAuthService(userRepo, tokens, codec, bus, service.AuthConfig{
		TokenTTL:   cfg.TokenTTL(),
		BcryptCost: cfg.BcryptCost,
		Debug:      cfg.Debug,
	})
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	galleryService := service.NewGalleryService(galleryRepo, objects, bus, cfg.PresignTTL())
	a.audit = service.NewAuditService(auditRepo, bus)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	appRouter := router.New(cfg, authService, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Gallery: handler.NewGalleryHandler(galleryService, cfg.MaxUploadSize),
		Health:  handler.NewHealthHandler(cfg.APIVersion, cfg.Location(), a.checks...),
		Audit:   handler.NewAuditHandler(a.audit),
	}, registry)

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

func (a *App) openTokenStore(ctx context.Context, db *database.DB) (sessionStore, error) {
	switch a.cfg.TokenStore {
	case config.TokenStoreRedis:
		c, err := cache.New(ctx, a.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = c.Close() })
		a.checks = append(a.checks, handler.DependencyCheck{Name: "redis", Check: c.Ping})
		slog.Info("token store ready", "backend", "redis")
		return cache.NewTokenStore(c), nil
	case config.TokenStoreMemory:
		slog.Warn("token store is in-memory, sessions are lost on restart")
		return repository.NewMemoryTokenStore(), nil
	default:
		slog.Info("token store ready", "backend", "postgres")
		return repository.NewTokenRepository(db.Pool), nil
	}
}

func newTokenCodec(cfg *config.Config) (service.TokenCodec, error) {
	switch cfg.TokenCodec {
	case config.TokenCodecJWT:
		return service.NewJWTCodec(cfg.TokenSecret), nil
	case config.TokenCodecOpaque, "":
		return service.NewOpaqueCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported token codec %q", cfg.TokenCodec)
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	workers, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		a.audit.Run(workers)
	}()
	go func() {
		defer wg.Done()
		sweepTokens(workers, a.tokens, tokenSweepInterval)
	}()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr, "base_path", a.cfg.BasePath)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	stopWorkers()
	wg.Wait()
	a.cleanup()

	if runErr == nil {
		slog.Info("server stopped")
	}
	return runErr
}

func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}

// sweepTokens drops expired sessions on every tick until ctx is done.
func sweepTokens(ctx context.Context, store sessionStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanExpired(ctx)
			if err != nil {
				slog.Warn("expired token sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("expired tokens removed", "count", removed)
			}
		}
	}
}
