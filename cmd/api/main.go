package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/atharvakonge/cash-or-crash/internal/auth"
	"github.com/atharvakonge/cash-or-crash/internal/config"
	"github.com/atharvakonge/cash-or-crash/internal/db"
	"github.com/atharvakonge/cash-or-crash/internal/handlers"
	"github.com/atharvakonge/cash-or-crash/internal/locker"
	"github.com/atharvakonge/cash-or-crash/internal/logger"
	"github.com/atharvakonge/cash-or-crash/internal/market"
	"github.com/atharvakonge/cash-or-crash/internal/session"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
	"github.com/atharvakonge/cash-or-crash/internal/trading"
	"github.com/atharvakonge/cash-or-crash/internal/uploads"
)

func main() {
	cfg, envLoaded := config.Load()

	if err := logger.Init("cash-or-crash", cfg.LogLevel); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()
	lg := logger.L()

	if !envLoaded {
		lg.Info("no .env file found, using environment variables")
	}
	if cfg.SessionGenerated {
		lg.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Initialize storage
	store, err := openStore(ctx, cfg)
	if err != nil {
		lg.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	// Team locks: Redis when several replicas share one database
	var (
		locks       locker.Locker = locker.NewTeamLocks()
		rdb         *redis.Client
		authLimiter *handlers.RateLimiter
	)
	if cfg.RedisAddress != "" {
		rdb, err = locker.Connect(ctx, cfg.RedisAddress)
		if err != nil {
			lg.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		locks = locker.NewRedisLocks(rdb)
		if cfg.RateLimitEnabled {
			authLimiter = handlers.NewRateLimiter(rdb, "auth", cfg.RateLimitMax, cfg.RateLimitWindow)
		}
		lg.Info("redis connected", zap.String("address", cfg.RedisAddress))
	}

	// Initialize trade processor
	tradeProcessor := trading.NewTradeProcessor(cfg.NumWorkers, store, locks)
	tradeProcessor.Start()

	up, err := uploads.NewStore(cfg.UploadDir)
	if err != nil {
		lg.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	hub := market.NewHub(store, market.OriginChecker(cfg.IsProduction(), cfg.CORSAllowedOrigins))

	h := handlers.New(handlers.Deps{
		Store:    store,
		Trades:   tradeProcessor,
		Auth:     auth.NewService(store, cfg.AdminPassword),
		Sessions: session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction()),
		Uploads:  up,
		Hub:      hub,
	})
	router := handlers.NewRouter(h, handlers.RouterOptions{
		Production:     cfg.IsProduction(),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		UploadDir:      up.Dir,
		PublicDir:      cfg.PublicDir,
		AuthLimiter:    authLimiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		lg.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store),
			zap.Int("workers", cfg.NumWorkers),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	lg.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	hub.Close()
	tradeProcessor.Stop()
	lg.Info("server stopped")
}

// openStore picks PostgreSQL when configured and the seeded in-memory
// store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.Store != "postgres" {
		mem := storage.NewMemoryStore()
		if err := storage.Seed(ctx, mem); err != nil {
			return nil, err
		}
		logger.L().Info("using in-memory store with seed data")
		return mem, nil
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("STORE=postgres requires DATABASE_URL")
	}
	if cfg.AutoMigrate {
		if err := storage.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return storage.NewPostgresStore(conn), nil
}
