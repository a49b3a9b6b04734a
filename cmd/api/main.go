package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"scango/internal/basket"
	"scango/internal/httpapi"
	"scango/pkg/config"
	"scango/pkg/db"
)

func newLogger(appEnv string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if appEnv == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.AppEnv)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.InstallReady() {
		logger.Warn("install flow not configured; /v1/auth/install will answer 500 until SHOPIFY_SHOP, SHOPIFY_API_KEY, SHOPIFY_SCOPES and APP_URL are set")
	}
	if !cfg.Shopify.AdminReady() {
		logger.Warn("SHOPIFY_ADMIN_TOKEN not set; product lookups and orders will answer 500")
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseConfigured() {
		var err error
		dsn := db.Redacted(db.RuntimeConnString(cfg))
		pool, err = db.Open(ctx, cfg)
		if err != nil {
			logger.Fatal("db open", zap.String("dsn", dsn), zap.Error(err))
		}
		defer pool.Close()
		logger.Info("db connected", zap.String("dsn", dsn))

		if cfg.MigrationsPath != "" {
			if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
				logger.Fatal("migrate", zap.Error(err))
			}
		}
		logger.Info("submissions ledger enabled")
	} else {
		logger.Info("no database configured; orders will not be recorded")
	}

	var store basket.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis url", zap.Error(err))
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		store = basket.NewRedisStore(client)
		logger.Info("baskets stored in redis", zap.String("addr", opts.Addr))
	} else {
		mem := basket.NewMemoryStore(nil)
		go mem.Run(ctx, time.Minute)
		store = mem
		logger.Info("baskets stored in process memory")
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:     cfg,
		Logger:  logger,
		DB:      pool,
		Baskets: store,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}
