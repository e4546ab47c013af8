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

	"go.uber.org/zap"

	"github.com/tramita-labs/expediente-engine/pkg/cache"
	"github.com/tramita-labs/expediente-engine/pkg/config"
	"github.com/tramita-labs/expediente-engine/pkg/database"
	"github.com/tramita-labs/expediente-engine/pkg/handlers"
	"github.com/tramita-labs/expediente-engine/pkg/logging"
	"github.com/tramita-labs/expediente-engine/pkg/middleware"
	"github.com/tramita-labs/expediente-engine/pkg/repositories"
	"github.com/tramita-labs/expediente-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Float64("min_share_percent", cfg.Engine.MinSharePercent))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Migrations run over database/sql; the pool the app uses is pgx.
	sqlDB, err := database.OpenSQL(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database for migrations", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	cacheTTL := time.Duration(cfg.Engine.CacheTTLMinutes) * time.Minute
	var resultCache cache.ResultCache = cache.NewMemoryCache(cfg.Engine.CacheMaxEntries, cacheTTL)
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory cache only", zap.Error(err))
	} else if redisClient != nil {
		resultCache = cache.NewTiered(resultCache, cache.NewRedisCache(redisClient, cacheTTL, logger))
		defer func() { _ = redisClient.Close() }()
	}

	repo := repositories.NewCaseLogRepository(db)
	analytics := services.NewAnalyticsService(repo, resultCache, cfg.Engine.MinSharePercent, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProcedureHandler(analytics, logger).RegisterRoutes(mux)
	handlers.NewAnalyticsHandler(analytics, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting expediente-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
