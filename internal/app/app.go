package app

import (
	"context"
	"os"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/config"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/db"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/middleware"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/cache"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp wires infrastructure, applies the schema, and registers all
// modules. The expiry sweep runs once here so a restart never leaves
// yesterday's sessions showing OPEN.
func BuildApp(ctx context.Context, router *gin.Engine, cfg config.Config) error {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	logger.Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	if err := db.RunAttendanceMigration(ctx, sqlDB); err != nil {
		return err
	}
	logger.Info("schema migration applied")

	rdb, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	logger.Info("redis connection established")

	store := cache.NewTTLCache(cfg.RateCacheSize)
	go store.RunJanitor(ctx, cfg.RateCacheJanitor)

	router.Use(middleware.RequestID())

	sessionService, err := registerModules(router, gormDB, rdb, store, cfg, logger)
	if err != nil {
		return err
	}

	go sessionService.EnsureStartupSweep(ctx)

	return nil
}
