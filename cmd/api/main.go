package main

import (
	"context"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/app"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/bootstrap"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/config"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()
	cfg := config.Load()

	r := gin.Default()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.BuildApp(ctx, r, cfg); err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}

	auditLogger := bootstrap.NewStdoutAuditLogger()
	bootstrap.StartHTTPServer(
		r,
		bootstrap.ServerConfig{
			Port:         cfg.Port,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		auditLogger,
	)
}
