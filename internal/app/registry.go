package app

import (
	"github.com/sobit-woxsen/wou-attendance-qr/internal/admin"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/config"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/messaging/kafka"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/passkey"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/period"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/ratelimit"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/report"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/section"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/session"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/cache"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/identity"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/submission"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
	store cache.Store,
	cfg config.Config,
	logger *zap.Logger,
) (session.Service, error) {
	policy, err := period.LoadPolicy(cfg.Timezone, nil, cfg.SessionWindow)
	if err != nil {
		return nil, err
	}
	hasher := identity.NewHasher(cfg.IPHashSalt, cfg.DeviceHashSalt)

	// --- Repositories ---
	sectionRepo := section.NewRepository(gormDB)
	passkeyRepo := passkey.NewRepository(gormDB)
	rateRepo := ratelimit.NewRepository(gormDB)
	sessionRepo := session.NewRepository(gormDB)
	submissionRepo := submission.NewRepository(gormDB)
	adminRepo := admin.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- Services ---
	sectionService := section.NewService(sectionRepo, rdb, logger)
	passkeyVerifier := passkey.NewVerifier(passkeyRepo, store, logger)
	limiter := ratelimit.NewService(rateRepo, store, ratelimit.Limits{
		StartLimit:   cfg.StartLimit,
		StartWindow:  cfg.StartWindow,
		SubmitIP:     cfg.SubmitIPLimit,
		SubmitRoll:   cfg.SubmitRollLimit,
		SubmitWindow: cfg.SubmitWindow,
		CacheTTL:     cfg.RateCacheTTL,
	}, logger)
	sessionService := session.NewService(
		gormDB,
		sessionRepo,
		sectionService,
		passkeyVerifier,
		limiter,
		policy,
		hasher,
		outboxRepo,
		session.Config{
			BaseURL:         cfg.BaseURL,
			TokenRetryLimit: cfg.TokenRetryLimit,
			IdempotencyTTL:  cfg.IdempotencyTTL,
		},
		logger,
	)
	submissionService := submission.NewService(submissionRepo, sessionService, limiter, hasher, logger)
	reportService := report.NewService(sessionRepo, sessionService, submissionRepo, policy, logger)
	adminService := admin.NewService(adminRepo, sessionRepo, sectionRepo, submissionRepo, cfg.JWTSecret, logger)

	// --- Handlers ---
	periodHandler := period.NewHandler(policy)
	sectionHandler := section.NewHandler(sectionService)
	sessionHandler := session.NewHandler(sessionService, passkeyVerifier, policy, logger)
	submissionHandler := submission.NewHandler(submissionService, logger)
	reportHandler := report.NewHandler(reportService, logger)
	adminHandler := admin.NewHandler(adminService, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		period.RegisterRoutes(api, periodHandler)
		section.RegisterRoutes(api, sectionHandler)
		session.RegisterRoutes(api, sessionHandler, cfg.CronSecret, logger)
		session.RegisterAdminRoutes(api, sessionHandler, cfg.JWTSecret, logger)
		submission.RegisterRoutes(api, submissionHandler, logger)
		report.RegisterRoutes(api, reportHandler, cfg.JWTSecret, logger)
		admin.RegisterRoutes(api, adminHandler, cfg.JWTSecret, logger)
	}

	session.RegisterPublicRoutes(router, sessionHandler, logger)

	return sessionService, nil
}
