package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/config"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/messaging/kafka"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/messaging/kafka/producer"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/passkey"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/period"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/ratelimit"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/section"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/session"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/cache"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/connection"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/identity"

	"go.uber.org/zap"
)

const sweepInterval = time.Minute

// RunWorker drives the two background loops: the outbox producer that
// relays lifecycle events to kafka, and the periodic sweep that closes
// sessions whose window elapsed with no one hitting the API.
func RunWorker(cfg config.Config) error {
	logger := zap.L().Named("app.worker")

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

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	policy, err := period.LoadPolicy(cfg.Timezone, nil, cfg.SessionWindow)
	if err != nil {
		return err
	}

	store := cache.NewTTLCache(cfg.RateCacheSize)
	outboxRepo := kafka.NewOutboxRepository(gormDB)
	sessionRepo := session.NewRepository(gormDB)
	sessionService := session.NewService(
		gormDB,
		sessionRepo,
		section.NewService(section.NewRepository(gormDB), nil, logger),
		passkey.NewVerifier(passkey.NewRepository(gormDB), store, logger),
		ratelimit.NewService(ratelimit.NewRepository(gormDB), store, ratelimit.DefaultLimits(), logger),
		policy,
		identity.NewHasher(cfg.IPHashSalt, cfg.DeviceHashSalt),
		outboxRepo,
		session.Config{
			BaseURL:         cfg.BaseURL,
			TokenRetryLimit: cfg.TokenRetryLimit,
			IdempotencyTTL:  cfg.IdempotencyTTL,
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)

	go runSweepLoop(ctx, sessionService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

func runSweepLoop(ctx context.Context, svc session.Service, logger *zap.Logger) {
	log := logger.Named("sweep")
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	log.Info("sweep loop started", zap.Duration("interval", sweepInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("sweep loop stopped")
			return
		case <-ticker.C:
			if _, err := svc.SweepExpired(ctx); err != nil {
				log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}
