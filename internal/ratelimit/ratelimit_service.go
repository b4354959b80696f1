package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/cache"

	"go.uber.org/zap"
)

var (
	ErrStartLimited = apperror.New(
		apperror.CodeRateLimit,
		"Start rate limit exceeded. Try again shortly.",
		http.StatusTooManyRequests,
	)
	ErrSubmitIPLimited = apperror.New(
		apperror.CodeRateLimit,
		"Submission rate limit exceeded for this device.",
		http.StatusTooManyRequests,
	)
	ErrSubmitRollLimited = apperror.New(
		apperror.CodeRateLimit,
		"Submission rate limit exceeded for this roll number.",
		http.StatusTooManyRequests,
	)
)

type Limits struct {
	StartLimit   int
	StartWindow  time.Duration
	SubmitIP     int
	SubmitRoll   int
	SubmitWindow time.Duration
	CacheTTL     time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		StartLimit:   5,
		StartWindow:  15 * time.Minute,
		SubmitIP:     60,
		SubmitRoll:   5,
		SubmitWindow: time.Minute,
		CacheTTL:     45 * time.Second,
	}
}

// Service is the approximate sliding-window abuse gate. Durable counts
// are fronted by a short-TTL cache, so a burst may briefly see a stale
// count; the cache is invalidated on every successful submission to
// bound the error.
//
//go:generate mockgen -source=ratelimit_service.go -destination=mock/ratelimit_service_mock.go -package=mock
type Service interface {
	EnforceStart(ctx context.Context, ipHash string) error
	EnforceSubmit(ctx context.Context, ipHash, roll string) error
	InvalidateSubmit(ipHash, roll string)
}

type service struct {
	repo   Repository
	cache  cache.Store
	limits Limits
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, store cache.Store, limits Limits, logger ...*zap.Logger) Service {
	l := zap.L().Named("ratelimit.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ratelimit.service")
	}
	if limits.StartLimit <= 0 {
		limits = DefaultLimits()
	}
	return &service{
		repo:   repo,
		cache:  store,
		limits: limits,
		logger: l,
		now:    time.Now,
	}
}

func (s *service) EnforceStart(ctx context.Context, ipHash string) error {
	count, err := s.countCached(ctx, startKey(ipHash), func() (int64, error) {
		return s.repo.CountStartsSince(ctx, ipHash, s.now().Add(-s.limits.StartWindow))
	})
	if err != nil {
		return err
	}
	if count >= int64(s.limits.StartLimit) {
		s.logger.Warn("start rate limit hit", zap.String("ip_hash", ipHash))
		return ErrStartLimited
	}
	return nil
}

func (s *service) EnforceSubmit(ctx context.Context, ipHash, roll string) error {
	since := s.now().Add(-s.limits.SubmitWindow)

	ipCount, err := s.countCached(ctx, submitIPKey(ipHash), func() (int64, error) {
		return s.repo.CountSubmitsByIPSince(ctx, ipHash, since)
	})
	if err != nil {
		return err
	}
	if ipCount >= int64(s.limits.SubmitIP) {
		s.logger.Warn("submit ip rate limit hit", zap.String("ip_hash", ipHash))
		return ErrSubmitIPLimited
	}

	rollCount, err := s.countCached(ctx, submitRollKey(roll), func() (int64, error) {
		return s.repo.CountSubmitsByRollSince(ctx, roll, since)
	})
	if err != nil {
		return err
	}
	if rollCount >= int64(s.limits.SubmitRoll) {
		s.logger.Warn("submit roll rate limit hit", zap.String("roll", roll))
		return ErrSubmitRollLimited
	}

	return nil
}

// InvalidateSubmit drops the two cache entries touched by a successful
// submission so the next check re-queries fresh counts.
func (s *service) InvalidateSubmit(ipHash, roll string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(submitIPKey(ipHash))
	s.cache.Delete(submitRollKey(roll))
}

func (s *service) countCached(ctx context.Context, key string, query func() (int64, error)) (int64, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if count, ok := cached.(int64); ok {
				return count, nil
			}
		}
	}

	count, err := query()
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		s.cache.Set(key, count, s.limits.CacheTTL)
	}
	return count, nil
}

func startKey(ipHash string) string {
	return "rl:start:" + ipHash
}

func submitIPKey(ipHash string) string {
	return "rl:submit:ip:" + ipHash
}

func submitRollKey(roll string) string {
	return "rl:submit:roll:" + roll
}
