package passkey

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/cache"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const hashCacheKey = "passkey:latest"

const hashCacheTTL = 60 * time.Second

var (
	ErrNotConfigured = apperror.New(
		apperror.CodeForbidden,
		"Passkey not configured",
		http.StatusForbidden,
	)
	ErrInvalidPasskey = apperror.New(
		apperror.CodeForbidden,
		"Invalid passkey",
		http.StatusForbidden,
	)
)

//go:generate mockgen -source=passkey_service.go -destination=mock/passkey_service_mock.go -package=mock
type Verifier interface {
	Verify(ctx context.Context, candidate string) error
}

type verifier struct {
	repo   Repository
	cache  cache.Store
	logger *zap.Logger
}

func NewVerifier(repo Repository, store cache.Store, logger ...*zap.Logger) Verifier {
	l := zap.L().Named("passkey.verifier")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("passkey.verifier")
	}
	return &verifier{repo: repo, cache: store, logger: l}
}

// Verify checks the candidate against the highest-version passkey hash.
// The hash row is cached briefly so every start/close does not pay a
// store round trip.
func (v *verifier) Verify(ctx context.Context, candidate string) error {
	hash, err := v.latestHash(ctx)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) != nil {
		return ErrInvalidPasskey
	}
	return nil
}

func (v *verifier) latestHash(ctx context.Context) (string, error) {
	if v.cache != nil {
		if cached, ok := v.cache.Get(hashCacheKey); ok {
			if hash, ok := cached.(string); ok && hash != "" {
				return hash, nil
			}
		}
	}

	record, err := v.repo.FindLatest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotConfigured
		}
		v.logger.Error("load passkey failed", zap.Error(err))
		return "", err
	}
	if record.Hash == "" {
		return "", ErrNotConfigured
	}

	if v.cache != nil {
		v.cache.Set(hashCacheKey, record.Hash, hashCacheTTL)
	}
	return record.Hash, nil
}
