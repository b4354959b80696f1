package admin

import (
	"context"
	"time"

	adminerrors "github.com/sobit-woxsen/wou-attendance-qr/internal/admin/errors"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/section"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/session"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/submission"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 12 * time.Hour

//go:generate mockgen -source=admin_service.go -destination=mock/admin_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Health(ctx context.Context) (HealthSnapshot, error)
}

type service struct {
	repo      Repository
	sessions  session.Repository
	sections  section.Repository
	subs      submission.Repository
	jwtSecret string
	logger    *zap.Logger

	now func() time.Time
}

func NewService(
	repo Repository,
	sessions session.Repository,
	sections section.Repository,
	subs submission.Repository,
	jwtSecret string,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("admin.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("admin.service")
	}
	return &service{
		repo:      repo,
		sessions:  sessions,
		sections:  sections,
		subs:      subs,
		jwtSecret: jwtSecret,
		logger:    l,
		now:       time.Now,
	}
}

// Login verifies credentials and issues a short-lived HS256 token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if user == nil {
		// Burn a comparison anyway so the miss costs the same as a hit.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
			[]byte(password),
		)
		return LoginResult{}, adminerrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("admin login rejected", zap.String("email", email))
		return LoginResult{}, adminerrors.ErrInvalidCredentials
	}

	expiresAt := s.now().Add(tokenLifetime)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": user.ID.String(),
		"email":    user.Email,
		"iat":      s.now().Unix(),
		"exp":      expiresAt.Unix(),
	})

	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return LoginResult{}, err
	}

	s.logger.Info("admin logged in", zap.String("admin_id", user.ID.String()))
	return LoginResult{Token: signed, ExpiresAt: expiresAt}, nil
}

func (s *service) Health(ctx context.Context) (HealthSnapshot, error) {
	openSessions, err := s.sessions.CountOpen(ctx)
	if err != nil {
		return HealthSnapshot{}, err
	}
	totalSections, err := s.sections.Count(ctx)
	if err != nil {
		return HealthSnapshot{}, err
	}
	recent, err := s.subs.CountSince(ctx, s.now().Add(-time.Hour))
	if err != nil {
		return HealthSnapshot{}, err
	}

	return HealthSnapshot{
		OpenSessions:        openSessions,
		TotalSections:       totalSections,
		SubmissionsLastHour: recent,
		Timestamp:           s.now().UTC(),
	}, nil
}
