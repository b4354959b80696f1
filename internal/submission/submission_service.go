package submission

import (
	"context"
	"crypto/subtle"
	"regexp"
	"strings"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/ratelimit"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/session"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/identity"
	submissionerrors "github.com/sobit-woxsen/wou-attendance-qr/internal/submission/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var rollPattern = regexp.MustCompile(`^[A-Za-z0-9\-_/]+$`)

//go:generate mockgen -source=submission_service.go -destination=mock/submission_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, p SubmitParams) (SubmitResult, error)
}

type service struct {
	repo     Repository
	sessions session.Service
	limiter  ratelimit.Service
	hasher   identity.Hasher
	logger   *zap.Logger

	now func() time.Time
}

func NewService(
	repo Repository,
	sessions session.Service,
	limiter ratelimit.Service,
	hasher identity.Hasher,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("submission.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("submission.service")
	}
	return &service{
		repo:     repo,
		sessions: sessions,
		limiter:  limiter,
		hasher:   hasher,
		logger:   l,
		now:      time.Now,
	}
}

// Submit records one student's check-in against an OPEN session. The
// checks run cheapest-first: token and window before any rate-limit
// query, rate limits before the device lookup, and the unique index as
// the final word on duplicate rolls.
func (s *service) Submit(ctx context.Context, p SubmitParams) (SubmitResult, error) {
	roll := strings.ToUpper(strings.TrimSpace(p.Roll))
	if !rollPattern.MatchString(roll) {
		return SubmitResult{}, submissionerrors.ErrInvalidRoll
	}
	name := strings.TrimSpace(p.Name)

	sess, err := s.sessions.GetByID(ctx, p.SessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if sess == nil {
		return SubmitResult{}, submissionerrors.ErrSessionMissing
	}

	if subtle.ConstantTimeCompare([]byte(sess.Token), []byte(p.Token)) != 1 {
		return SubmitResult{}, submissionerrors.ErrTokenMismatch
	}

	now := s.now().UTC()
	if now.Before(sess.StartAtUTC) {
		return SubmitResult{}, submissionerrors.ErrNotOpenYet
	}
	if sess.Status != session.StatusOpen || sess.Expired(now) {
		if sess.Status == session.StatusOpen {
			if _, err := s.sessions.Close(ctx, sess.ID.String(), true); err != nil {
				s.logger.Error("lazy close on submit failed",
					zap.String("session_id", sess.ID.String()),
					zap.Error(err),
				)
			}
		}
		return SubmitResult{}, submissionerrors.ErrSessionGone
	}

	ipHash := s.hasher.HashIP(p.ClientIP)
	if err := s.limiter.EnforceSubmit(ctx, ipHash, roll); err != nil {
		return SubmitResult{}, err
	}

	deviceHash := s.hasher.DeviceFingerprint(p.UserAgent, p.AcceptLanguage, p.AcceptEncoding)
	if deviceHash != "" {
		dup, err := s.repo.FindDeviceDuplicate(ctx, sess.SectionID, sess.DateLocal, sess.PeriodID, deviceHash)
		if err != nil {
			return SubmitResult{}, err
		}
		if dup != nil {
			return SubmitResult{}, submissionerrors.ErrDeviceAlreadyUsed
		}
	}

	record := &AttendanceSubmission{
		ID:             uuid.New(),
		SessionID:      sess.ID,
		SectionID:      sess.SectionID,
		PeriodID:       sess.PeriodID,
		DateLocal:      sess.DateLocal,
		Roll:           roll,
		Name:           name,
		IPHash:         ipHash,
		DeviceHash:     deviceHash,
		UserAgentHash:  s.hasher.HashUserAgent(p.UserAgent),
		SubmittedAtUTC: now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if name, ok := uniqueViolation(err); ok && (name == constraintSessionRoll || name == "") {
			// First write wins; the retry sees the same success it would
			// have gotten the first time.
			existing, ferr := s.repo.FindBySessionAndRoll(ctx, sess.ID, roll)
			if ferr != nil {
				return SubmitResult{}, ferr
			}
			result := SubmitResult{Roll: roll, AlreadySubmitted: true}
			if existing != nil {
				result.SubmissionID = existing.ID.String()
				result.Name = existing.Name
				result.SubmittedAt = existing.SubmittedAtUTC
			}
			return result, nil
		}
		return SubmitResult{}, err
	}

	s.limiter.InvalidateSubmit(ipHash, roll)

	s.logger.Info("submission recorded",
		zap.String("session_id", sess.ID.String()),
		zap.String("submission_id", record.ID.String()),
		zap.Int64("section_id", sess.SectionID),
		zap.String("period_id", sess.PeriodID),
	)
	return SubmitResult{
		SubmissionID: record.ID.String(),
		Roll:         roll,
		Name:         name,
		SubmittedAt:  record.SubmittedAtUTC,
	}, nil
}
