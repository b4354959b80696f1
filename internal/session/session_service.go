package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/events"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/messaging/kafka"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/passkey"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/period"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/ratelimit"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/section"
	sessionerrors "github.com/sobit-woxsen/wou-attendance-qr/internal/session/errors"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/contextutil"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/identity"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config carries the lifecycle tunables. The retry cap and idempotency
// TTL are configuration, not constants.
type Config struct {
	BaseURL         string
	TokenRetryLimit int
	IdempotencyTTL  time.Duration
}

//go:generate mockgen -source=session_service.go -destination=mock/session_service_mock.go -package=mock
type Service interface {
	Start(ctx context.Context, p StartParams) (StartResult, error)
	Close(ctx context.Context, sessionID string, silent bool) (*CloseResult, error)
	SweepExpired(ctx context.Context) (SweepResult, error)
	EnsureStartupSweep(ctx context.Context)
	ActiveForSection(ctx context.Context, sectionID int64) (*Session, error)
	PublicByShortCode(ctx context.Context, shortCode string) (*Session, error)
	GetByID(ctx context.Context, id string) (*Session, error)
}

type service struct {
	db       *gorm.DB
	repo     Repository
	sections section.Service
	passkeys passkey.Verifier
	limiter  ratelimit.Service
	policy   *period.Policy
	hasher   identity.Hasher
	outbox   kafka.OutboxRepository
	cfg      Config
	logger   *zap.Logger

	// Guards the process-wide startup sweep: the first caller runs it,
	// concurrent callers wait for that same run.
	startupSweep sync.Once

	now func() time.Time
}

func NewService(
	db *gorm.DB,
	repo Repository,
	sections section.Service,
	passkeys passkey.Verifier,
	limiter ratelimit.Service,
	policy *period.Policy,
	hasher identity.Hasher,
	outbox kafka.OutboxRepository,
	cfg Config,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("session.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("session.service")
	}
	if cfg.TokenRetryLimit <= 0 {
		cfg.TokenRetryLimit = 5
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 60 * time.Second
	}
	return &service{
		db:       db,
		repo:     repo,
		sections: sections,
		passkeys: passkeys,
		limiter:  limiter,
		policy:   policy,
		hasher:   hasher,
		outbox:   outbox,
		cfg:      cfg,
		logger:   l,
		now:      time.Now,
	}
}

func (s *service) Start(ctx context.Context, p StartParams) (StartResult, error) {
	s.EnsureStartupSweep(ctx)
	rid := contextutil.GetRequestID(ctx)

	if err := s.passkeys.Verify(ctx, p.Passkey); err != nil {
		return StartResult{}, err
	}

	now := s.policy.Now()
	window, ok := s.policy.Current(now)
	if !ok {
		return StartResult{}, sessionerrors.ErrOutsidePeriod
	}

	sec, err := s.sections.GetByID(ctx, p.SectionID)
	if err != nil {
		return StartResult{}, err
	}

	ipHash := s.hasher.HashIP(p.ClientIP)
	if err := s.limiter.EnforceStart(ctx, ipHash); err != nil {
		return StartResult{}, err
	}

	// Self-heal before the uniqueness check so a stale expired session
	// does not block a legitimate new one.
	if err := s.lazyCloseSection(ctx, sec.ID); err != nil {
		return StartResult{}, err
	}

	open, err := s.repo.FindOpenBySection(ctx, sec.ID)
	if err != nil {
		return StartResult{}, err
	}
	if open != nil {
		return StartResult{}, sessionerrors.ErrSessionAlreadyActive
	}

	idemKey := strings.TrimSpace(p.IdempotencyKey)
	if idemKey != "" {
		if existing, err := s.idempotentReplay(ctx, idemKey); err != nil {
			return StartResult{}, err
		} else if existing != nil {
			s.logger.Info("start replayed from idempotency key",
				zap.String("request_id", rid),
				zap.String("session_id", existing.ID.String()),
			)
			return s.startResult(existing, p.Origin), nil
		}
	}

	endLocal := s.policy.SessionEnd(now, window)

	for attempt := 0; attempt < s.cfg.TokenRetryLimit; attempt++ {
		token, err := identity.GenerateToken(32)
		if err != nil {
			return StartResult{}, err
		}
		shortCode, err := identity.GenerateShortCode()
		if err != nil {
			return StartResult{}, err
		}

		sess := &Session{
			ID:          uuid.New(),
			SectionID:   sec.ID,
			PeriodID:    window.ID,
			DateLocal:   s.policy.LocalDate(now),
			Course:      strings.TrimSpace(p.Course),
			FacultyName: strings.TrimSpace(p.FacultyName),
			Token:       token,
			TokenTail:   token[len(token)-6:],
			ShortCode:   shortCode,
			Status:      StatusOpen,
			StartAtUTC:  now.UTC(),
			EndAtUTC:    endLocal.UTC(),
			StartIPHash: ipHash,
		}

		created, winner, retry, err := s.createInTx(ctx, sess, idemKey)
		if err != nil {
			return StartResult{}, err
		}
		if winner != nil {
			s.logger.Info("start lost idempotency race, returning winner",
				zap.String("request_id", rid),
				zap.String("session_id", winner.ID.String()),
			)
			return s.startResult(winner, p.Origin), nil
		}
		if retry {
			continue
		}

		s.logger.Info("session started",
			zap.String("request_id", rid),
			zap.String("session_id", created.ID.String()),
			zap.Int64("section_id", sec.ID),
			zap.String("period_id", window.ID),
			zap.Time("ends_at", created.EndAtUTC),
		)
		return s.startResult(created, p.Origin), nil
	}

	s.logger.Error("token generation retries exhausted",
		zap.String("request_id", rid),
		zap.Int("attempts", s.cfg.TokenRetryLimit),
	)
	return StartResult{}, sessionerrors.ErrTokenGeneration
}

// createInTx runs the atomic creation step: idempotency-key reservation
// plus session insert, committing together or not at all. It reports
// (created, nil, false) on success, (nil, winner, false) when a
// concurrent start with the same key won, and (nil, nil, true) when a
// token or shortCode collision calls for regeneration.
func (s *service) createInTx(ctx context.Context, sess *Session, idemKey string) (*Session, *Session, bool, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, nil, false, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if idemKey != "" {
		record := &IdempotencyKey{
			Key:       idemKey,
			SectionID: sess.SectionID,
			ExpiresAt: s.now().Add(s.cfg.IdempotencyTTL),
		}
		if err := qtx.CreateIdempotencyKey(ctx, record); err != nil {
			if name, ok := uniqueViolation(err); ok && (name == constraintIdempotencyKey || name == "") {
				// The insert aborted this transaction; the winner's row
				// must be read back on a fresh connection.
				tx.Rollback()
				winner, werr := s.awaitIdempotentWinner(ctx, idemKey)
				if werr != nil {
					return nil, nil, false, werr
				}
				if winner != nil {
					return nil, winner, false, nil
				}
				return nil, nil, false, sessionerrors.ErrConflictingStart
			}
			return nil, nil, false, err
		}
	}

	if err := qtx.Create(ctx, sess); err != nil {
		name, ok := uniqueViolation(err)
		if !ok {
			return nil, nil, false, err
		}
		tx.Rollback()
		switch name {
		case constraintToken, constraintShortCode, "":
			return nil, nil, true, nil
		case constraintOneOpen:
			return nil, nil, false, sessionerrors.ErrSessionAlreadyActive
		default:
			return nil, nil, false, sessionerrors.ErrConflictingStart
		}
	}

	if idemKey != "" {
		if err := qtx.SaveIdempotencyKey(ctx, &IdempotencyKey{
			Key:       idemKey,
			SectionID: sess.SectionID,
			SessionID: &sess.ID,
			ExpiresAt: s.now().Add(s.cfg.IdempotencyTTL),
		}); err != nil {
			return nil, nil, false, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, false, err
	}
	return sess, nil, false, nil
}

// idempotentReplay returns the session a still-valid idempotency key
// already resolved to, or nil when the key is unknown or expired. An
// expired key is deleted so the primary-key slot can be reserved again.
func (s *service) idempotentReplay(ctx context.Context, key string) (*Session, error) {
	record, err := s.repo.FindIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	if record.ExpiresAt.After(s.now()) && record.SessionID != nil {
		sess, err := s.repo.FindByID(ctx, record.SessionID.String())
		if err != nil {
			return nil, err
		}
		return sess, nil
	}

	if !record.ExpiresAt.After(s.now()) {
		if err := s.db.WithContext(ctx).Delete(&IdempotencyKey{}, "key = ?", key).Error; err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// awaitIdempotentWinner polls briefly for the winning start to commit.
// Bounded: a handful of short waits, never unbounded.
func (s *service) awaitIdempotentWinner(ctx context.Context, key string) (*Session, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for attempt := 0; attempt < 5; attempt++ {
		record, err := s.repo.FindIdempotencyKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if record != nil && record.SessionID != nil && record.ExpiresAt.After(s.now()) {
			return s.repo.FindByID(ctx, record.SessionID.String())
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
	return nil, nil
}

func (s *service) Close(ctx context.Context, sessionID string, silent bool) (*CloseResult, error) {
	now := s.now().UTC()

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	sess, err := qtx.FindByID(ctx, sessionID)
	if err != nil {
		if silent && isNotFound(err) {
			return nil, nil
		}
		if isNotFound(err) {
			return nil, sessionerrors.ErrSessionNotFound
		}
		return nil, err
	}

	if sess.Status != StatusOpen {
		log, err := qtx.FindLogBySession(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		return &CloseResult{Session: sess, Log: log}, nil
	}

	presentCount, err := qtx.CountSubmissions(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	if err := qtx.MarkClosed(ctx, sess.ID, now); err != nil {
		return nil, err
	}
	sess.Status = StatusClosed
	sess.ClosedAtUTC = &now

	durationSec := int(now.Sub(sess.StartAtUTC) / time.Second)
	if durationSec < 1 {
		durationSec = 1
	}

	log := &SessionLog{
		SessionID:    sess.ID,
		SectionID:    sess.SectionID,
		PeriodID:     sess.PeriodID,
		DateLocal:    sess.DateLocal,
		Course:       sess.Course,
		FacultyName:  sess.FacultyName,
		StartAtUTC:   sess.StartAtUTC,
		EndAtUTC:     sess.EndAtUTC,
		ClosedAtUTC:  now,
		DurationSec:  durationSec,
		PresentCount: int(presentCount),
		Status:       StatusClosed,
		StartIPHash:  sess.StartIPHash,
	}
	if err := qtx.UpsertLog(ctx, log); err != nil {
		return nil, err
	}

	if s.outbox != nil {
		event := events.SessionClosedEvent{
			EventType:    events.TypeSessionClosed,
			SessionID:    sess.ID.String(),
			SectionID:    sess.SectionID,
			PeriodID:     sess.PeriodID,
			DateLocal:    sess.DateLocal,
			PresentCount: int(presentCount),
			DurationSec:  durationSec,
			ClosedAtUTC:  now,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return nil, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     contextutil.GetRequestID(ctx),
			AggregateType: "session",
			AggregateID:   sess.ID.String(),
			EventType:     event.EventType,
			Topic:         events.SessionLifecycleTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.logger.Info("session closed",
		zap.String("session_id", sess.ID.String()),
		zap.Int("present_count", int(presentCount)),
		zap.Int("duration_sec", durationSec),
		zap.Bool("silent", silent),
	)
	return &CloseResult{Session: sess, Log: log}, nil
}

// SweepExpired closes every OPEN session past its end time. One
// session's failure does not abort the sweep of the others.
func (s *service) SweepExpired(ctx context.Context) (SweepResult, error) {
	started := s.now()

	expired, err := s.repo.FindOpenExpired(ctx, started.UTC())
	if err != nil {
		return SweepResult{}, err
	}

	closed := 0
	for _, sess := range expired {
		if _, err := s.Close(ctx, sess.ID.String(), true); err != nil {
			s.logger.Error("sweep close failed",
				zap.String("session_id", sess.ID.String()),
				zap.Error(err),
			)
			continue
		}
		closed++
	}

	result := SweepResult{
		Scanned:  len(expired),
		Closed:   closed,
		Duration: s.now().Sub(started),
	}
	if result.Scanned > 0 {
		s.logger.Info("sweep completed",
			zap.Int("scanned", result.Scanned),
			zap.Int("closed", result.Closed),
			zap.Duration("duration", result.Duration),
		)
	}
	return result, nil
}

// EnsureStartupSweep runs the expiry sweep exactly once per process.
// Concurrent callers share the single in-flight run.
func (s *service) EnsureStartupSweep(ctx context.Context) {
	s.startupSweep.Do(func() {
		if _, err := s.SweepExpired(ctx); err != nil {
			s.logger.Error("startup sweep failed", zap.Error(err))
		}
	})
}

// ActiveForSection returns the OPEN session for a section, closing a
// stale expired one first. The re-query after a lazy close is a single
// bounded retry, not recursion.
func (s *service) ActiveForSection(ctx context.Context, sectionID int64) (*Session, error) {
	s.EnsureStartupSweep(ctx)

	for attempt := 0; attempt < 2; attempt++ {
		sess, err := s.repo.FindOpenBySection(ctx, sectionID)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			return nil, nil
		}
		if !sess.Expired(s.now()) {
			return sess, nil
		}
		if _, err := s.Close(ctx, sess.ID.String(), true); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// PublicByShortCode resolves the shareable-link lookup, self-healing an
// expired OPEN session before returning it.
func (s *service) PublicByShortCode(ctx context.Context, shortCode string) (*Session, error) {
	s.EnsureStartupSweep(ctx)

	var sess *Session
	for attempt := 0; attempt < 2; attempt++ {
		found, err := s.repo.FindByShortCode(ctx, shortCode)
		if err != nil {
			if isNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		sess = found
		if sess.Status != StatusOpen || !sess.Expired(s.now()) {
			return sess, nil
		}
		if _, err := s.Close(ctx, sess.ID.String(), true); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

func (s *service) lazyCloseSection(ctx context.Context, sectionID int64) error {
	sess, err := s.repo.FindOpenBySection(ctx, sectionID)
	if err != nil {
		return err
	}
	if sess == nil || !sess.Expired(s.now()) {
		return nil
	}
	_, err = s.Close(ctx, sess.ID.String(), true)
	return err
}

func (s *service) startResult(sess *Session, origin string) StartResult {
	return StartResult{
		SessionID: sess.ID.String(),
		ShortURL:  s.buildShortURL(origin, sess.ShortCode, sess.Token),
		TokenTail: sess.TokenTail,
		EndsAt:    sess.EndAtUTC.In(s.policy.Location()),
		PeriodID:  sess.PeriodID,
	}
}

func (s *service) buildShortURL(origin, shortCode, token string) string {
	base := origin
	if base == "" {
		base = s.cfg.BaseURL
	}
	base = strings.TrimSuffix(base, "/")
	return base + "/s/" + shortCode + "?t=" + token
}

func isNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound || (err != nil && strings.Contains(err.Error(), "record not found"))
}
