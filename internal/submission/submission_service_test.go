package submission

import (
	"context"
	"testing"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/session"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/identity"
	submissionerrors "github.com/sobit-woxsen/wou-attendance-qr/internal/submission/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	createFn              func(ctx context.Context, s *AttendanceSubmission) error
	findBySessionRollFn   func(ctx context.Context, sessionID uuid.UUID, roll string) (*AttendanceSubmission, error)
	findDeviceDuplicateFn func(ctx context.Context, sectionID int64, dateLocal, periodID, deviceHash string) (*AttendanceSubmission, error)
	listBySessionFn       func(ctx context.Context, sessionID uuid.UUID) ([]AttendanceSubmission, error)
	countSinceFn          func(ctx context.Context, since time.Time) (int64, error)
}

func (f *fakeRepo) Create(ctx context.Context, s *AttendanceSubmission) error {
	return f.createFn(ctx, s)
}
func (f *fakeRepo) FindBySessionAndRoll(ctx context.Context, sessionID uuid.UUID, roll string) (*AttendanceSubmission, error) {
	return f.findBySessionRollFn(ctx, sessionID, roll)
}
func (f *fakeRepo) FindDeviceDuplicate(ctx context.Context, sectionID int64, dateLocal, periodID, deviceHash string) (*AttendanceSubmission, error) {
	return f.findDeviceDuplicateFn(ctx, sectionID, dateLocal, periodID, deviceHash)
}
func (f *fakeRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]AttendanceSubmission, error) {
	return f.listBySessionFn(ctx, sessionID)
}
func (f *fakeRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return f.countSinceFn(ctx, since)
}

type fakeSessions struct {
	getByIDFn func(ctx context.Context, id string) (*session.Session, error)
	closeFn   func(ctx context.Context, sessionID string, silent bool) (*session.CloseResult, error)
}

func (f *fakeSessions) Start(ctx context.Context, p session.StartParams) (session.StartResult, error) {
	return session.StartResult{}, nil
}
func (f *fakeSessions) Close(ctx context.Context, sessionID string, silent bool) (*session.CloseResult, error) {
	if f.closeFn != nil {
		return f.closeFn(ctx, sessionID, silent)
	}
	return nil, nil
}
func (f *fakeSessions) SweepExpired(ctx context.Context) (session.SweepResult, error) {
	return session.SweepResult{}, nil
}
func (f *fakeSessions) EnsureStartupSweep(ctx context.Context) {}
func (f *fakeSessions) ActiveForSection(ctx context.Context, sectionID int64) (*session.Session, error) {
	return nil, nil
}
func (f *fakeSessions) PublicByShortCode(ctx context.Context, shortCode string) (*session.Session, error) {
	return nil, nil
}
func (f *fakeSessions) GetByID(ctx context.Context, id string) (*session.Session, error) {
	return f.getByIDFn(ctx, id)
}

type fakeLimiter struct {
	enforceSubmitFn func(ctx context.Context, ipHash, roll string) error
	invalidated     []string
}

func (f *fakeLimiter) EnforceStart(ctx context.Context, ipHash string) error { return nil }
func (f *fakeLimiter) EnforceSubmit(ctx context.Context, ipHash, roll string) error {
	if f.enforceSubmitFn != nil {
		return f.enforceSubmitFn(ctx, ipHash, roll)
	}
	return nil
}
func (f *fakeLimiter) InvalidateSubmit(ipHash, roll string) {
	f.invalidated = append(f.invalidated, roll)
}

func openSession() *session.Session {
	return &session.Session{
		ID:         uuid.New(),
		SectionID:  7,
		PeriodID:   "P2",
		DateLocal:  "2026-03-02",
		Token:      "valid-token-0123456789abcdef",
		Status:     session.StatusOpen,
		StartAtUTC: time.Now().UTC().Add(-time.Minute),
		EndAtUTC:   time.Now().UTC().Add(8 * time.Minute),
	}
}

func submitParams(sess *session.Session) SubmitParams {
	return SubmitParams{
		SessionID:      sess.ID.String(),
		Token:          sess.Token,
		Roll:           "21wu0101",
		Name:           "  Asha Verma ",
		ClientIP:       "203.0.113.50",
		UserAgent:      "Mozilla/5.0",
		AcceptLanguage: "en-IN",
		AcceptEncoding: "gzip",
	}
}

func newTestService(repo Repository, sessions session.Service, limiter *fakeLimiter) Service {
	return NewService(repo, sessions, limiter, identity.NewHasher("ip-salt", "device-salt"))
}

func TestSubmit_HappyPathNormalizesInput(t *testing.T) {
	sess := openSession()
	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return sess, nil },
	}

	var created *AttendanceSubmission
	repo := &fakeRepo{
		createFn: func(ctx context.Context, s *AttendanceSubmission) error {
			created = s
			return nil
		},
		findDeviceDuplicateFn: func(ctx context.Context, sectionID int64, dateLocal, periodID, deviceHash string) (*AttendanceSubmission, error) {
			assert.Equal(t, int64(7), sectionID)
			assert.Equal(t, "2026-03-02", dateLocal)
			assert.Equal(t, "P2", periodID)
			return nil, nil
		},
	}
	limiter := &fakeLimiter{}

	svc := newTestService(repo, sessions, limiter)

	result, err := svc.Submit(context.Background(), submitParams(sess))
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "21WU0101", created.Roll)
	assert.Equal(t, "Asha Verma", created.Name)
	assert.Equal(t, sess.ID, created.SessionID)
	assert.NotEmpty(t, created.IPHash)
	assert.NotEmpty(t, created.DeviceHash)
	assert.NotEmpty(t, created.UserAgentHash)

	assert.False(t, result.AlreadySubmitted)
	assert.Equal(t, created.ID.String(), result.SubmissionID)
	assert.Equal(t, []string{"21WU0101"}, limiter.invalidated)
}

func TestSubmit_InvalidRoll(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeSessions{}, &fakeLimiter{})

	params := SubmitParams{Roll: "roll number!", Name: "x"}
	_, err := svc.Submit(context.Background(), params)
	assert.ErrorIs(t, err, submissionerrors.ErrInvalidRoll)
}

func TestSubmit_UnknownSession(t *testing.T) {
	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return nil, nil },
	}
	svc := newTestService(&fakeRepo{}, sessions, &fakeLimiter{})

	params := submitParams(openSession())
	_, err := svc.Submit(context.Background(), params)
	assert.ErrorIs(t, err, submissionerrors.ErrSessionMissing)
}

func TestSubmit_TokenMismatch(t *testing.T) {
	sess := openSession()
	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return sess, nil },
	}
	svc := newTestService(&fakeRepo{}, sessions, &fakeLimiter{})

	params := submitParams(sess)
	params.Token = "some-other-token-9999999999"
	_, err := svc.Submit(context.Background(), params)
	assert.ErrorIs(t, err, submissionerrors.ErrTokenMismatch)
}

func TestSubmit_BeforeWindowOpens(t *testing.T) {
	sess := openSession()
	sess.StartAtUTC = time.Now().UTC().Add(time.Minute)
	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return sess, nil },
	}
	svc := newTestService(&fakeRepo{}, sessions, &fakeLimiter{})

	_, err := svc.Submit(context.Background(), submitParams(sess))
	assert.ErrorIs(t, err, submissionerrors.ErrNotOpenYet)
}

func TestSubmit_ExpiredSessionIsLazyClosed(t *testing.T) {
	sess := openSession()
	sess.EndAtUTC = time.Now().UTC().Add(-time.Second)

	closed := false
	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return sess, nil },
		closeFn: func(ctx context.Context, sessionID string, silent bool) (*session.CloseResult, error) {
			closed = true
			assert.True(t, silent)
			return nil, nil
		},
	}
	svc := newTestService(&fakeRepo{}, sessions, &fakeLimiter{})

	_, err := svc.Submit(context.Background(), submitParams(sess))
	assert.ErrorIs(t, err, submissionerrors.ErrSessionGone)
	assert.True(t, closed)
}

func TestSubmit_ClosedSessionNotReclosed(t *testing.T) {
	sess := openSession()
	sess.Status = session.StatusClosed

	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return sess, nil },
		closeFn: func(ctx context.Context, sessionID string, silent bool) (*session.CloseResult, error) {
			t.Fatal("CLOSED session must not be closed again")
			return nil, nil
		},
	}
	svc := newTestService(&fakeRepo{}, sessions, &fakeLimiter{})

	_, err := svc.Submit(context.Background(), submitParams(sess))
	assert.ErrorIs(t, err, submissionerrors.ErrSessionGone)
}

func TestSubmit_DeviceDuplicateRejected(t *testing.T) {
	sess := openSession()
	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return sess, nil },
	}
	repo := &fakeRepo{
		findDeviceDuplicateFn: func(ctx context.Context, sectionID int64, dateLocal, periodID, deviceHash string) (*AttendanceSubmission, error) {
			return &AttendanceSubmission{ID: uuid.New()}, nil
		},
		createFn: func(ctx context.Context, s *AttendanceSubmission) error {
			t.Fatal("duplicate device must not create a row")
			return nil
		},
	}
	svc := newTestService(repo, sessions, &fakeLimiter{})

	_, err := svc.Submit(context.Background(), submitParams(sess))
	assert.ErrorIs(t, err, submissionerrors.ErrDeviceAlreadyUsed)
}

func TestSubmit_NoUserAgentSkipsDeviceDedup(t *testing.T) {
	sess := openSession()
	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return sess, nil },
	}
	repo := &fakeRepo{
		findDeviceDuplicateFn: func(ctx context.Context, sectionID int64, dateLocal, periodID, deviceHash string) (*AttendanceSubmission, error) {
			t.Fatal("device lookup must be skipped without a user agent")
			return nil, nil
		},
		createFn: func(ctx context.Context, s *AttendanceSubmission) error {
			assert.Empty(t, s.DeviceHash)
			return nil
		},
	}
	svc := newTestService(repo, sessions, &fakeLimiter{})

	params := submitParams(sess)
	params.UserAgent = ""
	_, err := svc.Submit(context.Background(), params)
	assert.NoError(t, err)
}

func TestSubmit_DuplicateRollIsIdempotentSuccess(t *testing.T) {
	sess := openSession()
	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return sess, nil },
	}

	existingID := uuid.New()
	submittedAt := time.Now().UTC().Add(-time.Minute)
	repo := &fakeRepo{
		findDeviceDuplicateFn: func(ctx context.Context, sectionID int64, dateLocal, periodID, deviceHash string) (*AttendanceSubmission, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, s *AttendanceSubmission) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_submissions_session_roll"}
		},
		findBySessionRollFn: func(ctx context.Context, sessionID uuid.UUID, roll string) (*AttendanceSubmission, error) {
			assert.Equal(t, "21WU0101", roll)
			return &AttendanceSubmission{
				ID:             existingID,
				Roll:           roll,
				Name:           "Asha Verma",
				SubmittedAtUTC: submittedAt,
			}, nil
		},
	}
	limiter := &fakeLimiter{}
	svc := newTestService(repo, sessions, limiter)

	result, err := svc.Submit(context.Background(), submitParams(sess))
	require.NoError(t, err)
	assert.True(t, result.AlreadySubmitted)
	assert.Equal(t, existingID.String(), result.SubmissionID)
	assert.Empty(t, limiter.invalidated)
}

func TestSubmit_RateLimited(t *testing.T) {
	sess := openSession()
	sessions := &fakeSessions{
		getByIDFn: func(ctx context.Context, id string) (*session.Session, error) { return sess, nil },
	}
	limiter := &fakeLimiter{
		enforceSubmitFn: func(ctx context.Context, ipHash, roll string) error {
			return assert.AnError
		},
	}
	svc := newTestService(&fakeRepo{}, sessions, limiter)

	_, err := svc.Submit(context.Background(), submitParams(sess))
	assert.ErrorIs(t, err, assert.AnError)
}
