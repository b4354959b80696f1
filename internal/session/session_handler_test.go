package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/passkey"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/period"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/section"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/session"
	sessionerrors "github.com/sobit-woxsen/wou-attendance-qr/internal/session/errors"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	apperror.Init()
	os.Exit(m.Run())
}

type fakeService struct {
	startFn   func(ctx context.Context, p session.StartParams) (session.StartResult, error)
	closeFn   func(ctx context.Context, sessionID string, silent bool) (*session.CloseResult, error)
	sweepFn   func(ctx context.Context) (session.SweepResult, error)
	activeFn  func(ctx context.Context, sectionID int64) (*session.Session, error)
	publicFn  func(ctx context.Context, shortCode string) (*session.Session, error)
	getByIDFn func(ctx context.Context, id string) (*session.Session, error)
}

func (f *fakeService) Start(ctx context.Context, p session.StartParams) (session.StartResult, error) {
	return f.startFn(ctx, p)
}
func (f *fakeService) Close(ctx context.Context, sessionID string, silent bool) (*session.CloseResult, error) {
	return f.closeFn(ctx, sessionID, silent)
}
func (f *fakeService) SweepExpired(ctx context.Context) (session.SweepResult, error) {
	return f.sweepFn(ctx)
}
func (f *fakeService) EnsureStartupSweep(ctx context.Context) {}
func (f *fakeService) ActiveForSection(ctx context.Context, sectionID int64) (*session.Session, error) {
	return f.activeFn(ctx, sectionID)
}
func (f *fakeService) PublicByShortCode(ctx context.Context, shortCode string) (*session.Session, error) {
	return f.publicFn(ctx, shortCode)
}
func (f *fakeService) GetByID(ctx context.Context, id string) (*session.Session, error) {
	return f.getByIDFn(ctx, id)
}

type fakeVerifier struct {
	verifyFn func(ctx context.Context, candidate string) error
}

func (f *fakeVerifier) Verify(ctx context.Context, candidate string) error {
	if f.verifyFn == nil {
		return nil
	}
	return f.verifyFn(ctx, candidate)
}

func testPolicy(t *testing.T) *period.Policy {
	t.Helper()
	policy, err := period.LoadPolicy("Asia/Kolkata", nil, 10*time.Minute)
	require.NoError(t, err)
	return policy
}

func newRouter(t *testing.T, svc session.Service, verifier passkey.Verifier) *gin.Engine {
	t.Helper()
	h := session.NewHandler(svc, verifier, testPolicy(t))
	r := gin.New()
	r.POST("/sessions/start", h.Start)
	r.POST("/sessions/close", h.Close)
	r.GET("/sessions/active", h.Active)
	r.GET("/s/:shortCode", h.Public)
	r.GET("/cron/sweep", h.Sweep)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStartEndpoint_ReturnsShareLink(t *testing.T) {
	endsAt := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	var gotParams session.StartParams
	svc := &fakeService{
		startFn: func(ctx context.Context, p session.StartParams) (session.StartResult, error) {
			gotParams = p
			return session.StartResult{
				SessionID: "11111111-2222-3333-4444-555555555555",
				ShortURL:  "https://attend.example.edu/s/aB3xYz?t=tok",
				TokenTail: "f00bar",
				EndsAt:    endsAt,
				PeriodID:  "P2",
			}, nil
		},
	}

	r := newRouter(t, svc, &fakeVerifier{})
	w := postJSON(t, r, "/sessions/start", gin.H{
		"sectionId":   7,
		"course":      "Distributed Systems",
		"facultyName": "Dr. Rao",
		"passkey":     "faculty-secret",
	}, map[string]string{
		"Origin":            "https://attend.example.edu",
		"Idempotency-Key":   "idem-primary",
		"X-Idempotency-Key": "idem-fallback",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	body := decodeBody(t, w)
	assert.Equal(t, "https://attend.example.edu/s/aB3xYz?t=tok", body["shortUrl"])
	assert.Equal(t, "f00bar", body["tokenTail"])
	assert.Equal(t, "P2", body["periodId"])
	assert.Equal(t, endsAt.Format(time.RFC3339), body["endsAt"])

	assert.Equal(t, int64(7), gotParams.SectionID)
	assert.Equal(t, "https://attend.example.edu", gotParams.Origin)
	// The canonical header wins over the legacy one.
	assert.Equal(t, "idem-primary", gotParams.IdempotencyKey)
	assert.NotEmpty(t, gotParams.ClientIP)
}

func TestStartEndpoint_MissingPasskey(t *testing.T) {
	r := newRouter(t, &fakeService{}, &fakeVerifier{})
	w := postJSON(t, r, "/sessions/start", gin.H{
		"sectionId":   7,
		"course":      "Distributed Systems",
		"facultyName": "Dr. Rao",
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["error"])
	assert.Contains(t, body["message"], "required")
}

func TestStartEndpoint_OutsidePeriod(t *testing.T) {
	svc := &fakeService{
		startFn: func(ctx context.Context, p session.StartParams) (session.StartResult, error) {
			return session.StartResult{}, sessionerrors.ErrOutsidePeriod
		},
	}

	r := newRouter(t, svc, &fakeVerifier{})
	w := postJSON(t, r, "/sessions/start", gin.H{
		"sectionId":   7,
		"course":      "Distributed Systems",
		"facultyName": "Dr. Rao",
		"passkey":     "faculty-secret",
	}, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "FORBIDDEN", body["error"])
}

func TestCloseEndpoint_ReportsFinalNumbers(t *testing.T) {
	closedAt := time.Now().UTC().Truncate(time.Second)
	sess := &session.Session{ID: uuid.New(), Status: session.StatusClosed}
	svc := &fakeService{
		closeFn: func(ctx context.Context, sessionID string, silent bool) (*session.CloseResult, error) {
			assert.False(t, silent)
			return &session.CloseResult{
				Session: sess,
				Log: &session.SessionLog{
					PresentCount: 42,
					DurationSec:  600,
					ClosedAtUTC:  closedAt,
				},
			}, nil
		},
	}

	r := newRouter(t, svc, &fakeVerifier{})
	w := postJSON(t, r, "/sessions/close", gin.H{
		"sessionId": sess.ID.String(),
		"passkey":   "faculty-secret",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, sess.ID.String(), body["sessionId"])
	assert.Equal(t, "CLOSED", body["status"])
	assert.Equal(t, float64(42), body["presentCount"])
	assert.Equal(t, float64(600), body["durationSec"])
	assert.Equal(t, closedAt.Format(time.RFC3339), body["closedAt"])
}

func TestCloseEndpoint_RejectsWrongPasskey(t *testing.T) {
	verifier := &fakeVerifier{
		verifyFn: func(ctx context.Context, candidate string) error {
			return passkey.ErrInvalidPasskey
		},
	}
	svc := &fakeService{
		closeFn: func(ctx context.Context, sessionID string, silent bool) (*session.CloseResult, error) {
			t.Fatal("close must not run with a bad passkey")
			return nil, nil
		},
	}

	r := newRouter(t, svc, verifier)
	w := postJSON(t, r, "/sessions/close", gin.H{
		"sessionId": uuid.NewString(),
		"passkey":   "guessed",
	}, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestActiveEndpoint_BadSectionID(t *testing.T) {
	r := newRouter(t, &fakeService{}, &fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/sessions/active?sectionId=abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestActiveEndpoint_NoOpenSession(t *testing.T) {
	svc := &fakeService{
		activeFn: func(ctx context.Context, sectionID int64) (*session.Session, error) {
			return nil, nil
		},
	}
	r := newRouter(t, svc, &fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/sessions/active?sectionId=7", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["active"])
	assert.NotContains(t, body, "session")
}

func TestPublicEndpoint_UnknownShortCodeLooksClosed(t *testing.T) {
	svc := &fakeService{
		publicFn: func(ctx context.Context, shortCode string) (*session.Session, error) {
			return nil, nil
		},
	}
	r := newRouter(t, svc, &fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/s/nosuch?t=any-token", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGone, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "SESSION_CLOSED", body["error"])
	assert.Equal(t, "Session closed.", body["message"])
}

func TestPublicEndpoint_RequiresMatchingToken(t *testing.T) {
	sess := &session.Session{
		ID:       uuid.New(),
		Status:   session.StatusOpen,
		Token:    "full-secret-token-value",
		EndAtUTC: time.Now().UTC().Add(5 * time.Minute),
	}
	svc := &fakeService{
		publicFn: func(ctx context.Context, shortCode string) (*session.Session, error) {
			return sess, nil
		},
	}
	r := newRouter(t, svc, &fakeVerifier{})

	for name, path := range map[string]string{
		"missing token": "/s/aB3xYz",
		"wrong token":   "/s/aB3xYz?t=wrong-token",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusGone, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "SESSION_CLOSED", body["error"])
			assert.Equal(t, "Session closed.", body["message"])
			assert.NotContains(t, w.Body.String(), "tokenTail")
		})
	}
}

func TestPublicEndpoint_OpenSessionOmitsFullToken(t *testing.T) {
	sess := &session.Session{
		ID:          uuid.New(),
		SectionID:   7,
		PeriodID:    "P2",
		Course:      "Distributed Systems",
		FacultyName: "Dr. Rao",
		Status:      session.StatusOpen,
		Token:       "full-secret-token-value",
		TokenTail:   "f00bar",
		EndAtUTC:    time.Now().UTC().Add(5 * time.Minute),
		Section: &section.Section{
			ID:       7,
			Name:     "CSE A",
			Semester: &section.Semester{ID: 2, Number: 3, Name: "Semester 3"},
		},
	}
	svc := &fakeService{
		publicFn: func(ctx context.Context, shortCode string) (*session.Session, error) {
			assert.Equal(t, "aB3xYz", shortCode)
			return sess, nil
		},
	}
	r := newRouter(t, svc, &fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/s/aB3xYz?t=full-secret-token-value", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "OPEN", body["status"])
	assert.Equal(t, "f00bar", body["tokenTail"])
	assert.Equal(t, "CSE A", body["sectionName"])
	assert.Equal(t, "Semester 3", body["semesterName"])
	assert.Greater(t, body["secondsRemaining"], float64(0))
	assert.NotContains(t, w.Body.String(), "full-secret-token-value")
}

func TestSweepEndpoint(t *testing.T) {
	svc := &fakeService{
		sweepFn: func(ctx context.Context) (session.SweepResult, error) {
			return session.SweepResult{Scanned: 4, Closed: 3, Duration: 250 * time.Millisecond}, nil
		},
	}
	r := newRouter(t, svc, &fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/cron/sweep", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(4), body["scanned"])
	assert.Equal(t, float64(3), body["closed"])
	assert.Equal(t, float64(250), body["durationMs"])
}
