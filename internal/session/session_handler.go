package session

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/passkey"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/period"
	sessionerrors "github.com/sobit-woxsen/wou-attendance-qr/internal/session/errors"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/apperror"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service  Service
	passkeys passkey.Verifier
	policy   *period.Policy
	logger   *zap.Logger
}

func NewHandler(service Service, passkeys passkey.Verifier, policy *period.Policy, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("session.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("session.handler")
	}
	return &Handler{service: service, passkeys: passkeys, policy: policy, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("session request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Start(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http start session validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	result, err := h.service.Start(c.Request.Context(), StartParams{
		SectionID:      req.SectionID,
		Course:         req.Course,
		FacultyName:    req.FacultyName,
		Passkey:        req.Passkey,
		ClientIP:       c.ClientIP(),
		Origin:         c.GetHeader("Origin"),
		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, StartSessionResponse{
		SessionID: result.SessionID,
		ShortURL:  result.ShortURL,
		TokenTail: result.TokenTail,
		EndsAt:    result.EndsAt.Format(time.RFC3339),
		PeriodID:  result.PeriodID,
	})
}

func idempotencyKey(c *gin.Context) string {
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		return key
	}
	return c.GetHeader("X-Idempotency-Key")
}

func (h *Handler) Close(c *gin.Context) {
	var req CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http close session validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	if err := h.passkeys.Verify(c.Request.Context(), req.Passkey); err != nil {
		h.writeServiceError(c, err)
		return
	}

	result, err := h.service.Close(c.Request.Context(), req.SessionID, false)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp := CloseSessionResponse{
		SessionID: result.Session.ID.String(),
		Status:    result.Session.Status,
	}
	if result.Log != nil {
		resp.PresentCount = result.Log.PresentCount
		resp.DurationSec = result.Log.DurationSec
		resp.ClosedAt = result.Log.ClosedAtUTC.Format(time.RFC3339)
	}
	response.JSON(c, http.StatusOK, resp)
}

func (h *Handler) Active(c *gin.Context) {
	sectionID, err := strconv.ParseInt(c.Query("sectionId"), 10, 64)
	if err != nil || sectionID <= 0 {
		h.writeServiceError(c, apperror.InvalidField("Section Id"))
		return
	}

	sess, err := h.service.ActiveForSection(c.Request.Context(), sectionID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if sess == nil {
		response.JSON(c, http.StatusOK, ActiveSessionResponse{Active: false})
		return
	}

	remaining := 0
	if until := time.Until(sess.EndAtUTC); until > 0 {
		remaining = int(until / time.Second)
	}
	response.JSON(c, http.StatusOK, ActiveSessionResponse{
		Active: true,
		Session: &ActiveSessionBrief{
			SessionID:        sess.ID.String(),
			Course:           sess.Course,
			FacultyName:      sess.FacultyName,
			PeriodID:         sess.PeriodID,
			TokenTail:        sess.TokenTail,
			EndsAt:           sess.EndAtUTC.In(h.policy.Location()).Format(time.RFC3339),
			SecondsRemaining: remaining,
		},
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	sess, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if sess == nil {
		h.writeServiceError(c, sessionerrors.ErrSessionNotFound)
		return
	}
	response.JSON(c, http.StatusOK, h.publicView(sess))
}

// Public resolves the shareable link. The QR URL carries the session
// token in the `t` query param; without it the shortCode alone grants
// nothing. Unknown shortCode, wrong token and closed session are
// indistinguishable to the caller.
func (h *Handler) Public(c *gin.Context) {
	sess, err := h.service.PublicByShortCode(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	token := c.Query("t")
	if sess == nil || token == "" ||
		subtle.ConstantTimeCompare([]byte(sess.Token), []byte(token)) != 1 ||
		sess.Status != StatusOpen {
		h.writeServiceError(c, sessionerrors.ErrSessionClosed)
		return
	}
	response.JSON(c, http.StatusOK, h.publicView(sess))
}

func (h *Handler) Sweep(c *gin.Context) {
	result, err := h.service.SweepExpired(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, SweepResponse{
		Scanned:    result.Scanned,
		Closed:     result.Closed,
		DurationMS: result.Duration.Milliseconds(),
	})
}

func (h *Handler) publicView(sess *Session) PublicSessionResponse {
	resp := PublicSessionResponse{
		SessionID:   sess.ID.String(),
		Course:      sess.Course,
		FacultyName: sess.FacultyName,
		SectionID:   sess.SectionID,
		PeriodID:    sess.PeriodID,
		Status:      sess.Status,
		EndsAt:      sess.EndAtUTC.In(h.policy.Location()).Format(time.RFC3339),
		TokenTail:   sess.TokenTail,
	}
	if sess.Section != nil {
		resp.SectionName = sess.Section.Name
		if sess.Section.Semester != nil {
			resp.SemesterName = sess.Section.Semester.Name
		}
	}
	if sess.Status == StatusOpen {
		if remaining := time.Until(sess.EndAtUTC); remaining > 0 {
			resp.SecondsRemaining = int(remaining / time.Second)
		}
	}
	return resp
}
