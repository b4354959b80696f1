package period

import (
	"net/http"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	policy *Policy
}

func NewHandler(policy *Policy) *Handler {
	return &Handler{policy: policy}
}

// Status reports whether a class period is active right now and how
// long a session started now would run.
func (h *Handler) Status(c *gin.Context) {
	now := h.policy.Now()
	window, ok := h.policy.Current(now)
	if !ok {
		response.JSON(c, http.StatusOK, gin.H{
			"active": false,
		})
		return
	}

	windowEnds := h.policy.SessionEnd(now, window)
	remaining := int(windowEnds.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}

	response.JSON(c, http.StatusOK, gin.H{
		"active":           true,
		"periodId":         window.ID,
		"periodLabel":      window.Label,
		"endsAt":           h.policy.FormatLocal(windowEnds, time.RFC3339),
		"secondsRemaining": remaining,
	})
}
