package submission

import (
	"github.com/sobit-woxsen/wou-attendance-qr/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, logger *zap.Logger) {
	r.POST("/submit",
		middleware.ContextLogger(logger),
		middleware.RateLimitByIP(2, 5),
		handler.Submit,
	)
}
