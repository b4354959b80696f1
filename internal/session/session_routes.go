package session

import (
	"github.com/sobit-woxsen/wou-attendance-qr/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes wires the faculty lifecycle surface. The gin-level
// limiters only absorb bursts; the real quotas live in the service.
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	cronSecret string,
	logger *zap.Logger,
) {
	sessions := r.Group("/sessions")
	sessions.Use(middleware.ContextLogger(logger))
	{
		sessions.POST("/start",
			middleware.RateLimitByIP(1, 3),
			handler.Start,
		)
		sessions.POST("/close",
			middleware.RateLimitByIP(1, 3),
			handler.Close,
		)
		sessions.GET("/active",
			middleware.RateLimitByIP(5, 10),
			handler.Active,
		)
	}

	cron := r.Group("/cron")
	cron.Use(middleware.ContextLogger(logger))
	cron.Use(middleware.CronAuth(cronSecret))
	{
		cron.GET("/sweep", handler.Sweep)
	}
}

// RegisterPublicRoutes mounts the shareable-link lookup at the root, so
// the URL on the projector stays short.
func RegisterPublicRoutes(r *gin.Engine, handler *Handler, logger *zap.Logger) {
	r.GET("/s/:shortCode",
		middleware.ContextLogger(logger),
		middleware.RateLimitByIP(10, 20),
		handler.Public,
	)
}

// RegisterAdminRoutes exposes read access to individual sessions behind
// admin auth.
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler, jwtSecret string, logger *zap.Logger) {
	sessions := r.Group("/sessions")
	sessions.Use(middleware.ContextLogger(logger))
	sessions.Use(middleware.AdminAuth(jwtSecret))
	{
		sessions.GET("/:id", handler.GetByID)
	}
}
