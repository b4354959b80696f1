package admin

import (
	"github.com/sobit-woxsen/wou-attendance-qr/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, jwtSecret string, logger *zap.Logger) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ContextLogger(logger))
	{
		adminGroup.POST("/login",
			middleware.RateLimitByIP(0.5, 3),
			handler.Login,
		)
		adminGroup.POST("/logout", handler.Logout)

		adminGroup.GET("/health",
			middleware.AdminAuth(jwtSecret),
			handler.Health,
		)
	}
}
