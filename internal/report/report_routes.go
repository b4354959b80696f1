package report

import (
	"github.com/sobit-woxsen/wou-attendance-qr/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, jwtSecret string, logger *zap.Logger) {
	reports := r.Group("/reports")
	reports.Use(middleware.ContextLogger(logger))
	reports.Use(middleware.AdminAuth(jwtSecret))
	{
		reports.POST("/session", handler.SessionReport)
		reports.POST("/export/csv", handler.ExportCSV)
	}
}
