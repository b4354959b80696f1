package period

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	periods := r.Group("/period")
	{
		periods.GET("/status", h.Status)
	}
}
