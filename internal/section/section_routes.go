package section

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	sections := r.Group("/sections")
	{
		sections.GET("", h.GetOptions)
	}
}
