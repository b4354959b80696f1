package response

import (
	"github.com/gin-gonic/gin"
)

// Attendance responses must never be cached by intermediaries; a stale
// "OPEN" payload would let students submit against a closed window.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

func JSON(c *gin.Context, status int, data any) {
	noStore(c)
	c.JSON(status, data)
}

func Error(c *gin.Context, status int, errorCode string, message string, details any) {
	noStore(c)
	body := gin.H{
		"error":   errorCode,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, body)
}
