package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GatewayHeaders applies the transform gateway's response policy: any origin
// may call it, only POST and OPTIONS are offered, nothing is cacheable, and
// preflight requests short-circuit with an empty 200.
func GatewayHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
