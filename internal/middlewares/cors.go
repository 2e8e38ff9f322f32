package middlewares

import (
	"github.com/gin-gonic/gin"
	"net/http"
	"slices"
)

// CORSMiddleware answers preflight requests and sets the CORS headers.
// With no allowedOrigins every origin is accepted, but without credentials.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case len(allowedOrigins) == 0:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(allowedOrigins, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		// notes are personal; no cache of any kind may store the responses
		//
		// see https://developer.mozilla.org/en-US/docs/Web/HTTP/Reference/Headers/Cache-Control
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
