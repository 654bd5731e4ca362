// Package httpapi exposes the status HTTP surface described in spec
// §6: /health, /state (Basic-auth gated), /checker-states, and a
// static file mount. Grounded on cmd/probe/main.go's gin.Default()
// router layout and pkg/api/middleware/middleware.go's CORS/Logging/
// Recovery trio from the teacher repo, with the JWT-based
// AuthMiddleware there replaced by auth.BasicAuth's Basic-auth check.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/berthubert/go-simplomon/pkg/auth"
	"github.com/berthubert/go-simplomon/pkg/status"
)

// NewRouter builds the gin engine serving the status surface.
// staticDir may be empty, in which case the static mount is skipped.
func NewRouter(surface *status.Surface, basicAuth *auth.BasicAuth, staticDir string) *gin.Engine {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(RecoveryMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"health": "ok"})
	})

	r.GET("/state", RequireBasicAuth(basicAuth), func(c *gin.Context) {
		snap := surface.Current()
		c.JSON(http.StatusOK, gin.H{
			"alerts":      snap.Alerts,
			"generatedAt": snap.GeneratedAt,
		})
	})

	r.GET("/checker-states", func(c *gin.Context) {
		snap := surface.Current()
		c.JSON(http.StatusOK, snap.CheckerStates)
	})

	if staticDir != "" {
		r.Static("/", staticDir)
	}

	return r
}

// RequireBasicAuth gates a route behind auth.BasicAuth, a no-op when
// auth is not configured.
func RequireBasicAuth(basicAuth *auth.BasicAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !basicAuth.Enabled() {
			c.Next()
			return
		}
		username, password, ok := c.Request.BasicAuth()
		if !ok || !basicAuth.Check(username, password) {
			c.Header("WWW-Authenticate", `Basic realm="simplomon"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CORSMiddleware handles CORS headers, grounded on
// pkg/api/middleware/middleware.go's CORSMiddleware.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware logs HTTP requests in the teacher's log format.
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return param.TimeStamp.Format("2006/01/02 15:04:05") + " " +
			param.Method + " " + param.Path + " " +
			http.StatusText(param.StatusCode) + " " + param.Latency.String() + "\n"
	})
}

// RecoveryMiddleware handles panics inside handlers.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}
