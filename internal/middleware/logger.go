package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Logger logs every request once it completes and attaches a request scoped
// logger to the request context for log.Ctx. Bodies are never logged: they
// carry patient data. Must run after RequestID.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetString(ContextRequestID)

		reqLogger := log.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		// Process request
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		// Log based on status code
		event := reqLogger.Info()
		msg := "Request processed"
		switch {
		case statusCode >= 500:
			event = reqLogger.Error()
			msg = "Server error"
		case statusCode >= 400:
			event = reqLogger.Warn()
			msg = "Client error"
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Str("client_ip", c.ClientIP()).
			Int("status", statusCode).
			Int("size", c.Writer.Size()).
			Dur("latency", latency).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
