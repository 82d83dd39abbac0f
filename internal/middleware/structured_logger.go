// Package middleware provides HTTP middleware for the ForgeSyte API.
// This file implements structured request logging.
//
// Logged fields: request_id, method, path, query, status, duration_ms,
// client_ip, user_agent, and any accumulated gin.Context errors. Log level
// follows the status code: 5xx -> error, 4xx -> warn, else -> info.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forgesyte/forgesyte/internal/logger"
)

// StructuredLoggerConfig allows customization of structured logging.
type StructuredLoggerConfig struct {
	// SkipPaths is a list of paths to skip logging (e.g., health checks).
	SkipPaths []string

	// LogQuery if false, skips logging query parameters.
	LogQuery bool

	// LogUserAgent if false, skips logging user agent.
	LogUserAgent bool
}

// DefaultStructuredLoggerConfig returns the default configuration: health
// checks are skipped, query strings and user agents are logged.
func DefaultStructuredLoggerConfig() StructuredLoggerConfig {
	return StructuredLoggerConfig{
		SkipPaths:    []string{"/health", "/worker/health"},
		LogQuery:     true,
		LogUserAgent: true,
	}
}

// StructuredLogger returns a gin middleware using the default configuration.
func StructuredLogger() gin.HandlerFunc {
	return StructuredLoggerWithConfig(DefaultStructuredLoggerConfig())
}

// StructuredLoggerWithConfig returns a gin middleware that logs one
// structured line per request via internal/logger's HTTP component logger.
func StructuredLoggerWithConfig(config StructuredLoggerConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skip[path] {
			c.Next()
			return
		}

		start := time.Now()
		raw := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		log := logger.HTTP()
		evt := log.Info()
		switch {
		case status >= 500:
			evt = log.Error()
		case status >= 400:
			evt = log.Warn()
		}

		evt = evt.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Int64("duration_ms", duration.Milliseconds()).
			Str("client_ip", c.ClientIP())

		if config.LogQuery && raw != "" {
			evt = evt.Str("query", raw)
		}
		if config.LogUserAgent {
			evt = evt.Str("user_agent", c.Request.UserAgent())
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}

		evt.Msg("http_request")
	}
}
