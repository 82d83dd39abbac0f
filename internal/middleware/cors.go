// Package middleware provides HTTP middleware for the ForgeSyte API.
// This file implements CORS handling, adapted from the donor's
// corsMiddleware to support the wildcard-by-default policy ForgeSyte
// documents (CORS_ORIGINS, default "*").
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS returns a gin middleware allowing the given origins. A single "*"
// entry allows every origin (credentials are not echoed in that case,
// since Access-Control-Allow-Credentials with a wildcard origin is
// invalid per the fetch spec).
func CORS(allowedOrigins []string) gin.HandlerFunc {
	wildcard := len(allowedOrigins) == 0
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		originSet[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case wildcard:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && originSet[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept-Encoding, Authorization, X-API-Key, X-Request-ID, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, Sec-WebSocket-Extensions, Sec-WebSocket-Protocol")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ParseCORSOrigins normalizes a raw origin list by trimming whitespace and
// dropping empty entries. A "*" entry is passed through unchanged; CORS
// is what treats it as the wildcard.
func ParseCORSOrigins(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, o := range raw {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
