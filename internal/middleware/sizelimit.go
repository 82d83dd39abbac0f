package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimiter rejects requests whose Content-Length already
// exceeds maxSize and wraps the body in a LimitReader so a caller lying
// about Content-Length still can't stream more than maxSize bytes at a
// plugin.
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":       "request entity too large",
				"message":     "request body exceeds the maximum allowed size",
				"max_size_mb": float64(maxSize) / (1024 * 1024),
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// AnalyzeBodyLimiter applies the MaxJSONPayloadBytes ceiling. NewRouter
// does not attach it to any route.
func AnalyzeBodyLimiter() gin.HandlerFunc {
	return RequestSizeLimiter(MaxJSONPayloadBytes)
}

// ArtifactUploadLimiter applies the MaxArtifactUploadBytes ceiling.
// NewRouter does not attach it to any route; behind DefaultSizeLimiter a
// body is still capped at MaxRequestBodyBytes.
func ArtifactUploadLimiter() gin.HandlerFunc {
	return RequestSizeLimiter(MaxArtifactUploadBytes)
}

// DefaultSizeLimiter applies the generic request body ceiling. NewRouter
// attaches it to every route.
func DefaultSizeLimiter() gin.HandlerFunc {
	return RequestSizeLimiter(MaxRequestBodyBytes)
}
