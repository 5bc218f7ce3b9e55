package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
)

// requestIDHeader carries a correlation id across the request/response pair
// and into log lines, so a client-supplied id survives and a missing one
// gets minted.
const requestIDHeader = "X-Request-Id"

// requestIDMiddleware assigns each request a correlation id, honoring one
// supplied by the caller and minting a new one otherwise.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("requestID", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// apiKeyMiddleware enforces the optional shared X-API-Key header from
// spec.md §6. An empty configured key disables the check entirely.
func apiKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-Key") != apiKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid API key", "errorCode": "auth"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// maxBodyBytesMiddleware caps request bodies so the upload handlers' own
// io.LimitReader bound never has to read an unbounded client stream first,
// per spec.md §8's "Dump exactly at MaxRequestBodySize accepted" boundary.
func maxBodyBytesMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1)
		}
		c.Next()
	}
}

// requestLoggingMiddleware mirrors the teacher's LoggingMiddleware shape
// (internal/delivery/server/http/middleware_logging.go): one structured
// line per request with method, path, status and latency.
func requestLoggingMiddleware(logger obs.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("[%s] %s %s -> %d (%s)", c.GetString("requestID"), c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
