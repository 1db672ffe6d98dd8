package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in and out of the service
const RequestIDHeader = "X-Request-ID"

// MiddlewareOptions configures GinLogger
type MiddlewareOptions struct {
	// SkipPaths are logged at debug level only (e.g. /health)
	SkipPaths []string
}

// GinLogger logs one line per request and propagates the request id
func GinLogger(l *Logger, opts ...MiddlewareOptions) gin.HandlerFunc {
	skip := make(map[string]bool)
	for _, o := range opts {
		for _, p := range o.SkipPaths {
			skip[p] = true
		}
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream") {
			fields = append(fields, zap.Bool("stream", true))
		}

		switch {
		case skip[path]:
			l.Debug("HTTP request", fields...)
		case status >= http.StatusInternalServerError:
			l.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			l.Warn("HTTP request", fields...)
		default:
			l.Info("HTTP request", fields...)
		}
	}
}

// GinRecovery turns panics into a logged 500
func GinRecovery(l *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				l.Error("panic recovered",
					zap.String("request_id", GetRequestID(c.Request.Context())),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
