package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/tabextract/internal/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger returns a Gin middleware that injects a request-scoped
// logger and logs each request on completion.
// Parameters:
//   - log: base logger to enrich with request fields.
//
// Returns:
//   - gin.HandlerFunc: middleware handler.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := log.WithContext(c.Request.Context())
		ctx = logger.SetRequestID(ctx, requestID)
		ctx = logger.SetComponent(ctx, "api")
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		entry := logger.With(logger.Fields{
			logger.FieldStatus: c.Writer.Status(),
			logger.FieldSize:   c.Writer.Size(),
		}).WithDuration(time.Since(start).Milliseconds())

		if len(c.Errors) > 0 {
			entry.Warn(ctx, "Request completed with errors: method=%s, path=%s, errors=%s",
				c.Request.Method, path, c.Errors.String())
			return
		}
		entry.Info(ctx, "Request completed: method=%s, path=%s, client_ip=%s",
			c.Request.Method, path, c.ClientIP())
	}
}
