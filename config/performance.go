package config

import (
	"time"

	"salonpro-agenda/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// PerformanceLogger logs every request with its latency and attaches a
// request-scoped logger to the request context.
func PerformanceLogger(log *zap.Logger, slow time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		reqLog := log.With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		c.Next()

		latency := time.Since(start)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
		}
		if tenantID, ok := c.Get("tenantId"); ok {
			fields = append(fields, zap.Any("tenant_id", tenantID))
		}
		reqLog.Info("request", fields...)

		if slow > 0 && latency > slow {
			reqLog.Warn("slow request", fields...)
		}
	}
}
