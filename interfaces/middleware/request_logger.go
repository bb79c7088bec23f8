package middleware

import (
	"time"

	"media-aggregator/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request once the handler chain has run.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		entry := logger.GetLogger().WithFields(logrus.Fields{
			"method":    ctx.Request.Method,
			"path":      ctx.Request.URL.Path,
			"query":     ctx.Request.URL.RawQuery,
			"status":    status,
			"latencyMs": time.Since(start).Milliseconds(),
			"clientIP":  ctx.ClientIP(),
			"requestID": GetRequestID(ctx),
		})
		switch {
		case status >= 500:
			entry.Error("Request completed")
		case status >= 400:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}
