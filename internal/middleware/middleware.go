package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/miu/unidesk/internal/pkg/filestorage"
	"github.com/miu/unidesk/internal/pkg/metrics"
)

// RequestLogger logs every request and records it in the metrics registry.
// m may be nil.
func RequestLogger(logger zerolog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		m.ObserveRequest(c.Request.Method, c.FullPath(), status, duration.Seconds())

		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", duration).
			Msg("Request handled")
	}
}

// Recovery turns a panic into a 500 and logs it
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		c.AbortWithStatus(500)
	})
}

// MediaHeaders stops browsers from sniffing uploaded files and forces research
// documents to download instead of rendering on this origin.
func MediaHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'none'; img-src 'self'; sandbox")
		if filestorage.Attachment(c.Request.URL.Path) {
			c.Header("Content-Disposition", "attachment")
		}
		c.Next()
	}
}

// SameOrigin refuses state-changing requests a browser sent from another site.
// Requests carrying neither Origin nor Referer come from non-browser clients and pass.
func SameOrigin(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		source := c.GetHeader("Origin")
		if source == "" {
			source = c.GetHeader("Referer")
		}
		if source == "" {
			c.Next()
			return
		}
		u, err := url.Parse(source)
		if err != nil || !strings.EqualFold(u.Host, c.Request.Host) {
			logger.Warn().Str("source", source).Str("path", c.Request.URL.Path).Msg("Cross-origin request refused")
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
