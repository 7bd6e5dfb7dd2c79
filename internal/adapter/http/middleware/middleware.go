package middleware

import (
	"context"
	"net/http"
	"time"

	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/internal/service"
	"wallet-link-gateway/pkg/apperror"
	"wallet-link-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// HeaderAPIKey carries the merchant API key.
	HeaderAPIKey = "X-API-Key"

	// Context keys
	CtxMerchantID  = "merchant_id"
	CtxMerchantKey = "merchant"
)

// APIKeyAuth creates a middleware that resolves the X-API-Key header to an
// active merchant. The client IP is propagated on the request context so
// audit records can pick it up below the HTTP layer.
func APIKeyAuth(merchantSvc ports.MerchantService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderAPIKey)
		if apiKey == "" {
			response.Error(c, apperror.ErrInvalidAPIKey())
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), service.ClientIPKey, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		merchant, err := merchantSvc.Authenticate(c.Request.Context(), apiKey)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxMerchantID, merchant.ID)
		c.Set(CtxMerchantKey, merchant)

		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_002",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize returns middleware that limits the request body size.
// Once the limit is exceeded the reader returns an error and the
// request is rejected with 413 Payload Too Large.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
