package middleware

import (
	"strconv"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"
	"wallet-link-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// rateLimitWindow is the fixed window over which per-merchant limits apply.
const rateLimitWindow = time.Minute

// RateLimiter creates a per-merchant rate-limiting middleware. The limit
// comes from the authenticated merchant record, so this must run after
// APIKeyAuth. A store failure degrades to allowing the request.
func RateLimiter(store ports.RateLimitStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxMerchantKey)
		if !ok {
			c.Next()
			return
		}
		merchant, ok := v.(*domain.Merchant)
		if !ok || merchant.RateLimit <= 0 {
			c.Next()
			return
		}

		allowed, err := store.Allow(c.Request.Context(), merchant.ID.String(), merchant.RateLimit, rateLimitWindow)
		if err != nil {
			log.Warn().Err(err).Str("merchant_id", merchant.ID.String()).
				Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(merchant.RateLimit))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}
