package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func rateLimitedRouter(store *mocks.MockRateLimitStore, merchant *domain.Merchant) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if merchant != nil {
			c.Set(CtxMerchantID, merchant.ID)
			c.Set(CtxMerchantKey, merchant)
		}
		c.Next()
	})
	r.Use(RateLimiter(store, zerolog.Nop()))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiter_Allows(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchant := &domain.Merchant{ID: uuid.New(), RateLimit: 60}
	store := mocks.NewMockRateLimitStore(ctrl)
	store.EXPECT().Allow(gomock.Any(), merchant.ID.String(), 60, time.Minute).Return(true, nil)

	r := rateLimitedRouter(store, merchant)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimiter_Blocks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchant := &domain.Merchant{ID: uuid.New(), RateLimit: 60}
	store := mocks.NewMockRateLimitStore(ctrl)
	store.EXPECT().Allow(gomock.Any(), merchant.ID.String(), 60, time.Minute).Return(false, nil)

	r := rateLimitedRouter(store, merchant)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_001")
}

func TestRateLimiter_DegradedModeAllowsOnStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchant := &domain.Merchant{ID: uuid.New(), RateLimit: 60}
	store := mocks.NewMockRateLimitStore(ctrl)
	store.EXPECT().Allow(gomock.Any(), gomock.Any(), 60, time.Minute).Return(false, errors.New("redis down"))

	r := rateLimitedRouter(store, merchant)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_SkipsWithoutMerchant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRateLimitStore(ctrl)

	r := rateLimitedRouter(store, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
