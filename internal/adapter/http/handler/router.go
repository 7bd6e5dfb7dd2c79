package handler

import (
	"wallet-link-gateway/internal/adapter/http/middleware"
	"wallet-link-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletLinkSvc  ports.WalletLinkService
	PaymentSvc     ports.PaymentService
	MerchantSvc    ports.MerchantService
	AuditSvc       ports.AuditService
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	v2 := r.Group("/api/v2")

	// --- Public routes (no auth) ---
	merchantHandler := NewMerchantHandler(deps.MerchantSvc, deps.AuditSvc)
	v2.POST("/merchants", merchantHandler.Create)

	// --- API-key-authenticated routes ---
	apiAuth := middleware.APIKeyAuth(deps.MerchantSvc, deps.Logger)

	rl := func(c *gin.Context) { c.Next() }
	if deps.RateLimitStore != nil {
		rl = middleware.RateLimiter(deps.RateLimitStore, deps.Logger)
	}

	v2.GET("/merchants/me", apiAuth, rl, merchantHandler.GetProfile)
	v2.GET("/merchants/me/audit", apiAuth, rl, merchantHandler.AuditHistory)

	walletHandler := NewWalletHandler(deps.WalletLinkSvc)
	paymentHandler := NewPaymentHandler(deps.PaymentSvc)

	prov := v2.Group("/providers/:provider", apiAuth, rl)
	{
		prov.POST("/wallet/otp", walletHandler.RequestOTP)
		prov.GET("/wallet/links", walletHandler.ListLinks)
		prov.GET("/wallet/links/:id", walletHandler.GetLink)
		prov.POST("/wallet/links/:id/confirm", walletHandler.ConfirmLink)
		prov.DELETE("/wallet/links/:id", walletHandler.Deactivate)
		prov.POST("/payments", paymentHandler.Charge)
	}

	transactions := v2.Group("/transactions", apiAuth, rl)
	{
		transactions.GET("", paymentHandler.ListTransactions)
		transactions.GET("/stats", paymentHandler.GetStats)
		transactions.GET("/order/:merchant_order_id", paymentHandler.GetByOrder)
		transactions.GET("/provider/:provider_order_id", paymentHandler.GetByProviderOrder)
		transactions.GET("/:id", paymentHandler.GetTransaction)
		transactions.POST("/:id/retry", paymentHandler.RecordRetry)
	}

	return r
}
