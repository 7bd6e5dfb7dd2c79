package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-link-gateway/config"
	httpHandler "wallet-link-gateway/internal/adapter/http/handler"
	"wallet-link-gateway/internal/adapter/provider"
	"wallet-link-gateway/internal/adapter/provider/easypaisa"
	pgStorage "wallet-link-gateway/internal/adapter/storage/postgres"
	redisStorage "wallet-link-gateway/internal/adapter/storage/redis"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/internal/service"
	"wallet-link-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Wallet Link Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	linkRepo := pgStorage.NewWalletLinkRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize the provider gateway. A missing or unreadable signing key
	// makes every provider call impossible, so it is fatal at boot.
	signer, err := easypaisa.NewSignerFromFile(cfg.Easypaisa.PrivateKeyPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Easypaisa.PrivateKeyPath).Msg("Failed to load signing key")
	}
	gateway := easypaisa.New(easypaisa.Config{
		BaseURL:      cfg.Easypaisa.BaseURL,
		Username:     cfg.Easypaisa.Username,
		Password:     cfg.Easypaisa.Password,
		StoreID:      cfg.Easypaisa.StoreID,
		DefaultEmail: cfg.Easypaisa.DefaultEmail,
		Timeout:      cfg.Easypaisa.Timeout,
		PaymentExtra: cfg.Easypaisa.PaymentExtra,
	}, signer, &http.Client{}, log)
	registry := provider.NewRegistry(gateway)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	auditSvc := service.NewAuditService(auditRepo, log)

	// Initialize business services
	merchantSvc := service.NewMerchantService(merchantRepo, hashSvc, auditSvc, log)
	linkSvc := service.NewWalletLinkService(linkRepo, txRepo, registry, transactor, auditSvc, log)
	paymentSvc := service.NewPaymentService(txRepo, linkRepo, registry, idempotencyCache, auditSvc, log)

	// Background link expiry sweeper
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	sweeper := service.NewSweeper(linkSvc, cfg.Sweep.Interval, log)
	go sweeper.Run(sweepCtx)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletLinkSvc:  linkSvc,
		PaymentSvc:     paymentSvc,
		MerchantSvc:    merchantSvc,
		AuditSvc:       auditSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
