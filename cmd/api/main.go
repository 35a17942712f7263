package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/delivery/http/middleware"
	v1 "storefront/internal/delivery/http/v1"
	"storefront/internal/infrastructure/cache"
	"storefront/internal/repository/catalog"
	"storefront/internal/repository/storage"
	"storefront/internal/usecase"
	"storefront/pkg/logger"
	"storefront/pkg/utils"

	"github.com/NYTimes/gziphandler"
)

const version = "1.0.0"

func main() {
	cfg := config.LoadConfig()

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize Cart Storage
	store, err := storage.NewStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to open cart storage")
	}
	log.Info().Str("driver", cfg.StorageDriver).Msg("Cart storage ready")

	// Initialize Caches (In-Memory)
	// Catalog entries expire per CACHE_CATALOG_TTL, sessions per SESSION_TTL
	catalogCache := cache.NewMemoryCache(cfg.CacheCatalogTTL, 10*time.Minute)
	sessionCache := cache.NewMemoryCache(cfg.SessionTTL, time.Minute)

	// --- Modules Initialization ---

	// Catalog Module
	catalogUC := usecase.NewCatalogUsecase(catalog.NewSource(cfg), catalogCache, cfg)
	catalogHandler := v1.NewCatalogHandler(catalogUC)

	// Cart Module
	couponUC := usecase.NewCouponUsecase(cfg)
	checkoutUC := usecase.NewCheckoutUsecase(cfg)
	sessionUC := usecase.NewSessionUsecase(sessionCache, store, couponUC, checkoutUC, cfg)
	cartHandler := v1.NewCartHandler(sessionUC, catalogUC)

	healthHandler := v1.NewHealthHandler(sessionUC, cfg.StorageDriver)

	// Set up Router
	mux := http.NewServeMux()
	v1.RegisterRoutes(mux, catalogHandler, cartHandler, healthHandler)

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Initialize Rate Limiter with lifecycle management
	// cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		cfg,
		time.Minute,   // cleanup period
		3*time.Minute, // client TTL
	)

	signer := utils.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL)

	// Session must wrap the request logger so log lines carry the session id
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = middleware.NewSessionMiddleware(signer, cfg)(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart("storefront-api", version, cfg.Port)

	// Wait for interrupt signal via channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close cart storage")
	}

	logger.ServiceStop("storefront-api")
}
