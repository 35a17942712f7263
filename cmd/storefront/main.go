package main

import (
	"context"
	"fmt"
	"os"

	"storefront/config"
	"storefront/internal/delivery/cli"
	"storefront/internal/infrastructure/cache"
	"storefront/internal/repository/catalog"
	"storefront/internal/repository/storage"
	"storefront/internal/usecase"
	pkgcache "storefront/pkg/cache"
	"storefront/pkg/logger"
)

func build(ctx context.Context, cfg *config.Config) (*cli.App, error) {
	store, err := storage.NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	checkoutUC := usecase.NewCheckoutUsecase(cfg)
	sessionUC := usecase.NewSessionUsecase(
		cache.NewMemoryCache(pkgcache.NoExpiration, 0),
		store,
		usecase.NewCouponUsecase(cfg),
		checkoutUC,
		cfg,
	)
	return &cli.App{
		Catalog:  usecase.NewCatalogUsecase(catalog.NewSource(cfg), cache.NewMemoryCache(cfg.CacheCatalogTTL, 0), cfg),
		Sessions: sessionUC,
		Close:    store.Close,
	}, nil
}

func main() {
	cfg := config.LoadConfig()
	if err := cli.Execute(context.Background(), cfg, build, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		logger.Debug().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
