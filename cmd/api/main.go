package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logger"
	cartrepo "storefront/internal/repository/cart"
	productrepo "storefront/internal/repository/product"
	promotionrepo "storefront/internal/repository/promotion"
	tenantrepo "storefront/internal/repository/tenant"
	cartsvc "storefront/internal/service/cart"
	productsvc "storefront/internal/service/product"
	promotionsvc "storefront/internal/service/promotion"
)

func main() {
	cfg := config.FromEnv()
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("api").With(zap.String("env", cfg.Env))

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	tenantRepo := tenantrepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool, log)
	promotionRepo := promotionrepo.NewPostgres(dbpool, log)
	cartRepo := cartrepo.NewPostgres(dbpool, log)

	srv, err := httpserver.New(cfg.HTTPAddr, log, httpserver.Deps{
		DB:             dbpool,
		TenantRepo:     tenantRepo,
		ProductSvc:     productsvc.New(productRepo, promotionRepo),
		PromotionSvc:   promotionsvc.New(promotionRepo),
		CartSvc:        cartsvc.New(cartRepo, productRepo, promotionRepo, log),
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		log.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	} else {
		log.Info("server stopped")
	}
}
