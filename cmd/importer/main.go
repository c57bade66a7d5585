package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/importer"
	"storefront/internal/logger"
	"storefront/internal/repository/product"
	"storefront/internal/repository/promotion"
	"storefront/internal/repository/tenant"
)

func main() {
	var (
		filePath  string
		tenantKey string
		currency  string
	)
	flag.StringVar(&filePath, "file", "", "Path to a product export or promotion CSV")
	flag.StringVar(&tenantKey, "tenant", "", "Tenant key to import into")
	flag.StringVar(&currency, "currency", "EUR", "Currency for a tenant created by this import")
	flag.Parse()

	if filePath == "" || tenantKey == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	tenantRepo := tenant.NewPostgres(pool)
	t, err := tenantRepo.GetByKey(ctx, tenantKey)
	if errors.Is(err, domain.ErrNotFound) {
		t, err = tenantRepo.Create(ctx, &domain.Tenant{Key: tenantKey, Name: tenantKey, Currency: currency})
	}
	if err != nil {
		log.Fatal("ensure tenant", zap.String("tenant", tenantKey), zap.Error(err))
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, log), promotion.NewPostgres(pool, log), t.ID, log)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatal("import failed", zap.Error(err))
	}

	fmt.Printf("Imported %d rows into tenant %s in %s\n", count, tenantKey, time.Since(start).Truncate(time.Millisecond))
}
