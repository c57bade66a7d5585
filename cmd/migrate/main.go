package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logger"
	"storefront/internal/migrate"
)

func main() {
	var (
		down        int
		showVersion bool
	)
	flag.IntVar(&down, "down", 0, "Roll back this many migrations instead of applying")
	flag.BoolVar(&showVersion, "version", false, "Print the current schema version and exit")
	flag.Parse()

	cfg := config.FromEnv()
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	switch {
	case showVersion:
		version, dirty, err := migrate.Version(ctx, pool, log)
		if err != nil {
			log.Fatal("read schema version", zap.Error(err))
		}
		log.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	case down > 0:
		if err := migrate.Rollback(ctx, pool, down); err != nil {
			log.Fatal("roll back migrations", zap.Int("steps", down), zap.Error(err))
		}
		log.Info("migrations rolled back", zap.Int("steps", down))
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			log.Fatal("apply migrations", zap.Error(err))
		}
		log.Info("migrations applied")
	}
}
