package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"shenanigigs/datajobs/internal/config"
	"shenanigigs/datajobs/internal/storage"
	"shenanigigs/datajobs/internal/storage/schema"
	"shenanigigs/datajobs/internal/storage/schema/migrations"
)

func main() {
	rollback := flag.Bool("rollback", false, "revert the most recent migration instead of applying pending ones")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	db, err := storage.New(ctx, storage.Options{
		DSN:             cfg.ClickHouseDSN,
		MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
		MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
		Username:        cfg.ClickHouseUsername,
		Password:        cfg.ClickHousePassword,
		Database:        cfg.ClickHouseDatabase,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to clickhouse", zap.Error(err))
	}
	defer db.Close()

	migrator := schema.NewMigrator(db.Conn(), logger)

	if *rollback {
		if err := migrator.Rollback(ctx, migrations.All); err != nil {
			logger.Fatal("failed to roll back migration", zap.Error(err))
		}
		return
	}

	applied, err := migrator.Migrate(ctx, migrations.All)
	if err != nil {
		logger.Fatal("failed to apply migrations",
			zap.Int("applied", applied),
			zap.Error(err),
		)
	}

	logger.Info("all migrations completed successfully")
}
