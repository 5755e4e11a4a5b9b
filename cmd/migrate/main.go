package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"go.uber.org/zap"

	"referral-backend/internal/shared/config"
	"referral-backend/internal/shared/storage/db"
	"referral-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	logger := telemetry.New(cfg.LogLevel, cfg.LogFormat)
	telemetry.SetLogger(logger)
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultMigrateOptions().Merge(cfg.DB))
	if err != nil {
		logger.Error("failed to connect database", zap.Error(err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("migrations applied")
}
