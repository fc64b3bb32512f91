package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/pkg/config"
	"github.com/iac-studio/rolecfg/pkg/database"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.OpenPostgres(context.Background(), cfg.DatabaseURL, database.Options{AppEnv: cfg.AppEnv})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := models.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	fmt.Fprintln(os.Stdout, "migrations completed")
}
