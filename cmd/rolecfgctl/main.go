package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iac-studio/rolecfg/internal/cli"
	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	"github.com/iac-studio/rolecfg/internal/scm"
	"github.com/iac-studio/rolecfg/internal/services"
	"github.com/iac-studio/rolecfg/internal/template"
	"github.com/iac-studio/rolecfg/pkg/config"
	"github.com/iac-studio/rolecfg/pkg/database"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

func open(ctx context.Context) (*cli.Deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	secret, err := cfg.TokenSecret()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.Options{AppEnv: cfg.AppEnv, MaxRetries: 1})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	rules := models.ValidationRules{AllowNoCPULimit: cfg.NoCPULimitAllowed}
	repos := repository.NewSet(db, rules)
	source := scm.NewRemotes(scm.NewCache(cfg.RevisionCacheSize, cfg.RevisionCacheTTL))

	deps := &cli.Deps{
		Configs: services.NewDeployGroupRoleService(repos.Configs, repos.Roles, repos.DeployGroups),
		Seeder:  services.NewSeeder(repos.Stages, repos.Roles, repos.Configs),
		Renderer: services.NewVerificationRenderer(
			repos.Configs,
			services.NewRevisionResolver(cfg.DefaultBranch),
			source,
			template.NewCompiler(),
		),
		Auth:             services.NewAuthService(repos.Users, secret),
		Example:          services.NewExampleLoader(repository.NewTransactor(db, rules)),
		SeedFailureLines: cfg.SeedFailureLines,
	}
	return deps, func() {
		_ = sqlDB.Close()
		logger.Sync()
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.New(open).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrSeedIncomplete) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
