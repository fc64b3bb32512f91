package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iac-studio/rolecfg/internal/api"
	"github.com/iac-studio/rolecfg/internal/api/handlers"
	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	"github.com/iac-studio/rolecfg/internal/scm"
	"github.com/iac-studio/rolecfg/internal/services"
	"github.com/iac-studio/rolecfg/internal/template"
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

	log.Info("starting rolecfg api",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.Options{AppEnv: cfg.AppEnv})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql db", zap.Error(err))
	}

	jwtSecret, err := cfg.TokenSecret()
	if err != nil {
		log.Fatal("invalid token configuration", zap.Error(err))
	}
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, using an insecure development secret")
	}

	rules := models.ValidationRules{AllowNoCPULimit: cfg.NoCPULimitAllowed}
	configRepo := repository.NewDeployGroupRoleRepository(db, rules)
	roleRepo := repository.NewRoleRepository(db)
	groupRepo := repository.NewDeployGroupRepository(db)
	stageRepo := repository.NewStageRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	userRepo := repository.NewUserRepository(db)

	source := scm.NewRemotes(scm.NewCache(cfg.RevisionCacheSize, cfg.RevisionCacheTTL))
	renderer := services.NewVerificationRenderer(
		configRepo,
		services.NewRevisionResolver(cfg.DefaultBranch),
		source,
		template.NewCompiler(),
	)
	authService := services.NewAuthService(userRepo, jwtSecret)

	router := api.NewRouter(api.Dependencies{
		Tokens: authService,
		DB:     sqlDB,
		DeployGroupRolesHandler: handlers.NewDeployGroupRolesHandler(
			services.NewDeployGroupRoleService(configRepo, roleRepo, groupRepo),
			services.NewBulkEditor(configRepo),
			renderer,
			authService,
			cfg.SeedFailureLines,
		),
		SeedsHandler:    handlers.NewSeedsHandler(services.NewSeeder(stageRepo, roleRepo, configRepo), cfg.SeedFailureLines),
		ProjectsHandler: handlers.NewProjectsHandler(projectRepo),
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("database close error", zap.Error(err))
	}
}
