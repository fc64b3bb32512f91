package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or config files.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required,url|uri"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	// DefaultBranch is resolved when a verification render names neither ref nor sha.
	DefaultBranch string `mapstructure:"DEFAULT_BRANCH" validate:"required"`
	// NoCPULimitAllowed lets resource configs opt out of a CPU limit.
	NoCPULimitAllowed bool `mapstructure:"NO_CPU_LIMIT_ALLOWED"`
	// SeedFailureLines bounds the detail lines reported for a failed seed.
	SeedFailureLines int `mapstructure:"SEED_FAILURE_LINES" validate:"gte=1,lte=100"`

	RevisionCacheSize int           `mapstructure:"REVISION_CACHE_SIZE" validate:"gte=0"`
	RevisionCacheTTL  time.Duration `mapstructure:"REVISION_CACHE_TTL"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST" validate:"gte=1"`

	GoMaxProcs int `mapstructure:"GOMAXPROCS" validate:"gte=0,lte=4096"`
}

var (
	cfg      *Config
	validate = validator.New(validator.WithRequiredStructEnabled())
)

var keys = []string{
	"APP_ENV",
	"HTTP_ADDR",
	"SHUTDOWN_TIMEOUT",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"DATABASE_URL",
	"JWT_SECRET",
	"DEFAULT_BRANCH",
	"NO_CPU_LIMIT_ALLOWED",
	"SEED_FAILURE_LINES",
	"REVISION_CACHE_SIZE",
	"REVISION_CACHE_TTL",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"GOMAXPROCS",
}

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DEFAULT_BRANCH", "master")
	v.SetDefault("NO_CPU_LIMIT_ALLOWED", false)
	v.SetDefault("SEED_FAILURE_LINES", 3)
	v.SetDefault("REVISION_CACHE_SIZE", 256)
	v.SetDefault("REVISION_CACHE_TTL", "1m")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("GOMAXPROCS", 0)

	// Optional config file
	_ = v.ReadInConfig()

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	for key, dst := range map[string]*time.Duration{
		"SHUTDOWN_TIMEOUT":   &c.ShutdownTimeout,
		"REVISION_CACHE_TTL": &c.RevisionCacheTTL,
	} {
		if s := v.GetString(key); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(c.GoMaxProcs)
	}

	cfg = &c
	return cfg, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// Get returns the loaded configuration. Panics if not loaded.
func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call config.Load or config.MustLoad first")
	}
	return cfg
}

const developmentSecret = "rolecfg-development-secret"

// TokenSecret returns the HMAC secret for API tokens. Outside production an
// unset JWT_SECRET falls back to a fixed development secret so the API and
// rolecfgctl agree.
func (c *Config) TokenSecret() ([]byte, error) {
	if c.JWTSecret != "" {
		return []byte(c.JWTSecret), nil
	}
	if c.AppEnv == "production" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	return []byte(developmentSecret), nil
}
