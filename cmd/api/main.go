package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/fdg312/mealcart/internal/config"
	"github.com/fdg312/mealcart/internal/dbmigrate"
	"github.com/fdg312/mealcart/internal/httpserver"
	"github.com/fdg312/mealcart/internal/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Must(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync(log)

	for _, w := range cfg.Warnings {
		log.Warn("config", zap.String("warning", w))
	}
	printStartupBanner(log, cfg)
	validateProductionConfig(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		sel, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatal("startup migrations", zap.Error(err))
		}

		log.Info("startup migrations", zap.String("command", "up"), zap.String("using", sel.Source))
		if err := dbmigrate.Run("up", sel.URL, nil); err != nil {
			log.Fatal("startup migrations failed", zap.Error(err))
		}
		log.Info("startup migrations completed")
	}

	server := httpserver.New(ctx, cfg, log)
	defer server.Close()

	if err := server.Start(ctx); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// printStartupBanner logs the resolved configuration once. Secrets are only
// reported as set or not set.
func printStartupBanner(log *zap.Logger, cfg *config.Config) {
	log.Info("mealcart api",
		zap.String("env", cfg.Env),
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
	)

	log.Info("database",
		zap.String("runtime_url", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled)),
		zap.String("pooled", setOrNot(cfg.DatabaseURLPooled)),
		zap.String("direct", setOrNot(cfg.DatabaseURLDirect)),
		zap.Bool("migrations_on_startup", cfg.RunMigrationsOnStartup),
	)

	log.Info("auth",
		zap.String("auth_mode", cfg.AuthMode),
		zap.Bool("auth_required", cfg.AuthRequired),
		zap.String("jwt_secret", secretStatus(cfg.JWTSecret, "change_me")),
		zap.Int("jwt_ttl_minutes", cfg.JWTTTLMinutes),
	)

	fields := []zap.Field{zap.String("blob_mode", cfg.Blob.Mode)}
	if cfg.Blob.Mode != config.BlobModeLocal {
		fields = append(fields, zap.String("s3", cfg.Blob.S3.DiagnosticsSummary()))
	}
	log.Info("blob", fields...)

	log.Info("grocery",
		zap.Int("max_range_days", cfg.Grocery.MaxRangeDays),
		zap.Int("cache_ttl_seconds", cfg.Grocery.CacheTTLSeconds),
		zap.Int("export_presign_seconds", cfg.Grocery.ExportPresignSeconds),
		zap.Int("ingredient_search_limit", cfg.IngredientSearchLimit),
	)
}

// validateProductionConfig performs fatal checks that only matter outside local.
func validateProductionConfig(log *zap.Logger, cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "staging"

	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatal("BLOB_MODE is 's3' but S3 config is incomplete", zap.String("missing", strings.Join(missing, ", ")))
		}
	}

	if isProd && cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		log.Fatal(fmt.Sprintf("JWT_SECRET must not be 'change_me' in %s with AUTH_REQUIRED=1", cfg.Env))
	}

	if isProd && cfg.DatabaseURL == "" {
		log.Fatal("no DATABASE_URL configured", zap.String("env", cfg.Env))
	}
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
