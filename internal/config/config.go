package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"
)

const (
	AuthModeNone = "none"
	AuthModeDev  = "dev"
)

type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PublicBaseURL     string
	PresignTTLSeconds int
	PreferPublicURL   bool
}

func (c S3Config) MissingRequired() []string {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "S3_REGION")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "S3_ACCESS_KEY_ID")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "S3_SECRET_ACCESS_KEY")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

// DiagnosticsSummary returns a one-line description for the startup banner (no secrets).
func (c S3Config) DiagnosticsSummary() string {
	return fmt.Sprintf("endpoint=%s region=%s bucket=%s public_base_url=%s presign_ttl=%ds access_key_id=%s secret_access_key=%s",
		nonEmptyOrDash(c.Endpoint),
		nonEmptyOrDash(c.Region),
		nonEmptyOrDash(c.Bucket),
		nonEmptyOrDash(c.PublicBaseURL),
		c.PresignTTLSeconds,
		setOrNot(c.AccessKeyID),
		setOrNot(c.SecretAccessKey),
	)
}

func nonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

type BlobConfig struct {
	Mode string // local|s3|auto
	S3   S3Config
}

// GroceryConfig tunes list computation and export.
type GroceryConfig struct {
	MaxRangeDays         int
	CacheTTLSeconds      int
	ExportPresignSeconds int
}

// Config holds the application configuration.
type Config struct {
	Env       string // local | staging | production
	Port      int
	LogLevel  string
	LogFormat string // console | json

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw    string
	DatabaseURLPooled string
	DatabaseURLDirect string // for migrations / DDL (may be empty)

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	Blob BlobConfig

	// Auth
	AuthMode      string // none | dev
	AuthRequired  bool
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	Grocery               GroceryConfig
	IngredientSearchLimit int

	RunMigrationsOnStartup bool

	// Warnings collects fallbacks applied while loading; logged once the logger exists.
	Warnings []string
}

// Load reads the configuration from environment variables.
func Load() *Config {
	cfg := &Config{}

	cfg.Env = os.Getenv("APP_ENV")
	if cfg.Env == "" {
		cfg.Env = "local"
	}

	cfg.Port = envInt("PORT", 8080)

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	cfg.LogFormat = cfg.enumEnv("LOG_FORMAT", "console", "console", "json")

	// ---------- Database ----------
	// Priority: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT
	cfg.DatabaseURLPooled = strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	cfg.DatabaseURLRaw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.DatabaseURLDirect = strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))
	cfg.DatabaseURL = cfg.DatabaseURLPooled
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.DatabaseURLRaw
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.DatabaseURLDirect
	}
	cfg.RunMigrationsOnStartup = parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP")

	// ---------- CORS ----------
	cfg.CORSAllowedOrigins = parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), cfg.Env)
	cfg.CORSAllowCredentials = parseBoolEnv("CORS_ALLOW_CREDENTIALS")

	// ---------- Rate Limiting ----------
	cfg.RateLimitRPS = envInt("RATE_LIMIT_RPS", 0)
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", 0)

	// ---------- Blob / S3 ----------
	presignTTL := envInt("S3_PRESIGN_TTL_SECONDS", 900)
	if presignTTL <= 0 {
		presignTTL = 900
	}
	cfg.Blob = BlobConfig{
		Mode: cfg.enumEnv("BLOB_MODE", BlobModeLocal, BlobModeLocal, BlobModeS3, BlobModeAuto),
		S3: S3Config{
			Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
			Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
			AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
			SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
			PublicBaseURL:     strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
			PresignTTLSeconds: presignTTL,
			PreferPublicURL:   parseBoolEnv("S3_PREFER_PUBLIC_URL"),
		},
	}

	// ---------- Auth ----------
	cfg.AuthMode = cfg.enumEnv("AUTH_MODE", AuthModeNone, AuthModeNone, AuthModeDev)
	cfg.AuthRequired = cfg.AuthMode != AuthModeNone && parseBoolEnv("AUTH_REQUIRED")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "change_me"
	}
	if cfg.JWTSecret == "change_me" && cfg.Env != "local" {
		cfg.warn("JWT_SECRET is set to 'change_me' in non-local environment")
	}
	cfg.JWTIssuer = os.Getenv("JWT_ISSUER")
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "mealcart"
	}
	cfg.JWTTTLMinutes = positive(envInt("JWT_TTL_MINUTES", 10080), 10080)

	// ---------- Grocery ----------
	cfg.Grocery = GroceryConfig{
		MaxRangeDays:         positive(envInt("GROCERY_MAX_RANGE_DAYS", 62), 62),
		CacheTTLSeconds:      positive(envInt("GROCERY_CACHE_TTL_SECONDS", 600), 600),
		ExportPresignSeconds: positive(envInt("EXPORT_PRESIGN_TTL_SECONDS", 900), 900),
	}
	cfg.IngredientSearchLimit = positive(envInt("INGREDIENT_SEARCH_LIMIT", 50), 50)

	return cfg
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// enumEnv reads key and falls back to defaultVal when the value is not one of allowed.
func (c *Config) enumEnv(key, defaultVal string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	c.warn("unknown %s=%q, fallback to %s", key, v, defaultVal)
	return defaultVal
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:8081"}
		}
		return nil // prod: deny by default
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func positive(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
