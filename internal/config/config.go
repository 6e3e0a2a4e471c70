package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
	SessionStore  string // "db" or "redis"
	RedisAddr     string
	TrustProxy    bool

	// Admin bootstrap (optional; creates an admin account on startup)
	AdminEmail    string
	AdminPassword string

	// OpenID Connect (issuer/id/secret must all be set to enable)
	OpenIDIssuerURL    string
	OpenIDClientID     string
	OpenIDClientSecret string
	OpenIDCallbackURL  string

	// Artifact storage
	UploadDir string

	// Storage (optional S3-compatible: MinIO, AWS S3, R2, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "ServiceDesk"),
		AppEnv:  envString("APP_ENV", "development"),
		Port:    envString("PORT", "5000"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/servicedesk.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		SessionSecret: envRequired("SESSION_SECRET"),
		SessionTTL:    envDuration("SESSION_TTL", 7*24*time.Hour),
		SessionStore:  envString("SESSION_STORE", "db"),
		RedisAddr:     envString("REDIS_ADDR", "localhost:6379"),
		TrustProxy:    envBool("TRUST_PROXY", false),

		AdminEmail:    envString("ADMIN_EMAIL", ""),
		AdminPassword: envString("ADMIN_PASSWORD", ""),

		OpenIDIssuerURL:    envString("OPENID_ISSUER_URL", ""),
		OpenIDClientID:     envString("OPENID_CLIENT_ID", ""),
		OpenIDClientSecret: envString("OPENID_CLIENT_SECRET", ""),
		OpenIDCallbackURL:  envString("OPENID_CALLBACK_URL", ""),

		UploadDir: envString("UPLOAD_DIR", "./data/uploads"),

		S3Region:        envString("S3_REGION", ""),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 15*time.Minute),

		SentryDSN: envString("SENTRY_DSN", ""),
	}

	// Base URL defaults to the local listen address; the default OpenID
	// callback URL is derived from it when none is configured.
	cfg.AppURL = envString("APP_URL", "http://localhost:"+cfg.Port)

	if cfg.OpenIDEnabled() && cfg.OpenIDCallbackURL == "" {
		cfg.OpenIDCallbackURL = cfg.AppURL + "/api/auth/openid/callback"
	}

	return cfg
}

// OpenIDEnabled reports whether federated login is configured.
// Issuer, client id and client secret must all be present; otherwise
// the feature stays fully inert and its routes are not registered.
func (c *Config) OpenIDEnabled() bool {
	return c.OpenIDIssuerURL != "" && c.OpenIDClientID != "" && c.OpenIDClientSecret != ""
}

// S3Enabled reports whether artifacts live in S3-compatible object
// storage instead of the local upload directory.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SecureCookies reports whether session cookies should carry the
// Secure flag: in production, or behind a TLS-terminating proxy.
func (c *Config) SecureCookies() bool {
	return c.IsProduction() || c.TrustProxy
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}
