package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	FrontendURL    string

	DBHost string
	DBUser string
	DBPass string
	DBName string
	DBPort string

	RedisURL string

	SessionSecret       string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	SignupTicketTTL     time.Duration
	SignupRequireTicket bool

	VerificationCodeTTL        time.Duration
	VerificationMaxAttempts    int
	VerificationResendInterval time.Duration

	EmailUser   string
	EmailPass   string
	SMTPHost    string
	SMTPPort    string
	SMTPTimeout time.Duration

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryCloudName    string
	CloudinaryUploadFolder string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	KakaoClientID     string
	KakaoClientSecret string
	KakaoRedirectURL  string

	LogLevel  string
	LogFormat string

	// SeedDemoData creates a sample tutor on startup in development.
	SeedDemoData bool
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8000"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		FrontendURL:    strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: getEnv("DB_NAME", "handchatter"),
		DBPort: getEnv("DB_PORT", "5432"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		SessionSecret: os.Getenv("SESSION_SECRET"),

		EmailUser: os.Getenv("EMAIL_USER"),
		EmailPass: os.Getenv("EMAIL_PASS"),
		SMTPHost:  getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  getEnv("SMTP_PORT", "587"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "handchatter"),

		S3Bucket:    getEnv("S3_BUCKET", "handchatter-documents"),
		S3Region:    getEnv("S3_REGION", "ap-northeast-2"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),

		KakaoClientID:     os.Getenv("KAKAO_CLIENT_ID"),
		KakaoClientSecret: os.Getenv("KAKAO_CLIENT_SECRET"),
		KakaoRedirectURL:  getEnv("KAKAO_REDIRECT_URL", "http://localhost:8000/auth/kakao/callback"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET must be set in production")
		}
		cfg.SessionSecret = "change-me"
	}

	if !strings.HasPrefix(cfg.MeiliSearchHost, "http") {
		cfg.MeiliSearchHost = "http://" + cfg.MeiliSearchHost + ":7700"
	}

	// Parsing durations
	var err error
	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"SESSION_TTL", "24h", &cfg.SessionTTL},
		{"SIGNUP_TICKET_TTL", "30m", &cfg.SignupTicketTTL},
		{"VERIFICATION_CODE_TTL", "5m", &cfg.VerificationCodeTTL},
		{"VERIFICATION_RESEND_INTERVAL", "30s", &cfg.VerificationResendInterval},
		{"SMTP_TIMEOUT", "10s", &cfg.SMTPTimeout},
	}
	for _, d := range durations {
		*d.dst, err = parseDuration(getEnv(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	cfg.VerificationMaxAttempts, err = strconv.Atoi(getEnv("VERIFICATION_MAX_ATTEMPTS", "5"))
	if err != nil || cfg.VerificationMaxAttempts < 1 {
		return nil, fmt.Errorf("invalid VERIFICATION_MAX_ATTEMPTS: %q", os.Getenv("VERIFICATION_MAX_ATTEMPTS"))
	}

	if cfg.SessionCookieSecure, err = parseBool(getEnv("SESSION_COOKIE_SECURE", "false")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_COOKIE_SECURE: %w", err)
	}
	if cfg.SignupRequireTicket, err = parseBool(getEnv("SIGNUP_REQUIRE_TICKET", "true")); err != nil {
		return nil, fmt.Errorf("invalid SIGNUP_REQUIRE_TICKET: %w", err)
	}
	if cfg.SeedDemoData, err = parseBool(getEnv("SEED_DEMO_DATA", "false")); err != nil {
		return nil, fmt.Errorf("invalid SEED_DEMO_DATA: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func parseBool(s string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
