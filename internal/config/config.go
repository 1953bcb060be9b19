package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	UploadDir string

	JWTSecret string
	TokenTTL  time.Duration

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	SendGridAPIKey string
	MailFrom       string

	VerificationTTL  time.Duration
	PasswordResetTTL time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),
		TokenTTL:  time.Hour,

		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getEnv("MAIL_FROM", "noreply@faculty.local"),

		VerificationTTL:  24 * time.Hour,
		PasswordResetTTL: time.Hour,
	}

	if ttlStr := os.Getenv("JWT_TTL"); ttlStr != "" {
		if d, err := time.ParseDuration(ttlStr); err == nil {
			cfg.TokenTTL = d
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
