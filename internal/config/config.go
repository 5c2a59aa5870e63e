package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string
	LogMode        string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPass      string
	DBName      string
	DBPort      string

	RedisAddr    string
	RedisChannel string

	JWTSecret string
	JWTTTL    time.Duration

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryUploadFolder string

	AchievementCatalogTTL time.Duration
	RateLimitDonation     time.Duration
	ViewSyncInterval      time.Duration

	// Admin seed, applied in development only.
	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		LogMode:        getEnv("LOG_MODE", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      os.Getenv("DB_PASS"),
		DBName:      getEnv("DB_NAME", "kopilka"),
		DBPort:      getEnv("DB_PORT", "5432"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisChannel: getEnv("REDIS_CHANNEL", "kopilka_realtime"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "kopilka"),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@kopilka.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
	}

	minutes, err := strconv.Atoi(getEnv("JWT_TTL_MINUTES", "60"))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_MINUTES: %q", os.Getenv("JWT_TTL_MINUTES"))
	}
	cfg.JWTTTL = time.Duration(minutes) * time.Minute

	cfg.AchievementCatalogTTL, err = parseDuration(getEnv("ACHIEVEMENT_CATALOG_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACHIEVEMENT_CATALOG_TTL: %w", err)
	}
	cfg.RateLimitDonation, err = parseDuration(getEnv("RATE_LIMIT_DONATION", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_DONATION: %w", err)
	}
	cfg.ViewSyncInterval, err = parseDuration(getEnv("VIEW_SYNC_INTERVAL", "1m"))
	if err != nil || cfg.ViewSyncInterval <= 0 {
		return nil, fmt.Errorf("invalid VIEW_SYNC_INTERVAL: %q", os.Getenv("VIEW_SYNC_INTERVAL"))
	}

	return cfg, nil
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
