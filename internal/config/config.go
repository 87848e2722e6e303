package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	AppPort string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string
	AllowedOrigins    []string

	// Object storage for profile images.
	StorageURL    string
	StorageKey    string
	StorageBucket string

	EmailAPIURL      string
	EmailServiceID   string
	EmailTemplateID  string
	EmailPublicKey   string
	EmailAccessToken string

	PaymentBaseURL string
	AnalyticsURL   string

	SessionFile       string
	ConsoleLogFile    string
	ReconcileSchedule string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		StorageURL:    os.Getenv("STORAGE_URL"),
		StorageKey:    os.Getenv("STORAGE_KEY"),
		StorageBucket: getEnv("STORAGE_BUCKET", "profile-images"),

		EmailAPIURL:      getEnv("EMAIL_API_URL", "https://api.emailjs.com/api/v1.0/email/send"),
		EmailServiceID:   os.Getenv("EMAIL_SERVICE_ID"),
		EmailTemplateID:  os.Getenv("EMAIL_TEMPLATE_ID"),
		EmailPublicKey:   os.Getenv("EMAIL_PUBLIC_KEY"),
		EmailAccessToken: os.Getenv("EMAIL_ACCESS_TOKEN"),

		PaymentBaseURL: getEnv("PAYMENT_BASE_URL", "http://localhost:5001"),
		AnalyticsURL:   getEnv("ANALYTICS_URL", "http://localhost:5000"),

		SessionFile:       getEnv("SESSION_FILE", ".farmer-session.json"),
		ConsoleLogFile:    getEnv("CONSOLE_LOG_FILE", "farmer-console.log"),
		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "@every 5m"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
