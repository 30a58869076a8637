package config

import (
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	DataDir         string
	TempDir         string
	StoreBackend    string
	DatabasePath    string
	SessionDuration time.Duration
	AllowedOrigins  string
	LogLevel        string
	AdminPassword   string
	SeedUsersPath   string

	MailgunDomain      string
	MailgunAPIKey      string
	MailgunSenderEmail string
	MailgunSenderName  string
	NotifyEmail        string
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "production"),
		DataDir:         dataDir,
		TempDir:         getEnv("TEMP_DIR", "temp"),
		StoreBackend:    getEnv("STORE_BACKEND", "file"),
		DatabasePath:    getEnv("DATABASE_PATH", filepath.Join(dataDir, "labtrack.db")),
		SessionDuration: getDuration("SESSION_DURATION", 12*time.Hour),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:8080"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin"),
		SeedUsersPath:   os.Getenv("SEED_USERS_PATH"),

		MailgunDomain:      os.Getenv("MAILGUN_DOMAIN"),
		MailgunAPIKey:      os.Getenv("MAILGUN_API_KEY"),
		MailgunSenderEmail: getEnv("MAILGUN_SENDER_EMAIL", "noreply@localhost"),
		MailgunSenderName:  getEnv("MAILGUN_SENDER_NAME", "Labtrack"),
		NotifyEmail:        os.Getenv("NOTIFY_EMAIL"),
	}
	return cfg
}

// IsDevelopment disables rate limiting, CSRF checks and security headers.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
