package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// HTTP Configuration
	HTTP HTTPConfig

	// Auth Configuration
	Auth AuthConfig

	// SMTP Configuration for OTP delivery
	SMTP SMTPConfig

	// Logging Configuration
	Logging LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port          string
	AllowedOrigin string // Origin of the browser console, needed for credentialed CORS
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	CookieDomain    string
	SecureCookies   bool
	DefaultPassword string // Password assigned by admin resets; forces a change on next login
}

// SMTPConfig holds outgoing mail configuration
type SMTPConfig struct {
	Host string
	Port string
	From string
	User string
	Pass string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return &Config{
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "ecogate.sqlite"),
		},
		Redis: RedisConfig{
			Address: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		HTTP: HTTPConfig{
			Port:          getEnv("HTTP_PORT", "8000"),
			AllowedOrigin: getEnv("CONSOLE_ORIGIN", "http://localhost:5173"),
		},
		Auth: AuthConfig{
			CookieDomain:    getEnv("COOKIE_DOMAIN", ""),
			SecureCookies:   getEnv("SECURE_COOKIES", "false") == "true",
			DefaultPassword: getEnv("DEFAULT_PASSWORD", "Ecogate@2025"),
		},
		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", "localhost"),
			Port: getEnv("SMTP_PORT", "25"),
			From: getEnv("SMTP_FROM", "no-reply@ecogate.local"),
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
