package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppEnv   string
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Registry RegistryConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Backend        string // postgres or sqlite
	Host           string
	Port           int
	Username       string
	Password       string
	DBName         string
	SSLMode        string
	SQLitePath     string
	MaxConns       int
	Workers        int
	AcquireTimeout time.Duration
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret string
	DevLogin  bool
}

// RegistryConfig points at the nonprofit registry used for EIN lookups.
type RegistryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GetDSN returns the database connection string for the configured backend.
func (c *DatabaseConfig) GetDSN() string {
	if c.Backend == "sqlite" || c.Backend == "sqlite3" {
		return SQLiteDSN(c.SQLitePath)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// SQLiteDSN builds a go-sqlite3 DSN with foreign keys on and write
// transactions that take the lock up front.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", filepath.ToSlash(path))
}

// IsDevelopment reports whether the app runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// DevLoginEnabled reports whether the credential-free dev login route is
// served. It needs both DEV_LOGIN=true and a development environment.
func (c *Config) DevLoginEnabled() bool {
	return c.Auth.DevLogin && c.IsDevelopment()
}

// LoadConfig loads the configuration from a .env file, if present, and then
// from environment variables. Variables already set win over the file.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Backend:        getEnv("DB_BACKEND", "sqlite"),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvAsInt("DB_PORT", 5432),
			Username:       getEnv("DB_USERNAME", "postgres"),
			Password:       getEnv("DB_PASSWORD", "password"),
			DBName:         getEnv("DB_NAME", "deductible"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			SQLitePath:     getEnv("SQLITE_PATH", "deductible.db"),
			MaxConns:       getEnvAsInt("DB_MAX_CONNS", 10),
			Workers:        getEnvAsInt("DB_WORKERS", 8),
			AcquireTimeout: time.Duration(getEnvAsInt("DB_ACQUIRE_TIMEOUT_MS", 5000)) * time.Millisecond,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-here"),
			DevLogin:  getEnvAsBool("DEV_LOGIN", false),
		},
		Registry: RegistryConfig{
			BaseURL: getEnv("REGISTRY_BASE_URL", ""),
			Timeout: time.Duration(getEnvAsInt("REGISTRY_TIMEOUT_MS", 5000)) * time.Millisecond,
		},
	}
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
