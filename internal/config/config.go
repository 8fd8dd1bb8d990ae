package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	AuthJWKSURL string // JWKS endpoint of the identity provider
	CORSOrigins string
	TablePrefix string
	AutoMigrate bool // Create missing tables on startup
	// Search
	SearchLanguage string // PostgreSQL text search configuration
	// Logging
	LogDir        string // Empty disables the rotating log file
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AuthJWKSURL:    getEnv("AUTH_JWKS_URL", ""),
		CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:    getTablePrefix(env),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", env != "prod"),
		SearchLanguage: getEnv("SEARCH_LANGUAGE", "english"),
		LogDir:         getEnv("LOG_DIR", ""),
		LogMaxSizeMB:   getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups:  getEnvInt("LOG_MAX_BACKUPS", 10),
		LogMaxAgeDays:  getEnvInt("LOG_MAX_AGE_DAYS", 14),
	}
}

// IsDev reports whether debug behaviour (verbose logging) is enabled
func (c *Config) IsDev() bool {
	return c.Environment == "dev" || c.Environment == "test"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}
