package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Job store: "memory" or "mongo"
	JobStore string

	// MongoDB Configuration
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// HTTP Server Configuration
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Record API Configuration
	ERPTimeout          time.Duration
	ERPMinInterval      time.Duration
	ERPMaxAttempts      int
	ERPBreakerThreshold int
	ERPBreakerCooldown  time.Duration
	PriceItemsPath      string
	PriceValueField     string

	// Catalog of environments and field mappings
	CatalogPath string

	// Identity header set by the session layer in front of the service
	IdentityHeader string

	// CORS Configuration
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int

	// Retention
	JobRetention      time.Duration
	RetentionSchedule string
}

// LoadEnvFile loads variables from a .env file. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		JobStore: getEnv("JOB_STORE", "memory"),

		// MongoDB
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/pimpush?authSource=admin"),
		MongoDatabase: getEnv("MONGO_DATABASE", "pimpush"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,

		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Record API
		ERPTimeout:          getDurationEnv("ERP_TIMEOUT_SEC", 60) * time.Second,
		ERPMinInterval:      getDurationEnv("ERP_MIN_INTERVAL_MS", 0) * time.Millisecond,
		ERPMaxAttempts:      getIntEnv("ERP_MAX_ATTEMPTS", 3),
		ERPBreakerThreshold: getIntEnv("ERP_BREAKER_THRESHOLD", 5),
		ERPBreakerCooldown:  getDurationEnv("ERP_BREAKER_COOLDOWN_SEC", 30) * time.Second,
		PriceItemsPath:      getEnv("ERP_PRICE_ITEMS_PATH", "$.items"),
		PriceValueField:     getEnv("ERP_PRICE_VALUE_FIELD", "price"),

		CatalogPath:    getEnv("CATALOG_PATH", ""),
		IdentityHeader: getEnv("IDENTITY_HEADER", "X-Remote-User"),

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, OPTIONS"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),

		// Retention
		JobRetention:      getDurationEnv("JOB_RETENTION_SEC", 86400) * time.Second,
		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "*/10 * * * *"),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
