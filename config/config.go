// Package config provides configuration management for the foodgram application.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting:
// every problem is reported at once instead of failing on the first missing variable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabasePools holds configuration for the two database connection pools.
// AppPool serves HTTP requests; ImportPool is used for migrations, extensions and
// bulk loading of reference data so those never starve request handling.
type DatabasePools struct {
	AppPool    *PoolConfig
	ImportPool *PoolConfig
}

// PoolConfig represents configuration for a single database connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxSize  int
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret            string        // Secret key for signing JWTs
	AccessTokenDuration  time.Duration // Duration for access tokens
	RefreshTokenDuration time.Duration // Duration for refresh tokens
	LoginRatePerMinute   int           // Requests per IP per minute on /auth endpoints
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port           string // Port for the HTTP server
	AllowedOrigins []string
}

// AppSettings holds the product-level constants that show up in responses.
type AppSettings struct {
	Name                 string // Shown in the shopping list header
	ShoppingListFilename string
	ShoppingListMIME     string
	DefaultPageSize      int
	MigrationsPath       string
}

// MediaConfig controls where decoded recipe images are written and how they are addressed.
type MediaConfig struct {
	Root string // Directory on disk
	URL  string // Public URL prefix, e.g. "/media/"
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string
	Format string // json or console
}

// CacheConfig configures the catalog cache. An empty RedisAddr selects the in-process cache.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DBPools *DatabasePools
	Auth    *AuthConfig
	Server  *ServerConfig
	App     *AppSettings
	Media   *MediaConfig
	Log     *LogConfig
	Cache   *CacheConfig
}

// Helper function to get a required environment variable.
// Appends an error to the errors slice if the variable is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "1h30s".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// getOptionalEnvList splits a comma separated variable, dropping blanks.
func getOptionalEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseAndValidatePoolSize converts a string value to an integer, validates and clamps it.
// Pool sizes are kept between 2 and 100.
func parseAndValidatePoolSize(valueStr string, varName string, errors *[]string) int {
	size, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid pool size for %s: expected integer, got '%s': %v", varName, valueStr, err))
		return 2
	}
	if size < 2 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is less than minimum 2", varName, size))
		return 2
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100", varName, size))
		return 100
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Database Configuration
	dbUser := getRequiredEnv("DB_USER", &errors)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errors)
	dbName := getRequiredEnv("DB_NAME", &errors)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errors)
	dbSSLMode := getOptionalEnv("DB_SSLMODE", "disable")

	appPoolSize := parseAndValidatePoolSize(getOptionalEnv("DB_APP_POOL_SIZE", "10"), "DB_APP_POOL_SIZE", &errors)
	importPoolSize := parseAndValidatePoolSize(getOptionalEnv("DB_IMPORT_POOL_SIZE", "2"), "DB_IMPORT_POOL_SIZE", &errors)

	pool := func(size int) *PoolConfig {
		return &PoolConfig{
			Host:     dbHost,
			Port:     dbPort,
			User:     dbUser,
			Password: dbPassword,
			DBName:   dbName,
			SSLMode:  dbSSLMode,
			MaxSize:  size,
		}
	}
	dbPools := &DatabasePools{AppPool: pool(appPoolSize), ImportPool: pool(importPoolSize)}

	// Auth Configuration
	authConfig := &AuthConfig{
		JWTSecret:            getRequiredEnv("JWT_SECRET", &errors),
		AccessTokenDuration:  getOptionalEnvDuration("JWT_ACCESS_TOKEN_DURATION", 24*time.Hour, &errors),
		RefreshTokenDuration: getOptionalEnvDuration("JWT_REFRESH_TOKEN_DURATION", 168*time.Hour, &errors), // 7 days
		LoginRatePerMinute:   getOptionalEnvInt("RATE_LIMIT_AUTH_PER_MINUTE", 20, &errors),
	}

	serverConfig := &ServerConfig{
		Port:           getOptionalEnv("PORT", "8080"),
		AllowedOrigins: getOptionalEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	appSettings := &AppSettings{
		Name:                 getOptionalEnv("APP_NAME", "Foodgram"),
		ShoppingListFilename: getOptionalEnv("SHOPPING_LIST_FILENAME", "shopping_list.txt"),
		ShoppingListMIME:     getOptionalEnv("SHOPPING_LIST_CONTENT_TYPE", "text/plain; charset=utf-8"),
		DefaultPageSize:      getOptionalEnvInt("DEFAULT_PAGE_SIZE", 6, &errors),
		MigrationsPath:       getOptionalEnv("MIGRATIONS_PATH", "./db/migrations"),
	}
	if appSettings.DefaultPageSize < 1 {
		errors = append(errors, fmt.Sprintf("DEFAULT_PAGE_SIZE must be positive, got %d", appSettings.DefaultPageSize))
	}

	mediaConfig := &MediaConfig{
		Root: getOptionalEnv("MEDIA_ROOT", "./media"),
		URL:  getOptionalEnv("MEDIA_URL", "/media/"),
	}
	if !strings.HasSuffix(mediaConfig.URL, "/") {
		mediaConfig.URL += "/"
	}

	logConfig := &LogConfig{
		Level:  getOptionalEnv("LOG_LEVEL", "info"),
		Format: getOptionalEnv("LOG_FORMAT", "json"),
	}

	cacheConfig := &CacheConfig{
		RedisAddr:     getOptionalEnv("REDIS_ADDR", ""),
		RedisPassword: getOptionalEnv("REDIS_PASSWORD", ""),
		RedisDB:       getOptionalEnvInt("REDIS_DB", 0, &errors),
		TTL:           getOptionalEnvDuration("CATALOG_CACHE_TTL", 10*time.Minute, &errors),
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		DBPools: dbPools,
		Auth:    authConfig,
		Server:  serverConfig,
		App:     appSettings,
		Media:   mediaConfig,
		Log:     logConfig,
		Cache:   cacheConfig,
	}, nil
}
