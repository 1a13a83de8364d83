// Package config provides centralized default values for sitekeep
package config

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(); err == nil {
			log.Println("Loaded configuration overrides from .env file")
		}
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	})
}

func getEnvInt(key string, defaultValue int) int {
	viper.SetDefault(key, defaultValue)
	val := viper.GetInt(key)
	if val != defaultValue {
		log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
	}
	return val
}

func getEnvString(key string, defaultValue string) string {
	viper.SetDefault(key, defaultValue)
	val := viper.GetString(key)
	if val != defaultValue && !isSecret(key) {
		log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
	}
	return val
}

func getEnvBool(key string, defaultValue bool) bool {
	viper.SetDefault(key, defaultValue)
	val := viper.GetBool(key)
	if val != defaultValue {
		log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
	}
	return val
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	viper.SetDefault(key, defaultValue)
	val := viper.GetDuration(key)
	if val != defaultValue {
		log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
	}
	return val
}

func isSecret(key string) bool {
	return strings.Contains(key, "SECRET") || strings.Contains(key, "PASSWORD") || strings.Contains(key, "TOKEN")
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	CORSOrigins        []string

	// Content store
	DatabaseDriver     string
	DatabaseURL        string
	DatabaseAuthToken  string
	SlowQueryThreshold time.Duration
	DBMaxOpenConns     int
	DBMaxIdleConns     int

	// Object store
	MediaRoot          string
	MediaPublicBaseURL string

	// Render cache revalidation
	RevalidateWebhookURL string
	RevalidateSecret     string
	RevalidateTimeout    time.Duration
	StaticTablesFile     string

	// In-process page cache
	PageCacheTTL         time.Duration
	CacheCleanupInterval time.Duration
	CacheCleanupVerbose  bool

	// Integrity scanner
	ProbeTimeout           time.Duration
	ScanConcurrency        int
	ScanVerifyImageContent bool

	// Storage reorganizer
	RewriteMaxTries       int
	RewriteMaxElapsedTime time.Duration

	// Admin auth
	AdminPasswordHash string
	JWTSecret         string
	AdminTokenTTL     time.Duration

	// Logging
	LogDirectory string
	LogToFile    bool
	LogLevel     string
	// LogChannelLevels overrides LogLevel per channel, e.g. "integrity=debug,database=warn".
	LogChannelLevels string
)

func init() {
	loadEnvFile()

	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 5*time.Minute)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	CORSOrigins = strings.Split(getEnvString("CORS_ORIGINS", "http://localhost:3000,http://localhost:4321,http://127.0.0.1:3000"), ",")

	DatabaseDriver = getEnvString("DATABASE_DRIVER", "sqlite3")
	DatabaseURL = getEnvString("DATABASE_URL", "file:sitekeep.db?_foreign_keys=on")
	DatabaseAuthToken = getEnvString("DATABASE_AUTH_TOKEN", "")
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 500*time.Millisecond)
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)

	MediaRoot = getEnvString("MEDIA_ROOT", "media")
	MediaPublicBaseURL = getEnvString("MEDIA_PUBLIC_BASE_URL", "http://localhost:8080/media")

	RevalidateWebhookURL = getEnvString("REVALIDATE_WEBHOOK_URL", "")
	RevalidateSecret = getEnvString("REVALIDATE_SECRET", "")
	RevalidateTimeout = getEnvDuration("REVALIDATE_TIMEOUT", 5*time.Second)
	StaticTablesFile = getEnvString("STATIC_TABLES_FILE", "")

	PageCacheTTL = getEnvDuration("PAGE_CACHE_TTL", 10*time.Minute)
	CacheCleanupInterval = getEnvDuration("CACHE_CLEANUP_INTERVAL", 5*time.Minute)
	CacheCleanupVerbose = getEnvBool("CACHE_CLEANUP_VERBOSE", false)

	ProbeTimeout = getEnvDuration("PROBE_TIMEOUT", 10*time.Second)
	ScanConcurrency = getEnvInt("SCAN_CONCURRENCY", 8)
	ScanVerifyImageContent = getEnvBool("SCAN_VERIFY_IMAGE_CONTENT", false)

	RewriteMaxTries = getEnvInt("REWRITE_MAX_TRIES", 4)
	RewriteMaxElapsedTime = getEnvDuration("REWRITE_MAX_ELAPSED_TIME", 10*time.Second)

	AdminPasswordHash = getEnvString("ADMIN_PASSWORD_HASH", "")
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminTokenTTL = getEnvDuration("ADMIN_TOKEN_TTL", 24*time.Hour)

	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
	LogToFile = getEnvBool("LOG_TO_FILE", true)
	LogLevel = getEnvString("LOG_LEVEL", "info")
	LogChannelLevels = getEnvString("LOG_CHANNEL_LEVELS", "")
}
