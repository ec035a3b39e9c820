package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all agent configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// BackendURL is the base URL of the remote exam service.
	BackendURL     string
	BackendTimeout time.Duration

	// StoreDriver selects the local persistent store: "redis", "sqlite"
	// or "memory" (ephemeral, dev only).
	StoreDriver string
	RedisURL    string
	SQLitePath  string

	// Outbox sync coordinator tuning.
	SyncInterval      time.Duration
	OnlineSettleDelay time.Duration

	// Cache TTLs for the read-through fallback caches.
	QuestionCacheTTL time.Duration
	BookmarkCacheTTL time.Duration
	ProgressCacheTTL time.Duration

	// AllowedOrigins controls CORS and WebSocket origin validation for the
	// local UI facade. Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "7810"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "pretty"),
		BackendURL:        getEnv("BACKEND_URL", "http://localhost:8080/api/v1"),
		BackendTimeout:    getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		StoreDriver:       getEnv("STORE_DRIVER", "redis"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SQLitePath:        getEnv("SQLITE_PATH", "./prepmitra.db"),
		SyncInterval:      getEnvDuration("SYNC_INTERVAL", 2*time.Minute),
		OnlineSettleDelay: getEnvDuration("ONLINE_SETTLE_DELAY", time.Second),
		QuestionCacheTTL:  getEnvDuration("QUESTION_CACHE_TTL", time.Hour),
		BookmarkCacheTTL:  getEnvDuration("BOOKMARK_CACHE_TTL", 30*time.Minute),
		ProgressCacheTTL:  getEnvDuration("PROGRESS_CACHE_TTL", time.Minute),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	// Accept either a Go duration string ("90s") or a plain seconds count.
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
