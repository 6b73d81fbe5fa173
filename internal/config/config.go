// Package config provides environment-based configuration for the cvision
// server.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all deployment settings. Collaborator credentials may be
// absent; the owning service then reports itself not configured instead of
// failing startup.
type Config struct {
	AppVersion string
	Port       int
	Debug      bool

	// Gemini
	GeminiAPIKey   string
	ChatModel      string
	EmbeddingModel string

	// RediSearch employee index
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SearchIndex   string

	// Employee directory (PostgreSQL, read-only)
	DatabaseURL string

	// Identity provider
	TenantID string
	ClientID string

	CORSOrigins []string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		AppVersion: getEnvString("APP_VERSION", "0.1.0"),
		Port:       getEnvInt("PORT", 8080),
		Debug:      getEnvBool("DEBUG", false),

		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		ChatModel:      getEnvString("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
		EmbeddingModel: getEnvString("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),

		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SearchIndex:   getEnvString("SEARCH_INDEX", "cv-index"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		TenantID: os.Getenv("AUTH_TENANT_ID"),
		ClientID: os.Getenv("AUTH_CLIENT_ID"),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
	}
}

func getEnvString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
