// Package config loads configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM
	LLMProvider  Provider
	LLMModel     string
	OllamaHost   string
	OpenAIAPIKey string

	// Vision embedding
	VisionModel     string
	VisionDimension int

	// HTTP server
	ListenAddr string
	APIToken   string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "marsight"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "exploration"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:  Provider(getEnv("MARSIGHT_LLM_PROVIDER", string(ProviderOllama))),
		LLMModel:     getEnv("MARSIGHT_LLM_MODEL", "llama3:8b-instruct-q6_K"),
		OllamaHost:   getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		VisionModel:     getEnv("MARSIGHT_VISION_MODEL", "clip-vit-b-32"),
		VisionDimension: getEnvInt("MARSIGHT_VISION_DIMENSION", 512),

		ListenAddr: getEnv("MARSIGHT_LISTEN_ADDR", ":8080"),
		APIToken:   getEnv("MARSIGHT_API_TOKEN", ""),

		LogFile:  getEnv("MARSIGHT_LOG_FILE", ""),
		LogLevel: parseLogLevel(getEnv("MARSIGHT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
