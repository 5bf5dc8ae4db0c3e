package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// LLM settings. A missing key or model is not a load error; the
	// services degrade to their unknown/default outputs at call time.
	LLMProvider  string
	LLMBaseURL   string
	APIKey       string
	PrimaryModel string
	HelperModel  string

	ClassifyTimeout time.Duration
	ValidateTimeout time.Duration
	SearchTimeout   time.Duration

	StoreBackend string
	RedisURL     string
	DatabaseURL  string

	EventsBackend string
	NatsURL       string
	NatsToken     string

	HistoryDebug bool
}

// FileConfig is the optional TOML file layout. Field names follow the
// game's saved LLM settings.
type FileConfig struct {
	Provider     string `toml:"provider"`
	BaseURL      string `toml:"base_url"`
	APIKey       string `toml:"api_key"`
	PrimaryModel string `toml:"primary_model"`
	HelperModel  string `toml:"helper_model"`
}

// Load reads configuration from the environment, layered over the TOML file
// named by CONFIG_FILE when present.
func Load() (*Config, error) {
	var fc FileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		fc = *loaded
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		LLMProvider:  getEnv("LLM_PROVIDER", withDefault(fc.Provider, "openrouter")),
		LLMBaseURL:   getEnv("LLM_BASE_URL", fc.BaseURL),
		APIKey:       getEnv("LLM_API_KEY", fc.APIKey),
		PrimaryModel: getEnv("PRIMARY_MODEL", fc.PrimaryModel),
		HelperModel:  getEnv("HELPER_MODEL", fc.HelperModel),

		ClassifyTimeout: getDuration("CLASSIFY_TIMEOUT", 15*time.Second),
		ValidateTimeout: getDuration("VALIDATE_TIMEOUT", 30*time.Second),
		SearchTimeout:   getDuration("SEARCH_TIMEOUT", 15*time.Second),

		StoreBackend: getEnv("STORE_BACKEND", "redis"),
		RedisURL:     getEnv("REDIS_URL", "localhost:6379"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		EventsBackend: getEnv("EVENTS_BACKEND", "none"),
		NatsURL:       getEnv("NATS_URL", "nats://localhost:4222"),
		NatsToken:     getEnv("NATS_TOKEN", ""),

		HistoryDebug: getBool("HISTORY_DEBUG", false),
	}, nil
}

// LoadFile parses a TOML LLM settings file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// LLMConfigured reports whether the helper model can be called at all.
// Ollama runs locally and needs no key.
func (c *Config) LLMConfigured() bool {
	if c.HelperModel == "" {
		return false
	}
	return c.APIKey != "" || strings.EqualFold(c.LLMProvider, "ollama")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
