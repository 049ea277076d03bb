// Package config loads the weather agent settings from the environment,
// reading a .env file first when one is present.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Defaults carried over from the tutorial this agent reproduces.
const (
	DefaultModel        = "gemini-2.0-flash"
	DefaultAppName      = "weather_tutorial_app"
	DefaultUserID       = "user_1"
	DefaultSessionID    = "session_001"
	DefaultSessionStore = "memory"
	DefaultSQLitePath   = "weatherpod.db"
	DefaultLogLevel     = "error"
)

type Config struct {
	GoogleAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string

	Model string

	AppName   string
	UserID    string
	SessionID string

	SessionStore string
	SQLitePath   string
	PostgresDSN  string

	LogLevel string
}

// Load reads .env (if any) and then the process environment. A missing .env
// is not an error; the boolean reports whether one was loaded.
func Load(files ...string) (*Config, bool) {
	loaded := godotenv.Load(files...) == nil
	return FromEnv(), loaded
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		Model: getEnv("WEATHER_MODEL", DefaultModel),

		AppName:   getEnv("WEATHER_APP_NAME", DefaultAppName),
		UserID:    getEnv("WEATHER_USER_ID", DefaultUserID),
		SessionID: getEnv("WEATHER_SESSION_ID", DefaultSessionID),

		SessionStore: getEnv("WEATHER_SESSION_STORE", DefaultSessionStore),
		SQLitePath:   getEnv("WEATHER_SQLITE_PATH", DefaultSQLitePath),
		PostgresDSN:  getEnv("WEATHER_POSTGRES_DSN", ""),

		LogLevel: getEnv("WEATHER_LOG_LEVEL", DefaultLogLevel),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
