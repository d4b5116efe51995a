package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis (optional, enables the shared rate limiter)
	RedisURL string

	// Gemini AI
	GeminiAPIKey          string
	GeminiModel           string
	GeminiBaseURL         string
	GeminiTransport       string
	GeminiStreamAlt       string
	GeminiTemperature     float64
	GeminiMaxOutputTokens int
	GeminiTimeout         time.Duration
	GeminiConcurrentReqs  int

	// Chat rate limit per visitor
	ChatRateLimit  int
	ChatRateWindow time.Duration

	// Persona
	ProfilePath string

	// Frontend
	FrontendURL string

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Env:                   getEnvOrDefault("ENV", "development"),
		RedisURL:              getEnvOrDefault("REDIS_URL", ""),
		GeminiAPIKey:          getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:           getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:         getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiTransport:       strings.ToLower(getEnvOrDefault("GEMINI_TRANSPORT", "rest")),
		GeminiStreamAlt:       getEnvOrDefault("GEMINI_STREAM_ALT", ""),
		GeminiTemperature:     getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.8),
		GeminiMaxOutputTokens: getEnvAsIntOrDefault("GEMINI_MAX_OUTPUT_TOKENS", 2048),
		GeminiTimeout:         time.Duration(getEnvAsIntOrDefault("GEMINI_TIMEOUT_SECONDS", 30)) * time.Second,
		GeminiConcurrentReqs:  getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 8),
		ChatRateLimit:         getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 20),
		ChatRateWindow:        time.Duration(getEnvAsIntOrDefault("CHAT_RATE_WINDOW_SECONDS", 60)) * time.Second,
		ProfilePath:           getEnvOrDefault("PROFILE_PATH", ""),
		FrontendURL:           getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		LogLevel:              strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
	}

	return cfg
}

// Validate rejects settings the server cannot start with. A missing API key
// is not one of them: the chat endpoint reports it per request.
func (c *Config) Validate() error {
	switch c.GeminiTransport {
	case "rest", "sdk":
	default:
		return fmt.Errorf("GEMINI_TRANSPORT must be rest or sdk, got %q", c.GeminiTransport)
	}
	if c.GeminiMaxOutputTokens <= 0 {
		return fmt.Errorf("GEMINI_MAX_OUTPUT_TOKENS must be positive")
	}
	if c.GeminiTimeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT_SECONDS must be positive")
	}
	if c.GeminiConcurrentReqs < 0 {
		return fmt.Errorf("GEMINI_CONCURRENT_REQUESTS must not be negative")
	}
	if c.ChatRateLimit < 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT must not be negative")
	}
	if c.ChatRateWindow <= 0 {
		return fmt.Errorf("CHAT_RATE_WINDOW_SECONDS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
