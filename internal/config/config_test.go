package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsFloatOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal float64
		expected   float64
	}{
		{"parses float", "TEST_FLOAT_1", "0.25", 0.8, 0.25},
		{"uses default for empty", "TEST_FLOAT_2", "", 0.8, 0.8},
		{"uses default for garbage", "TEST_FLOAT_3", "warm", 0.8, 0.8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsFloatOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_TRANSPORT", "")
	t.Setenv("CHAT_RATE_WINDOW_SECONDS", "")

	cfg := Load()

	if cfg.GeminiAPIKey != "" {
		t.Errorf("Expected no API key, got %q", cfg.GeminiAPIKey)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("Expected default model, got %q", cfg.GeminiModel)
	}
	if cfg.GeminiTransport != "rest" {
		t.Errorf("Expected rest transport, got %q", cfg.GeminiTransport)
	}
	if cfg.ChatRateWindow != time.Minute {
		t.Errorf("Expected 1m window, got %v", cfg.ChatRateWindow)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_TRANSPORT", "SDK")
	t.Setenv("GEMINI_TIMEOUT_SECONDS", "5")
	t.Setenv("GEMINI_TEMPERATURE", "0.3")

	cfg := Load()

	if cfg.GeminiTransport != "sdk" {
		t.Errorf("Expected sdk transport, got %q", cfg.GeminiTransport)
	}
	if cfg.GeminiTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.GeminiTimeout)
	}
	if cfg.GeminiTemperature != 0.3 {
		t.Errorf("Expected temperature 0.3, got %v", cfg.GeminiTemperature)
	}
}

func TestValidate_RejectsUnknownTransport(t *testing.T) {
	cfg := &Config{GeminiTransport: "grpc", GeminiMaxOutputTokens: 10, GeminiTimeout: time.Second, ChatRateWindow: time.Minute}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown transport")
	}

	cfg = &Config{GeminiTransport: "rest"}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero max output tokens")
	}
}

func TestValidate_RejectsBadDurationsAndLimits(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero rate window", "CHAT_RATE_WINDOW_SECONDS", "0"},
		{"negative rate window", "CHAT_RATE_WINDOW_SECONDS", "-5"},
		{"zero timeout", "GEMINI_TIMEOUT_SECONDS", "0"},
		{"negative timeout", "GEMINI_TIMEOUT_SECONDS", "-1"},
		{"negative concurrency", "GEMINI_CONCURRENT_REQUESTS", "-2"},
		{"negative rate limit", "CHAT_RATE_LIMIT", "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("GEMINI_TRANSPORT", "")
			t.Setenv("GEMINI_MAX_OUTPUT_TOKENS", "")
			t.Setenv(tc.key, tc.val)

			if err := Load().Validate(); err == nil {
				t.Errorf("Expected %s=%s to fail validation", tc.key, tc.val)
			}
		})
	}
}

func TestValidate_AllowsDisabledLimits(t *testing.T) {
	t.Setenv("GEMINI_TRANSPORT", "")
	t.Setenv("GEMINI_MAX_OUTPUT_TOKENS", "")
	t.Setenv("GEMINI_TIMEOUT_SECONDS", "")
	t.Setenv("CHAT_RATE_WINDOW_SECONDS", "")
	t.Setenv("CHAT_RATE_LIMIT", "0")
	t.Setenv("GEMINI_CONCURRENT_REQUESTS", "0")

	if err := Load().Validate(); err != nil {
		t.Errorf("Expected zero limits to validate, got %v", err)
	}
}
