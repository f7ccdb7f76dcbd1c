package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Save original env and restore after test
	originalEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range originalEnv {
			// Parse and restore each env var
			for i, c := range env {
				if c == '=' {
					os.Setenv(env[:i], env[i+1:])
					break
				}
			}
		}
	}()

	// Clear env to test defaults
	os.Clearenv()

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"APIHost", cfg.APIHost, "0.0.0.0"},
		{"APIPort", cfg.APIPort, 8000},
		{"FrontendPort", cfg.FrontendPort, 8501},
		{"BackendURL", cfg.BackendURL, "http://localhost:8000"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"Debug", cfg.Debug, false},
		{"DataDir", cfg.DataDir, "./data"},
		{"VisualizationsDir", cfg.VisualizationsDir, "./data/visualizations"},
		{"CacheTTL", cfg.CacheTTL, 300},
		{"QueueProvider", cfg.QueueProvider, "memory"},
		{"LLMProvider", cfg.LLMProvider, "rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	// Save and restore env
	originalPort := os.Getenv("API_PORT")
	originalLogLevel := os.Getenv("LOG_LEVEL")
	defer func() {
		os.Setenv("API_PORT", originalPort)
		os.Setenv("LOG_LEVEL", originalLogLevel)
	}()

	// Set test values
	os.Setenv("API_PORT", "9090")
	os.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.APIPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.APIPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	// Save and restore env
	originalLLM := os.Getenv("LLM_PROVIDER")
	defer func() {
		os.Setenv("LLM_PROVIDER", originalLLM)
	}()

	// Set test values
	os.Setenv("LLM_PROVIDER", "openrouter")

	cfg := Load()

	if cfg.LLMProvider != "openrouter" {
		t.Errorf("expected LLM provider 'openrouter', got %s", cfg.LLMProvider)
	}
}
