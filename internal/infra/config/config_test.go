package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"ENV",
		"PORT",
		"CATALOG_PATH",
		"GEMINI_BASE_URL",
		"GEMINI_MODEL",
		"GEMINI_API_KEY",
		"GEMINI_API_KEY_FILE",
		"GEMINI_TIMEOUT_SECONDS",
		"GEMINI_MAX_RETRIES",
		"GEMINI_BASE_DELAY_SECONDS",
		"GEMINI_TEMPERATURE",
		"GEMINI_REQUESTS_PER_SEC",
	}
	for _, key := range envVars {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, "data/processed/movies_db.json", cfg.CatalogPath)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models", cfg.GeminiBaseURL)
	assert.Equal(t, "", cfg.GeminiAPIKey, "api key should have no default")
	assert.Equal(t, 15, cfg.GeminiTimeout)
	assert.Equal(t, 5, cfg.GeminiMaxRetries)
	assert.Equal(t, 1, cfg.GeminiBaseDelay)
	assert.Equal(t, 0.1, cfg.Temperature)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CATALOG_PATH", "/data/movies.json")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash-lite")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MAX_RETRIES", "3")
	t.Setenv("GEMINI_TEMPERATURE", "0.5")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/data/movies.json", cfg.CatalogPath)
	assert.Equal(t, "gemini-2.0-flash-lite", cfg.GeminiModel)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, 3, cfg.GeminiMaxRetries)
	assert.Equal(t, 0.5, cfg.Temperature)
}

func TestLoad_APIKeyFromFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(keyFile, []byte("file-key\n"), 0o600))

	_ = os.Unsetenv("GEMINI_API_KEY")
	t.Setenv("GEMINI_API_KEY_FILE", keyFile)

	cfg := Load()

	assert.Equal(t, "file-key", cfg.GeminiAPIKey, "key file content should be trimmed")
}

func TestLoad_APIKeyEnvWinsOverFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(keyFile, []byte("file-key"), 0o600))

	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("GEMINI_API_KEY_FILE", keyFile)

	cfg := Load()

	assert.Equal(t, "env-key", cfg.GeminiAPIKey)
}

func TestGetEnvInt_InvalidUsesFallback(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")

	assert.Equal(t, 42, getEnvInt("TEST_INT", 42))
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback float64
		expected float64
	}{
		{
			name:     "valid value",
			envValue: "0.7",
			fallback: 0.1,
			expected: 0.7,
		},
		{
			name:     "invalid value uses fallback",
			envValue: "not-a-number",
			fallback: 0.1,
			expected: 0.1,
		},
		{
			name:     "empty uses fallback",
			envValue: "",
			fallback: 0.1,
			expected: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_FLOAT", tt.envValue)
			} else {
				_ = os.Unsetenv("TEST_FLOAT")
			}

			result := getEnvFloat("TEST_FLOAT", tt.fallback)
			assert.Equal(t, tt.expected, result)
		})
	}
}
