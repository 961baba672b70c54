package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	CatalogPath string

	GeminiBaseURL    string
	GeminiModel      string
	GeminiAPIKey     string
	GeminiTimeout    int
	GeminiMaxRetries int
	GeminiBaseDelay  int
	Temperature      float64
	RequestsPerSec   float64
}

func Load() *Config {
	return &Config{
		Env:              getEnv("ENV", "development"),
		Port:             getEnv("PORT", "5001"),
		CatalogPath:      getEnv("CATALOG_PATH", "data/processed/movies_db.json"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-preview-09-2025"),
		GeminiAPIKey:     getSecret("GEMINI_API_KEY", "GEMINI_API_KEY_FILE", ""),
		GeminiTimeout:    getEnvInt("GEMINI_TIMEOUT_SECONDS", 15),
		GeminiMaxRetries: getEnvInt("GEMINI_MAX_RETRIES", 5),
		GeminiBaseDelay:  getEnvInt("GEMINI_BASE_DELAY_SECONDS", 1),
		Temperature:      getEnvFloat("GEMINI_TEMPERATURE", 0.1),
		RequestsPerSec:   getEnvFloat("GEMINI_REQUESTS_PER_SEC", 2.0),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	// 1. Try direct environment variable
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// 2. Try reading from file specified by fileEnvKey
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
