package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis
	RedisURL string

	// YouTube Data API
	YouTubeAPIKey         string
	SearchResultsPerQuery int

	// Gemini AI
	GeminiAPIKey string

	// Pipeline
	MaxLessons             int
	PipelineTimeoutSeconds int
	CourseCacheTTLHours    int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		RedisURL:               mustGetEnv("REDIS_URL"),
		YouTubeAPIKey:          mustGetEnv("YOUTUBE_API_KEY"),
		SearchResultsPerQuery:  getEnvAsIntOrDefault("SEARCH_RESULTS_PER_QUERY", 15),
		GeminiAPIKey:           mustGetEnv("GEMINI_API_KEY"),
		MaxLessons:             getEnvAsIntOrDefault("MAX_LESSONS", 5),
		PipelineTimeoutSeconds: getEnvAsIntOrDefault("PIPELINE_TIMEOUT_SECONDS", 180),
		CourseCacheTTLHours:    getEnvAsIntOrDefault("COURSE_CACHE_TTL_HOURS", 24),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
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
