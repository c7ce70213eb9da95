package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the environment leaves a knob unset.
const (
	DefaultGenerationRetries = 2
	DefaultGenerationTimeout = 60 * time.Second
	DefaultPassThreshold     = 50.0
	DefaultQuestionMarks     = 1
	DefaultQuestionCount     = 10
)

type Config struct {
	Port              string
	DatabaseURL       string
	OpenAIAPIKey      string
	PineconeAPIKey    string
	PineconeIndexName string

	// DefaultUserID is the fallback identity used when a request carries no
	// user. Injected here rather than hardcoded in the handlers.
	DefaultUserID string

	GenerationRetries int
	GenerationTimeout time.Duration
	QuestionCount     int
	QuestionMarks     int
	PassThreshold     float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] No .env file found, using environment variables")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DB_URL"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		PineconeAPIKey:    os.Getenv("PINECONE_API_KEY"),
		PineconeIndexName: getEnv("PINECONE_INDEX_NAME", "studyhelper-docs-index"),
		DefaultUserID:     os.Getenv("DEFAULT_USER_ID"),
		GenerationRetries: getEnvInt("GENERATION_RETRIES", DefaultGenerationRetries),
		GenerationTimeout: time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", int(DefaultGenerationTimeout/time.Second))) * time.Second,
		QuestionCount:     getEnvInt("QUESTION_COUNT", DefaultQuestionCount),
		QuestionMarks:     getEnvInt("QUESTION_MARKS", DefaultQuestionMarks),
		PassThreshold:     getEnvFloat("PASS_THRESHOLD", DefaultPassThreshold),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[WARN] Invalid integer for %s: %q, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("[WARN] Invalid number for %s: %q, using default %g", key, value, fallback)
		return fallback
	}
	return parsed
}
