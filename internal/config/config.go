package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey    string
	GeminiModelName string
	EmbeddingModel  string

	Port        string
	GinMode     string
	CORSOrigins []string

	ChromaDBPath   string
	CollectionName string
	UploadDir      string

	MaxFileSize  int64
	MaxChunkSize int
	ChunkOverlap int

	DefaultTopK int
	MaxTopK     int

	// Redis Configuration (request rate limiting; optional)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// Gemini client-side limits
	GeminiTier string

	// Tracing (optional; empty endpoint disables export)
	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModelName: getEnv("GEMINI_MODEL_NAME", "gemini-2.0-flash"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL_NAME", "text-embedding-004"),

		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:8501,http://127.0.0.1:8501")),

		ChromaDBPath:   getEnv("CHROMA_DB_PATH", "./chroma_db"),
		CollectionName: getEnv("COLLECTION_NAME", "university_lecture_docs"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),

		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		DefaultTopK: getEnvInt("DEFAULT_TOP_K", 3),
		MaxTopK:     getEnvInt("MAX_TOP_K", 10),

		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		GeminiTier: getEnv("GEMINI_TIER", "free"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than MAX_CHUNK_SIZE (%d)",
			cfg.ChunkOverlap, cfg.MaxChunkSize)
	}

	return cfg, nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
