/**
 * Configuration for the OCR worker.
 *
 * Loads configuration from environment variables matching .env.ocr
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration
	RedisURL string

	// Queue driver: "asynq" or "redis"
	QueueDriver string

	// PostgreSQL configuration
	DatabaseURL string

	// Qdrant vector database configuration
	QdrantURL        string
	QdrantCollection string

	// Optional embedding service; when unset, vector indexing is skipped
	EmbeddingAPIURL string
	EmbeddingAPIKey string

	// Artifact service for storing rendered searchable PDFs
	ArtifactAPIURL string

	// Worker configuration
	WorkerConcurrency int
	MaxFileSize       int64
	ProcessingTimeout time.Duration

	// Tesseract configuration
	TesseractPath string
	OCRLanguage   string
	OCRDPI        int

	// Temporary directory for file processing
	TempDir string

	// Node environment
	Env string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		QueueDriver:       getEnvOrDefault("QUEUE_DRIVER", "asynq"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		QdrantURL:         getEnvOrDefault("QDRANT_URL", "localhost:6334"),
		QdrantCollection:  getEnvOrDefault("QDRANT_COLLECTION", "ocr_documents"),
		EmbeddingAPIURL:   getEnvOrDefault("EMBEDDING_API_URL", ""),
		EmbeddingAPIKey:   getEnvOrDefault("EMBEDDING_API_KEY", ""),
		ArtifactAPIURL:    getEnvOrDefault("ARTIFACT_API_URL", ""),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 10),
		MaxFileSize:       getEnvAsInt64OrDefault("MAX_FILE_SIZE", 104857600), // 100MB
		ProcessingTimeout: time.Duration(getEnvAsIntOrDefault("PROCESSING_TIMEOUT", 300)) * time.Second,
		TesseractPath:     getEnvOrDefault("TESSERACT_PATH", "tesseract"),
		OCRLanguage:       getEnvOrDefault("OCR_LANGUAGE", "eng"),
		OCRDPI:            getEnvAsIntOrDefault("OCR_DPI", 300),
		TempDir:           getEnvOrDefault("TEMP_DIR", "/tmp/ocr-worker"),
		Env:               getEnvOrDefault("APP_ENV", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.QueueDriver != "asynq" && c.QueueDriver != "redis" {
		return fmt.Errorf("QUEUE_DRIVER must be \"asynq\" or \"redis\", got %q", c.QueueDriver)
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxFileSize < 1024 || c.MaxFileSize > 1073741824 { // 1KB to 1GB
		return fmt.Errorf("MAX_FILE_SIZE must be between 1KB and 1GB, got %d", c.MaxFileSize)
	}

	if c.ProcessingTimeout < time.Second {
		return fmt.Errorf("PROCESSING_TIMEOUT must be at least 1 second, got %v", c.ProcessingTimeout)
	}

	if c.OCRDPI < 70 || c.OCRDPI > 2400 {
		return fmt.Errorf("OCR_DPI must be between 70 and 2400, got %d", c.OCRDPI)
	}

	return nil
}

// EmbeddingsEnabled reports whether an embedding service is configured.
func (c *Config) EmbeddingsEnabled() bool {
	return c.EmbeddingAPIURL != "" && c.EmbeddingAPIKey != ""
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
