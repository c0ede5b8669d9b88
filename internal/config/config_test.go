package config

import (
	"testing"
	"time"
)

// clearWorkerEnv forces defaults for every variable LoadConfig reads.
func clearWorkerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REDIS_URL", "QUEUE_DRIVER", "DATABASE_URL", "QDRANT_URL",
		"QDRANT_COLLECTION", "EMBEDDING_API_URL", "EMBEDDING_API_KEY",
		"ARTIFACT_API_URL", "WORKER_CONCURRENCY", "MAX_FILE_SIZE",
		"PROCESSING_TIMEOUT", "TESSERACT_PATH", "OCR_LANGUAGE", "OCR_DPI",
		"TEMP_DIR", "APP_ENV",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/ocr")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.RedisURL != "redis://localhost:6379" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.QueueDriver != "asynq" {
		t.Errorf("QueueDriver = %q, want asynq", cfg.QueueDriver)
	}
	if cfg.QdrantCollection != "ocr_documents" {
		t.Errorf("QdrantCollection = %q", cfg.QdrantCollection)
	}
	if cfg.WorkerConcurrency != 10 {
		t.Errorf("WorkerConcurrency = %d, want 10", cfg.WorkerConcurrency)
	}
	if cfg.MaxFileSize != 104857600 {
		t.Errorf("MaxFileSize = %d, want 104857600", cfg.MaxFileSize)
	}
	if cfg.ProcessingTimeout != 300*time.Second {
		t.Errorf("ProcessingTimeout = %v, want 5m", cfg.ProcessingTimeout)
	}
	if cfg.OCRLanguage != "eng" || cfg.OCRDPI != 300 {
		t.Errorf("unexpected OCR defaults: lang=%q dpi=%d", cfg.OCRLanguage, cfg.OCRDPI)
	}
	if cfg.EmbeddingsEnabled() {
		t.Error("EmbeddingsEnabled() = true without credentials")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/ocr")
	t.Setenv("QUEUE_DRIVER", "redis")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("PROCESSING_TIMEOUT", "60")
	t.Setenv("OCR_DPI", "150")
	t.Setenv("EMBEDDING_API_URL", "https://api.voyageai.com/v1")
	t.Setenv("EMBEDDING_API_KEY", "test-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.QueueDriver != "redis" {
		t.Errorf("QueueDriver = %q, want redis", cfg.QueueDriver)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("WorkerConcurrency = %d, want 4", cfg.WorkerConcurrency)
	}
	if cfg.ProcessingTimeout != 60*time.Second {
		t.Errorf("ProcessingTimeout = %v, want 1m", cfg.ProcessingTimeout)
	}
	if cfg.OCRDPI != 150 {
		t.Errorf("OCRDPI = %d, want 150", cfg.OCRDPI)
	}
	if !cfg.EmbeddingsEnabled() {
		t.Error("EmbeddingsEnabled() = false with credentials set")
	}
}

func TestLoadConfigMissingDatabaseURL(t *testing.T) {
	clearWorkerEnv(t)

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RedisURL:          "redis://localhost:6379",
			QueueDriver:       "asynq",
			DatabaseURL:       "postgres://localhost/ocr",
			WorkerConcurrency: 10,
			MaxFileSize:       1 << 20,
			ProcessingTimeout: time.Minute,
			OCRDPI:            300,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad queue driver", func(c *Config) { c.QueueDriver = "rabbitmq" }, true},
		{"zero concurrency", func(c *Config) { c.WorkerConcurrency = 0 }, true},
		{"excessive concurrency", func(c *Config) { c.WorkerConcurrency = 500 }, true},
		{"file size too small", func(c *Config) { c.MaxFileSize = 512 }, true},
		{"file size too large", func(c *Config) { c.MaxFileSize = 2 << 30 }, true},
		{"timeout too short", func(c *Config) { c.ProcessingTimeout = 100 * time.Millisecond }, true},
		{"dpi too low", func(c *Config) { c.OCRDPI = 50 }, true},
		{"dpi too high", func(c *Config) { c.OCRDPI = 5000 }, true},
		{"missing redis", func(c *Config) { c.RedisURL = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
