// ProcessConfig holds process-wide settings: cache root, pool sizing,
// Tesseract binary location. Grounded directly on the teacher's
// env-var-driven Config/LoadConfig/Validate pattern, trimmed to the
// settings this engine's process-lifetime singletons (pool, cache) need
// — the teacher's Redis/Postgres/Qdrant/VoyageAI fields move to the
// optional collaborator/hook layer (see internal/hooks, internal/capability)
// since the core engine is in-process only (spec §1 Non-goals).
package config

import (
	"fmt"
	"os"
	"strconv"
)

// ProcessConfig holds worker/process-level configuration loaded from the
// environment.
type ProcessConfig struct {
	CacheRoot         string
	TesseractPath     string // overridable by TESSERACT_CMD per spec §6
	TempDir           string
	WorkerConcurrency int
	MaxFileSize       int64
	ProcessingTimeoutMS int
}

// LoadProcessConfig loads configuration from environment variables,
// mirroring the teacher's LoadConfig/getEnvOrDefault shape.
func LoadProcessConfig() (*ProcessConfig, error) {
	cfg := &ProcessConfig{
		CacheRoot:           getEnvOrDefault("KREUZBERG_CACHE_ROOT", defaultCacheRoot()),
		TesseractPath:       getEnvOrDefault("TESSERACT_CMD", "tesseract"),
		TempDir:             getEnvOrDefault("KREUZBERG_TEMP_DIR", os.TempDir()),
		WorkerConcurrency:   getEnvAsIntOrDefault("KREUZBERG_WORKER_CONCURRENCY", 10),
		MaxFileSize:         getEnvAsInt64OrDefault("KREUZBERG_MAX_FILE_SIZE", 5368709120), // 5GB
		ProcessingTimeoutMS: getEnvAsIntOrDefault("KREUZBERG_PROCESSING_TIMEOUT_MS", 300000),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("process configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks process-level configuration ranges, the same
// discipline the teacher's Config.Validate applies.
func (c *ProcessConfig) Validate() error {
	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("KREUZBERG_WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}
	if c.MaxFileSize < 1024 || c.MaxFileSize > 10737418240 { // 1KB to 10GB
		return fmt.Errorf("KREUZBERG_MAX_FILE_SIZE must be between 1KB and 10GB, got %d", c.MaxFileSize)
	}
	return nil
}

func defaultCacheRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/kreuzberg"
	}
	return os.TempDir() + "/kreuzberg-cache"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

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
