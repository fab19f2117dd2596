package main

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	validator "github.com/go-playground/validator/v10"
)

// cliConfig is the outer, stringly-typed shape viper populates from
// kreuzberg.toml / KREUZBERG_* env vars / --config. It is validated by
// struct tag before its fields are cast into internal/config's
// ProcessConfig overrides, keeping the core engine's constructor free
// of viper/validator entirely (those stay at this outer layer, the way
// the teacher's cmd/worker keeps env parsing out of internal/processor).
type cliConfig struct {
	CacheRoot         string `mapstructure:"cache_root" validate:"omitempty"`
	TesseractPath     string `mapstructure:"tesseract_path" validate:"omitempty"`
	WorkerConcurrency int    `mapstructure:"worker_concurrency" validate:"omitempty,min=1,max=100"`
	MaxFileSizeMB     int    `mapstructure:"max_file_size_mb" validate:"omitempty,min=1,max=10240"`
}

var cfgValidator = validator.New()

// loadCLIConfig reads whatever kreuzberg.toml/env/flags viper has
// discovered into a cliConfig, tolerating values of mismatched type
// (TOML ints read back as int64, env vars as strings) via cast's
// permissive coercions rather than a strict Unmarshal that would
// reject them outright.
func loadCLIConfig() (*cliConfig, error) {
	cc := &cliConfig{
		CacheRoot:         cast.ToString(viper.Get("cache_root")),
		TesseractPath:     cast.ToString(viper.Get("tesseract_path")),
		WorkerConcurrency: cast.ToInt(viper.Get("worker_concurrency")),
		MaxFileSizeMB:     cast.ToInt(viper.Get("max_file_size_mb")),
	}
	if err := cfgValidator.Struct(cc); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cc, nil
}

// applyOverridesTo overlays non-zero fields onto a loaded ProcessConfig, giving
// kreuzberg.toml / env vars precedence over the process defaults
// without requiring every field to be set.
func (cc *cliConfig) applyOverridesTo(cacheRoot, tesseractPath *string, workerConcurrency *int, maxFileSize *int64) {
	if cc.CacheRoot != "" {
		*cacheRoot = cc.CacheRoot
	}
	if cc.TesseractPath != "" {
		*tesseractPath = cc.TesseractPath
	}
	if cc.WorkerConcurrency != 0 {
		*workerConcurrency = cc.WorkerConcurrency
	}
	if cc.MaxFileSizeMB != 0 {
		*maxFileSize = int64(cc.MaxFileSizeMB) * 1024 * 1024
	}
}
