package main

import (
	"github.com/adverant/kreuzberg-go/internal/cache"
	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/ocr"
	"github.com/adverant/kreuzberg-go/internal/orchestrator"
	"github.com/adverant/kreuzberg-go/internal/pool"
	"github.com/adverant/kreuzberg-go/internal/rasterize"
	"github.com/adverant/kreuzberg-go/internal/registry"
)

// buildOrchestrator wires every process-lifetime singleton the way
// cmd/worker's main.go wires the teacher's storage manager, processor,
// and queue consumer: construct each collaborator once, in dependency
// order, and fail fast on any construction error.
func buildOrchestrator(logger *logging.Logger) (*orchestrator.Orchestrator, *cache.Cache, func(), error) {
	reg := registry.New()
	reg.Register("text/plain", &registry.PlainTextExtractor{})
	reg.Register("text/markdown", &registry.PlainTextExtractor{AsMarkdown: true})

	procCfg, err := config.LoadProcessConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	cc, err := loadCLIConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	cc.applyOverridesTo(&procCfg.CacheRoot, &procCfg.TesseractPath, &procCfg.WorkerConcurrency, &procCfg.MaxFileSize)
	if err := procCfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	c, err := cache.New(procCfg.CacheRoot, cache.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, err
	}

	workerPool := pool.New(procCfg.WorkerConcurrency, 0, pool.WithLogger(logger))
	tesseract := ocr.New(procCfg.TesseractPath, c, workerPool, logger)
	rasterizer := rasterize.NewMinimalRasterizer()

	o := orchestrator.New(
		reg,
		orchestrator.WithCache(c),
		orchestrator.WithPool(workerPool),
		orchestrator.WithLogger(logger),
		orchestrator.WithOCR(tesseract, rasterizer),
	)

	cleanup := func() {
		workerPool.Shutdown(true)
		c.Close()
	}
	return o, c, cleanup, nil
}
