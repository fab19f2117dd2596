package main

import (
	"github.com/adverant/kreuzberg-go/internal/cache"
	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/metrics"
	"github.com/adverant/kreuzberg-go/internal/ocr"
	"github.com/adverant/kreuzberg-go/internal/orchestrator"
	"github.com/adverant/kreuzberg-go/internal/pool"
	"github.com/adverant/kreuzberg-go/internal/rasterize"
	"github.com/adverant/kreuzberg-go/internal/registry"
)

// buildOrchestrator mirrors cmd/extract's wiring, with one difference:
// the queue worker is long-running, so it takes a shared
// metrics.Registry (the same instance the /metrics HTTP handler serves)
// instead of defaulting to the no-op one.
func buildOrchestrator(logger *logging.Logger, procCfg *config.ProcessConfig, metricsReg metrics.Registry) (*orchestrator.Orchestrator, *cache.Cache, func(), error) {
	reg := registry.New()
	reg.Register("text/plain", &registry.PlainTextExtractor{})
	reg.Register("text/markdown", &registry.PlainTextExtractor{AsMarkdown: true})

	c, err := cache.New(procCfg.CacheRoot, cache.WithLogger(logger), cache.WithMetrics(metricsReg))
	if err != nil {
		return nil, nil, nil, err
	}

	workerPool := pool.New(procCfg.WorkerConcurrency, 0, pool.WithLogger(logger), pool.WithMetrics(metricsReg))
	tesseract := ocr.New(procCfg.TesseractPath, c, workerPool, logger)
	rasterizer := rasterize.NewMinimalRasterizer()

	o := orchestrator.New(
		reg,
		orchestrator.WithCache(c),
		orchestrator.WithPool(workerPool),
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(metricsReg),
		orchestrator.WithOCR(tesseract, rasterizer),
	)

	cleanup := func() {
		workerPool.Shutdown(true)
		c.Close()
	}
	return o, c, cleanup, nil
}
