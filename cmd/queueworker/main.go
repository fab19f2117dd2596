// Command queueworker pulls batch-extraction jobs off a Redis/asynq
// queue and runs them through the core orchestrator's BatchExtractFile.
// It is the Redis-backed worker-pool entry-point shape SPEC_FULL §11.2
// carves out of the core engine (explicitly in-process only, spec §1
// Non-goals) — the queue plumbing lives here, not in internal/.
//
// Grounded directly on the teacher's cmd/worker/main.go (env load,
// component construction order, signal-driven graceful shutdown) and
// internal/queue/consumer.go (the asynq client/server/mux shape,
// exponential-backoff retry, per-task error handling).
package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/metrics"
)

func main() {
	if err := godotenv.Load(".env.kreuzberg"); err != nil {
		log.Printf("warning: .env.kreuzberg not found, using system environment variables")
	}

	logger := logging.NewLogger("queueworker")

	procCfg, err := config.LoadProcessConfig()
	if err != nil {
		log.Fatalf("failed to load process configuration: %v", err)
	}

	redisURL := getEnvOrDefault("KREUZBERG_REDIS_URL", "redis://localhost:6379/0")
	queueName := getEnvOrDefault("KREUZBERG_QUEUE_NAME", "kreuzberg:jobs")

	metricsReg := metrics.NewPrometheusRegistry("kreuzberg")

	o, _, cleanup, err := buildOrchestrator(logger, procCfg, metricsReg)
	if err != nil {
		log.Fatalf("failed to construct orchestrator: %v", err)
	}
	defer cleanup()

	metricsAddr := getEnvOrDefault("KREUZBERG_METRICS_ADDR", ":9090")
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsReg.Handler())
	metricsServer := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		logger.Info("metrics server listening", "addr", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	consumer, err := newConsumer(&consumerConfig{
		RedisURL:     redisURL,
		QueueName:    queueName,
		Concurrency:  procCfg.WorkerConcurrency,
		Orchestrator: o,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("failed to construct queue consumer: %v", err)
	}

	logger.Info("starting queue consumer", "redis", redisURL, "queue", queueName, "concurrency", procCfg.WorkerConcurrency)
	if err := consumer.Start(); err != nil {
		log.Fatalf("failed to start queue consumer: %v", err)
	}
	logger.Info("queue worker ready, waiting for jobs")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("received signal, shutting down", "signal", sig.String())

	if err := consumer.Stop(); err != nil {
		logger.Error("error stopping queue consumer", "error", err)
	}
	_ = metricsServer.Close()
	logger.Info("shutdown complete")
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
