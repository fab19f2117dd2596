package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/adverant/kreuzberg-go/internal/config"
	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/orchestrator"
)

// jobStatusTTL bounds how long a job's last-known status lingers in
// Redis after completion, so a crashed poller doesn't leak keys forever.
const jobStatusTTL = 24 * time.Hour

// taskTypeExtractBatch is the asynq task type this worker registers,
// the Go-queue analogue of the teacher's "process-document" task.
const taskTypeExtractBatch = "extract:batch"

// jobPayload is the wire shape producers enqueue. It trades the
// teacher's single-file JobData for a path list, since this worker
// wraps BatchExtractFile rather than a single-document pipeline.
type jobPayload struct {
	JobID    string   `json:"jobId"`
	Paths    []string `json:"paths"`
	ForceOCR bool     `json:"forceOcr,omitempty"`
}

type consumerConfig struct {
	RedisURL     string
	QueueName    string
	Concurrency  int
	Orchestrator *orchestrator.Orchestrator
	Logger       *logging.Logger
}

// consumer wraps an asynq client/server pair the same way the teacher's
// internal/queue.Consumer does: a ServeMux routes the one task type to
// a handler, the server runs in a background goroutine, and Stop drains
// it gracefully.
type consumer struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	status *redis.Client
	cfg    *consumerConfig
}

func newConsumer(cfg *consumerConfig) (*consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("Orchestrator is required")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// asynq owns the task queue itself; this second, plain go-redis
	// client is only for job-status bookkeeping (§11.2's "query job
	// status" surface), kept separate so a status-store outage never
	// blocks task dispatch.
	statusOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL for status store: %w", err)
	}
	statusClient := redis.NewClient(statusOpt)

	client := asynq.NewClient(redisOpt)
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			cfg.QueueName: 10,
			"default":     1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			delay := time.Duration(5*(1<<uint(n))) * time.Second
			if delay > 60*time.Second {
				delay = 60 * time.Second
			}
			return delay
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			cfg.Logger.Error("task processing error", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	c := &consumer{client: client, server: server, mux: mux, status: statusClient, cfg: cfg}
	mux.HandleFunc(taskTypeExtractBatch, c.handleExtractBatch)
	return c, nil
}

func (c *consumer) Start() error {
	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.cfg.Logger.Error("queue consumer stopped with error", "error", err)
		}
	}()
	return nil
}

func (c *consumer) Stop() error {
	c.server.Shutdown()
	if err := c.status.Close(); err != nil {
		c.cfg.Logger.Error("error closing status store", "error", err)
	}
	return c.client.Close()
}

// JobStatus reports the last-known status for a job ID, or "" if
// unknown (never seen, or its status TTL has expired).
func (c *consumer) JobStatus(ctx context.Context, jobID string) (string, error) {
	status, err := c.status.Get(ctx, jobStatusKey(jobID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return status, err
}

func jobStatusKey(jobID string) string {
	return "kreuzberg:job-status:" + jobID
}

func (c *consumer) handleExtractBatch(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var job jobPayload
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	c.cfg.Logger.Info("processing batch job", "jobId", job.JobID, "files", len(job.Paths))
	c.setStatus(ctx, job.JobID, "processing")

	cfg, err := config.New(config.WithForceOCR(job.ForceOCR))
	if err != nil {
		c.setStatus(ctx, job.JobID, "failed")
		return fmt.Errorf("building extraction config: %w", err)
	}

	results := c.cfg.Orchestrator.BatchExtractFile(ctx, job.Paths, cfg)

	failed := 0
	for _, r := range results {
		if _, ok := r.Metadata["error"]; ok {
			failed++
		}
	}
	c.cfg.Logger.Info("batch job completed", "jobId", job.JobID, "duration", time.Since(start).String(),
		"total", len(results), "failed", failed)
	if failed == len(results) && len(results) > 0 {
		c.setStatus(ctx, job.JobID, "failed")
	} else {
		c.setStatus(ctx, job.JobID, "done")
	}
	return nil
}

// setStatus best-effort records job progress; a status-store hiccup
// logs but never fails the underlying extraction job.
func (c *consumer) setStatus(ctx context.Context, jobID, status string) {
	if err := c.status.Set(ctx, jobStatusKey(jobID), status, jobStatusTTL).Err(); err != nil {
		c.cfg.Logger.Error("failed to record job status", "jobId", jobID, "error", err)
	}
}
