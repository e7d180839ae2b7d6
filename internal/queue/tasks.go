package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"docs-rag-service/internal/logger"
	"docs-rag-service/models"
)

const (
	TaskIngestSite = "ingest:site"
)

type IngestSitePayload struct {
	Trigger string `json:"trigger"` // api | cron | cli
}

// IngestRunner is the pipeline entrypoint the worker invokes.
type IngestRunner interface {
	Run(ctx context.Context) (*models.IngestionRun, error)
}

// Task creators
func NewIngestSiteTask(trigger string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestSitePayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestSite,
		payload,
		asynq.MaxRetry(2),
		asynq.Timeout(30*time.Minute),
		asynq.Queue("ingest"),
	), nil
}

// Task handlers
type TaskProcessor struct {
	pipeline IngestRunner
}

func NewTaskProcessor(pipeline IngestRunner) *TaskProcessor {
	return &TaskProcessor{pipeline: pipeline}
}

func (p *TaskProcessor) IngestSite(ctx context.Context, t *asynq.Task) error {
	var payload IngestSitePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Ingestion task started", "trigger", payload.Trigger)

	run, err := p.pipeline.Run(ctx)
	if err != nil {
		logger.Error("Ingestion task failed", "trigger", payload.Trigger, "error", err)
		return err // Will retry
	}

	logger.Info("Ingestion task finished",
		"run_id", run.RunID,
		"processed", run.Processed,
		"total_chunks", run.TotalChunks)
	return nil
}
