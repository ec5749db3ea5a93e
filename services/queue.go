package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"transcriber/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// JobQueue is the submission side of the pipeline: it creates the task
// record first, then pushes the job onto the pending list a worker will
// pop. The record exists with status=processing before any worker can
// see the job.
type JobQueue struct {
	client       *redis.Client
	store        *TaskStore
	pendingQueue string
}

func NewJobQueue(client *redis.Client, store *TaskStore, pendingQueue string) *JobQueue {
	return &JobQueue{
		client:       client,
		store:        store,
		pendingQueue: pendingQueue,
	}
}

// NewJob builds a queue message with a fresh job id.
func NewJob(videoURL, outputFormat, language, modelSize string) *models.TranscriptionJob {
	return &models.TranscriptionJob{
		JobID:        uuid.New().String(),
		VideoURL:     videoURL,
		OutputFormat: outputFormat,
		Language:     language,
		ModelSize:    modelSize,
		CreatedAt:    time.Now().UTC(),
	}
}

// Submit validates the job, creates its record, and enqueues it.
func (q *JobQueue) Submit(ctx context.Context, job *models.TranscriptionJob) (*models.TaskRecord, error) {
	if !models.ValidOutputFormat(job.OutputFormat) {
		return nil, fmt.Errorf("unsupported output format: %s", job.OutputFormat)
	}
	if !models.ValidModelSize(job.ModelSize) {
		return nil, fmt.Errorf("unsupported model size: %s", job.ModelSize)
	}

	record := &models.TaskRecord{
		TaskID:       job.JobID,
		VideoURL:     job.VideoURL,
		OutputFormat: job.OutputFormat,
		Language:     job.Language,
		ModelSize:    job.ModelSize,
		Status:       models.StatusProcessing,
		Progress:     "queued",
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.CreatedAt,
	}
	if err := q.store.Create(ctx, record); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	if err := q.client.LPush(ctx, q.pendingQueue, raw).Err(); err != nil {
		return nil, fmt.Errorf("enqueue job %s: %w", job.JobID, err)
	}
	return record, nil
}
