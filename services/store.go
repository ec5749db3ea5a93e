package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"transcriber/models"

	"github.com/redis/go-redis/v9"
)

// ErrTaskNotFound is returned when a record has expired or never existed.
// Callers must treat this as a distinct outcome, not as a failed job.
var ErrTaskNotFound = errors.New("task not found")

// TaskStore keeps task records in Redis under task:<id> with a fixed
// retention window. Every write stores the whole record and refreshes
// the TTL; partial field updates never hit the storage layer, so pollers
// always observe a consistent record.
type TaskStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTaskStore(client *redis.Client, ttl time.Duration) *TaskStore {
	return &TaskStore{client: client, ttl: ttl}
}

func taskKey(taskID string) string {
	return "task:" + taskID
}

// Create stores a fresh record, as written by the submission boundary.
func (s *TaskStore) Create(ctx context.Context, record *models.TaskRecord) error {
	return s.write(ctx, record)
}

// Get fetches the record for taskID.
func (s *TaskStore) Get(ctx context.Context, taskID string) (*models.TaskRecord, error) {
	raw, err := s.client.Get(ctx, taskKey(taskID)).Result()
	if err == redis.Nil {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read task %s: %w", taskID, err)
	}

	var record models.TaskRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", taskID, err)
	}
	return &record, nil
}

// SetProgress updates the human-readable stage description.
func (s *TaskStore) SetProgress(ctx context.Context, taskID, progress string) error {
	return s.update(ctx, taskID, func(record *models.TaskRecord) {
		record.SetProgress(progress)
	})
}

// Complete writes the result and moves the record to its completed state.
func (s *TaskStore) Complete(ctx context.Context, taskID string, result *models.TranscriptionResult) error {
	return s.update(ctx, taskID, func(record *models.TaskRecord) {
		record.MarkCompleted(result)
	})
}

// Fail writes the error description and moves the record to failed.
func (s *TaskStore) Fail(ctx context.Context, taskID, errMsg string) error {
	return s.update(ctx, taskID, func(record *models.TaskRecord) {
		record.MarkFailed(errMsg)
	})
}

// update reads the whole record, applies the mutation, and writes the
// whole record back with a refreshed TTL. Only the executor owning the
// job issues updates for it, so read-merge-write needs no locking.
func (s *TaskStore) update(ctx context.Context, taskID string, mutate func(*models.TaskRecord)) error {
	record, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	mutate(record)
	return s.write(ctx, record)
}

func (s *TaskStore) write(ctx context.Context, record *models.TaskRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", record.TaskID, err)
	}
	if err := s.client.Set(ctx, taskKey(record.TaskID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("write task %s: %w", record.TaskID, err)
	}
	return nil
}
