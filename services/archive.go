package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"transcriber/models"

	_ "github.com/lib/pq"
)

// ArchiveService persists terminal job outcomes to Postgres so the
// transcript survives the record store's retention window. The pipeline
// works without it; pollers still read the record store.
type ArchiveService struct {
	db *sql.DB
}

func NewArchiveService(databaseURL string) (*ArchiveService, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &ArchiveService{db: db}, nil
}

// SaveCompleted records a finished transcription.
func (a *ArchiveService) SaveCompleted(ctx context.Context, record *models.TaskRecord) error {
	query := `INSERT INTO transcriptions
		(job_id, video_url, output_format, model_size, status, language, duration, transcript, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_id) DO NOTHING`
	_, err := a.db.ExecContext(ctx, query,
		record.TaskID,
		record.VideoURL,
		record.OutputFormat,
		record.ModelSize,
		record.Status,
		record.Result.Language,
		record.Result.Duration,
		record.Result.Text,
		time.Now(),
	)
	return err
}

// SaveFailed records a failed job and its error description.
func (a *ArchiveService) SaveFailed(ctx context.Context, record *models.TaskRecord) error {
	query := `INSERT INTO transcriptions
		(job_id, video_url, output_format, model_size, status, error_message, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (job_id) DO NOTHING`
	_, err := a.db.ExecContext(ctx, query,
		record.TaskID,
		record.VideoURL,
		record.OutputFormat,
		record.ModelSize,
		record.Status,
		record.Error,
		time.Now(),
	)
	return err
}

func (a *ArchiveService) Close() error {
	return a.db.Close()
}
