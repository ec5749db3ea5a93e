package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"transcriber/models"
)

// ErrWorkspace marks scratch workspace allocation failures.
var ErrWorkspace = errors.New("workspace allocation failed")

// Stage collaborators. Declared here so the pipeline can be exercised
// with fakes; the services package provides the real implementations.
type downloader interface {
	Download(ctx context.Context, videoURL, outputPath string) (string, error)
}

type transcoder interface {
	Normalize(ctx context.Context, inputPath, outputPath string) error
}

type transcriber interface {
	Transcribe(ctx context.Context, audioPath string, job *models.TranscriptionJob) (*models.TranscriptionResult, error)
}

type recordStore interface {
	SetProgress(ctx context.Context, taskID, progress string) error
	Complete(ctx context.Context, taskID string, result *models.TranscriptionResult) error
	Fail(ctx context.Context, taskID, errMsg string) error
}

// Executor carries one job through download, normalization, and
// transcription, updating the task record at every transition. A failure
// at any stage is terminal: later stages never run and the job is never
// retried. The scratch workspace is removed on every exit path.
type Executor struct {
	tempDir     string
	softLimit   time.Duration
	store       recordStore
	downloader  downloader
	transcoder  transcoder
	transcriber transcriber
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(path string) error
}

func NewExecutor(
	tempDir string,
	softLimit time.Duration,
	store recordStore,
	dl downloader,
	tc transcoder,
	tr transcriber,
) *Executor {
	return &Executor{
		tempDir:     tempDir,
		softLimit:   softLimit,
		store:       store,
		downloader:  dl,
		transcoder:  tc,
		transcriber: tr,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
	}
}

// Run executes the full pipeline for job. Stage work is bounded by the
// soft time limit; record writes use the parent context so a job that
// runs out of time can still be finalized gracefully.
func (e *Executor) Run(ctx context.Context, job *models.TranscriptionJob) error {
	workspace, err := e.mkdirTemp(e.tempDir, "job-"+job.JobID+"-")
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrWorkspace, err)
		e.fail(ctx, job, wrapped)
		return wrapped
	}
	defer func() {
		if err := e.removeAll(workspace); err != nil {
			log.Printf("[Job %s] Failed to remove workspace %s: %v", job.JobID, workspace, err)
		}
	}()

	stageCtx, cancel := context.WithTimeout(ctx, e.softLimit)
	defer cancel()

	e.progress(ctx, job, "downloading video")
	rawPath, err := e.downloader.Download(stageCtx, job.VideoURL, filepath.Join(workspace, "audio_raw.wav"))
	if err != nil {
		e.fail(ctx, job, err)
		return err
	}

	e.progress(ctx, job, "normalizing audio")
	normalizedPath := filepath.Join(workspace, "audio_16k.wav")
	if err := e.transcoder.Normalize(stageCtx, rawPath, normalizedPath); err != nil {
		e.fail(ctx, job, err)
		return err
	}

	e.progress(ctx, job, fmt.Sprintf("transcribing (%s)", job.ModelSize))
	result, err := e.transcriber.Transcribe(stageCtx, normalizedPath, job)
	if err != nil {
		e.fail(ctx, job, err)
		return err
	}

	if err := e.store.Complete(ctx, job.JobID, result); err != nil {
		log.Printf("[Job %s] Failed to write completed record: %v", job.JobID, err)
		return err
	}
	return nil
}

func (e *Executor) progress(ctx context.Context, job *models.TranscriptionJob, progress string) {
	if err := e.store.SetProgress(ctx, job.JobID, progress); err != nil {
		log.Printf("[Job %s] Failed to update progress: %v", job.JobID, err)
	}
}

func (e *Executor) fail(ctx context.Context, job *models.TranscriptionJob, cause error) {
	log.Printf("[Job %s] Pipeline failed: %v", job.JobID, cause)
	if err := e.store.Fail(ctx, job.JobID, cause.Error()); err != nil {
		log.Printf("[Job %s] Failed to write failed record: %v", job.JobID, err)
	}
}
