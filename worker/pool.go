package worker

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transcriber/config"
	"transcriber/models"
	"transcriber/services"

	"github.com/redis/go-redis/v9"
)

// Pool runs a fixed number of workers, each pulling one job at a time
// from the pending queue and driving it through the pipeline. The pool
// enforces the hard per-job time limit; the soft limit lives inside the
// executor so a slow job can still finalize its own record.
type Pool struct {
	config      *config.Config
	redisClient *redis.Client
	store       *services.TaskStore
	executor    *Executor
	archive     *services.ArchiveService
	artifacts   *services.ArtifactService
}

func NewPool(
	cfg *config.Config,
	redisClient *redis.Client,
	store *services.TaskStore,
	archive *services.ArchiveService,
	artifacts *services.ArtifactService,
) *Pool {
	cache := services.NewModelCache(services.NewWhisperLoader(cfg.WhisperPath, cfg.ModelDir))
	executor := NewExecutor(
		cfg.TempDir,
		cfg.JobSoftLimit,
		store,
		services.NewDownloaderService(cfg.YtdlpPath, cfg.MaxFileSize, cfg.DownloadTimeout),
		services.NewFFmpegService(cfg.FFmpegPath, cfg.FFmpegTimeout),
		services.NewTranscriberService(cache),
	)

	return &Pool{
		config:      cfg,
		redisClient: redisClient,
		store:       store,
		executor:    executor,
		archive:     archive,
		artifacts:   artifacts,
	}
}

func (p *Pool) StartWorker(ctx context.Context, workerID int) {
	log.Printf("[Worker %d] Starting", workerID)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Worker %d] Shutting down", workerID)
			return
		default:
			// Atomic pop from pending and push to processing
			result, err := p.redisClient.BRPopLPush(
				ctx,
				p.config.PendingQueue,
				p.config.ProcessingQueue,
				30*time.Second,
			).Result()

			if err == redis.Nil {
				// Timeout, no jobs available
				continue
			}

			if err != nil {
				log.Printf("[Worker %d] Redis error: %v", workerID, err)
				time.Sleep(5 * time.Second)
				continue
			}

			var job models.TranscriptionJob
			if err := json.Unmarshal([]byte(result), &job); err != nil {
				log.Printf("[Worker %d] Failed to parse job: %v", workerID, err)
				// Remove malformed job from processing queue
				p.redisClient.LRem(ctx, p.config.ProcessingQueue, 1, result)
				continue
			}

			p.processJob(ctx, workerID, &job, result)
		}
	}
}

func (p *Pool) processJob(ctx context.Context, workerID int, job *models.TranscriptionJob, jobJSON string) {
	log.Printf("[Worker %d] Processing job %s (url: %s, model: %s)", workerID, job.JobID, job.VideoURL, job.ModelSize)
	startTime := time.Now()

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- p.executor.Run(jobCtx, job)
	}()

	hardTimer := time.NewTimer(p.config.JobHardLimit)
	defer hardTimer.Stop()

	select {
	case err := <-done:
		p.redisClient.LRem(ctx, p.config.ProcessingQueue, 1, jobJSON)
		if err != nil {
			p.redisClient.LPush(ctx, p.config.FailedQueue, jobJSON)
			p.archiveTerminal(ctx, workerID, job)
			log.Printf("[Worker %d] Job %s failed (%.2fs)", workerID, job.JobID, time.Since(startTime).Seconds())
			return
		}
		p.archiveTerminal(ctx, workerID, job)
		log.Printf("[Worker %d] Job %s completed successfully (%.2fs)", workerID, job.JobID, time.Since(startTime).Seconds())

	case <-hardTimer.C:
		// The job goroutine is abandoned; its workspace is left for the
		// sweeper since the executor may never reach its cleanup path.
		cancel()
		log.Printf("[Worker %d] Job %s exceeded hard time limit (%s), abandoning", workerID, job.JobID, p.config.JobHardLimit)
		if err := p.store.Fail(ctx, job.JobID, "job exceeded time limit"); err != nil {
			log.Printf("[Worker %d] Failed to mark job %s failed: %v", workerID, job.JobID, err)
		}
		p.redisClient.LRem(ctx, p.config.ProcessingQueue, 1, jobJSON)
		p.redisClient.LPush(ctx, p.config.FailedQueue, jobJSON)
	}
}

// archiveTerminal pushes the terminal record into the optional archive
// and artifact stores. Both are best-effort: the record store already
// holds the authoritative outcome.
func (p *Pool) archiveTerminal(ctx context.Context, workerID int, job *models.TranscriptionJob) {
	if p.archive == nil && p.artifacts == nil {
		return
	}

	record, err := p.store.Get(ctx, job.JobID)
	if err != nil {
		log.Printf("[Worker %d] Failed to read record for job %s: %v", workerID, job.JobID, err)
		return
	}

	if p.archive != nil {
		var archiveErr error
		switch record.Status {
		case models.StatusCompleted:
			archiveErr = p.archive.SaveCompleted(ctx, record)
		case models.StatusFailed:
			archiveErr = p.archive.SaveFailed(ctx, record)
		}
		if archiveErr != nil {
			log.Printf("[Worker %d] Failed to archive job %s: %v", workerID, job.JobID, archiveErr)
		}
	}

	if p.artifacts != nil && record.Status == models.StatusCompleted {
		if err := p.artifacts.UploadResult(ctx, job.JobID, record.Result); err != nil {
			log.Printf("[Worker %d] Failed to upload artifacts for job %s: %v", workerID, job.JobID, err)
		}
	}
}

// SweepLoop periodically removes scratch workspaces that outlived the
// hard job limit: directories abandoned at a hard timeout or orphaned by
// a crashed process.
func (p *Pool) SweepLoop(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	log.Println("[Sweeper] Starting orphaned workspace sweep loop")

	for {
		select {
		case <-ctx.Done():
			log.Println("[Sweeper] Shutting down")
			return
		case <-ticker.C:
			p.sweepWorkspaces()
		}
	}
}

func (p *Pool) sweepWorkspaces() {
	entries, err := os.ReadDir(p.config.TempDir)
	if err != nil {
		log.Printf("[Sweeper] Failed to read temp dir: %v", err)
		return
	}

	swept := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "job-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) <= p.config.JobHardLimit {
			continue
		}
		path := filepath.Join(p.config.TempDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("[Sweeper] Failed to remove %s: %v", path, err)
			continue
		}
		swept++
	}

	if swept > 0 {
		log.Printf("[Sweeper] Removed %d orphaned workspaces", swept)
	}
}
