package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"transcriber/config"
	"transcriber/services"
	"transcriber/worker"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Starting video transcription service...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using OS environment")
	}

	cfg := config.Load()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis successfully")

	store := services.NewTaskStore(redisClient, cfg.ResultTTL)

	var archive *services.ArchiveService
	if cfg.DatabaseURL != "" {
		var err error
		archive, err = services.NewArchiveService(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer archive.Close()
		log.Println("Transcript archive enabled")
	}

	var artifacts *services.ArtifactService
	if cfg.S3Bucket != "" {
		artifacts = services.NewArtifactService(cfg)
		log.Printf("Artifact uploads enabled (bucket: %s)", cfg.S3Bucket)
	}

	pool := worker.NewPool(cfg, redisClient, store, archive, artifacts)

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			pool.StartWorker(ctx, workerID)
		}(i)
	}

	// Reap workspaces abandoned at hard timeouts or by crashed runs
	wg.Add(1)
	go func() {
		defer wg.Done()
		pool.SweepLoop(ctx)
	}()

	log.Printf("Started %d transcription workers", cfg.WorkerCount)
	log.Printf("Listening on Redis queue: %s", cfg.PendingQueue)
	log.Println("Service is ready to process jobs")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping workers...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("All workers stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Println("Shutdown timeout, forcing exit")
	}

	redisClient.Close()
	log.Println("Transcription service stopped")
}
