package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// modelFiles maps a model size to its ggml weights file on the official
// whisper.cpp mirror. "large" tracks the latest large revision.
var modelFiles = map[string]string{
	"tiny":   "ggml-tiny.bin",
	"base":   "ggml-base.bin",
	"small":  "ggml-small.bin",
	"medium": "ggml-medium.bin",
	"large":  "ggml-large-v3.bin",
}

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

const modelDownloadTimeout = 30 * time.Minute

// ModelLoader produces a ready Model for one size. Loads are expensive
// (weights run to hundreds of megabytes) and must happen at most once per
// size for the process lifetime.
type ModelLoader func(ctx context.Context, size string) (Model, error)

type modelEntry struct {
	once  sync.Once
	model Model
	err   error
}

// ModelCache shares loaded models across concurrently executing jobs.
// The first request for a size performs the load while every concurrent
// requester for that size blocks on it; later requests only take the
// brief map lock. Successful loads live for the process lifetime; a
// failed load is evicted so a later request can retry.
type ModelCache struct {
	mu      sync.Mutex
	entries map[string]*modelEntry
	load    ModelLoader
}

func NewModelCache(load ModelLoader) *ModelCache {
	return &ModelCache{
		entries: make(map[string]*modelEntry),
		load:    load,
	}
}

// Get returns the shared model for size, loading it on first use.
func (c *ModelCache) Get(ctx context.Context, size string) (Model, error) {
	c.mu.Lock()
	entry, ok := c.entries[size]
	if !ok {
		entry = &modelEntry{}
		c.entries[size] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.model, entry.err = c.load(ctx, size)
	})

	if entry.err != nil {
		c.mu.Lock()
		if c.entries[size] == entry {
			delete(c.entries, size)
		}
		c.mu.Unlock()
		return nil, entry.err
	}
	return entry.model, nil
}

// NewWhisperLoader builds the production loader: it makes sure the ggml
// weights for the size are present under modelDir (downloading them on
// first use) and wraps them in a WhisperModel bound to binPath.
func NewWhisperLoader(binPath, modelDir string) ModelLoader {
	return func(ctx context.Context, size string) (Model, error) {
		fileName, ok := modelFiles[size]
		if !ok {
			return nil, fmt.Errorf("unknown model size: %s", size)
		}
		modelPath := filepath.Join(modelDir, fileName)
		if _, err := os.Stat(modelPath); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("check model file: %w", err)
			}
			if err := fetchModelFile(ctx, modelBaseURL+fileName, modelPath); err != nil {
				return nil, fmt.Errorf("fetch model %s: %w", size, err)
			}
		}
		return NewWhisperModel(binPath, modelPath), nil
	}
}

// fetchModelFile downloads the weights to a temp file and renames it into
// place so a crashed download never leaves a truncated model behind.
func fetchModelFile(ctx context.Context, url, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, modelDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destPath)
}
