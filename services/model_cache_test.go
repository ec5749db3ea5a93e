package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"transcriber/models"
)

// staticModel returns a fixed output for every request.
type staticModel struct {
	text string
}

func (m *staticModel) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*ModelOutput, error) {
	return &ModelOutput{Text: m.text, Language: "en"}, nil
}

func TestModelCacheLoadsOncePerSize(t *testing.T) {
	t.Parallel()

	var loads int32
	cache := NewModelCache(func(ctx context.Context, size string) (Model, error) {
		atomic.AddInt32(&loads, 1)
		return &staticModel{text: size}, nil
	})

	const n = 20
	results := make([]Model, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model, err := cache.Get(context.Background(), "small")
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			results[i] = model
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("load calls = %d, want 1", got)
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent requesters got different model instances")
		}
	}
}

func TestModelCacheLoadsEachSizeSeparately(t *testing.T) {
	t.Parallel()

	var loads int32
	cache := NewModelCache(func(ctx context.Context, size string) (Model, error) {
		atomic.AddInt32(&loads, 1)
		return &staticModel{text: size}, nil
	})

	for _, size := range models.ModelSizes {
		if _, err := cache.Get(context.Background(), size); err != nil {
			t.Fatalf("Get(%s) error = %v", size, err)
		}
		// repeated fetches must hit the cache
		if _, err := cache.Get(context.Background(), size); err != nil {
			t.Fatalf("Get(%s) second call error = %v", size, err)
		}
	}

	if got := atomic.LoadInt32(&loads); got != int32(len(models.ModelSizes)) {
		t.Fatalf("load calls = %d, want %d", got, len(models.ModelSizes))
	}
}

func TestModelCacheRetriesAfterLoadFailure(t *testing.T) {
	t.Parallel()

	var loads int32
	cache := NewModelCache(func(ctx context.Context, size string) (Model, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			return nil, errors.New("download interrupted")
		}
		return &staticModel{text: size}, nil
	})

	if _, err := cache.Get(context.Background(), "base"); err == nil {
		t.Fatal("expected first load to fail")
	}
	model, err := cache.Get(context.Background(), "base")
	if err != nil {
		t.Fatalf("retry Get() error = %v", err)
	}
	if model == nil {
		t.Fatal("retry returned nil model")
	}
	if got := atomic.LoadInt32(&loads); got != 2 {
		t.Fatalf("load calls = %d, want 2", got)
	}
}
