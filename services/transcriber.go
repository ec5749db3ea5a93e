package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"transcriber/models"
)

// ErrTranscriptionFailed wraps every engine-level failure. The pipeline
// does not distinguish corrupt audio from model errors at this layer.
var ErrTranscriptionFailed = errors.New("speech recognition failed")

// TranscriberService runs the transcription stage: it fetches the shared
// model for the requested variant and shapes the inference output into
// the job's requested format.
type TranscriberService struct {
	cache *ModelCache
}

func NewTranscriberService(cache *ModelCache) *TranscriberService {
	return &TranscriberService{cache: cache}
}

// Transcribe produces the final TranscriptionResult for one job's
// normalized audio file.
func (t *TranscriberService) Transcribe(ctx context.Context, audioPath string, job *models.TranscriptionJob) (*models.TranscriptionResult, error) {
	model, err := t.cache.Get(ctx, job.ModelSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	out, err := model.Transcribe(ctx, audioPath, TranscribeOptions{
		Language: job.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	result := &models.TranscriptionResult{
		Format:   job.OutputFormat,
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
		Duration: out.Duration,
	}
	if result.Language == "" {
		result.Language = "unknown"
	}

	if job.OutputFormat == models.FormatSRT {
		result.SRT = GenerateSRT(out.Segments)
		result.SegmentsCount = len(out.Segments)
	}
	return result, nil
}
