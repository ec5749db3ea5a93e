package services

import (
	"context"
	"errors"
	"testing"

	"transcriber/models"
)

// fakeModel returns a canned inference output or error.
type fakeModel struct {
	out     *ModelOutput
	err     error
	gotOpts TranscribeOptions
}

func (m *fakeModel) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*ModelOutput, error) {
	m.gotOpts = opts
	return m.out, m.err
}

func cacheWith(model Model) *ModelCache {
	return NewModelCache(func(ctx context.Context, size string) (Model, error) {
		return model, nil
	})
}

func TestTranscriberPlainText(t *testing.T) {
	t.Parallel()

	model := &fakeModel{
		out: &ModelOutput{
			Text:     "  hello world  ",
			Language: "en",
			Duration: 10.2,
			Segments: []models.Segment{{Start: 0, End: 10.2, Text: "hello world"}},
		},
	}
	svc := NewTranscriberService(cacheWith(model))

	job := &models.TranscriptionJob{
		JobID:        "j1",
		OutputFormat: models.FormatText,
		ModelSize:    "small",
		Language:     "en",
	}
	result, err := svc.Transcribe(context.Background(), "audio.wav", job)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if result.Text != "hello world" {
		t.Errorf("text = %q, want trimmed transcript", result.Text)
	}
	if result.Language != "en" {
		t.Errorf("language = %q, want en", result.Language)
	}
	if result.Duration != 10.2 {
		t.Errorf("duration = %v, want 10.2", result.Duration)
	}
	if result.SRT != "" || result.SegmentsCount != 0 {
		t.Errorf("plain-text result carries caption fields: %+v", result)
	}
	if model.gotOpts.Language != "en" {
		t.Errorf("language hint not passed through, opts=%+v", model.gotOpts)
	}
}

func TestTranscriberCaptioned(t *testing.T) {
	t.Parallel()

	model := &fakeModel{
		out: &ModelOutput{
			Text:     "hello world",
			Language: "en",
			Duration: 3.0,
			Segments: []models.Segment{
				{Start: 0.0, End: 1.5, Text: "hello"},
				{Start: 1.5, End: 3.0, Text: "world"},
			},
		},
	}
	svc := NewTranscriberService(cacheWith(model))

	job := &models.TranscriptionJob{JobID: "j2", OutputFormat: models.FormatSRT, ModelSize: "small"}
	result, err := svc.Transcribe(context.Background(), "audio.wav", job)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	wantSRT := "1\n00:00:00,000 --> 00:00:01,500\nhello\n\n" +
		"2\n00:00:01,500 --> 00:00:03,000\nworld\n\n"
	if result.SRT != wantSRT {
		t.Errorf("srt = %q, want %q", result.SRT, wantSRT)
	}
	if result.SegmentsCount != 2 {
		t.Errorf("segments count = %d, want 2", result.SegmentsCount)
	}
}

func TestTranscriberUnknownLanguageFallback(t *testing.T) {
	t.Parallel()

	model := &fakeModel{out: &ModelOutput{Text: "x"}}
	svc := NewTranscriberService(cacheWith(model))

	job := &models.TranscriptionJob{JobID: "j3", OutputFormat: models.FormatText, ModelSize: "tiny"}
	result, err := svc.Transcribe(context.Background(), "audio.wav", job)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if result.Language != "unknown" {
		t.Errorf("language = %q, want unknown", result.Language)
	}
}

func TestTranscriberWrapsEngineError(t *testing.T) {
	t.Parallel()

	model := &fakeModel{err: errors.New("corrupt audio header")}
	svc := NewTranscriberService(cacheWith(model))

	job := &models.TranscriptionJob{JobID: "j4", OutputFormat: models.FormatText, ModelSize: "small"}
	_, err := svc.Transcribe(context.Background(), "audio.wav", job)
	if !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("error = %v, want ErrTranscriptionFailed", err)
	}
}

func TestTranscriberWrapsLoadError(t *testing.T) {
	t.Parallel()

	cache := NewModelCache(func(ctx context.Context, size string) (Model, error) {
		return nil, errors.New("weights download failed")
	})
	svc := NewTranscriberService(cache)

	job := &models.TranscriptionJob{JobID: "j5", OutputFormat: models.FormatText, ModelSize: "large"}
	_, err := svc.Transcribe(context.Background(), "audio.wav", job)
	if !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("error = %v, want ErrTranscriptionFailed", err)
	}
}
