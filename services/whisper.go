package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"transcriber/models"
)

// TranscribeOptions carries per-request inference options. An empty
// Language lets the model auto-detect.
type TranscribeOptions struct {
	Language string
}

// ModelOutput is the raw inference result before output formatting.
type ModelOutput struct {
	Text     string
	Language string
	Duration float64
	Segments []models.Segment
}

// Model is one loaded transcription model instance. Implementations must
// be safe for concurrent use: the cache hands a single instance to every
// job requesting the same variant.
type Model interface {
	Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*ModelOutput, error)
}

// WhisperModel runs inference through the whisper.cpp CLI against a local
// ggml weights file. The weights are the expensive part; the cache makes
// sure they are fetched once per variant.
type WhisperModel struct {
	binPath   string
	modelPath string
	runner    commandRunner
	readFile  func(name string) ([]byte, error)
}

func NewWhisperModel(binPath, modelPath string) *WhisperModel {
	return &WhisperModel{
		binPath:   binPath,
		modelPath: modelPath,
		runner:    &execRunner{},
		readFile:  os.ReadFile,
	}
}

// whisperOutput matches the JSON document whisper.cpp writes with -oj.
type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe runs whisper.cpp over a normalized WAV file and parses its
// JSON output. Inference is forced onto the CPU path so results do not
// depend on the host having a usable GPU.
func (m *WhisperModel) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*ModelOutput, error) {
	outBase := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	args := []string{
		"-m", m.modelPath,
		"-f", audioPath,
		"-of", outBase,
		"-oj",
		"-ng", // CPU inference
	}
	if lang := strings.TrimSpace(opts.Language); lang != "" {
		args = append(args, "-l", lang)
	}

	result, err := m.runner.Run(ctx, m.binPath, args...)
	if err != nil {
		diag := strings.TrimSpace(result.Stderr)
		if diag == "" {
			diag = err.Error()
		}
		return nil, fmt.Errorf("whisper inference: %s", diag)
	}

	raw, err := m.readFile(outBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("whisper produced no output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	parsed := &ModelOutput{Language: out.Result.Language}
	var text strings.Builder
	for _, seg := range out.Transcription {
		start := float64(seg.Offsets.From) / 1000
		end := float64(seg.Offsets.To) / 1000
		parsed.Segments = append(parsed.Segments, models.Segment{
			Start: start,
			End:   end,
			Text:  seg.Text,
		})
		text.WriteString(seg.Text)
		if end > parsed.Duration {
			parsed.Duration = end
		}
	}
	parsed.Text = text.String()
	return parsed, nil
}
