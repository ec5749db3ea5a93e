package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Normalization failure kinds.
var (
	ErrTranscodeTimeout = errors.New("audio conversion timed out")
	ErrTranscodeFailed  = errors.New("audio conversion failed")
)

// FFmpegService converts arbitrary input audio into the mono 16 kHz
// signed 16-bit PCM WAV the transcription model expects.
type FFmpegService struct {
	binPath string
	timeout time.Duration
	runner  commandRunner
}

func NewFFmpegService(binPath string, timeout time.Duration) *FFmpegService {
	return &FFmpegService{
		binPath: binPath,
		timeout: timeout,
		runner:  &execRunner{},
	}
}

// Normalize transcodes inputPath into outputPath, overwriting any
// pre-existing file at the output path. Pure over its two paths.
func (f *FFmpegService) Normalize(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outputPath,
	}

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	result, err := f.runner.Run(runCtx, f.binPath, args...)
	if err != nil {
		if runCtx.Err() != nil {
			return fmt.Errorf("%w after %s", ErrTranscodeTimeout, f.timeout)
		}
		return fmt.Errorf("%w: %s", ErrTranscodeFailed, strings.TrimSpace(result.Stderr))
	}
	return nil
}
