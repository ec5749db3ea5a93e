package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Acquisition failure kinds. Pollers see the wrapped message; the worker
// distinguishes a timed-out download from a tool failure with errors.Is.
var (
	ErrDownloadTimeout = errors.New("video download timed out")
	ErrDownloadFailed  = errors.New("video download failed")
	ErrOutputMissing   = errors.New("downloaded audio file not found")
)

// DownloaderService extracts the audio track of a remote video into a
// local file by shelling out to yt-dlp.
type DownloaderService struct {
	binPath     string
	maxFileSize string
	timeout     time.Duration
	runner      commandRunner
	stat        func(name string) (os.FileInfo, error)
}

func NewDownloaderService(binPath, maxFileSize string, timeout time.Duration) *DownloaderService {
	return &DownloaderService{
		binPath:     binPath,
		maxFileSize: maxFileSize,
		timeout:     timeout,
		runner:      &execRunner{},
		stat:        os.Stat,
	}
}

// Download fetches the audio of videoURL into the scratch workspace,
// using outputPath as the requested destination. yt-dlp may rewrite the
// extension, so the actual file path is resolved after the tool exits.
func (d *DownloaderService) Download(ctx context.Context, videoURL, outputPath string) (string, error) {
	args := []string{
		"-x", // audio only
		"--audio-format", "wav",
		"--audio-quality", "0",
		"-o", outputPath,
		"--no-playlist",
		"--max-filesize", d.maxFileSize,
		videoURL,
	}

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := d.runner.Run(runCtx, d.binPath, args...)
	if err != nil {
		if runCtx.Err() != nil {
			return "", fmt.Errorf("%w after %s", ErrDownloadTimeout, d.timeout)
		}
		return "", fmt.Errorf("%w: %s", ErrDownloadFailed, strings.TrimSpace(result.Stderr))
	}

	// yt-dlp appends the audio format's extension to the requested stem.
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	if _, err := d.stat(base + ".wav"); err == nil {
		return base + ".wav", nil
	}
	if _, err := d.stat(outputPath); err == nil {
		return outputPath, nil
	}
	return "", ErrOutputMissing
}
