package models

import "time"

// Output formats a job may request.
const (
	FormatText = "txt"
	FormatSRT  = "srt"
)

// ModelSizes lists the supported whisper model variants, smallest first.
var ModelSizes = []string{"tiny", "base", "small", "medium", "large"}

// TranscriptionJob is the message placed on the pending queue by the
// submission boundary. All fields are immutable once enqueued.
type TranscriptionJob struct {
	JobID        string    `json:"jobId"`
	VideoURL     string    `json:"videoUrl"`
	OutputFormat string    `json:"outputFormat"`
	Language     string    `json:"language,omitempty"`
	ModelSize    string    `json:"modelSize"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ValidOutputFormat reports whether f is a supported output format.
func ValidOutputFormat(f string) bool {
	return f == FormatText || f == FormatSRT
}

// ValidModelSize reports whether size names a known model variant.
func ValidModelSize(size string) bool {
	for _, s := range ModelSizes {
		if s == size {
			return true
		}
	}
	return false
}
