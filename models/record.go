package models

import "time"

// Task statuses. A task starts in StatusProcessing when the record is
// created at submission and moves to exactly one terminal status.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Segment is one recognized span of speech with timestamps in seconds.
// Segments are ordered and non-overlapping: end >= start and the next
// segment starts at or after this one ends.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the structured output of a completed job.
// SRT and SegmentsCount are only populated for captioned output.
type TranscriptionResult struct {
	Format        string  `json:"format"`
	Text          string  `json:"text"`
	SRT           string  `json:"srt,omitempty"`
	Language      string  `json:"language"`
	Duration      float64 `json:"duration"`
	SegmentsCount int     `json:"segmentsCount,omitempty"`
}

// TaskRecord is the externally polled representation of one job. It lives
// in the record store under a fixed TTL; exactly one of Result/Error is
// set once Status is terminal, neither while processing.
type TaskRecord struct {
	TaskID       string               `json:"taskId"`
	VideoURL     string               `json:"videoUrl"`
	OutputFormat string               `json:"outputFormat"`
	Language     string               `json:"language,omitempty"`
	ModelSize    string               `json:"modelSize"`
	Status       string               `json:"status"`
	Progress     string               `json:"progress,omitempty"`
	Result       *TranscriptionResult `json:"result,omitempty"`
	Error        string               `json:"error,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// SetProgress updates the free-text progress line. Last write wins.
func (r *TaskRecord) SetProgress(progress string) {
	r.Progress = progress
	r.UpdatedAt = time.Now().UTC()
}

// MarkCompleted transitions the record to its completed terminal state.
func (r *TaskRecord) MarkCompleted(result *TranscriptionResult) {
	r.Status = StatusCompleted
	r.Result = result
	r.Error = ""
	r.Progress = "done"
	r.UpdatedAt = time.Now().UTC()
}

// MarkFailed transitions the record to its failed terminal state.
func (r *TaskRecord) MarkFailed(errMsg string) {
	r.Status = StatusFailed
	r.Error = errMsg
	r.Result = nil
	r.UpdatedAt = time.Now().UTC()
}

// Terminal reports whether the record reached a final status.
func (r *TaskRecord) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
