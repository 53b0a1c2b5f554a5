package notes

import (
	"encoding/json"
	"strings"
	"time"
)

// JobState is the worker-owned lifecycle of an analysis job.
type JobState string

const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// ParseJobState normalizes a raw status string into a known state.
func ParseJobState(value string) (JobState, bool) {
	state := JobState(strings.ToLower(strings.TrimSpace(value)))
	switch state {
	case JobPending, JobProcessing, JobCompleted, JobFailed:
		return state, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further status changes can occur.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is the client's read-only projection of a remote job. Result is left
// opaque until it reaches the normalizer; Error is set only on failure.
type Job struct {
	JobID    string          `json:"job_id"`
	Status   JobState        `json:"status"`
	Progress float64         `json:"progress"`
	Message  string          `json:"message"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Analysis is one entry of the persisted history list. Content holds the
// unnormalized result payload and is normalized lazily on display.
type Analysis struct {
	TranscriptID string          `json:"transcript_id"`
	Title        string          `json:"title"`
	FileType     string          `json:"file_type"`
	Content      json.RawMessage `json:"content"`
	CreatedAt    time.Time       `json:"created_at"`
}
