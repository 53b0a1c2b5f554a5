package journal

import (
	"strings"
	"time"
)

// Phase mirrors the upload controller's session phases, plus the terminal
// completed state the controller itself never stores.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseGettingURL Phase = "getting_url"
	PhaseUploading  Phase = "uploading"
	PhaseProcessing Phase = "processing"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// InterruptedReason is the error message set on runs left mid-flight by a
// crashed or killed process.
const InterruptedReason = "interrupted before completion"

var allPhases = []Phase{
	PhasePending,
	PhaseGettingURL,
	PhaseUploading,
	PhaseProcessing,
	PhaseCompleted,
	PhaseFailed,
}

var phaseSet = func() map[Phase]struct{} {
	set := make(map[Phase]struct{}, len(allPhases))
	for _, phase := range allPhases {
		set[phase] = struct{}{}
	}
	return set
}()

// ParsePhase converts a string into a known Phase.
func ParsePhase(value string) (Phase, bool) {
	normalized := Phase(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := phaseSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a phase can no longer change.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Run is one pipeline execution persisted in SQLite.
type Run struct {
	ID              int64
	Name            string
	SourcePath      string
	MediaKind       string
	ContentType     string
	JobID           string
	Phase           Phase
	ProgressPercent float64
	ProgressMessage string
	ErrorMessage    string
	TranscriptID    string
	ResultJSON      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetProgress updates both progress fields.
func (r *Run) SetProgress(message string, percent float64) {
	r.ProgressMessage = message
	r.ProgressPercent = percent
}

// SetFailed marks the run as failed with the given error message.
func (r *Run) SetFailed(message string) {
	r.Phase = PhaseFailed
	r.ErrorMessage = message
	r.ProgressMessage = message
}

// SetCompleted marks the run as completed and stores the raw result payload
// for lazy re-normalization on display.
func (r *Run) SetCompleted(transcriptID, resultJSON string) {
	r.Phase = PhaseCompleted
	r.TranscriptID = transcriptID
	r.ResultJSON = resultJSON
	r.ErrorMessage = ""
	r.ProgressPercent = 100
	r.ProgressMessage = "completed"
}
