package pipeline

import (
	"context"

	"appunti/internal/journal"
)

// Phase is the controller-owned session lifecycle. Terminal success is
// represented by returning to idle after the completion callback fires, not
// by a stored state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGettingURL Phase = "getting_url"
	PhaseUploading  Phase = "uploading"
	PhaseProcessing Phase = "processing"
	PhaseFailed     Phase = "failed"
)

// JournalPhase maps a session phase onto the journal vocabulary.
func (p Phase) JournalPhase() journal.Phase {
	switch p {
	case PhaseGettingURL:
		return journal.PhaseGettingURL
	case PhaseUploading:
		return journal.PhaseUploading
	case PhaseProcessing:
		return journal.PhaseProcessing
	case PhaseFailed:
		return journal.PhaseFailed
	default:
		return journal.PhasePending
	}
}

// session is the state of one submission. All mutation goes through the
// controller while holding its lock; the session id lets late callbacks from
// a superseded session be rejected instead of overwriting fresher state.
type session struct {
	id             string
	phase          Phase
	uploadProgress int
	cancel         context.CancelFunc
	run            *journal.Run
}

// blocked reports whether leaving now would abandon an in-flight transfer.
// True only while uploading.
func (s *session) blocked() bool {
	return s != nil && s.phase == PhaseUploading
}
