package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"appunti/internal/config"
	"appunti/internal/journal"
	"appunti/internal/logging"
	"appunti/internal/notifications"
	"appunti/internal/results"
	"appunti/internal/services/notes"
	"appunti/internal/services/storage"
)

// Backend is the slice of the notes client the controller depends on.
type Backend interface {
	CreateUploadURL(ctx context.Context, fileName, contentType string) (*notes.UploadTarget, error)
	SubmitJob(ctx context.Context, req notes.JobRequest) (string, error)
	JobStatus(ctx context.Context, jobID string) (*notes.Job, error)
}

// Transfer performs the signed-URL binary PUT.
type Transfer interface {
	Put(ctx context.Context, signedURL, contentType string, body io.Reader, size int64, progress storage.ProgressFunc) error
}

// CompletionFunc receives the normalized result of a successful run,
// exactly once per run.
type CompletionFunc func(jobID string, variant *results.Variant)

// ProgressFunc mirrors upload percent for display frontends.
type ProgressFunc func(percent int)

// PhaseFunc observes session phase transitions.
type PhaseFunc func(phase Phase)

// Controller is the upload orchestrator. One Controller owns at most one
// live session; Submit and Reset may be called from any goroutine.
type Controller struct {
	cfg      *config.Config
	logger   *slog.Logger
	backend  Backend
	transfer Transfer
	notifier notifications.Service
	registry *results.Registry
	store    *journal.Store
	guard    Guard

	pollInterval time.Duration
	onComplete   CompletionFunc
	onProgress   ProgressFunc
	onPhase      PhaseFunc

	mu      sync.Mutex
	current *session
	lastErr error
}

// Option configures optional Controller behavior.
type Option func(*Controller)

// WithTransfer overrides the default storage transfer client.
func WithTransfer(t Transfer) Option {
	return func(c *Controller) {
		if t != nil {
			c.transfer = t
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "pipeline")
		}
	}
}

// WithNotifier sets the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithJournal records every run in the local journal.
func WithJournal(store *journal.Store) Option {
	return func(c *Controller) { c.store = store }
}

// WithGuard installs the interrupt guard engaged during uploads.
func WithGuard(g Guard) Option {
	return func(c *Controller) {
		if g != nil {
			c.guard = g
		}
	}
}

// WithRegistry overrides the result shape registry.
func WithRegistry(r *results.Registry) Option {
	return func(c *Controller) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithPollInterval overrides the configured status poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Controller) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithCompletion registers the completion callback.
func WithCompletion(fn CompletionFunc) Option {
	return func(c *Controller) { c.onComplete = fn }
}

// WithProgress registers an upload progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Controller) { c.onProgress = fn }
}

// WithPhaseChange registers a callback fired on every phase transition, for
// frontends that mirror pipeline status to the user.
func WithPhaseChange(fn PhaseFunc) Option {
	return func(c *Controller) { c.onPhase = fn }
}

// New constructs a Controller.
func New(cfg *config.Config, backend Backend, opts ...Option) *Controller {
	c := &Controller{
		cfg:          cfg,
		logger:       logging.NewNop(),
		backend:      backend,
		transfer:     storage.New(storage.WithTimeout(time.Duration(cfg.Upload.TransferTimeout) * time.Second)),
		notifier:     notifications.NewService(cfg),
		registry:     results.Default,
		guard:        NopGuard(),
		pollInterval: time.Duration(cfg.Jobs.PollIntervalMS) * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current session phase; idle when no session exists.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return PhaseIdle
	}
	return c.current.phase
}

// Blocked reports whether an upload is in flight.
func (c *Controller) Blocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.blocked()
}

// UploadProgress returns the current upload percent. Meaningful only while
// uploading; reset to 0 on every new session.
func (c *Controller) UploadProgress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return 0
	}
	return c.current.uploadProgress
}

// LastError returns the error that resolved the most recent failed session.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Reset cancels any in-flight work and clears session state. Safe to call
// from cleanup paths at any time; notifications are not emitted.
func (c *Controller) Reset() {
	c.mu.Lock()
	sess := c.current
	c.current = nil
	c.lastErr = nil
	c.mu.Unlock()

	if sess != nil {
		if sess.cancel != nil {
			sess.cancel()
		}
		if sess.phase == PhaseUploading {
			c.guard.Release()
		}
	}
}

// beginSession supersedes the previous session (cancelling its poll or
// transfer) and installs a fresh one with progress at zero.
func (c *Controller) beginSession(ctx context.Context, run *journal.Run) (*session, context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	sess := &session{
		id:     uuid.NewString(),
		phase:  PhaseIdle,
		cancel: cancel,
		run:    run,
	}

	c.mu.Lock()
	prev := c.current
	c.current = sess
	c.lastErr = nil
	c.mu.Unlock()

	if prev != nil {
		if prev.cancel != nil {
			prev.cancel()
		}
		if prev.phase == PhaseUploading {
			c.guard.Release()
		}
	}
	return sess, runCtx
}

// transition moves the session to phase, applying the uploading guard side
// effects. Returns false when the session has been superseded: a stale
// worker must stop writing once a newer session owns the controller.
func (c *Controller) transition(sess *session, phase Phase) bool {
	c.mu.Lock()
	if c.current != sess {
		c.mu.Unlock()
		return false
	}
	leavingUpload := sess.phase == PhaseUploading && phase != PhaseUploading
	enteringUpload := sess.phase != PhaseUploading && phase == PhaseUploading
	sess.phase = phase
	if phase == PhaseUploading {
		sess.uploadProgress = 0
	}
	c.mu.Unlock()

	if enteringUpload {
		c.guard.Engage()
	}
	if leavingUpload {
		c.guard.Release()
	}

	c.logger.Info("phase transition",
		logging.String(logging.FieldSession, sess.id),
		logging.String(logging.FieldPhase, string(phase)),
	)
	if c.onPhase != nil {
		c.onPhase(phase)
	}
	c.recordPhase(sess, phase)
	return true
}

// setUploadProgress records a new percent value; stale sessions are ignored.
func (c *Controller) setUploadProgress(sess *session, percent int) {
	c.mu.Lock()
	if c.current != sess || percent <= sess.uploadProgress {
		c.mu.Unlock()
		return
	}
	sess.uploadProgress = percent
	c.mu.Unlock()

	if c.onProgress != nil {
		c.onProgress(percent)
	}
	// Journal writes are throttled to coarse milestones.
	if sess.run != nil && (percent%10 == 0 || percent == 100) {
		sess.run.SetProgress("uploading", float64(percent))
		c.updateRun(sess.run)
	}
}

func (c *Controller) recordPhase(sess *session, phase Phase) {
	if sess.run == nil {
		return
	}
	sess.run.Phase = phase.JournalPhase()
	c.updateRun(sess.run)
}

func (c *Controller) updateRun(run *journal.Run) {
	if c.store == nil || run == nil {
		return
	}
	if err := c.store.Update(context.Background(), run); err != nil {
		c.logger.Warn("journal update failed", logging.Error(err))
	}
}
