package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"appunti/internal/fileutil"
	"appunti/internal/journal"
	"appunti/internal/logging"
	"appunti/internal/services"
	"appunti/internal/services/notes"
	"appunti/internal/services/storage"
)

// Request describes one submission. Exactly one of FilePath or Text must be
// set; Text skips the broker and transfer phases entirely.
type Request struct {
	FilePath    string
	Text        string
	ContentType string
	MediaKind   fileutil.MediaKind
	Name        string
}

func (r *Request) normalize(cfg maxSizer) error {
	r.FilePath = strings.TrimSpace(r.FilePath)
	hasFile := r.FilePath != ""
	hasText := strings.TrimSpace(r.Text) != ""

	switch {
	case !hasFile && !hasText:
		return services.Wrap(services.ErrValidation, "controller", "submit", "no input selected", nil)
	case hasFile && hasText:
		return services.Wrap(services.ErrValidation, "controller", "submit", "file and text are mutually exclusive", nil)
	}

	if hasFile {
		info, err := os.Stat(r.FilePath)
		if err != nil {
			return services.Wrap(services.ErrValidation, "controller", "submit", "input file not readable", err)
		}
		if limit := cfg.maxUploadBytes(); limit > 0 && info.Size() > limit {
			return services.Wrap(services.ErrValidation, "controller", "submit",
				fmt.Sprintf("file exceeds the %d MiB upload limit", limit/(1<<20)), nil)
		}
		if r.MediaKind == "" {
			if kind, ok := fileutil.DetectMediaKind(r.FilePath); ok {
				r.MediaKind = kind
			}
		}
		if r.Name == "" {
			r.Name = filepath.Base(r.FilePath)
		}
	} else {
		r.MediaKind = fileutil.KindText
		if r.Name == "" {
			r.Name = "pasted text"
		}
	}
	return nil
}

type maxSizer interface{ maxUploadBytes() int64 }

func (c *Controller) maxUploadBytes() int64 {
	return int64(c.cfg.Upload.MaxFileSizeMiB) << 20
}

// Submit runs the full pipeline for one input. It returns true only when
// the job completed and its result was normalized and delivered to the
// completion callback. Every failure resolves the session to the failed
// phase and is surfaced through notifications; callers never see raw errors
// from this method.
func (c *Controller) Submit(ctx context.Context, req Request) bool {
	if err := req.normalize(c); err != nil {
		// Validation failures happen before any session or network work.
		c.setLastError(err)
		c.notifyFailure(ctx, nil, req.Name, err)
		return false
	}
	if req.ContentType == "" {
		req.ContentType = c.cfg.Jobs.DefaultContentType
	}

	run := c.newRun(ctx, req)
	sess, runCtx := c.beginSession(ctx, run)
	defer sess.cancel()

	err := c.execute(runCtx, sess, req)
	if err == nil {
		return true
	}

	if c.superseded(sess) {
		// A newer session cancelled this one; it must not write state or
		// emit notifications on its way out.
		c.logger.Debug("session superseded",
			logging.String(logging.FieldSession, sess.id),
		)
		return false
	}

	c.transition(sess, PhaseFailed)
	if sess.run != nil {
		sess.run.SetFailed(err.Error())
		c.updateRun(sess.run)
	}
	c.setLastError(err)
	c.notifyFailure(ctx, sess, req.Name, err)
	return false
}

func (c *Controller) execute(ctx context.Context, sess *session, req Request) error {
	jobReq := notes.JobRequest{ContentType: req.ContentType}

	if req.FilePath != "" {
		target, err := c.brokerAndUpload(ctx, sess, req)
		if err != nil {
			return err
		}
		jobReq.FilePath = target.FilePath
		jobReq.OriginalFileName = req.Name
	} else {
		jobReq.TextContent = req.Text
	}

	if !c.transition(sess, PhaseProcessing) {
		return context.Canceled
	}

	jobID, err := c.backend.SubmitJob(ctx, jobReq)
	if err != nil {
		if quota, ok := services.AsQuota(err); ok {
			return quota
		}
		return services.Wrap(services.ErrJobFailed, "controller", "submit job", req.Name, err)
	}
	if sess.run != nil {
		sess.run.JobID = jobID
		c.updateRun(sess.run)
	}
	c.notify(func() error { return c.notifier.NotifyProcessingStarted(ctx, req.Name, jobID) })

	job, err := c.pollJob(ctx, sess, jobID)
	if err != nil {
		return err
	}
	if job.Status == notes.JobFailed {
		message := strings.TrimSpace(job.Error)
		if message == "" {
			message = "analysis failed"
		}
		return services.Wrap(services.ErrJobFailed, "worker", "analysis", message, nil)
	}

	variant, err := c.registry.Normalize(job.Result)
	if err != nil {
		return services.Wrap(services.ErrNormalization, "normalizer", "result", jobID, err)
	}

	if sess.run != nil {
		sess.run.SetCompleted(variant.TranscriptID, string(job.Result))
		c.updateRun(sess.run)
	}
	c.notify(func() error {
		return c.notifier.NotifyAnalysisCompleted(ctx, req.Name, variant.ContentType.Label())
	})

	// Success exits to idle; the variant is handed to the caller exactly once.
	if !c.transition(sess, PhaseIdle) {
		return context.Canceled
	}
	if c.onComplete != nil {
		c.onComplete(jobID, variant)
	}
	return nil
}

func (c *Controller) brokerAndUpload(ctx context.Context, sess *session, req Request) (*notes.UploadTarget, error) {
	if !c.transition(sess, PhaseGettingURL) {
		return nil, context.Canceled
	}

	contentType := fileutil.ContentTypeFor(req.FilePath)
	target, err := c.backend.CreateUploadURL(ctx, req.Name, contentType)
	if err != nil {
		if quota, ok := services.AsQuota(err); ok {
			return nil, quota
		}
		return nil, services.Wrap(services.ErrBroker, "broker", "create upload url", req.Name, err)
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "controller", "open input", req.FilePath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "controller", "stat input", req.FilePath, err)
	}

	if !c.transition(sess, PhaseUploading) {
		return nil, context.Canceled
	}
	c.notify(func() error { return c.notifier.NotifyUploadStarted(ctx, req.Name) })

	progress := func(percent int) { c.setUploadProgress(sess, percent) }
	if err := c.transfer.Put(ctx, target.SignedURL, contentType, file, info.Size(), storage.ProgressFunc(progress)); err != nil {
		return nil, services.Wrap(services.ErrTransfer, "transfer", "put", req.Name, err)
	}
	return target, nil
}

func (c *Controller) pollJob(ctx context.Context, sess *session, jobID string) (*notes.Job, error) {
	p := &poller{
		fetch:    c.backend,
		interval: c.pollInterval,
		logger:   c.logger,
		onTick: func(job *notes.Job) {
			if sess.run == nil {
				return
			}
			sess.run.SetProgress(job.Message, job.Progress)
			c.updateRun(sess.run)
		},
	}
	return p.run(ctx, jobID)
}

func (c *Controller) newRun(ctx context.Context, req Request) *journal.Run {
	if c.store == nil {
		return nil
	}
	run, err := c.store.NewRun(ctx, req.Name, req.FilePath, string(req.MediaKind), req.ContentType)
	if err != nil {
		c.logger.Warn("journal insert failed", logging.Error(err))
		return nil
	}
	return run
}

func (c *Controller) superseded(sess *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != sess
}

func (c *Controller) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// notifyFailure routes an error into the taxonomy-specific notification.
func (c *Controller) notifyFailure(ctx context.Context, sess *session, name string, err error) {
	label := strings.TrimSpace(name)
	if label == "" {
		label = "submission"
	}

	switch {
	case errors.Is(err, services.ErrQuotaExceeded):
		quota, _ := services.AsQuota(err)
		checkout := ""
		if quota != nil {
			checkout = quota.CheckoutURL
		}
		c.logger.Warn("quota reached",
			logging.String("checkout_url", checkout),
		)
		c.notify(func() error { return c.notifier.NotifyQuotaReached(ctx, checkout) })
	default:
		c.logger.Error("pipeline failed",
			logging.String("input", label),
			logging.Error(err),
		)
		c.notify(func() error { return c.notifier.NotifyError(ctx, err, label) })
	}
}

// notify delivers a notification on a best-effort basis: a push failure must
// never fail the pipeline.
func (c *Controller) notify(send func() error) {
	if err := send(); err != nil {
		c.logger.Warn("notification failed", logging.Error(err))
	}
}
