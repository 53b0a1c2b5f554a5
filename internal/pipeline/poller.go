package pipeline

import (
	"context"
	"log/slog"
	"time"

	"appunti/internal/logging"
	"appunti/internal/services"
	"appunti/internal/services/notes"
)

// jobFetcher is the slice of the backend client the poller needs.
type jobFetcher interface {
	JobStatus(ctx context.Context, jobID string) (*notes.Job, error)
}

// poller repeatedly queries job status until a terminal state. It performs
// an immediate check, then re-checks on a fixed interval. A transport error
// stops polling at once rather than letting the loop spin against a dead
// endpoint.
type poller struct {
	fetch    jobFetcher
	interval time.Duration
	logger   *slog.Logger
	onTick   func(job *notes.Job)
}

// run blocks until the job reaches completed or failed, the status check
// errors, or ctx is canceled. The returned job is always terminal when the
// error is nil.
func (p *poller) run(ctx context.Context, jobID string) (*notes.Job, error) {
	logger := p.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	check := func() (*notes.Job, bool, error) {
		job, err := p.fetch.JobStatus(ctx, jobID)
		if err != nil {
			return nil, true, services.Wrap(services.ErrPollTransport, "poller", "job status", jobID, err)
		}
		if job.Status.IsTerminal() {
			return job, true, nil
		}
		logger.Debug("job progress",
			logging.String(logging.FieldJobID, jobID),
			logging.String("status", string(job.Status)),
			logging.Float64("percent", job.Progress),
			logging.String("message", job.Message),
		)
		if p.onTick != nil {
			p.onTick(job)
		}
		return job, false, nil
	}

	if job, done, err := check(); done {
		return job, err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if job, done, err := check(); done {
				return job, err
			}
		}
	}
}
