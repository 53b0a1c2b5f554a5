package pipeline_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"appunti/internal/pipeline"
	"appunti/internal/results"
	"appunti/internal/services"
	"appunti/internal/services/notes"
	"appunti/internal/services/storage"
	"appunti/internal/testsupport"
)

type fakeBackend struct {
	mu          sync.Mutex
	createCalls int
	submitCalls int
	statusCalls int

	createErr error
	submitErr error
	lastJob   notes.JobRequest
	statusFn  func(call int) (*notes.Job, error)
}

func (f *fakeBackend) CreateUploadURL(ctx context.Context, fileName, contentType string) (*notes.UploadTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &notes.UploadTarget{SignedURL: "https://blob.example/put", FilePath: "uploads/" + fileName}, nil
}

func (f *fakeBackend) SubmitJob(ctx context.Context, req notes.JobRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.lastJob = req
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "job-1", nil
}

func (f *fakeBackend) JobStatus(ctx context.Context, jobID string) (*notes.Job, error) {
	f.mu.Lock()
	call := f.statusCalls
	f.statusCalls++
	fn := f.statusFn
	f.mu.Unlock()
	if fn == nil {
		return &notes.Job{JobID: jobID, Status: notes.JobCompleted}, nil
	}
	return fn(call)
}

func (f *fakeBackend) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls, f.submitCalls, f.statusCalls
}

type fakeTransfer struct {
	mu    sync.Mutex
	calls int
	err   error
	steps []int
}

func (f *fakeTransfer) Put(ctx context.Context, signedURL, contentType string, body io.Reader, size int64, progress storage.ProgressFunc) error {
	f.mu.Lock()
	f.calls++
	steps := f.steps
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if steps == nil {
		steps = []int{25, 50, 75, 100}
	}
	for _, pct := range steps {
		if progress != nil {
			progress(pct)
		}
	}
	return nil
}

func completedJob(result string) *notes.Job {
	return &notes.Job{JobID: "job-1", Status: notes.JobCompleted, Result: []byte(result)}
}

const lessonResult = `{"tipo_contenuto":"lezione","riassunto":"Bene","transcript_id":"tr-9"}`

func newTestController(t *testing.T, backend *fakeBackend, extra ...pipeline.Option) *pipeline.Controller {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	opts := []pipeline.Option{
		pipeline.WithTransfer(&fakeTransfer{}),
		pipeline.WithPollInterval(2 * time.Millisecond),
	}
	opts = append(opts, extra...)
	return pipeline.New(cfg, backend, opts...)
}

func TestSubmitTextSkipsUpload(t *testing.T) {
	backend := &fakeBackend{
		statusFn: func(int) (*notes.Job, error) { return completedJob(lessonResult), nil },
	}

	var gotJob string
	var gotVariant *results.Variant
	completions := 0
	controller := newTestController(t, backend,
		pipeline.WithCompletion(func(jobID string, v *results.Variant) {
			completions++
			gotJob = jobID
			gotVariant = v
		}),
	)

	ok := controller.Submit(context.Background(), pipeline.Request{Text: "appunti incollati"})
	if !ok {
		t.Fatalf("Submit failed: %v", controller.LastError())
	}
	creates, submits, _ := backend.counts()
	if creates != 0 {
		t.Fatalf("text submission must not hit the broker, got %d calls", creates)
	}
	if submits != 1 {
		t.Fatalf("expected one job submission, got %d", submits)
	}
	if backend.lastJob.TextContent != "appunti incollati" {
		t.Fatalf("unexpected job request: %#v", backend.lastJob)
	}
	if completions != 1 {
		t.Fatalf("completion callback fired %d times", completions)
	}
	if gotJob != "job-1" || gotVariant == nil || gotVariant.Summary != "Bene" {
		t.Fatalf("unexpected completion: job=%q variant=%#v", gotJob, gotVariant)
	}
	if controller.Phase() != pipeline.PhaseIdle {
		t.Fatalf("expected idle after success, got %s", controller.Phase())
	}
}

func TestSubmitFileRunsFullPipeline(t *testing.T) {
	backend := &fakeBackend{
		statusFn: func(call int) (*notes.Job, error) {
			if call == 0 {
				return &notes.Job{JobID: "job-1", Status: notes.JobProcessing, Progress: 40}, nil
			}
			return completedJob(lessonResult), nil
		},
	}

	var phases []pipeline.Phase
	var progress []int
	controller := newTestController(t, backend,
		pipeline.WithPhaseChange(func(p pipeline.Phase) { phases = append(phases, p) }),
		pipeline.WithProgress(func(pct int) { progress = append(progress, pct) }),
	)

	cfg := testsupport.NewConfig(t)
	path := cfg.Paths.DataDir + "/lecture.mp3"
	testsupport.WriteFile(t, path, 2048)

	ok := controller.Submit(context.Background(), pipeline.Request{FilePath: path})
	if !ok {
		t.Fatalf("Submit failed: %v", controller.LastError())
	}

	want := []pipeline.Phase{
		pipeline.PhaseGettingURL,
		pipeline.PhaseUploading,
		pipeline.PhaseProcessing,
		pipeline.PhaseIdle,
	}
	if len(phases) != len(want) {
		t.Fatalf("unexpected phase sequence: %v", phases)
	}
	for i, phase := range want {
		if phases[i] != phase {
			t.Fatalf("phase %d: expected %s, got %s", i, phase, phases[i])
		}
	}
	if backend.lastJob.FilePath != "uploads/lecture.mp3" {
		t.Fatalf("job must reference the brokered path, got %q", backend.lastJob.FilePath)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] <= progress[i-1] {
			t.Fatalf("progress must be strictly increasing: %v", progress)
		}
	}
}

func TestSubmitQuotaNeverPolls(t *testing.T) {
	quota := &services.QuotaError{Message: "limit reached", CheckoutURL: "https://pay.example/checkout"}
	backend := &fakeBackend{submitErr: quota}

	controller := newTestController(t, backend)
	if ok := controller.Submit(context.Background(), pipeline.Request{Text: "testo"}); ok {
		t.Fatal("expected quota failure")
	}

	_, _, polls := backend.counts()
	if polls != 0 {
		t.Fatalf("quota failure must not poll, got %d status calls", polls)
	}
	err := controller.LastError()
	if !errors.Is(err, services.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	got, ok := services.AsQuota(err)
	if !ok || got.CheckoutURL != "https://pay.example/checkout" {
		t.Fatalf("checkout url lost: %#v", got)
	}
	if controller.Phase() != pipeline.PhaseFailed {
		t.Fatalf("expected failed phase, got %s", controller.Phase())
	}
}

func TestSubmitStopsOnPollTransportError(t *testing.T) {
	backend := &fakeBackend{
		statusFn: func(call int) (*notes.Job, error) {
			if call == 0 {
				return &notes.Job{JobID: "job-1", Status: notes.JobProcessing}, nil
			}
			return nil, errors.New("connection refused")
		},
	}

	controller := newTestController(t, backend)
	if ok := controller.Submit(context.Background(), pipeline.Request{Text: "testo"}); ok {
		t.Fatal("expected failure")
	}
	if !errors.Is(controller.LastError(), services.ErrPollTransport) {
		t.Fatalf("expected poll transport error, got %v", controller.LastError())
	}
	_, _, polls := backend.counts()
	if polls != 2 {
		t.Fatalf("polling must stop on the first transport error, got %d calls", polls)
	}
}

func TestSubmitSurfacesWorkerFailure(t *testing.T) {
	backend := &fakeBackend{
		statusFn: func(int) (*notes.Job, error) {
			return &notes.Job{JobID: "job-1", Status: notes.JobFailed, Error: "transcription timed out"}, nil
		},
	}

	controller := newTestController(t, backend)
	if ok := controller.Submit(context.Background(), pipeline.Request{Text: "testo"}); ok {
		t.Fatal("expected failure")
	}
	err := controller.LastError()
	if !errors.Is(err, services.ErrJobFailed) {
		t.Fatalf("expected job failure, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "transcription timed out") {
		t.Fatalf("worker message lost: %q", got)
	}
}

func TestSubmitValidation(t *testing.T) {
	controller := newTestController(t, &fakeBackend{})

	cases := []struct {
		name string
		req  pipeline.Request
	}{
		{"no input", pipeline.Request{}},
		{"both inputs", pipeline.Request{FilePath: "/tmp/x.mp3", Text: "testo"}},
		{"missing file", pipeline.Request{FilePath: "/does/not/exist.mp3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if ok := controller.Submit(context.Background(), tc.req); ok {
				t.Fatal("expected validation failure")
			}
			if !errors.Is(controller.LastError(), services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", controller.LastError())
			}
		})
	}
}

func TestSubmitRejectsOversizedFile(t *testing.T) {
	backend := &fakeBackend{}
	cfg := testsupport.NewConfig(t)
	cfg.Upload.MaxFileSizeMiB = 1
	controller := pipeline.New(cfg, backend,
		pipeline.WithTransfer(&fakeTransfer{}),
		pipeline.WithPollInterval(2*time.Millisecond),
	)

	path := cfg.Paths.DataDir + "/huge.mp3"
	testsupport.WriteFile(t, path, 2<<20)

	if ok := controller.Submit(context.Background(), pipeline.Request{FilePath: path}); ok {
		t.Fatal("expected size rejection")
	}
	if !errors.Is(controller.LastError(), services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", controller.LastError())
	}
	if creates, _, _ := countsOf(backend); creates != 0 {
		t.Fatal("oversized file must be rejected before the broker call")
	}
}

func TestResetCancelsInFlightSubmission(t *testing.T) {
	started := make(chan struct{})
	backend := &fakeBackend{
		statusFn: func(call int) (*notes.Job, error) {
			if call == 0 {
				close(started)
			}
			return &notes.Job{JobID: "job-1", Status: notes.JobProcessing}, nil
		},
	}

	completions := 0
	controller := newTestController(t, backend,
		pipeline.WithCompletion(func(string, *results.Variant) { completions++ }),
	)

	done := make(chan bool, 1)
	go func() {
		done <- controller.Submit(context.Background(), pipeline.Request{Text: "testo"})
	}()

	<-started
	controller.Reset()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("superseded submission must not report success")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not stop after Reset")
	}
	if completions != 0 {
		t.Fatal("superseded submission must not fire the completion callback")
	}
	if controller.Phase() != pipeline.PhaseIdle {
		t.Fatalf("expected idle after reset, got %s", controller.Phase())
	}
	if controller.LastError() != nil {
		t.Fatalf("superseded session must not record an error, got %v", controller.LastError())
	}
}

func TestGuardEngagedOnlyWhileUploading(t *testing.T) {
	backend := &fakeBackend{
		statusFn: func(int) (*notes.Job, error) { return completedJob(lessonResult), nil },
	}

	guard := &recordingGuard{}
	controller := newTestController(t, backend, pipeline.WithGuard(guard))

	cfg := testsupport.NewConfig(t)
	path := cfg.Paths.DataDir + "/talk.wav"
	testsupport.WriteFile(t, path, 512)

	if ok := controller.Submit(context.Background(), pipeline.Request{FilePath: path}); !ok {
		t.Fatalf("Submit failed: %v", controller.LastError())
	}
	if guard.engages != 1 || guard.releases != 1 {
		t.Fatalf("guard engaged %d/released %d times", guard.engages, guard.releases)
	}
	if controller.Blocked() {
		t.Fatal("controller must not report blocked after completion")
	}
}

type recordingGuard struct {
	mu       sync.Mutex
	engages  int
	releases int
}

func (g *recordingGuard) Engage() {
	g.mu.Lock()
	g.engages++
	g.mu.Unlock()
}

func (g *recordingGuard) Release() {
	g.mu.Lock()
	g.releases++
	g.mu.Unlock()
}

func countsOf(f *fakeBackend) (int, int, int) { return f.counts() }
