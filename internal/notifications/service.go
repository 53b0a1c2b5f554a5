package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"appunti/internal/config"
)

const userAgent = "Appunti-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyUploadStarted(ctx context.Context, name string) error
	NotifyProcessingStarted(ctx context.Context, name, jobID string) error
	NotifyAnalysisCompleted(ctx context.Context, name, contentType string) error
	NotifyQuotaReached(ctx context.Context, checkoutURL string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  config.Notifications
}

func (n *ntfyService) NotifyUploadStarted(ctx context.Context, name string) error {
	if !n.enabled.Uploads {
		return nil
	}
	data := payload{
		title:   "Appunti - Upload Started",
		message: fmt.Sprintf("Uploading: %s", strings.TrimSpace(name)),
		tags:    []string{"appunti", "upload", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingStarted(ctx context.Context, name, jobID string) error {
	if !n.enabled.Uploads {
		return nil
	}
	data := payload{
		title:   "Appunti - Processing",
		message: fmt.Sprintf("Analysis started: %s (job %s)", strings.TrimSpace(name), strings.TrimSpace(jobID)),
		tags:    []string{"appunti", "job", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisCompleted(ctx context.Context, name, contentType string) error {
	if !n.enabled.Completion {
		return nil
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		contentType = "notes"
	}
	data := payload{
		title:    "Appunti - Complete",
		message:  fmt.Sprintf("Notes ready: %s (%s)", strings.TrimSpace(name), contentType),
		tags:     []string{"appunti", "job", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQuotaReached(ctx context.Context, checkoutURL string) error {
	if !n.enabled.Quota {
		return nil
	}
	message := "Analysis quota reached. Upgrade your plan to continue."
	if checkoutURL = strings.TrimSpace(checkoutURL); checkoutURL != "" {
		message = fmt.Sprintf("%s\nUpgrade: %s", message, checkoutURL)
	}
	data := payload{
		title:    "Appunti - Quota Reached",
		message:  message,
		tags:     []string{"appunti", "quota", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.enabled.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Appunti - Error",
		message:  builder.String(),
		tags:     []string{"appunti", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Appunti - Test",
		message:  "Notification system test",
		tags:     []string{"appunti", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyUploadStarted(context.Context, string) error              { return nil }
func (noopService) NotifyProcessingStarted(context.Context, string, string) error  { return nil }
func (noopService) NotifyAnalysisCompleted(context.Context, string, string) error  { return nil }
func (noopService) NotifyQuotaReached(context.Context, string) error               { return nil }
func (noopService) NotifyError(context.Context, error, string) error               { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
