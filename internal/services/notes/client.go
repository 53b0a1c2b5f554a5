package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"appunti/internal/services"
)

const userAgent = "Appunti-Go/0.1.0"

// ErrAnalysisNotFound is returned when a delete targets an analysis the
// backend no longer knows. Callers may treat it as a successful no-op.
var ErrAnalysisNotFound = errors.New("analysis not found")

// Client talks to the notes backend API: upload URL brokering, job
// submission, job status, and the analyses history.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a backend client rooted at baseURL.
func New(baseURL, authToken string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("backend base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  strings.TrimSpace(authToken),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// UploadTarget is the broker's answer: a short-lived write URL plus the
// storage path the job submission must reference.
type UploadTarget struct {
	SignedURL string `json:"signedUrl"`
	FilePath  string `json:"filePath"`
}

// CreateUploadURL asks the broker for a pre-authorized storage URL. An
// incomplete payload (missing URL or path) is rejected here rather than
// surfacing later as a confusing transfer failure.
func (c *Client) CreateUploadURL(ctx context.Context, fileName, contentType string) (*UploadTarget, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, errors.New("file name must not be empty")
	}

	reqBody := struct {
		FileName    string `json:"fileName"`
		ContentType string `json:"contentType"`
	}{FileName: fileName, ContentType: contentType}

	var target UploadTarget
	if err := c.postJSON(ctx, "/api/generate-upload-url", reqBody, &target); err != nil {
		return nil, err
	}
	if strings.TrimSpace(target.SignedURL) == "" || strings.TrimSpace(target.FilePath) == "" {
		return nil, errors.New("broker returned incomplete payload")
	}
	return &target, nil
}

// JobRequest describes an analysis job. Exactly one of FilePath or
// TextContent is set: uploaded media references its storage path, pasted
// text is sent inline.
type JobRequest struct {
	ContentType      string `json:"content_type"`
	FilePath         string `json:"file_path,omitempty"`
	OriginalFileName string `json:"original_file_name,omitempty"`
	TextContent      string `json:"text_content,omitempty"`
}

// SubmitJob posts a job-creation request and returns the job identifier.
func (c *Client) SubmitJob(ctx context.Context, req JobRequest) (string, error) {
	var accepted struct {
		JobID string `json:"job_id"`
	}
	if err := c.postJSON(ctx, "/api/process-transcription", req, &accepted); err != nil {
		return "", err
	}
	if strings.TrimSpace(accepted.JobID) == "" {
		return "", errors.New("backend returned no job id")
	}
	return accepted.JobID, nil
}

// JobStatus fetches the current state of a job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("job id must not be empty")
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/job-status/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute job status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.DecodeErrorResponse(resp)
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode job status: %w", err)
	}
	return &job, nil
}

// ListAnalyses fetches the full analysis history.
func (c *Client) ListAnalyses(ctx context.Context) ([]Analysis, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/analyses/history", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute history request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.DecodeErrorResponse(resp)
	}

	var analyses []Analysis
	if err := json.NewDecoder(resp.Body).Decode(&analyses); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return analyses, nil
}

// DeleteAnalysis removes one analysis. Deleting an unknown id returns
// ErrAnalysisNotFound.
func (c *Client) DeleteAnalysis(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("analysis id must not be empty")
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/api/analyses/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute delete request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrAnalysisNotFound, id)
	default:
		return services.DecodeErrorResponse(resp)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.DecodeErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}
