// Package storage uploads media to object storage through pre-authorized
// signed URLs, reporting byte-level progress to the caller.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProgressFunc receives percent values in [0,100]. Values are monotonically
// non-decreasing; 100 is reported exactly once, when the PUT body has been
// fully consumed.
type ProgressFunc func(percent int)

// Client performs the single large binary PUT of the upload phase.
type Client struct {
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

// WithTimeout sets the overall transfer timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a transfer client. The default timeout is generous because a
// single PUT can carry hundreds of megabytes.
func New(opts ...Option) *Client {
	client := &Client{httpClient: &http.Client{Timeout: 15 * time.Minute}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Put streams size bytes from body to the signed URL. progress may be nil.
func (c *Client) Put(ctx context.Context, signedURL, contentType string, body io.Reader, size int64, progress ProgressFunc) error {
	signedURL = strings.TrimSpace(signedURL)
	if signedURL == "" {
		return errors.New("signed url must not be empty")
	}
	if size < 0 {
		return errors.New("size must not be negative")
	}

	reader := &progressReader{reader: body, total: size, report: progress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, reader)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = size
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute upload (elapsed=%v): %w", latency, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storage returned %d (elapsed=%v)", resp.StatusCode, latency)
	}
	reader.finish()
	return nil
}

// progressReader counts consumed bytes and converts them into percent
// callbacks. The transport may re-read on redirects, so reported percent is
// clamped to never move backwards.
type progressReader struct {
	reader io.Reader
	total  int64
	copied int64
	last   int
	done   bool
	report ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.copied += int64(n)
		r.emit()
	}
	return n, err
}

func (r *progressReader) emit() {
	if r.report == nil || r.total <= 0 {
		return
	}
	percent := int(float64(r.copied) / float64(r.total) * 100)
	if percent > 99 {
		// Hold the last point for finish(): bytes handed to the transport
		// are not yet acknowledged by the server.
		percent = 99
	}
	if percent > r.last {
		r.last = percent
		r.report(percent)
	}
}

func (r *progressReader) finish() {
	if r.report == nil || r.done {
		return
	}
	r.done = true
	if r.last < 100 {
		r.last = 100
		r.report(100)
	}
}
