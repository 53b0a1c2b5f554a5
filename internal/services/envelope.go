package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// limitReachedCode is the backend's distinguished quota error code.
const limitReachedCode = "LIMIT_REACHED"

// errorEnvelope models the two error body shapes the backend emits:
// {"detail": "..."} and {"error": "...", "message": "...", "checkoutUrl": "..."}.
type errorEnvelope struct {
	Detail      string `json:"detail"`
	Error       string `json:"error"`
	Message     string `json:"message"`
	CheckoutURL string `json:"checkoutUrl"`
}

// DecodeErrorResponse converts a non-2xx backend response into a typed error.
// A 403 carrying LIMIT_REACHED becomes a QuotaError; everything else is a
// plain error with whatever detail the body offered.
func DecodeErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope errorEnvelope
	_ = json.Unmarshal(body, &envelope)

	if resp.StatusCode == http.StatusForbidden && strings.EqualFold(envelope.Error, limitReachedCode) {
		return &QuotaError{
			Message:     strings.TrimSpace(envelope.Message),
			CheckoutURL: strings.TrimSpace(envelope.CheckoutURL),
		}
	}

	detail := strings.TrimSpace(envelope.Detail)
	if detail == "" {
		detail = strings.TrimSpace(envelope.Message)
	}
	if detail == "" {
		detail = strings.TrimSpace(envelope.Error)
	}
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}
	if detail == "" {
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}
	return fmt.Errorf("backend returned %d: %s", resp.StatusCode, detail)
}
