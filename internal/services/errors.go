package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the pipeline failure taxonomy. Every error that crosses
// a component boundary is wrapped with exactly one of these so the controller
// can classify it without inspecting message text.
var (
	ErrValidation    = errors.New("validation error")
	ErrBroker        = errors.New("upload url broker error")
	ErrTransfer      = errors.New("blob transfer error")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrJobFailed     = errors.New("job failed")
	ErrPollTransport = errors.New("job status transport error")
	ErrNormalization = errors.New("result normalization error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransfer
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// QuotaError carries the upgrade call-to-action returned with a
// LIMIT_REACHED response. CheckoutURL may be empty.
type QuotaError struct {
	Message     string
	CheckoutURL string
}

func (e *QuotaError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "analysis quota reached"
	}
	return msg
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// AsQuota extracts a QuotaError from an error chain.
func AsQuota(err error) (*QuotaError, bool) {
	var qe *QuotaError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
