package plantapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx answer from the plant service. Detail is the
// service's own explanation ({"detail": "..."}) when it sent one.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	// Err is an optional cause, session.ErrInvalid for 401 answers.
	Err error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("plantapi: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += " (" + e.Err.Error() + ")"
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

const maxDetailLen = 512

func newAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Detail:     extractDetail(body),
	}
}

// extractDetail pulls "detail" out of an error body. String details are
// returned as-is; structured details (validation lists) are returned as raw
// JSON. Non-JSON bodies are returned trimmed.
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		if string(payload.Detail) != "null" {
			return truncate(string(payload.Detail))
		}
		return ""
	}
	if json.Valid(body) {
		return ""
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	if len(s) > maxDetailLen {
		return s[:maxDetailLen]
	}
	return s
}

// ServiceDetail returns the service's explanation, if any.
func (e *APIError) ServiceDetail() string { return e.Detail }
