package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	genericMessage     = "Something went wrong. Please try again."
	timeoutMessage     = "The request timed out. Please try again."
	unreachableMessage = "Could not reach the server. Please try again."
	unavailableMessage = "The ticket service is temporarily unavailable. Please try again shortly."
)

// APIError is a failed request to the ticket API. StatusCode is 0 when no
// response was received.
type APIError struct {
	StatusCode int
	Message    string
	Retryable  bool
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("api: %s", e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Message returns the text to show a user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return genericMessage
}

// IsRetryable reports whether repeating the same request may succeed.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable
}

// IsNotFound reports whether the API answered 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func newResponseError(statusCode int, body []byte) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    messageFromBody(body),
		Retryable:  statusCode >= http.StatusInternalServerError,
	}
}

// messageFromBody picks message, detail or error from a JSON body. Field
// validation maps like {"email": ["Enter a valid email."]} fall back to
// their first entry.
func messageFromBody(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return genericMessage
	}

	for _, key := range []string{"message", "detail", "error"} {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}

	if len(payload) == 1 {
		for field, v := range payload {
			if list, ok := v.([]any); ok && len(list) > 0 {
				if s, ok := list[0].(string); ok && s != "" {
					return fmt.Sprintf("%s: %s", field, s)
				}
			}
		}
	}

	return genericMessage
}
