package services

import (
	"errors"
	"sort"
	"strings"

	"ticket-storefront/internal/apiclient"
)

// Notice is a business-rule rejection carrying the text shown to the shopper.
type Notice struct {
	Err     error
	Message string
}

func (n *Notice) Error() string {
	return n.Message
}

func (n *Notice) Unwrap() error {
	return n.Err
}

func notice(err error, message string) *Notice {
	return &Notice{Err: err, Message: message}
}

// ValidationErrors maps a form field to its message. It is produced before
// any request leaves the service.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + v[field]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// UserMessage returns the single notice to show for err.
func UserMessage(err error) string {
	var n *Notice
	if errors.As(err, &n) {
		return n.Message
	}
	var v ValidationErrors
	if errors.As(err, &v) {
		return "Please correct the highlighted fields."
	}
	return apiclient.Message(err)
}
