package omnivore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized indicates the destination instance rejected the API key
var ErrUnauthorized = errors.New("omnivore API key rejected")

// APIError represents a failed GraphQL call: a non-2xx HTTP response,
// a GraphQL errors payload, or an errorCodes union branch.
type APIError struct {
	Operation  string
	StatusCode int
	ErrorCodes []string
	Message    string
}

func (e *APIError) Error() string {
	parts := []string{fmt.Sprintf("omnivore %s failed", e.Operation)}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if len(e.ErrorCodes) > 0 {
		parts = append(parts, strings.Join(e.ErrorCodes, ", "))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, ": ")
}
