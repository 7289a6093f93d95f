package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthError is a fatal credential failure (401, or 403 without a
// rate-limit cause). It is never retried.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github authentication failed (HTTP %d): %s", e.Status, e.Message)
}

// RateLimitError signals an exhausted API budget, either an explicit
// 429/403 or a GraphQL RATE_LIMITED error. Retryable until the retry
// budget runs out.
type RateLimitError struct {
	ResetAt time.Time
	Message string
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return "github rate limit exceeded: " + e.Message
	}
	return fmt.Sprintf("github rate limit exceeded, resets at %s: %s",
		e.ResetAt.UTC().Format(time.RFC3339), e.Message)
}

// TransientError covers timeouts, connection failures and 5xx responses.
// Retryable.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient github failure (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient github failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// GraphQLError is one entry of the response envelope's errors array.
type GraphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SemanticError is a well-formed GraphQL response whose errors array is
// unrelated to rate limiting. Not retried.
type SemanticError struct {
	Errors []GraphQLError
}

func (e *SemanticError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return "graphql errors: " + strings.Join(msgs, "; ")
}

// HasType reports whether any error entry carries the given type tag
// (e.g. NOT_FOUND, RATE_LIMITED).
func (e *SemanticError) HasType(t string) bool {
	for _, ge := range e.Errors {
		if ge.Type == t {
			return true
		}
	}
	return false
}

// MalformedError is a non-JSON or schema-mismatched response. Fatal.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed github response: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// retryable reports whether the client should retry after err.
func retryable(err error) bool {
	var rl *RateLimitError
	var tr *TransientError
	return errors.As(err, &rl) || errors.As(err, &tr)
}
