package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrConflictingUpdate is returned when an entity already has a transition in flight.
	ErrConflictingUpdate = errors.New("conflicting update: another change to this entity is still in flight")
	ErrNotFound          = errors.New("not found")
	// ErrUnauthorized means the upstream session is gone; local session state must be cleared.
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// InvalidTransitionError is a client-side rule violation. It is never sent upstream.
type InvalidTransitionError struct {
	Entity EntityType
	From   Status
	To     Status
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	from := string(e.From)
	if from == "" {
		from = "none"
	}
	msg := fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, from, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ValidationError reports bad input that never reached the server.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError is a shorthand used by the usecases.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ServerRejectedError is an upstream 4xx/5xx for an otherwise valid request.
type ServerRejectedError struct {
	StatusCode int
	Message    string
}

func (e *ServerRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server rejected request (status %d)", e.StatusCode)
	}
	return e.Message
}

// NetworkFailureError means the request never completed.
type NetworkFailureError struct {
	Op  string
	Err error
}

func (e *NetworkFailureError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkFailureError) Unwrap() error { return e.Err }

// PartialFailureError lists the items of a batch the server did not accept.
type PartialFailureError struct {
	Entity    EntityType
	Confirmed []string
	Failed    map[string]error
}

func (e *PartialFailureError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s (%v)", id, e.Failed[id]))
	}
	return fmt.Sprintf("%d of %d %ss failed: %s",
		len(e.Failed), len(e.Failed)+len(e.Confirmed), e.Entity, strings.Join(parts, ", "))
}

// UserMessage picks the text shown to the user: the server's own message when present.
func UserMessage(err error, fallback string) string {
	var rejected *ServerRejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	var invalid *InvalidTransitionError
	if errors.As(err, &invalid) {
		return invalid.Error()
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}
	var partial *PartialFailureError
	if errors.As(err, &partial) {
		return partial.Error()
	}
	if errors.Is(err, ErrConflictingUpdate) || errors.Is(err, ErrInsufficientBalance) {
		return err.Error()
	}
	return fallback
}
