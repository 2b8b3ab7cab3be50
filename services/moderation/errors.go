package moderation

import (
	"errors"
	"strings"
	"time"

	"github.com/nesivarusta/nvu_api/dto"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrRateLimited         = errors.New("rate limited")
	ErrNotFound            = errors.New("comment not found")
	ErrAlreadyModerated    = errors.New("comment already moderated")
	ErrInvalidAction       = errors.New("invalid moderation action")
)

// ValidationFailure lists every field that failed validation.
type ValidationFailure struct {
	Errors []dto.ValidationError
}

func (e *ValidationFailure) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationFailure) Unwrap() error {
	return ErrValidation
}

func invalidField(field, message string) *ValidationFailure {
	return &ValidationFailure{Errors: []dto.ValidationError{{Field: field, Message: message}}}
}

// RateLimitedError carries the back-off hint of a throttled request.
type RateLimitedError struct {
	ActionClass string
	RetryAfter  time.Duration
}

func (e *RateLimitedError) Error() string {
	return ErrRateLimited.Error() + " (" + e.ActionClass + "), retry after " + e.RetryAfter.String()
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}
