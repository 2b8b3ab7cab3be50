package shared

import (
	"errors"
	"net/http"
	"time"
)

// AppError is an error that already knows how it should be rendered to the client.
type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(statusCode int, err error, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Err: err}
}

// WithData attaches a payload rendered in the response envelope.
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return NewAppError(http.StatusUnauthorized, err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return NewAppError(http.StatusForbidden, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return NewAppError(http.StatusNotFound, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return NewAppError(http.StatusConflict, err, message)
}

// NewTooManyRequestsError carries the retry hint in whole seconds, rounded up.
func NewTooManyRequestsError(err error, message string, retryAfter time.Duration) *AppError {
	return NewAppError(http.StatusTooManyRequests, err, message).WithData(map[string]interface{}{
		"retry_after": RetryAfterSeconds(retryAfter),
	})
}

func NewInternalError(err error, message string) *AppError {
	if message == "" {
		message = "Internal Server Error"
	}
	return NewAppError(http.StatusInternalServerError, err, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func RetryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
