package shared

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, RetryAfterSeconds(0))
	assert.Equal(t, 0, RetryAfterSeconds(-time.Second))
	assert.Equal(t, 1, RetryAfterSeconds(time.Millisecond))
	assert.Equal(t, 60, RetryAfterSeconds(time.Minute))
	assert.Equal(t, 61, RetryAfterSeconds(time.Minute+time.Nanosecond))
}

func TestGetAppError_Wrapped(t *testing.T) {
	cause := errors.New("row missing")
	err := fmt.Errorf("lookup: %w", NewNotFoundError(cause, "Comment not found"))

	appErr, ok := GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.ErrorIs(t, err, cause)

	_, ok = GetAppError(cause)
	assert.False(t, ok)
}

func TestNewInternalError_DefaultMessage(t *testing.T) {
	assert.Equal(t, "Internal Server Error", NewInternalError(errors.New("x"), "").Message)
	assert.Equal(t, "Store down", NewInternalError(errors.New("x"), "Store down").Message)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/limited", func(c *fiber.Ctx) error {
		return NewTooManyRequestsError(errors.New("limit"), MsgTooManyRequests, 2500*time.Millisecond)
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return NewBadRequestError(errors.New("invalid"), "Validation failed").
			WithData([]dto.ValidationError{{Field: "content", Message: "content is required"}})
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	app.Get("/raw", func(c *fiber.Ctx) error {
		return errors.New("dial tcp 10.0.0.5:5432: connection refused")
	})

	get := func(path string) (*http.Response, Response, string) {
		res, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		raw, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		var body Response
		require.NoError(t, Unmarshal(raw, &body))
		return res, body, string(raw)
	}

	res, body, _ := get("/limited")
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "3", res.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, MsgTooManyRequests, body.Message)

	res, _, raw := get("/invalid")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, raw, `"errors":[{"field":"content","message":"content is required"}]`)

	res, body, _ = get("/fiber")
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	assert.Equal(t, http.StatusMethodNotAllowed, body.Code)

	res, body, raw = get("/raw")
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "Internal Server Error", body.Message)
	assert.NotContains(t, raw, "10.0.0.5")
}
