package shared

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nesivarusta/nvu_api/dto"
	log "github.com/sirupsen/logrus"
)

// ErrorHandler renders errors returned by handlers and middleware. Only
// AppError messages reach the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := GetAppError(err); ok {
		if errs, ok := appErr.Data.([]dto.ValidationError); ok {
			return c.Status(appErr.StatusCode).JSON(dto.ValidationErrorResponse{
				Code:    appErr.StatusCode,
				Message: appErr.Message,
				Errors:  errs,
			})
		}
		if data, ok := appErr.Data.(map[string]interface{}); ok {
			if retryAfter, ok := data["retry_after"].(int); ok {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			}
		}
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			log.WithError(err).WithField("path", c.Path()).Error("Request failed")
		}
		return ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).WithField("path", c.Path()).Error("Unhandled error")
	return ResponseInternalError(c)
}
