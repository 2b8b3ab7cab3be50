package shared

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

var jsonAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

// Canned bodies for the envelopes written most often.
var cannedResponses = map[int][]byte{
	fiber.StatusOK:                  mustMarshal(Response{Code: fiber.StatusOK, Message: "Success"}),
	fiber.StatusCreated:             mustMarshal(Response{Code: fiber.StatusCreated, Message: "Created"}),
	fiber.StatusBadRequest:          mustMarshal(Response{Code: fiber.StatusBadRequest, Message: "Bad Request"}),
	fiber.StatusUnauthorized:        mustMarshal(Response{Code: fiber.StatusUnauthorized, Message: "Unauthorized"}),
	fiber.StatusForbidden:           mustMarshal(Response{Code: fiber.StatusForbidden, Message: "Forbidden"}),
	fiber.StatusNotFound:            mustMarshal(Response{Code: fiber.StatusNotFound, Message: "Not Found"}),
	fiber.StatusInternalServerError: mustMarshal(Response{Code: fiber.StatusInternalServerError, Message: "Internal Server Error"}),
}

func mustMarshal(v interface{}) []byte {
	b, _ := jsonAPI.Marshal(v)
	return b
}

// Marshal encodes v with the same sonic settings used for responses.
func Marshal(v interface{}) ([]byte, error) {
	return jsonAPI.Marshal(v)
}

// Unmarshal decodes data with the response sonic settings.
func Unmarshal(data []byte, v interface{}) error {
	return jsonAPI.Unmarshal(data, v)
}

func ResponseJSON(c *fiber.Ctx, httpCode int, message string, data interface{}) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)

	if data == nil && message == defaultMessage(httpCode) {
		if body, ok := cannedResponses[httpCode]; ok {
			return c.Status(httpCode).Send(body)
		}
	}

	body, err := jsonAPI.Marshal(Response{
		Code:    httpCode,
		Message: message,
		Data:    data,
	})
	if err != nil {
		return err
	}
	return c.Status(httpCode).Send(body)
}

func defaultMessage(httpCode int) string {
	if httpCode == fiber.StatusOK {
		return "Success"
	}
	return utils.StatusMessage(httpCode)
}

func ResponseOK(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusOK, "Success", data)
}

func ResponseCreated(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusCreated, "Created", data)
}

func ResponseBadRequest(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Bad Request"
	}
	return ResponseJSON(c, fiber.StatusBadRequest, message, nil)
}

func ResponseUnauthorized(c *fiber.Ctx) error {
	return ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", nil)
}

func ResponseNotFound(c *fiber.Ctx) error {
	return ResponseJSON(c, fiber.StatusNotFound, "Not Found", nil)
}

func ResponseInternalError(c *fiber.Ctx) error {
	return ResponseJSON(c, fiber.StatusInternalServerError, "Internal Server Error", nil)
}
