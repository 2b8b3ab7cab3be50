package dto

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Deliberately loose: local@domain.tld with no whitespace.
var basicEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterValidation("basic_email", validateBasicEmail)
}

func GetValidator() *validator.Validate {
	return validate
}

func validateBasicEmail(fl validator.FieldLevel) bool {
	return basicEmailRegex.MatchString(fl.Field().String())
}

type ValidationError struct {
	Field   string `json:"field" example:"content"`
	Message string `json:"message" example:"content: minimum 3 characters"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "basic_email":
				message = "Invalid email format"
			case "min":
				message = fieldError.Field() + ": minimum " + fieldError.Param() + " characters"
			case "max":
				message = fieldError.Field() + ": maximum " + fieldError.Param() + " characters"
			case "gt":
				message = fieldError.Field() + " must be a positive integer"
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

type Validator interface {
	Validate() error
}

func CreateValidationErrorResponse(err error) ValidationErrorResponse {
	return ValidationErrorResponse{
		Code:    400,
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	}
}
