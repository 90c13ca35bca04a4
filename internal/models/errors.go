package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the single response shape shared by every endpoint. Success
// responses carry the payload in Message; error responses carry a
// human-readable string in Message and a per-field detail map in Errors
// (null when the failure is not field-specific).
type Envelope struct {
	Success bool   `json:"success"`
	Message any    `json:"message"`
	Errors  Fields `json:"errors"`
}

// successEnvelope omits the errors key entirely on the happy path.
type successEnvelope struct {
	Success bool `json:"success"`
	Message any  `json:"message"`
}

// Fields maps input field names to validation error messages.
type Fields map[string]string

// AppError is the application error type carried between layers.
type AppError struct {
	Code    string
	Message string
	Fields  Fields
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error code to an HTTP status.
func (e *AppError) Status() int {
	switch e.Code {
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "VALIDATION_ERROR":
		return fiber.StatusBadRequest
	case "UNAUTHORIZED":
		return fiber.StatusUnauthorized
	case "FORBIDDEN":
		return fiber.StatusForbidden
	case "CONFLICT":
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Predefined error constructors
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

// NewFieldValidationError reports per-field validation failures.
func NewFieldValidationError(message string, fields Fields) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Fields:  fields,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// Respond writes a success envelope with the given payload.
func Respond(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(successEnvelope{
		Success: true,
		Message: payload,
	})
}

// RespondWithError writes the error envelope. AppError values choose their own
// status; anything else is treated as an internal error.
func RespondWithError(c *fiber.Ctx, err error) error {
	if appErr, ok := err.(*AppError); ok {
		return c.Status(appErr.Status()).JSON(Envelope{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(Envelope{
		Success: false,
		Message: "Internal server error",
	})
}
