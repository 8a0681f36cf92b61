// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/krishimitra/frontend/internal/ui"
	"github.com/labstack/echo/v4"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewPayloadTooLargeError creates a 413 error
func NewPayloadTooLargeError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "PAYLOAD_TOO_LARGE",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// FromUIError maps controller sentinel errors onto API errors
func FromUIError(err error) *APIError {
	switch {
	case errors.Is(err, ui.ErrNotImage):
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "NOT_AN_IMAGE",
			Message: ui.AlertNotImage,
			Details: err.Error(),
		}
	case errors.Is(err, ui.ErrFileTooLarge):
		return NewPayloadTooLargeError("image is too large", err)
	case errors.Is(err, ui.ErrNoFileSelected):
		return NewValidationError("file")
	case errors.Is(err, ui.ErrAnalysisInFlight):
		return NewConflictError("an analysis is already in progress")
	case errors.Is(err, ui.ErrUnknownSection):
		return NewBadRequestError("unknown section", err)
	default:
		return NewInternalError("request failed", err)
	}
}

// ErrorHandler returns the echo error handler. Details of unexpected
// errors are only exposed when showDetails is set.
// Usage: e.HTTPErrorHandler = api.ErrorHandler(cfg.Advanced.LogLevel == "debug")
func ErrorHandler(showDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		default:
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Message: "An unexpected error occurred",
			}
			if showDetails {
				apiErr.Details = err.Error()
			}
		}

		if apiErr.Status >= http.StatusInternalServerError {
			slog.Error("Request failed", "path", c.Request().URL.Path, "code", apiErr.Code, "err", err)
		}

		if err := RespondWithError(c, apiErr); err != nil {
			slog.Error("Unable to write error response", "err", err)
		}
	}
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(err.Status)
	}
	return c.JSON(err.Status, err)
}
