package dto

import (
	"errors"
	"net/http"

	"github.com/mes/backend/internal/domain/shared"
)

// Response is the uniform API envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a machine-readable error code and message
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK wraps a successful payload
func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Error wraps an error into the envelope
func Error(code, message string) Response {
	return Response{Success: false, Error: &ErrorBody{Code: code, Message: message}}
}

// StatusFor maps an error to its HTTP status
func StatusFor(err error) int {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Code {
	case shared.CodeNotFound:
		return http.StatusNotFound
	case shared.CodeValidationFailed:
		return http.StatusBadRequest
	case shared.CodeInvalidState, "ALREADY_EXISTS":
		return http.StatusConflict
	case shared.CodeInsufficientStock:
		return http.StatusUnprocessableEntity
	case shared.CodeConcurrencyConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CodeFor extracts the machine-readable code from an error
func CodeFor(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL_ERROR"
}
