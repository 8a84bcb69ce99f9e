// Package shared holds the wire envelope helpers every HTTP handler uses.
// Handlers return domain errors; this package owns the mapping from error
// code to HTTP status and the JSON error shape clients parse.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "taskdeck/pkg/domain-errors"
)

// ErrorResponse is the error envelope. Details is populated only for
// field-level validation failures.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON serializes v with the given status. Encoding failures after the
// header is written cannot be recovered, so they are swallowed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error onto the wire. Unknown errors collapse to a
// generic 500 so internal failure text never leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	status, body := http.StatusInternalServerError, ErrorResponse{
		Error:   "SERVER_ERROR",
		Message: "internal server error",
	}

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case dErrors.CodeBadRequest:
			status = http.StatusBadRequest
			body = ErrorResponse{Error: "VALIDATION_ERROR", Message: domainErr.Message}
		case dErrors.CodeValidation:
			status = http.StatusUnprocessableEntity
			body = ErrorResponse{Error: "VALIDATION_ERROR", Message: domainErr.Message, Details: domainErr.Details}
		case dErrors.CodeUnauthorized:
			status = http.StatusUnauthorized
			body = ErrorResponse{Error: "UNAUTHORIZED", Message: domainErr.Message}
		case dErrors.CodeNotFound:
			status = http.StatusNotFound
			body = ErrorResponse{Error: "NOT_FOUND", Message: domainErr.Message}
		}
	}

	WriteJSON(w, status, body)
}
