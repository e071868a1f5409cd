package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"task-tracker/internal/model"
	"task-tracker/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeEnvelope(w http.ResponseWriter, status int, message string, response any) {
	writeJSON(w, status, model.NewAPIResponse(status, message, response))
}

// writeValidationError returns the field-level messages keyed by field name.
func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeEnvelope(w, http.StatusBadRequest, "Validation failed", fields)
}

// writeError is the single place typed errors become transport responses.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		writeEnvelope(w, apiErr.HTTPStatus, apiErr.Message, nil)
		return
	}

	switch {
	case errors.Is(err, model.ErrUserNotFound), errors.Is(err, model.ErrTaskNotFound):
		writeEnvelope(w, http.StatusNotFound, "Resource not found", nil)
	case errors.Is(err, model.ErrTokenExpired), errors.Is(err, model.ErrTokenMalformed),
		errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrBadCredentials):
		writeEnvelope(w, http.StatusUnauthorized, "Authentication failed", nil)
	case errors.Is(err, model.ErrForbidden):
		writeEnvelope(w, http.StatusForbidden, "Access denied", nil)
	case errors.Is(err, model.ErrInvalidInput):
		writeEnvelope(w, http.StatusBadRequest, "Invalid input", nil)
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
		writeEnvelope(w, http.StatusInternalServerError, "Unexpected server error", nil)
	}
}
