package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/servicedesk/servicedesk/internal/repository"
	"github.com/servicedesk/servicedesk/internal/service"
)

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type messageBody struct {
	Message string `json:"message"`
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageBody{Message: message})
}

// decodeJSON parses a JSON request body. Unknown fields are ignored.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// writeError is the single place service errors become HTTP statuses.
// Authentication and share-resolution failures stay deliberately
// low-detail; anything unmapped is a 500 with a generic body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrUsernameAlreadyExists):
		writeMessage(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")

	case errors.Is(err, service.ErrShareNotFound):
		writeMessage(w, http.StatusNotFound, service.ErrShareNotFound.Error())

	case errors.Is(err, service.ErrShareWrongPassword):
		writeMessage(w, http.StatusUnauthorized, "Invalid password")

	case errors.Is(err, service.ErrShareNoFile):
		writeMessage(w, http.StatusBadRequest, "Software has no uploaded file to share")

	case errors.Is(err, service.ErrSoftwareNameRequired),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidEmail):
		writeMessage(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, repository.ErrSoftwareNotFound):
		writeMessage(w, http.StatusNotFound, "Software not found")

	case errors.Is(err, repository.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")

	default:
		slog.Error("request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
