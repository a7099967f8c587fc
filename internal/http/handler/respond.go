package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"contacthub/internal/contact"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeFailure reports a failed contact operation with the message the UI shows.
func writeFailure(w http.ResponseWriter, op contact.Op, err error) {
	var ve *contact.ValidationError
	status := http.StatusBadGateway
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, contact.ErrNoSession):
		status = http.StatusUnauthorized
	case errors.Is(err, contact.ErrNotFound):
		status = http.StatusNotFound
	}
	writeError(w, status, contact.FailureMessage(op, err))
}
