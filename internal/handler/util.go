// Package handler implements the HTTP API for the operations console.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bwdnr95/tono-operation-sub000/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeServiceError maps service sentinel errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNotReady),
		errors.Is(err, service.ErrNoDraft),
		errors.Is(err, service.ErrNeedsReview),
		errors.Is(err, service.ErrThreadKeyMismatch):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSafetyBlocked):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrConfirmToken):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrDraftGenerationUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
