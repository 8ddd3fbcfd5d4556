// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/luaforge/script-platform/internal/llm"
	"github.com/luaforge/script-platform/internal/service"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps service-layer errors onto HTTP statuses.
// Internal detail is never leaked; handlers log diagnostics separately.
func writeServiceError(w http.ResponseWriter, err error) {
	var exhausted *llm.ExhaustedError

	switch {
	case service.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &exhausted):
		writeError(w, http.StatusBadGateway, "script generation failed on all models, please try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
