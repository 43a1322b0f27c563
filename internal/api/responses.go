package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "socratic-coach/backend/internal/errors"
)

// This file contains shared DTOs (Data Transfer Objects) for API responses
// and helper functions for sending consistent HTTP responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse defines a generic success response, typically for operations
// like PATCH or DELETE that don't need to return a full resource.
type StatusResponse struct {
	Status string `json:"status"`
}

// respondWithError is the centralized error handling function for the API layer.
// It maps custom business-layer errors to appropriate HTTP status codes and formats
// a standard JSON error response.
func respondWithError(w http.ResponseWriter, err error) {
	statusCode, message := classify(err)

	// The original, more detailed error is logged for debugging purposes,
	// while a generic message is sent to the client.
	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondWithFallback answers a failed generation. Upstream failures and
// anything unexpected become a 500 that still carries the stage's fallback
// text under fallbackKey; validation errors stay plain 400s.
func respondWithFallback(w http.ResponseWriter, err error, message, fallbackKey, fallback string) {
	statusCode, clientMessage := classify(err)
	if statusCode != http.StatusBadRequest {
		slog.Warn("Generation failed, sending fallback", "fallback", fallbackKey, "internal_error", err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"error":     message,
			fallbackKey: fallback,
		})
		return
	}
	slog.Warn("Responding with error", "status_code", statusCode, "client_message", clientMessage, "internal_error", err)
	respondWithJSON(w, statusCode, ErrorResponse{Error: clientMessage})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		return http.StatusNotFound, "The requested resource was not found."
	case errors.Is(err, app_errors.ErrValidation):
		// For validation errors, the error message from the service layer
		// is already descriptive and user-friendly.
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, app_errors.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, app_errors.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, app_errors.ErrPermission):
		return http.StatusForbidden, "You do not have permission to perform this action."
	case errors.Is(err, app_errors.ErrUpstream):
		return http.StatusInternalServerError, "The language model is currently unavailable."
	default:
		// Any unhandled error is considered an internal server error.
		// This prevents leaking implementation details to the client.
		return http.StatusInternalServerError, "An unexpected internal server error occurred."
	}
}

// respondWithJSON is a low-level helper for marshaling a payload to JSON
// and writing it to the http.ResponseWriter with a given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		// This indicates a server-side programming error (e.g., trying to marshal a channel).
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// decodeJSON reads the request body into dst. Malformed bodies are
// validation errors.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %s", app_errors.ErrValidation, err.Error())
	}
	return nil
}
