package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
	"github.com/osse101/BrandishProgression_Go/internal/logger"
)

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response. Kind carries the domain
// error kind when there is one so clients can branch without parsing text.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Get a buffer from the pool to reduce allocations
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Headers are already sent
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs a service failure and writes the mapped response
func respondServiceError(w http.ResponseWriter, r *http.Request, opName string, err error) {
	status, msg := mapServiceError(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(opName+": service error", "error", err)
	} else {
		log.Warn(opName+": rejected", "error", err)
	}
	respondJSON(w, status, ErrorResponse{Error: msg, Kind: string(domain.KindOf(err))})
}

// mapServiceError maps domain error kinds to HTTP status codes and
// user-facing messages. Anything without a kind is an internal failure.
func mapServiceError(err error) (int, string) {
	switch domain.KindOf(err) {
	case domain.KindUserNotFound:
		return http.StatusNotFound, ErrMsgUserNotFoundError
	case domain.KindAlreadyInitialized:
		return http.StatusConflict, ErrMsgAlreadyInitializedErr
	case domain.KindInvalidAmount:
		return http.StatusBadRequest, ErrMsgInvalidAmountError
	case domain.KindInvalidInput:
		return http.StatusBadRequest, ErrMsgInvalidInputError
	case domain.KindInsufficientBalance:
		return http.StatusUnprocessableEntity, ErrMsgInsufficientBalanceErr
	}
	return http.StatusInternalServerError, ErrMsgGenericServerError
}
