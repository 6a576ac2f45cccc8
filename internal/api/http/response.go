package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/barneeyyu/library-server/internal/domain"
	"github.com/barneeyyu/library-server/internal/logger"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotBorrowedByUser):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, domain.ErrAlreadyBorrowed),
		errors.Is(err, domain.ErrAlreadyReturned),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	switch {
	case errors.Is(err, domain.ErrConflict):
		w.Header().Set("Retry-After", "1")
		message = "the copy was updated concurrently, please retry"
	case status == http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	writeFailure(w, status, message)
}
