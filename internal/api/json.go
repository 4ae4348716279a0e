package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/arbor/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps an error class to its HTTP status. Client errors echo the
// message; server errors are logged and reported generically.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case apperr.IsInconsistent(err):
		slog.Error(op+" left the tree inconsistent", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("inconsistent state"))
	case errors.Is(err, apperr.ErrInvalidName), errors.Is(err, apperr.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNameCollision):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNoParent):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, context.DeadlineExceeded):
		slog.Warn(op+" timed out", slog.String("error", err.Error()))
		writeJSON(w, http.StatusGatewayTimeout, errorBody("timeout"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
