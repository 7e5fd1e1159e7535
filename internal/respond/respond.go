package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mrussa/orderbridge/internal/repo"
)

type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, code, message, reqID string) {
	JSON(w, status, ErrorBody{
		Error:     code,
		Message:   message,
		RequestID: reqID,
	})
}

func MethodNotAllowed(w http.ResponseWriter, reqID string, allow ...string) {
	w.Header().Set("Allow", strings.Join(allow, ", "))
	Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", reqID)
}

// RunError maps store errors to a status. It reports whether the error was
// unexpected so callers can log it.
func RunError(w http.ResponseWriter, err error, reqID string) (unexpected bool) {
	switch {
	case errors.Is(err, repo.ErrBadID):
		Error(w, http.StatusBadRequest, "bad_request", "bad run id", reqID)
	case errors.Is(err, repo.ErrNotFound):
		Error(w, http.StatusNotFound, "not_found", "run not found", reqID)
	default:
		Error(w, http.StatusInternalServerError, "internal", "internal error", reqID)
		return true
	}
	return false
}
