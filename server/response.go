package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/viant/vecdb/vecerr"
)

// ErrorResponse is the JSON error envelope returned by all HTTP error
// responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Warn("failed to write response", "error", err)
	}
}

// statusOf maps an error category to an HTTP status.
func statusOf(err error) int {
	switch vecerr.KindOf(err) {
	case vecerr.KindValidation, vecerr.KindResourceLimit:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func summaryOf(err error, fallback string) string {
	switch vecerr.KindOf(err) {
	case vecerr.KindValidation:
		return "Invalid input"
	case vecerr.KindResourceLimit:
		return "Database too large for fallback mode"
	case vecerr.KindProvider:
		return "Embedding generation failed"
	case vecerr.KindStorage:
		return "Storage operation failed"
	}
	return fallback
}

// writeError writes err as a JSON error response; fallback summarizes
// uncategorized errors.
func writeError(w http.ResponseWriter, err error, fallback string) {
	writeJSON(w, statusOf(err), ErrorResponse{
		Error:   summaryOf(err, fallback),
		Details: vecerr.DetailOf(err),
		Kind:    string(vecerr.KindOf(err)),
	})
}
