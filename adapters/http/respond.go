package http

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the structured error body returned by every
// non-quota failure.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details"`
	Path    string         `json:"path"`
}

// QuotaExceededResponse is the body of a 429 rejection.
type QuotaExceededResponse struct {
	Error    string `json:"error"`
	Plan     string `json:"plan"`
	Limit    int64  `json:"limit"`
	Used     int64  `json:"used"`
	ResetsIn string `json:"resets_in"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
		Path:    r.URL.Path,
	})
}

func writeInternalError(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusInternalServerError, "Internal server error", map[string]any{
		"hint": "contact support if the problem persists",
	})
}
