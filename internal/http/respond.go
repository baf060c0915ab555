package http

import (
	"encoding/json"
	"net/http"
)

// The frontend expects every body to carry a success flag; errors add a
// human-readable message plus the underlying error string.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]any{
		"success": false,
		"message": message,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, status, body)
}
