// Package shared centralizes domain error translation to HTTP responses so
// every handler emits the same JSON error envelope.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "carelog/pkg/domain-errors"
)

// WriteError maps a coded domain error onto an HTTP response. Internal
// errors omit the description: the cause belongs in logs, never in the
// response body.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	if status != http.StatusInternalServerError {
		if msg := dErrors.Message(err); msg != "" {
			body["error_description"] = msg
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
