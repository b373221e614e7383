// Package httpx holds the small HTTP helpers shared by the service handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON sends data as a json response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError sends the standard {"error": message} body.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// ErrorDetails is the error body used when the caller also needs the underlying cause.
type ErrorDetails struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteErrorDetails sends an ErrorDetails body.
func WriteErrorDetails(w http.ResponseWriter, status int, message, details string) {
	WriteJSON(w, status, ErrorDetails{Error: message, Details: details})
}
