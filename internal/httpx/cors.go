package httpx

import (
	"net/http"
	"strings"
)

// CORSPolicy is the fixed set of cross-origin headers attached to every response.
type CORSPolicy struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
}

// Apply sets the policy headers on w.
func (p CORSPolicy) Apply(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", p.AllowOrigin)
	h.Set("Access-Control-Allow-Methods", strings.Join(p.AllowMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(p.AllowHeaders, ", "))
}

// CORS is a middleware that sets the policy headers before the handler runs, so they
// are present on success, error, and streamed responses alike.
func CORS(p CORSPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p.Apply(w)
			next.ServeHTTP(w, r)
		})
	}
}
