package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"cryptocourse/internal/httpx"
)

// UserIDHeader carries the caller's id. It is set by the gateway in front of the service
// after the session has been verified.
const UserIDHeader = "X-User-ID"

// RequireUser rejects requests without a valid user id and stores the id in the context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if raw == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			httpx.WriteError(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		next.ServeHTTP(w, SetUserID(r, id))
	})
}
