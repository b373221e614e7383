package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// This package provides helpers for setting and getting the authenticated user id from a request context.
// This is how middleware passes auth info to handlers.

// contextKey is a private type to avoid key collisions in the context.
type contextKey string

// UserIDKey is the context key the user's id is stored under.
const UserIDKey = contextKey("user_id")

// SetUserID returns a new request with the user's ID added to its context.
// The auth middleware calls this.
func SetUserID(r *http.Request, id uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), UserIDKey, id)
	return r.WithContext(ctx)
}

// GetUserID retrieves the user's ID from the context.
// HTTP handlers call this to see who is making the request.
func GetUserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok {
		// Happens when the middleware is missing from the route.
		return uuid.Nil, fmt.Errorf("no user ID in context")
	}
	return id, nil
}
