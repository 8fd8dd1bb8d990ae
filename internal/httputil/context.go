package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey   contextKey = "userID"
	userSlotKey contextKey = "userSlot"
)

type userSlot struct {
	id string
}

// WithUserID stores the authenticated user id in the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	if slot, ok := r.Context().Value(userSlotKey).(*userSlot); ok {
		slot.id = userID
	}
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// GetUserID returns the authenticated user id, or "" for anonymous requests
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// TrackUserID lets outer middleware see the user id attached further down
// the chain. The returned func reports the id once the inner handlers ran.
func TrackUserID(r *http.Request) (*http.Request, func() string) {
	slot := &userSlot{}
	return r.WithContext(context.WithValue(r.Context(), userSlotKey, slot)), func() string { return slot.id }
}
