package models

import "time"

// UserProfile is the public identity of an account. Creators are shown with
// it next to their trees, where it doubles as the channel page header.
type UserProfile struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Picture     string    `json:"picture" db:"picture"`
	Subscribers int64     `json:"subscribers"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// OptionalText tracks tri-state semantics for profile fields (RFC 7396 PATCH).
// This is transport-agnostic (no JSON tags) - handler maps from httputil.OptionalString.
//   - Present=false: field absent from request (don't change)
//   - Present=true, Value=nil: field is null (clear)
//   - Present=true, Value=&"text": field has value
type OptionalText struct {
	Present bool
	Value   *string
}

// UpdateProfileRequest is a partial update of the caller's profile
type UpdateProfileRequest struct {
	Name    OptionalText
	Picture OptionalText
}
