package services

import (
	"context"

	"branchvid/internal/domain/models"
)

// UserService defines the business logic for profiles and subscriptions
type UserService interface {
	// GetProfile returns the profile of userID. Unknown users get an empty
	// profile, since accounts live in the identity provider.
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)

	// UpdateProfile applies a partial update to the caller's profile
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserProfile, error)

	// SyncProfile stores name and picture from the identity provider
	SyncProfile(ctx context.Context, userID, name, picture string) error

	// ToggleSubscription flips subscriberID's subscription to channelID
	ToggleSubscription(ctx context.Context, channelID, subscriberID string) (bool, error)

	// DeleteProfile removes the caller's profile and subscriptions
	DeleteProfile(ctx context.Context, userID string) error
}
