package repositories

import (
	"context"

	"branchvid/internal/domain/models"
)

// UserRepository defines the interface for user profile data access
type UserRepository interface {
	// GetByID retrieves a profile with its subscriber count
	GetByID(ctx context.Context, userID string) (*models.UserProfile, error)

	// Upsert creates or replaces name and picture of a profile
	Upsert(ctx context.Context, profile *models.UserProfile) error

	// ToggleSubscription subscribes subscriberID to channelID, or unsubscribes
	// when already subscribed. Returns the new state.
	ToggleSubscription(ctx context.Context, channelID, subscriberID string) (bool, error)

	// Delete removes a profile and every subscription from or to it
	Delete(ctx context.Context, userID string) error
}
