package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"branchvid/internal/config"
	"branchvid/internal/domain"
	"branchvid/internal/domain/models"
	"branchvid/internal/domain/repositories"
	"branchvid/internal/domain/services"
)

// UserService implements the UserService interface
type UserService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) services.UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetProfile retrieves a profile, falling back to an empty one
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}

	profile, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("no profile found, returning empty one", "user_id", userID)
		return &models.UserProfile{ID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

// UpdateProfile applies a partial update to the caller's profile
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("update profile: %w", domain.ErrUnauthorized)
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Tri-state: only update if field was present in request
	if req.Name.Present {
		profile.Name = valueOrEmpty(req.Name.Value)
	}
	if req.Picture.Present {
		profile.Picture = valueOrEmpty(req.Picture.Value)
	}

	if err := validateProfile(profile); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.userRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	s.logger.Info("profile updated",
		"user_id", userID,
		"has_name", req.Name.Present,
		"has_picture", req.Picture.Present,
	)

	return profile, nil
}

// SyncProfile stores the identity provider's name and picture. Tokens
// without a name leave the stored profile alone.
func (s *UserService) SyncProfile(ctx context.Context, userID, name, picture string) error {
	if userID == "" || name == "" {
		return nil
	}

	profile := &models.UserProfile{ID: userID, Name: name, Picture: picture}
	if err := validateProfile(profile); err != nil {
		s.logger.Warn("identity profile rejected", "user_id", userID, "error", err)
		return nil
	}

	if err := s.userRepo.Upsert(ctx, profile); err != nil {
		return fmt.Errorf("sync profile: %w", err)
	}
	return nil
}

// ToggleSubscription flips subscriberID's subscription to channelID
func (s *UserService) ToggleSubscription(ctx context.Context, channelID, subscriberID string) (bool, error) {
	if subscriberID == "" {
		return false, fmt.Errorf("toggle subscription: %w", domain.ErrUnauthorized)
	}
	if channelID == subscriberID {
		return false, fmt.Errorf("cannot subscribe to own channel: %w", domain.ErrValidation)
	}

	subscribed, err := s.userRepo.ToggleSubscription(ctx, channelID, subscriberID)
	if err != nil {
		return false, err
	}

	s.logger.Info("subscription toggled",
		"channel_id", channelID,
		"subscriber_id", subscriberID,
		"subscribed", subscribed,
	)

	return subscribed, nil
}

// DeleteProfile removes the caller's profile and subscriptions
func (s *UserService) DeleteProfile(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("delete profile: %w", domain.ErrUnauthorized)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("profile deleted", "user_id", userID)
	return nil
}

func validateProfile(profile *models.UserProfile) error {
	return validation.ValidateStruct(profile,
		validation.Field(&profile.Name, validation.Length(0, config.MaxProfileNameLength)),
		validation.Field(&profile.Picture,
			validation.Length(0, config.MaxURLLength),
			validation.By(absoluteURL),
		),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
