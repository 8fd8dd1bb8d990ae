package handler

import (
	"log/slog"
	"net/http"

	"branchvid/internal/domain/models"
	"branchvid/internal/domain/services"
	"branchvid/internal/httputil"
)

// UserHandler handles profile and subscription requests
type UserHandler struct {
	service services.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// updateProfileRequest is the wire form of models.UpdateProfileRequest
type updateProfileRequest struct {
	Name    httputil.OptionalString `json:"name"`
	Picture httputil.OptionalString `json:"picture"`
}

// GetMe returns the caller's profile
// GET /api/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.respondProfile(w, r, httputil.GetUserID(r))
}

// GetChannel returns the profile of a channel
// GET /api/channels/{id}
func (h *UserHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	h.respondProfile(w, r, r.PathValue("id"))
}

func (h *UserHandler) respondProfile(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}

// UpdateMe applies a merge patch to the caller's profile
// PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var dto updateProfileRequest
	if err := httputil.ParseJSON(w, r, &dto); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := &models.UpdateProfileRequest{
		Name:    models.OptionalText{Present: dto.Name.Present, Value: dto.Name.Value},
		Picture: models.OptionalText{Present: dto.Picture.Present, Value: dto.Picture.Value},
	}

	profile, err := h.service.UpdateProfile(r.Context(), httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}

// DeleteMe removes the caller's profile and subscriptions
// DELETE /api/users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProfile(r.Context(), httputil.GetUserID(r)); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleSubscription subscribes the caller to a channel, or unsubscribes
// PATCH /api/channels/{id}/subscription
func (h *UserHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	subscribed, err := h.service.ToggleSubscription(r.Context(), r.PathValue("id"), httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"subscribed": subscribed})
}
