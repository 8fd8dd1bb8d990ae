package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
	videoSvc "branchvid/internal/domain/services/videotree"
	"branchvid/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		corruptErr  *domain.CorruptionError
		conflictErr *domain.ConflictError
	)

	status := statusFor(err)
	switch {
	case errors.As(err, &corruptErr):
		// Already logged with node ids where it was detected
		httputil.RespondErrorWithExtras(w, status, "video tree is corrupted",
			map[string]interface{}{"tree_id": corruptErr.TreeID})
	case errors.As(err, &conflictErr) && conflictErr.ResourceID != "":
		httputil.RespondErrorWithExtras(w, status, conflictErr.Message,
			map[string]interface{}{
				"resource_type": conflictErr.ResourceType,
				"resource_id":   conflictErr.ResourceID,
			})
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, status, "internal server error")
	default:
		httputil.RespondError(w, status, err.Error())
	}
}

// statusFor resolves the HTTP status of err. Typed errors report their own;
// sentinel-wrapped errors are mapped here.
func statusFor(err error) int {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// pathUUID reads a path parameter that must be a UUID. On failure it writes
// a 400 and returns false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid "+name+": must be a UUID")
		return "", false
	}
	return id.String(), true
}

// parseListRequest reads ?page and ?max. Defaults and bounds are applied
// by the service.
func parseListRequest(r *http.Request) (*videoSvc.ListRequest, error) {
	page, err := httputil.QueryInt(r, "page")
	if err != nil {
		return nil, err
	}
	max, err := httputil.QueryInt(r, "max")
	if err != nil {
		return nil, err
	}

	return &videoSvc.ListRequest{
		ViewerID:   httputil.GetUserID(r),
		Pagination: models.Pagination{Page: page, Max: max},
	}, nil
}
