package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	models "branchvid/internal/domain/models/videotree"
	videoSvc "branchvid/internal/domain/services/videotree"
	"branchvid/internal/httputil"
)

// TreeHandler handles HTTP requests for video tree operations
type TreeHandler struct {
	treeService videoSvc.TreeService
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService videoSvc.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		treeService: treeService,
		logger:      logger,
	}
}

// CreateTree creates an empty tree owned by the caller
// POST /api/videos
func (h *TreeHandler) CreateTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.treeService.CreateTree(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, tree)
}

// GetTree returns the tree as seen by a (possibly anonymous) viewer
// GET /api/videos/{id}
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	tree, err := h.treeService.GetClientTree(r.Context(), treeID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// GetTreeForEdit returns the tree to its creator
// GET /api/videos/{id}/edit
func (h *TreeHandler) GetTreeForEdit(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	tree, err := h.treeService.GetTree(r.Context(), treeID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// UpdateTree replaces info and nodes of a tree with the submitted version
// PATCH /api/videos/{id}
func (h *TreeHandler) UpdateTree(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req videoSvc.UpdateTreeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.TreeID = treeID
	req.EditorID = httputil.GetUserID(r)

	tree, err := h.treeService.UpdateTree(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// DeleteTree removes a tree with all of its nodes
// DELETE /api/videos/{id}
func (h *TreeHandler) DeleteTree(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.treeService.DeleteTree(r.Context(), treeID, httputil.GetUserID(r)); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPublic lists listable trees. ?ids restricts the listing to the given
// trees, ?search ranks it by relevance.
// GET /api/videos
func (h *TreeHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids := httputil.QueryList(r, "ids")
	if len(ids) > 0 {
		result, err := h.treeService.ListByIDs(r.Context(), ids, req)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, result)
		return
	}

	result, err := h.treeService.ListPublic(r.Context(), &videoSvc.SearchRequest{
		ListRequest: *req,
		Keyword:     strings.TrimSpace(r.URL.Query().Get("search")),
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ListMine lists the caller's trees, drafts included
// GET /api/users/me/videos
func (h *TreeHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.treeService.ListByCreator)
}

// ListFavorites lists trees the caller favorited
// GET /api/videos/favorites
func (h *TreeHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.treeService.ListFavorites)
}

// ListWatched lists trees the caller has progress in
// GET /api/histories
func (h *TreeHandler) ListWatched(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.treeService.ListWatched)
}

// ListByChannel lists the listable trees of one creator
// GET /api/channels/{id}/videos
func (h *TreeHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")
	h.list(w, r, func(ctx context.Context, req *videoSvc.ListRequest) (*models.ListResult, error) {
		return h.treeService.ListByChannel(ctx, channelID, req)
	})
}

type listFunc func(ctx context.Context, req *videoSvc.ListRequest) (*models.ListResult, error)

func (h *TreeHandler) list(w http.ResponseWriter, r *http.Request, fn listFunc) {
	req, err := parseListRequest(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := fn(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// DeleteMine removes every tree, node and history of the caller
// DELETE /api/users/me/videos
func (h *TreeHandler) DeleteMine(w http.ResponseWriter, r *http.Request) {
	if err := h.treeService.DeleteByCreator(r.Context(), httputil.GetUserID(r)); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavorite adds or removes the tree from the caller's favorites
// PATCH /api/videos/{id}/favorite
func (h *TreeHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	favorited, err := h.treeService.ToggleFavorite(r.Context(), treeID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"is_favorited": favorited})
}

// IncrementViews counts one view
// PATCH /api/videos/{id}/views
func (h *TreeHandler) IncrementViews(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	views, err := h.treeService.IncrementViews(r.Context(), treeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int64{"views": views})
}
