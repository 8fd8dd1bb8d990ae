package handler

import (
	"log/slog"
	"net/http"

	videoSvc "branchvid/internal/domain/services/videotree"
	"branchvid/internal/httputil"
)

// HistoryHandler handles playback progress requests
type HistoryHandler struct {
	historyService videoSvc.HistoryService
	logger         *slog.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historyService videoSvc.HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		logger:         logger,
	}
}

// GetHistory returns the caller's progress in a tree
// GET /api/videos/{id}/history
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	history, err := h.historyService.GetHistory(r.Context(), httputil.GetUserID(r), treeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, history)
}

// SaveProgress records the caller's position in a tree
// PUT /api/videos/{id}/history
func (h *HistoryHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	treeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req videoSvc.SaveProgressRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.TreeID = treeID
	req.ViewerID = httputil.GetUserID(r)

	history, err := h.historyService.SaveProgress(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, history)
}
