package videotree

import (
	"context"

	models "branchvid/internal/domain/models/videotree"
)

// SaveProgressRequest is one progress report from a player.
type SaveProgressRequest struct {
	ViewerID      string  `json:"-"`
	TreeID        string  `json:"-"`
	ActiveNodeID  string  `json:"active_node_id"`
	Progress      float64 `json:"progress"`
	TotalProgress float64 `json:"total_progress"`
	IsEnded       bool    `json:"is_ended"`
}

// HistoryService tracks per-viewer playback progress
type HistoryService interface {
	// SaveProgress creates the viewer's record on first call and updates it afterwards
	SaveProgress(ctx context.Context, req *SaveProgressRequest) (*models.History, error)

	// GetHistory retrieves the viewer's record for a tree
	GetHistory(ctx context.Context, viewerID, treeID string) (*models.History, error)

	// DeleteByViewer removes all progress of a viewer
	DeleteByViewer(ctx context.Context, viewerID string) error
}
