package videotree

import (
	"context"
	"fmt"
	"log/slog"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
	videoRepo "branchvid/internal/domain/repositories/videotree"
	videoSvc "branchvid/internal/domain/services/videotree"
)

type historyService struct {
	historyRepo videoRepo.HistoryRepository
	treeRepo    videoRepo.TreeRepository
	logger      *slog.Logger
}

// NewHistoryService creates a new history service
func NewHistoryService(
	historyRepo videoRepo.HistoryRepository,
	treeRepo videoRepo.TreeRepository,
	logger *slog.Logger,
) videoSvc.HistoryService {
	return &historyService{
		historyRepo: historyRepo,
		treeRepo:    treeRepo,
		logger:      logger,
	}
}

// SaveProgress records where the viewer is. The viewer must be able to see
// the tree and the active node must belong to it.
func (s *historyService) SaveProgress(ctx context.Context, req *videoSvc.SaveProgressRequest) (*models.History, error) {
	if err := validateSaveProgressRequest(req); err != nil {
		return nil, validationError(err)
	}

	tree, err := s.treeRepo.GetByID(ctx, req.TreeID)
	if err != nil {
		return nil, err
	}
	if !canView(tree, req.ViewerID, visibleToClient) {
		return nil, fmt.Errorf("access denied to tree %s: %w", req.TreeID, domain.ErrForbidden)
	}

	history := &models.History{
		UserID:        req.ViewerID,
		TreeID:        req.TreeID,
		ActiveNodeID:  req.ActiveNodeID,
		Progress:      req.Progress,
		TotalProgress: req.TotalProgress,
		IsEnded:       req.IsEnded,
	}
	if err := s.historyRepo.Upsert(ctx, history); err != nil {
		return nil, err
	}

	s.logger.Debug("progress saved",
		"tree_id", req.TreeID,
		"viewer", req.ViewerID,
		"active_node_id", req.ActiveNodeID,
		"is_ended", req.IsEnded,
	)

	return history, nil
}

// GetHistory retrieves the viewer's record for a tree
func (s *historyService) GetHistory(ctx context.Context, viewerID, treeID string) (*models.History, error) {
	if viewerID == "" {
		return nil, fmt.Errorf("get history: %w", domain.ErrUnauthorized)
	}
	return s.historyRepo.GetByUserAndTree(ctx, viewerID, treeID)
}

// DeleteByViewer removes all progress of a viewer
func (s *historyService) DeleteByViewer(ctx context.Context, viewerID string) error {
	deleted, err := s.historyRepo.DeleteByUser(ctx, viewerID)
	if err != nil {
		return err
	}

	s.logger.Info("histories deleted", "viewer", viewerID, "count", deleted)
	return nil
}
