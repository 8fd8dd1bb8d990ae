package videotree

import (
	"context"

	models "branchvid/internal/domain/models/videotree"
)

// HistoryRepository defines data access operations for viewer progress
type HistoryRepository interface {
	// Upsert creates or updates the (user, tree) record in one statement.
	// Returns domain.ErrNotFound if the active node is not part of the tree.
	Upsert(ctx context.Context, history *models.History) error

	// GetByUserAndTree retrieves a viewer's record for one tree
	GetByUserAndTree(ctx context.Context, userID, treeID string) (*models.History, error)

	// DeleteByUser removes every record of a viewer
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
