package videotree

import (
	"context"

	models "branchvid/internal/domain/models/videotree"
)

// TreeRecord is one tree as produced by a retrieval pipeline. Which of the
// optional fields are filled depends on the stages the pipeline ran.
type TreeRecord struct {
	models.VideoTree
	Nodes       []models.VideoNode     `json:"nodes,omitempty"`   // AttachNodes
	Root        *models.VideoNode      `json:"root,omitempty"`    // AttachRoot
	Creator     *models.CreatorProfile `json:"creator,omitempty"` // AttachCreator
	IsFavorited bool                   `json:"is_favorited"`      // AttachFavorite
	History     *models.History        `json:"history,omitempty"` // AttachHistory
	Score       *float64               `json:"score,omitempty"`   // Search
}

// TreeRepository defines data access operations for tree metadata
type TreeRepository interface {
	// Create inserts tree metadata (ID and RootID must be set)
	Create(ctx context.Context, tree *models.VideoTree) error

	// GetByID retrieves tree metadata by ID
	GetByID(ctx context.Context, id string) (*models.VideoTree, error)

	// GetForUpdate retrieves tree metadata and locks the row until the
	// surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (*models.VideoTree, error)

	// UpdateInfo persists the info block (creator is never written)
	UpdateInfo(ctx context.Context, tree *models.VideoTree) error

	// Delete removes tree metadata; favorites and history rows cascade
	Delete(ctx context.Context, id string) error

	// DeleteByCreator removes every tree owned by creatorID
	DeleteByCreator(ctx context.Context, creatorID string) (int64, error)

	// FindOne runs a pipeline expected to match at most one tree
	FindOne(ctx context.Context, pipeline Pipeline) (*TreeRecord, error)

	// FindPage runs a pipeline and returns one page plus the total match count
	FindPage(ctx context.Context, pipeline Pipeline, page models.Pagination) ([]TreeRecord, int64, error)

	// ToggleFavorite adds or removes userID from the favorites set atomically
	// and reports whether the user is a favoriter afterwards. Concurrent
	// toggles of one user alternate only under a GetForUpdate lock.
	ToggleFavorite(ctx context.Context, treeID, userID string) (bool, error)

	// IncrementViews atomically adds one view and returns the new count
	IncrementViews(ctx context.Context, treeID string) (int64, error)
}
