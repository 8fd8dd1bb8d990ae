package videotree

import (
	"context"

	models "branchvid/internal/domain/models/videotree"
)

// NodeRepository defines data access operations for flat video nodes
type NodeRepository interface {
	// Create inserts a single node
	Create(ctx context.Context, node *models.VideoNode) error

	// CreateBatch inserts several nodes of one tree
	CreateBatch(ctx context.Context, nodes []models.VideoNode) error

	// UpdateBatch rewrites parent, layer and info of existing nodes of one tree
	UpdateBatch(ctx context.Context, nodes []models.VideoNode) error

	// GetByID retrieves a node by ID
	GetByID(ctx context.Context, id string) (*models.VideoNode, error)

	// GetAllByTree retrieves every node of a tree (flat, insertion order)
	GetAllByTree(ctx context.Context, treeID string) ([]models.VideoNode, error)

	// DeleteByIDs deletes the given nodes of a tree
	DeleteByIDs(ctx context.Context, treeID string, ids []string) error

	// DeleteByRoot deletes the whole node set of the tree rooted at rootID
	DeleteByRoot(ctx context.Context, rootID string) (int64, error)

	// DeleteByCreator deletes every node owned by creatorID
	DeleteByCreator(ctx context.Context, creatorID string) (int64, error)
}
