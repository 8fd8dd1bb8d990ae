package videotree

import (
	"context"

	models "branchvid/internal/domain/models/videotree"
)

// NodeService owns the lifecycle of the flat node set of a tree
type NodeService interface {
	// CreateRoot persists the empty layer-0 node tree.RootID, owned by the
	// tree's creator. The tree row must already exist.
	CreateRoot(ctx context.Context, tree *models.VideoTree) (*models.VideoNode, error)

	// UpdateByTree reconciles stored nodes with a submitted nested tree and
	// returns the rebuilt tree. Must run inside a transaction.
	UpdateByTree(ctx context.Context, tree *models.VideoTree, submitted *models.NodeTree, editorID string) (*models.NodeTree, error)

	// GetNode retrieves a single node
	GetNode(ctx context.Context, nodeID string) (*models.VideoNode, error)

	// DeleteByRoot deletes every node of the tree rooted at rootID
	DeleteByRoot(ctx context.Context, rootID, ownerID string) error

	// DeleteByCreator deletes every node owned by ownerID
	DeleteByCreator(ctx context.Context, ownerID string) error
}
