package auth

import (
	"context"
	"fmt"

	"branchvid/internal/domain"
	videoRepo "branchvid/internal/domain/repositories/videotree"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can modify a tree or node if they created it.
type OwnerBasedAuthorizer struct {
	treeRepo videoRepo.TreeRepository
	nodeRepo videoRepo.NodeRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(
	treeRepo videoRepo.TreeRepository,
	nodeRepo videoRepo.NodeRepository,
) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{
		treeRepo: treeRepo,
		nodeRepo: nodeRepo,
	}
}

// CanEditTree checks if user created the tree
func (a *OwnerBasedAuthorizer) CanEditTree(ctx context.Context, userID, treeID string) error {
	tree, err := a.treeRepo.GetByID(ctx, treeID)
	if err != nil {
		return err
	}
	if tree.Info.Creator != userID {
		return fmt.Errorf("access denied to tree %s: %w", treeID, domain.ErrForbidden)
	}
	return nil
}

// CanEditNode checks if user owns the node
func (a *OwnerBasedAuthorizer) CanEditNode(ctx context.Context, userID, nodeID string) error {
	node, err := a.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if node.Creator != userID {
		return fmt.Errorf("access denied to node %s: %w", nodeID, domain.ErrForbidden)
	}
	return nil
}
