package services

import "context"

// ResourceAuthorizer checks if a user can modify resources.
// Current implementation: ownership-based (user created the tree).
type ResourceAuthorizer interface {
	// CanEditTree checks if user may edit or delete a tree.
	// Returns domain.ErrNotFound for unknown trees and domain.ErrForbidden
	// for trees owned by someone else.
	CanEditTree(ctx context.Context, userID, treeID string) error

	// CanEditNode checks if user may modify a node (via its owner)
	CanEditNode(ctx context.Context, userID, nodeID string) error
}
