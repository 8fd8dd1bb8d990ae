package videotree

import (
	"context"

	models "branchvid/internal/domain/models/videotree"
)

// UpdateTreeRequest is an edited tree submitted by its creator.
// Info.IsEditing is ignored; it is recomputed from the submission.
type UpdateTreeRequest struct {
	TreeID   string           `json:"-"`
	EditorID string           `json:"-"`
	Info     models.TreeInfo  `json:"info"`
	Root     *models.NodeTree `json:"root"`
}

// ListRequest carries the parameters shared by listing operations.
type ListRequest struct {
	ViewerID string // Optional; empty for anonymous viewers
	models.Pagination
}

// SearchRequest is a public listing optionally ranked by keyword.
type SearchRequest struct {
	ListRequest
	Keyword string
}

// TreeService handles video tree business logic
type TreeService interface {
	// CreateTree creates an empty tree (root node only) owned by ownerID
	CreateTree(ctx context.Context, ownerID string) (*models.Tree, error)

	// UpdateTree reconciles the submitted tree with storage and recomputes IsEditing
	UpdateTree(ctx context.Context, req *UpdateTreeRequest) (*models.Tree, error)

	// DeleteTree removes a tree and all of its nodes (creator only)
	DeleteTree(ctx context.Context, treeID, requesterID string) error

	// GetTree returns the full nested tree for its creator (editor view)
	GetTree(ctx context.Context, treeID, requesterID string) (*models.Tree, error)

	// GetClientTree returns the nested tree enriched for viewerID (may be empty)
	GetClientTree(ctx context.Context, treeID, viewerID string) (*models.ClientTree, error)

	// ListByCreator lists every tree of the requesting creator, drafts included
	ListByCreator(ctx context.Context, req *ListRequest) (*models.ListResult, error)

	// ListPublic lists listable trees, ranked by relevance when a keyword is given
	ListPublic(ctx context.Context, req *SearchRequest) (*models.ListResult, error)

	// ListByChannel lists listable trees of one creator
	ListByChannel(ctx context.Context, channelID string, req *ListRequest) (*models.ListResult, error)

	// ListByIDs lists listable trees among ids
	ListByIDs(ctx context.Context, ids []string, req *ListRequest) (*models.ListResult, error)

	// ListFavorites lists listable trees the viewer favorited
	ListFavorites(ctx context.Context, req *ListRequest) (*models.ListResult, error)

	// ListWatched lists trees the viewer has history in (continue watching)
	ListWatched(ctx context.Context, req *ListRequest) (*models.ListResult, error)

	// ToggleFavorite flips viewerID's membership in the favorites set
	ToggleFavorite(ctx context.Context, treeID, viewerID string) (bool, error)

	// IncrementViews adds one view
	IncrementViews(ctx context.Context, treeID string) (int64, error)

	// DeleteByCreator removes every tree, node and history of an account
	DeleteByCreator(ctx context.Context, ownerID string) error
}
