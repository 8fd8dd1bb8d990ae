package videotree

import "time"

// VideoNode is one branch segment, stored flat with a parent back-reference.
type VideoNode struct {
	ID        string    `json:"id" db:"id"`
	TreeID    string    `json:"tree_id" db:"tree_id"`
	ParentID  *string   `json:"parent_id" db:"parent_id"` // NULL only for the root
	Layer     int       `json:"layer" db:"layer"`         // Depth from root (root = 0)
	Info      NodeInfo  `json:"info" db:"info"`
	Creator   string    `json:"creator" db:"creator_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NodeInfo is the payload of a node. URL is the blob-store reference of the
// segment's video and counts as the node's content.
type NodeInfo struct {
	Name               string  `json:"name"`
	Label              string  `json:"label"` // Choice text shown to viewers
	URL                string  `json:"url"`
	Duration           float64 `json:"duration"`
	SelectionTimeStart float64 `json:"selection_time_start"`
	SelectionTimeEnd   float64 `json:"selection_time_end"`
}

// NodeTree is the nested form of a node used for editing and rendering.
type NodeTree struct {
	VideoNode
	Children []*NodeTree `json:"children"` // Pointers for proper nesting
}

// NewRootNode returns an empty layer-0 node owned by creatorID.
func NewRootNode(id, treeID, creatorID string) *VideoNode {
	now := time.Now()
	return &VideoNode{
		ID:        id,
		TreeID:    treeID,
		Layer:     0,
		Creator:   creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
