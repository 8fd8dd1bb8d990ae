package videotree

import (
	"time"
)

// Status controls who may see a published tree.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusPublic  Status = "public"
	StatusPrivate Status = "private"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublic, StatusPrivate:
		return true
	}
	return false
}

// VideoTree is the metadata of one interactive video. Its nodes are stored
// separately as flat VideoNode rows.
type VideoTree struct {
	ID        string    `json:"id" db:"id"`
	RootID    string    `json:"root_id" db:"root_id"`
	Info      TreeInfo  `json:"info"`
	Data      TreeData  `json:"data"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TreeInfo is the descriptive block of a tree.
type TreeInfo struct {
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Thumbnail   string `json:"thumbnail" db:"thumbnail"`
	Creator     string `json:"creator" db:"creator_id"` // Immutable after creation
	Status      Status `json:"status" db:"status"`
	IsEditing   bool   `json:"is_editing" db:"is_editing"` // Derived on every write, never client-set
}

// TreeData holds aggregate counters.
type TreeData struct {
	Views     int64    `json:"views" db:"views"`
	Favorites []string `json:"favorites"` // Viewer IDs, set semantics (tree_favorites table)
}

// Tree is the nested client-facing form of a VideoTree.
type Tree struct {
	ID        string    `json:"id"`
	Root      *NodeTree `json:"root"`
	Info      TreeInfo  `json:"info"`
	Data      TreeData  `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientTree is a Tree enriched for a specific (possibly anonymous) viewer.
type ClientTree struct {
	Tree
	Creator     *CreatorProfile `json:"creator"`
	IsFavorited bool            `json:"is_favorited"`
	History     *History        `json:"history,omitempty"`
}

// CreatorProfile is the display identity of a tree's creator.
type CreatorProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Picture     string `json:"picture"`
	Subscribers int64  `json:"subscribers"`
}
