package videotree

import "time"

// History is one viewer's saved position inside one tree.
type History struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	TreeID        string    `json:"tree_id" db:"tree_id"`
	ActiveNodeID  string    `json:"active_node_id" db:"active_node_id"`
	Progress      float64   `json:"progress" db:"progress"`             // Seconds into the active node
	TotalProgress float64   `json:"total_progress" db:"total_progress"` // Seconds across the traversed path
	IsEnded       bool      `json:"is_ended" db:"is_ended"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
