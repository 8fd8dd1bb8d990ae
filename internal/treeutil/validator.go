package treeutil

import (
	"strings"

	models "branchvid/internal/domain/models/videotree"
)

// NodeField names a NodeInfo field that AnyNodeMissing can inspect.
type NodeField string

const (
	FieldName  NodeField = "name"
	FieldLabel NodeField = "label"
	FieldURL   NodeField = "url"
)

// ContentField is the field that makes a node playable.
const ContentField = FieldURL

func fieldValue(info models.NodeInfo, field NodeField) string {
	switch field {
	case FieldName:
		return info.Name
	case FieldLabel:
		return info.Label
	case FieldURL:
		return info.URL
	default:
		return ""
	}
}

// AnyNodeMissing reports whether some node in the tree has field empty.
// It stops at the first such node.
func AnyNodeMissing(root *models.NodeTree, field NodeField) bool {
	if root == nil {
		return true
	}
	missing := false
	Walk(root, func(node *models.NodeTree) bool {
		if strings.TrimSpace(fieldValue(node.Info, field)) == "" {
			missing = true
			return false
		}
		return true
	})
	return missing
}

// IsEditing reports whether a tree is still incomplete: no title, or some
// node without content.
func IsEditing(title string, root *models.NodeTree) bool {
	return strings.TrimSpace(title) == "" || AnyNodeMissing(root, ContentField)
}
