package treeutil

import (
	"fmt"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
)

// Flatten turns a nested tree into flat rows in pre-order, filling ParentID,
// Layer and TreeID from each node's position.
//
// A submitted tree whose declared parent or layer contradicts its position is
// rejected with domain.ErrValidation rather than silently corrected.
func Flatten(root *models.NodeTree) ([]models.VideoNode, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: tree has no root", domain.ErrValidation)
	}
	if root.ParentID != nil {
		return nil, fmt.Errorf("%w: root node %s must not have a parent", domain.ErrValidation, root.ID)
	}
	if root.Layer != 0 {
		return nil, fmt.Errorf("%w: root node %s must be at layer 0, got %d", domain.ErrValidation, root.ID, root.Layer)
	}

	f := &flattener{
		treeID: root.TreeID,
		seen:   make(map[string]struct{}),
	}
	if err := f.visit(root, nil); err != nil {
		return nil, err
	}
	return f.out, nil
}

type flattener struct {
	treeID string
	seen   map[string]struct{}
	out    []models.VideoNode
}

func (f *flattener) visit(node *models.NodeTree, parent *models.VideoNode) error {
	if node == nil {
		return fmt.Errorf("%w: null node in tree", domain.ErrValidation)
	}
	if node.ID == "" {
		return fmt.Errorf("%w: node without id", domain.ErrValidation)
	}
	if _, dup := f.seen[node.ID]; dup {
		return fmt.Errorf("%w: node %s appears more than once", domain.ErrValidation, node.ID)
	}
	f.seen[node.ID] = struct{}{}

	flat := node.VideoNode
	flat.TreeID = f.treeID
	if parent != nil {
		if node.ParentID != nil && *node.ParentID != parent.ID {
			return fmt.Errorf("%w: node %s declares parent %s but is nested under %s",
				domain.ErrValidation, node.ID, *node.ParentID, parent.ID)
		}
		if node.Layer != parent.Layer+1 {
			return fmt.Errorf("%w: node %s has layer %d, parent %s has layer %d",
				domain.ErrValidation, node.ID, node.Layer, parent.ID, parent.Layer)
		}
		parentID := parent.ID
		flat.ParentID = &parentID
	}
	f.out = append(f.out, flat)

	for _, child := range node.Children {
		if err := f.visit(child, &flat); err != nil {
			return err
		}
	}
	return nil
}
