// Package treeutil converts between the flat node rows a video tree is
// stored as and the nested form used for editing and playback.
package treeutil

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
)

// Structural failures reported by Build. Each is matchable with errors.Is and
// every one of them also matches domain.ErrCorrupted.
var (
	ErrNoRoot         = errors.New("no root node")
	ErrMultipleRoots  = errors.New("multiple root nodes")
	ErrDanglingParent = errors.New("parent reference does not resolve")
	ErrCycle          = errors.New("cycle detected")
	ErrDuplicateNode  = errors.New("duplicate node id")
	ErrLayerMismatch  = errors.New("layer does not match depth")
)

// TreeError is a structural failure plus the node IDs that caused it.
type TreeError struct {
	Kind    error
	NodeIDs []string
}

func (e *TreeError) Error() string {
	if len(e.NodeIDs) == 0 {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.NodeIDs, ", "))
}

func (e *TreeError) Unwrap() error { return e.Kind }

// Is allows errors.Is() to match against domain.ErrCorrupted
func (e *TreeError) Is(target error) bool { return target == domain.ErrCorrupted }

func treeError(kind error, ids ...string) *TreeError {
	sort.Strings(ids)
	return &TreeError{Kind: kind, NodeIDs: ids}
}

// Build nests a flat set of nodes belonging to one tree.
//
// Children keep the order in which they appear in nodes. Build never returns
// a partial tree: any structural problem yields a *TreeError.
func Build(nodes []models.VideoNode) (*models.NodeTree, error) {
	byID := make(map[string]int, len(nodes))
	groups := make(map[string][]int, len(nodes))
	var roots []string

	// First pass: index by id and detect duplicates
	var dupes []string
	for i, node := range nodes {
		if _, exists := byID[node.ID]; exists {
			dupes = append(dupes, node.ID)
			continue
		}
		byID[node.ID] = i
	}
	if len(dupes) > 0 {
		return nil, treeError(ErrDuplicateNode, dupes...)
	}

	// Second pass: group by parent, collect roots and dangling references
	var dangling []string
	for i, node := range nodes {
		if node.ParentID == nil {
			roots = append(roots, node.ID)
			continue
		}
		if _, ok := byID[*node.ParentID]; !ok {
			dangling = append(dangling, node.ID)
			continue
		}
		groups[*node.ParentID] = append(groups[*node.ParentID], i)
	}

	switch {
	case len(roots) == 0:
		return nil, treeError(ErrNoRoot)
	case len(roots) > 1:
		return nil, treeError(ErrMultipleRoots, roots...)
	case len(dangling) > 0:
		return nil, treeError(ErrDanglingParent, dangling...)
	}

	rootNode := nodes[byID[roots[0]]]
	if rootNode.Layer != 0 {
		return nil, treeError(ErrLayerMismatch, rootNode.ID)
	}

	pending := make(map[string]struct{}, len(nodes))
	for id := range byID {
		pending[id] = struct{}{}
	}

	// Third pass: descend from the root, removing visited ids
	root := &models.NodeTree{VideoNode: rootNode, Children: []*models.NodeTree{}}
	delete(pending, root.ID)
	stack := []*models.NodeTree{root}
	for len(stack) > 0 {
		parent := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, idx := range groups[parent.ID] {
			child := nodes[idx]
			if _, ok := pending[child.ID]; !ok {
				return nil, treeError(ErrCycle, child.ID)
			}
			delete(pending, child.ID)

			if child.Layer != parent.Layer+1 {
				return nil, treeError(ErrLayerMismatch, child.ID)
			}

			node := &models.NodeTree{VideoNode: child, Children: []*models.NodeTree{}}
			parent.Children = append(parent.Children, node)
			stack = append(stack, node)
		}
	}

	// With one root and no dangling references, anything unreachable hangs
	// off a loop of parent references.
	if len(pending) > 0 {
		ids := make([]string, 0, len(pending))
		for id := range pending {
			ids = append(ids, id)
		}
		return nil, treeError(ErrCycle, ids...)
	}

	return root, nil
}

// Walk visits every node of the tree in pre-order. Returning false from fn
// stops the walk.
func Walk(root *models.NodeTree, fn func(node *models.NodeTree) bool) bool {
	if root == nil {
		return true
	}
	if !fn(root) {
		return false
	}
	for _, child := range root.Children {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the tree.
func Count(root *models.NodeTree) int {
	n := 0
	Walk(root, func(*models.NodeTree) bool {
		n++
		return true
	})
	return n
}

// Depth returns the largest layer below root, counting root as depth 0.
func Depth(root *models.NodeTree) int {
	if root == nil {
		return 0
	}
	deepest := 0
	for _, child := range root.Children {
		if d := Depth(child) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}
