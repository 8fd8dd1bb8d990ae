package treeutil

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, parent string, layer int) models.VideoNode {
	n := models.VideoNode{ID: id, TreeID: "tree-1", Layer: layer, Creator: "owner"}
	if parent != "" {
		p := parent
		n.ParentID = &p
	}
	return n
}

// sampleNodes is a root with two branches, the first of which splits again.
func sampleNodes() []models.VideoNode {
	return []models.VideoNode{
		node("b", "root", 1),
		node("root", "", 0),
		node("a", "root", 1),
		node("a1", "a", 2),
		node("a2", "a", 2),
	}
}

func TestBuild_WellFormed(t *testing.T) {
	nodes := sampleNodes()

	root, err := Build(nodes)
	require.NoError(t, err)

	assert.Equal(t, "root", root.ID)
	assert.Equal(t, 0, root.Layer)
	assert.Equal(t, len(nodes), Count(root))
	assert.Equal(t, 2, Depth(root))

	// Children keep input order
	require.Len(t, root.Children, 2)
	assert.Equal(t, "b", root.Children[0].ID)
	assert.Equal(t, "a", root.Children[1].ID)
	require.Len(t, root.Children[1].Children, 2)
	assert.Equal(t, "a1", root.Children[1].Children[0].ID)
	assert.Equal(t, "a2", root.Children[1].Children[1].ID)
	assert.NotNil(t, root.Children[0].Children, "leaf children should be empty, not nil")
}

func TestBuild_SingleRoot(t *testing.T) {
	root, err := Build([]models.VideoNode{node("root", "", 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, Count(root))
	assert.Empty(t, root.Children)
}

func TestBuild_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []models.VideoNode
		wantErr error
		wantIDs []string
	}{
		{
			name:    "no root",
			nodes:   []models.VideoNode{node("a", "b", 1), node("b", "a", 1)},
			wantErr: ErrNoRoot,
		},
		{
			name:    "empty input",
			nodes:   nil,
			wantErr: ErrNoRoot,
		},
		{
			name:    "two roots",
			nodes:   []models.VideoNode{node("r1", "", 0), node("r2", "", 0)},
			wantErr: ErrMultipleRoots,
			wantIDs: []string{"r1", "r2"},
		},
		{
			name:    "dangling parent",
			nodes:   []models.VideoNode{node("root", "", 0), node("x", "ghost", 1)},
			wantErr: ErrDanglingParent,
			wantIDs: []string{"x"},
		},
		{
			name: "two node cycle beside a root",
			nodes: []models.VideoNode{
				node("root", "", 0),
				node("a", "b", 1),
				node("b", "a", 2),
			},
			wantErr: ErrCycle,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "self parent",
			nodes:   []models.VideoNode{node("root", "", 0), node("a", "a", 1)},
			wantErr: ErrCycle,
			wantIDs: []string{"a"},
		},
		{
			name:    "duplicate id",
			nodes:   []models.VideoNode{node("root", "", 0), node("a", "root", 1), node("a", "root", 1)},
			wantErr: ErrDuplicateNode,
			wantIDs: []string{"a"},
		},
		{
			name:    "child layer skips a level",
			nodes:   []models.VideoNode{node("root", "", 0), node("a", "root", 2)},
			wantErr: ErrLayerMismatch,
			wantIDs: []string{"a"},
		},
		{
			name:    "root not at layer zero",
			nodes:   []models.VideoNode{node("root", "", 3)},
			wantErr: ErrLayerMismatch,
			wantIDs: []string{"root"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Build(tt.nodes)
			require.Error(t, err)
			assert.Nil(t, root, "no partial tree on failure")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrCorrupted)

			var treeErr *TreeError
			require.True(t, errors.As(err, &treeErr))
			if tt.wantIDs != nil {
				assert.Equal(t, tt.wantIDs, treeErr.NodeIDs)
			}
		})
	}
}

func TestBuild_ErrorKindsAreDistinct(t *testing.T) {
	kinds := []error{ErrNoRoot, ErrMultipleRoots, ErrDanglingParent, ErrCycle}
	for i, a := range kinds {
		for j, b := range kinds {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestFlatten_RoundTrip(t *testing.T) {
	for _, size := range []int{1, 2, 10, 57} {
		t.Run(fmt.Sprintf("%d nodes", size), func(t *testing.T) {
			input := chainAndFan(size)

			root, err := Build(input)
			require.NoError(t, err)
			require.Equal(t, size, Count(root))

			flat, err := Flatten(root)
			require.NoError(t, err)

			assert.Equal(t, sortedByID(input), sortedByID(flat))
		})
	}
}

func TestFlatten_PopulatesParentAndLayer(t *testing.T) {
	root := &models.NodeTree{
		VideoNode: models.VideoNode{ID: "root", TreeID: "tree-9"},
		Children: []*models.NodeTree{
			{
				VideoNode: models.VideoNode{ID: "child", Layer: 1},
				Children: []*models.NodeTree{
					{VideoNode: models.VideoNode{ID: "grandchild", Layer: 2}},
				},
			},
		},
	}

	flat, err := Flatten(root)
	require.NoError(t, err)
	require.Len(t, flat, 3)

	assert.Nil(t, flat[0].ParentID)
	require.NotNil(t, flat[1].ParentID)
	assert.Equal(t, "root", *flat[1].ParentID)
	require.NotNil(t, flat[2].ParentID)
	assert.Equal(t, "child", *flat[2].ParentID)
	for _, n := range flat {
		assert.Equal(t, "tree-9", n.TreeID)
	}
}

func TestFlatten_RejectsInconsistentSubmissions(t *testing.T) {
	other := "somewhere-else"
	tests := []struct {
		name string
		root *models.NodeTree
	}{
		{name: "nil root", root: nil},
		{
			name: "root with parent",
			root: &models.NodeTree{VideoNode: models.VideoNode{ID: "root", ParentID: &other}},
		},
		{
			name: "root at layer one",
			root: &models.NodeTree{VideoNode: models.VideoNode{ID: "root", Layer: 1}},
		},
		{
			name: "child layer mismatch",
			root: &models.NodeTree{
				VideoNode: models.VideoNode{ID: "root"},
				Children:  []*models.NodeTree{{VideoNode: models.VideoNode{ID: "a", Layer: 3}}},
			},
		},
		{
			name: "child declares another parent",
			root: &models.NodeTree{
				VideoNode: models.VideoNode{ID: "root"},
				Children:  []*models.NodeTree{{VideoNode: models.VideoNode{ID: "a", Layer: 1, ParentID: &other}}},
			},
		},
		{
			name: "duplicate id",
			root: &models.NodeTree{
				VideoNode: models.VideoNode{ID: "root"},
				Children: []*models.NodeTree{
					{VideoNode: models.VideoNode{ID: "a", Layer: 1}},
					{VideoNode: models.VideoNode{ID: "a", Layer: 1}},
				},
			},
		},
		{
			name: "missing id",
			root: &models.NodeTree{
				VideoNode: models.VideoNode{ID: "root"},
				Children:  []*models.NodeTree{{VideoNode: models.VideoNode{Layer: 1}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flatten(tt.root)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

// chainAndFan builds n well-formed nodes where node i hangs off node (i-1)/3.
func chainAndFan(n int) []models.VideoNode {
	nodes := make([]models.VideoNode, n)
	layers := make([]int, n)
	nodes[0] = node("n0", "", 0)
	for i := 1; i < n; i++ {
		parent := (i - 1) / 3
		layers[i] = layers[parent] + 1
		nodes[i] = node(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", parent), layers[i])
	}
	// Reverse so parents do not always precede children in the input
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}

func sortedByID(nodes []models.VideoNode) []models.VideoNode {
	out := append([]models.VideoNode(nil), nodes...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
