package seed

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchvid/internal/domain/models"
	vt "branchvid/internal/domain/models/videotree"
	videoSvc "branchvid/internal/domain/services/videotree"
)

const sample = `
users:
  - id: alice
    name: Alice
    subscribers: [bob]
trees:
  - creator: alice
    title: Fork
    status: public
    favorited_by: [bob]
    views: 2
    root:
      name: Start
      url: start.mp4
      duration: 10
      children:
        - label: Left
          url: left.mp4
        - label: Right
          children:
            - label: Deeper
`

func TestLoad(t *testing.T) {
	fixtures, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	require.Len(t, fixtures.Users, 1)
	assert.Equal(t, []string{"bob"}, fixtures.Users[0].Subscribers)

	require.Len(t, fixtures.Trees, 1)
	tree := fixtures.Trees[0]
	assert.Equal(t, vt.StatusPublic, tree.Status)
	assert.Equal(t, 2, tree.Views)
	require.Len(t, tree.Root.Children, 2)
	assert.Equal(t, "Deeper", tree.Root.Children[1].Children[0].Label)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader("trees:\n  - creator: alice\n    titel: typo\n"))
	assert.Error(t, err)
}

func TestNodeFixture_NodeTree(t *testing.T) {
	fixtures, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	root := fixtures.Trees[0].Root.NodeTree("root-id")
	assert.Equal(t, "root-id", root.ID)
	assert.Equal(t, "start.mp4", root.Info.URL)
	assert.Equal(t, 10.0, root.Info.Duration)

	require.Len(t, root.Children, 2)
	assert.Empty(t, root.Children[0].ID, "new nodes get server ids")
	assert.Equal(t, "Left", root.Children[0].Info.Label)
	assert.NotNil(t, root.Children[0].Children)
}

type recordingTrees struct {
	videoSvc.TreeService

	updates   []*videoSvc.UpdateTreeRequest
	favorites []string
	views     int
}

func (r *recordingTrees) CreateTree(_ context.Context, ownerID string) (*vt.Tree, error) {
	return &vt.Tree{
		ID:   "tree-1",
		Root: &vt.NodeTree{VideoNode: vt.VideoNode{ID: "root-1"}},
		Info: vt.TreeInfo{Creator: ownerID},
	}, nil
}

func (r *recordingTrees) UpdateTree(_ context.Context, req *videoSvc.UpdateTreeRequest) (*vt.Tree, error) {
	r.updates = append(r.updates, req)
	return &vt.Tree{ID: req.TreeID, Info: req.Info}, nil
}

func (r *recordingTrees) ToggleFavorite(_ context.Context, _, viewerID string) (bool, error) {
	r.favorites = append(r.favorites, viewerID)
	return true, nil
}

func (r *recordingTrees) IncrementViews(context.Context, string) (int64, error) {
	r.views++
	return int64(r.views), nil
}

type recordingUsers struct {
	synced []string
	subs   []string
}

func (r *recordingUsers) GetProfile(context.Context, string) (*models.UserProfile, error) {
	return nil, nil
}

func (r *recordingUsers) UpdateProfile(context.Context, string, *models.UpdateProfileRequest) (*models.UserProfile, error) {
	return nil, nil
}

func (r *recordingUsers) SyncProfile(_ context.Context, userID, _, _ string) error {
	r.synced = append(r.synced, userID)
	return nil
}

func (r *recordingUsers) ToggleSubscription(_ context.Context, channelID, subscriberID string) (bool, error) {
	r.subs = append(r.subs, subscriberID+"->"+channelID)
	return true, nil
}

func (r *recordingUsers) DeleteProfile(context.Context, string) error { return nil }

func TestSeeder_Seed(t *testing.T) {
	fixtures, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	trees := &recordingTrees{}
	users := &recordingUsers{}
	seeder := NewSeeder(trees, users, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, seeder.Seed(context.Background(), fixtures))

	assert.Equal(t, []string{"alice"}, users.synced)
	assert.Equal(t, []string{"bob->alice"}, users.subs)

	require.Len(t, trees.updates, 1)
	update := trees.updates[0]
	assert.Equal(t, "tree-1", update.TreeID)
	assert.Equal(t, "alice", update.EditorID)
	assert.Equal(t, "root-1", update.Root.ID, "the submission keeps the created root")
	assert.Equal(t, "Fork", update.Info.Title)

	assert.Equal(t, []string{"bob"}, trees.favorites)
	assert.Equal(t, 2, trees.views)
}
