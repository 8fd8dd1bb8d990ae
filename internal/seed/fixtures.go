package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	models "branchvid/internal/domain/models/videotree"
	"branchvid/internal/domain/services"
	videoSvc "branchvid/internal/domain/services/videotree"
)

// Fixtures is the content of a seed file
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
	Trees []TreeFixture `yaml:"trees"`
}

// UserFixture is a profile plus the users subscribed to it
type UserFixture struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Picture     string   `yaml:"picture"`
	Subscribers []string `yaml:"subscribers"`
}

// TreeFixture is one video tree. Node ids are assigned on creation.
type TreeFixture struct {
	Creator     string        `yaml:"creator"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Thumbnail   string        `yaml:"thumbnail"`
	Status      models.Status `yaml:"status"`
	Root        NodeFixture   `yaml:"root"`
	FavoritedBy []string      `yaml:"favorited_by"`
	Views       int           `yaml:"views"`
}

// NodeFixture is one segment and the choices that follow it
type NodeFixture struct {
	Name               string        `yaml:"name"`
	Label              string        `yaml:"label"`
	URL                string        `yaml:"url"`
	Duration           float64       `yaml:"duration"`
	SelectionTimeStart float64       `yaml:"selection_time_start"`
	SelectionTimeEnd   float64       `yaml:"selection_time_end"`
	Children           []NodeFixture `yaml:"children"`
}

// LoadFile reads fixtures from a YAML file
func LoadFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes fixtures. Unknown keys are rejected so typos surface early.
func Load(r io.Reader) (*Fixtures, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var fixtures Fixtures
	if err := decoder.Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &fixtures, nil
}

// NodeTree converts the fixture into a submission rooted at rootID. Every
// other node is new, so its id is left empty.
func (n NodeFixture) NodeTree(rootID string) *models.NodeTree {
	root := n.toNodeTree()
	root.ID = rootID
	return root
}

func (n NodeFixture) toNodeTree() *models.NodeTree {
	node := &models.NodeTree{
		VideoNode: models.VideoNode{
			Info: models.NodeInfo{
				Name:               n.Name,
				Label:              n.Label,
				URL:                n.URL,
				Duration:           n.Duration,
				SelectionTimeStart: n.SelectionTimeStart,
				SelectionTimeEnd:   n.SelectionTimeEnd,
			},
		},
		Children: make([]*models.NodeTree, 0, len(n.Children)),
	}
	for _, child := range n.Children {
		node.Children = append(node.Children, child.toNodeTree())
	}
	return node
}

// Seeder creates fixtures through the services, so seeded data passes the
// same validation as API writes
type Seeder struct {
	trees  videoSvc.TreeService
	users  services.UserService
	logger *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(trees videoSvc.TreeService, users services.UserService, logger *slog.Logger) *Seeder {
	return &Seeder{
		trees:  trees,
		users:  users,
		logger: logger,
	}
}

// Seed creates all users, then all trees
func (s *Seeder) Seed(ctx context.Context, fixtures *Fixtures) error {
	for _, u := range fixtures.Users {
		if err := s.users.SyncProfile(ctx, u.ID, u.Name, u.Picture); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		for _, subscriber := range u.Subscribers {
			if _, err := s.users.ToggleSubscription(ctx, u.ID, subscriber); err != nil {
				return fmt.Errorf("seed subscription %s -> %s: %w", subscriber, u.ID, err)
			}
		}
	}

	for i, t := range fixtures.Trees {
		tree, err := s.seedTree(ctx, t)
		if err != nil {
			return fmt.Errorf("seed tree %d (%q): %w", i, t.Title, err)
		}
		s.logger.Info("tree seeded",
			"tree_id", tree.ID,
			"title", tree.Info.Title,
			"is_editing", tree.Info.IsEditing,
		)
	}

	return nil
}

func (s *Seeder) seedTree(ctx context.Context, t TreeFixture) (*models.Tree, error) {
	created, err := s.trees.CreateTree(ctx, t.Creator)
	if err != nil {
		return nil, err
	}

	tree, err := s.trees.UpdateTree(ctx, &videoSvc.UpdateTreeRequest{
		TreeID:   created.ID,
		EditorID: t.Creator,
		Info: models.TreeInfo{
			Title:       t.Title,
			Description: t.Description,
			Thumbnail:   t.Thumbnail,
			Status:      t.Status,
		},
		Root: t.Root.NodeTree(created.Root.ID),
	})
	if err != nil {
		return nil, err
	}

	for _, viewer := range t.FavoritedBy {
		if _, err := s.trees.ToggleFavorite(ctx, tree.ID, viewer); err != nil {
			return nil, fmt.Errorf("favorite by %s: %w", viewer, err)
		}
	}
	for i := 0; i < t.Views; i++ {
		if _, err := s.trees.IncrementViews(ctx, tree.ID); err != nil {
			return nil, fmt.Errorf("views: %w", err)
		}
	}

	return tree, nil
}
