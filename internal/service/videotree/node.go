package videotree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
	videoRepo "branchvid/internal/domain/repositories/videotree"
	"branchvid/internal/domain/services"
	videoSvc "branchvid/internal/domain/services/videotree"
	"branchvid/internal/treeutil"

	"github.com/google/uuid"
)

type nodeService struct {
	nodeRepo   videoRepo.NodeRepository
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewNodeService creates a new node service
func NewNodeService(
	nodeRepo videoRepo.NodeRepository,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) videoSvc.NodeService {
	return &nodeService{
		nodeRepo:   nodeRepo,
		authorizer: authorizer,
		logger:     logger,
	}
}

// CreateRoot persists the empty root of a freshly inserted tree
func (s *nodeService) CreateRoot(ctx context.Context, tree *models.VideoTree) (*models.VideoNode, error) {
	root := models.NewRootNode(tree.RootID, tree.ID, tree.Info.Creator)
	if err := s.nodeRepo.Create(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}

// UpdateByTree reconciles the stored node set of tree with submitted:
// unknown ids are inserted, missing ones deleted, the rest rewritten when
// they changed. The result is re-read and rebuilt, so a reconciliation that
// would leave an unbuildable tree fails. Callers run it inside a transaction
// so that failure rolls every write back.
func (s *nodeService) UpdateByTree(ctx context.Context, tree *models.VideoTree, submitted *models.NodeTree, editorID string) (*models.NodeTree, error) {
	if editorID != tree.Info.Creator {
		return nil, fmt.Errorf("access denied to tree %s: %w", tree.ID, domain.ErrForbidden)
	}
	if submitted == nil {
		return nil, fmt.Errorf("%w: tree has no root", domain.ErrValidation)
	}
	if submitted.ID != tree.RootID {
		return nil, fmt.Errorf("%w: root must be node %s, got %q", domain.ErrValidation, tree.RootID, submitted.ID)
	}

	prepareSubmission(submitted, nil, tree)

	flat, err := treeutil.Flatten(submitted)
	if err != nil {
		return nil, err
	}

	current, err := s.nodeRepo.GetAllByTree(ctx, tree.ID)
	if err != nil {
		return nil, err
	}

	inserts, updates, deletes := diffNodes(current, flat)

	if err := s.nodeRepo.CreateBatch(ctx, inserts); err != nil {
		return nil, err
	}
	if err := s.nodeRepo.UpdateBatch(ctx, updates); err != nil {
		return nil, err
	}
	if err := s.nodeRepo.DeleteByIDs(ctx, tree.ID, deletes); err != nil {
		return nil, err
	}

	stored, err := s.nodeRepo.GetAllByTree(ctx, tree.ID)
	if err != nil {
		return nil, err
	}
	root, err := buildTree(s.logger, tree.ID, stored)
	if err != nil {
		return nil, err
	}

	s.logger.Info("nodes reconciled",
		"tree_id", tree.ID,
		"inserted", len(inserts),
		"updated", len(updates),
		"deleted", len(deletes),
	)

	return root, nil
}

// prepareSubmission stamps ownership on every node and places nodes the
// client has not saved yet: a missing id is generated, and parent and layer
// are taken from the node's position.
func prepareSubmission(node *models.NodeTree, parent *models.NodeTree, tree *models.VideoTree) {
	if node == nil {
		return
	}
	if node.ID == "" {
		node.ID = uuid.NewString()
		if parent != nil {
			parentID := parent.ID
			node.ParentID = &parentID
			node.Layer = parent.Layer + 1
		}
	}
	node.TreeID = tree.ID
	node.Creator = tree.Info.Creator
	for _, child := range node.Children {
		prepareSubmission(child, node, tree)
	}
}

// diffNodes splits a submission against the stored set. Inserts keep
// submission order so sibling order survives a reload.
func diffNodes(current, submitted []models.VideoNode) (inserts, updates []models.VideoNode, deletes []string) {
	stored := make(map[string]models.VideoNode, len(current))
	for _, node := range current {
		stored[node.ID] = node
	}

	kept := make(map[string]struct{}, len(submitted))
	for _, node := range submitted {
		kept[node.ID] = struct{}{}
		old, ok := stored[node.ID]
		if !ok {
			inserts = append(inserts, node)
			continue
		}
		if nodeChanged(old, node) {
			updates = append(updates, node)
		}
	}

	for _, node := range current {
		if _, ok := kept[node.ID]; !ok {
			deletes = append(deletes, node.ID)
		}
	}
	return inserts, updates, deletes
}

func nodeChanged(old, updated models.VideoNode) bool {
	return old.Layer != updated.Layer ||
		!reflect.DeepEqual(old.ParentID, updated.ParentID) ||
		old.Info != updated.Info
}

// GetNode retrieves a single node
func (s *nodeService) GetNode(ctx context.Context, nodeID string) (*models.VideoNode, error) {
	return s.nodeRepo.GetByID(ctx, nodeID)
}

// DeleteByRoot removes the node set of the tree rooted at rootID
func (s *nodeService) DeleteByRoot(ctx context.Context, rootID, ownerID string) error {
	if err := s.authorizer.CanEditNode(ctx, ownerID, rootID); err != nil {
		return err
	}

	deleted, err := s.nodeRepo.DeleteByRoot(ctx, rootID)
	if err != nil {
		return err
	}

	s.logger.Debug("nodes deleted", "root_id", rootID, "count", deleted)
	return nil
}

// DeleteByCreator removes every node owned by ownerID
func (s *nodeService) DeleteByCreator(ctx context.Context, ownerID string) error {
	deleted, err := s.nodeRepo.DeleteByCreator(ctx, ownerID)
	if err != nil {
		return err
	}

	s.logger.Info("nodes deleted for account", "owner_id", ownerID, "count", deleted)
	return nil
}

// buildTree nests a stored node set. Structural failures indicate corrupted
// storage: they are logged with the offending ids and returned as
// *domain.CorruptionError.
func buildTree(logger *slog.Logger, treeID string, nodes []models.VideoNode) (*models.NodeTree, error) {
	root, err := treeutil.Build(nodes)
	if err == nil {
		return root, nil
	}

	corruption := &domain.CorruptionError{TreeID: treeID, Err: err}
	var treeErr *treeutil.TreeError
	if errors.As(err, &treeErr) {
		corruption.Err = treeErr.Kind
		corruption.NodeIDs = treeErr.NodeIDs
	}

	logger.Error("video tree corrupted",
		"tree_id", treeID,
		"node_ids", corruption.NodeIDs,
		"node_count", len(nodes),
		"error", err,
	)
	return nil, corruption
}
