package videotree

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
	"branchvid/internal/domain/repositories"
	videoRepo "branchvid/internal/domain/repositories/videotree"
	"branchvid/internal/domain/services"
	videoSvc "branchvid/internal/domain/services/videotree"
	"branchvid/internal/treeutil"

	"github.com/google/uuid"
)

type treeService struct {
	treeRepo    videoRepo.TreeRepository
	nodeService videoSvc.NodeService
	historySvc  videoSvc.HistoryService
	txManager   repositories.TransactionManager
	authorizer  services.ResourceAuthorizer
	logger      *slog.Logger
}

// NewTreeService creates a new video tree service
func NewTreeService(
	treeRepo videoRepo.TreeRepository,
	nodeService videoSvc.NodeService,
	historySvc videoSvc.HistoryService,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) videoSvc.TreeService {
	return &treeService{
		treeRepo:    treeRepo,
		nodeService: nodeService,
		historySvc:  historySvc,
		txManager:   txManager,
		authorizer:  authorizer,
		logger:      logger,
	}
}

// CreateTree creates a tree and its empty root in one transaction
func (s *treeService) CreateTree(ctx context.Context, ownerID string) (*models.Tree, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("create video tree: %w", domain.ErrUnauthorized)
	}

	now := time.Now()
	tree := &models.VideoTree{
		ID:     uuid.NewString(),
		RootID: uuid.NewString(),
		Info: models.TreeInfo{
			Creator:   ownerID,
			Status:    models.StatusPublic,
			IsEditing: true, // untitled, root has no content
		},
		Data:      models.TreeData{Favorites: []string{}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	var root *models.VideoNode
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// Row first: nodes reference their tree
		if err := s.treeRepo.Create(txCtx, tree); err != nil {
			return err
		}

		var err error
		root, err = s.nodeService.CreateRoot(txCtx, tree)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("video tree created",
		"id", tree.ID,
		"root_id", tree.RootID,
		"creator", ownerID,
	)

	return toTree(tree, &models.NodeTree{VideoNode: *root, Children: []*models.NodeTree{}}), nil
}

// UpdateTree reconciles a submitted tree with storage. The tree row stays
// locked until commit, so concurrent edits of one tree apply one after the
// other and each sees its predecessor's node set.
func (s *treeService) UpdateTree(ctx context.Context, req *videoSvc.UpdateTreeRequest) (*models.Tree, error) {
	sanitizeSubmission(&req.Info, req.Root)
	if err := validateUpdateTreeRequest(req); err != nil {
		return nil, validationError(err)
	}

	var (
		tree *models.VideoTree
		root *models.NodeTree
	)
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		tree, err = s.treeRepo.GetForUpdate(txCtx, req.TreeID)
		if err != nil {
			return err
		}

		if req.EditorID != tree.Info.Creator {
			return fmt.Errorf("access denied to tree %s: %w", req.TreeID, domain.ErrForbidden)
		}
		if req.Info.Creator != "" && req.Info.Creator != tree.Info.Creator {
			return fmt.Errorf("creator of tree %s cannot change: %w", req.TreeID, domain.ErrForbidden)
		}

		root, err = s.nodeService.UpdateByTree(txCtx, tree, req.Root, req.EditorID)
		if err != nil {
			return err
		}

		tree.Info.Title = req.Info.Title
		tree.Info.Description = req.Info.Description
		tree.Info.Thumbnail = req.Info.Thumbnail
		if req.Info.Status != "" {
			tree.Info.Status = req.Info.Status
		}
		tree.Info.IsEditing = treeutil.IsEditing(tree.Info.Title, root)

		return s.treeRepo.UpdateInfo(txCtx, tree)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("video tree updated",
		"id", tree.ID,
		"status", tree.Info.Status,
		"is_editing", tree.Info.IsEditing,
		"nodes", treeutil.Count(root),
	)

	return toTree(tree, root), nil
}

// DeleteTree removes a tree: nodes first, then the tree row. Favorites and
// histories of the tree cascade with it.
func (s *treeService) DeleteTree(ctx context.Context, treeID, requesterID string) error {
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		tree, err := s.treeRepo.GetForUpdate(txCtx, treeID)
		if err != nil {
			return err
		}
		if err := s.authorizer.CanEditTree(txCtx, requesterID, treeID); err != nil {
			return err
		}

		if err := s.nodeService.DeleteByRoot(txCtx, tree.RootID, requesterID); err != nil {
			return err
		}
		return s.treeRepo.Delete(txCtx, treeID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("video tree deleted", "id", treeID, "requester", requesterID)
	return nil
}

// GetTree returns the full tree to its creator
func (s *treeService) GetTree(ctx context.Context, treeID, requesterID string) (*models.Tree, error) {
	record, root, err := s.retrieve(ctx, treeID, requesterID, visibleToOwner)
	if err != nil {
		return nil, err
	}
	return toTree(&record.VideoTree, root), nil
}

// GetClientTree returns the tree enriched for a viewer, who may be anonymous
func (s *treeService) GetClientTree(ctx context.Context, treeID, viewerID string) (*models.ClientTree, error) {
	record, root, err := s.retrieve(ctx, treeID, viewerID, visibleToClient)
	if err != nil {
		return nil, err
	}

	return &models.ClientTree{
		Tree:        *toTree(&record.VideoTree, root),
		Creator:     record.Creator,
		IsFavorited: record.IsFavorited,
		History:     record.History,
	}, nil
}

// visibility decides who may read a single tree
type visibility int

const (
	// visibleToOwner admits only the creator (editor view)
	visibleToOwner visibility = iota
	// visibleToClient admits anyone to finished public trees, and only the
	// creator to private, draft or unfinished ones
	visibleToClient
)

// retrieve is the single read path behind GetTree and GetClientTree: one
// pipeline fetches metadata with the full node set, the policy is applied,
// then the nodes are nested.
func (s *treeService) retrieve(ctx context.Context, treeID, viewerID string, policy visibility) (*videoRepo.TreeRecord, *models.NodeTree, error) {
	pipeline := videoRepo.Pipeline{
		videoRepo.MatchID(treeID),
		videoRepo.AttachNodes(),
	}
	if policy == visibleToClient {
		pipeline = append(pipeline, videoRepo.AttachCreator())
		pipeline = append(pipeline, viewerStages(viewerID)...)
	}

	record, err := s.treeRepo.FindOne(ctx, pipeline)
	if err != nil {
		return nil, nil, err
	}

	if !canView(&record.VideoTree, viewerID, policy) {
		return nil, nil, fmt.Errorf("access denied to tree %s: %w", treeID, domain.ErrForbidden)
	}

	root, err := buildTree(s.logger, record.ID, record.Nodes)
	if err != nil {
		return nil, nil, err
	}
	return record, root, nil
}

func canView(tree *models.VideoTree, viewerID string, policy visibility) bool {
	isCreator := viewerID != "" && viewerID == tree.Info.Creator
	if isCreator {
		return true
	}
	if policy == visibleToOwner {
		return false
	}
	return tree.Info.Status == models.StatusPublic && !tree.Info.IsEditing
}

// viewerStages enriches results with the viewer's own state. Anonymous
// viewers get none.
func viewerStages(viewerID string) []videoRepo.Stage {
	if viewerID == "" {
		return nil
	}
	return []videoRepo.Stage{
		videoRepo.AttachFavorite(viewerID),
		videoRepo.AttachHistory(viewerID),
	}
}

// ListByCreator lists all trees of the requester, including unfinished ones
func (s *treeService) ListByCreator(ctx context.Context, req *videoSvc.ListRequest) (*models.ListResult, error) {
	if req.ViewerID == "" {
		return nil, fmt.Errorf("list own video trees: %w", domain.ErrUnauthorized)
	}
	return s.list(ctx, req, videoRepo.MatchCreator(req.ViewerID))
}

// ListPublic lists listable trees, ranked by relevance when a keyword is set
func (s *treeService) ListPublic(ctx context.Context, req *videoSvc.SearchRequest) (*models.ListResult, error) {
	if keyword := strings.TrimSpace(req.Keyword); keyword != "" {
		return s.list(ctx, &req.ListRequest, videoRepo.Listable(), videoRepo.Search(keyword))
	}
	return s.list(ctx, &req.ListRequest, videoRepo.Listable())
}

// ListByChannel lists listable trees of one creator
func (s *treeService) ListByChannel(ctx context.Context, channelID string, req *videoSvc.ListRequest) (*models.ListResult, error) {
	if channelID == "" {
		return nil, validationError(fmt.Errorf("channel id is required"))
	}
	return s.list(ctx, req, videoRepo.MatchCreator(channelID), videoRepo.Listable())
}

// ListByIDs lists the listable trees among ids
func (s *treeService) ListByIDs(ctx context.Context, ids []string, req *videoSvc.ListRequest) (*models.ListResult, error) {
	if err := validateIDs(ids); err != nil {
		return nil, validationError(err)
	}
	return s.list(ctx, req, videoRepo.MatchIDs(ids), videoRepo.Listable())
}

// ListFavorites lists listable trees the viewer favorited, latest first
func (s *treeService) ListFavorites(ctx context.Context, req *videoSvc.ListRequest) (*models.ListResult, error) {
	if req.ViewerID == "" {
		return nil, fmt.Errorf("list favorites: %w", domain.ErrUnauthorized)
	}
	return s.list(ctx, req, videoRepo.FavoritedBy(req.ViewerID), videoRepo.Listable())
}

// ListWatched lists listable trees the viewer has progress in, most
// recently watched first
func (s *treeService) ListWatched(ctx context.Context, req *videoSvc.ListRequest) (*models.ListResult, error) {
	if req.ViewerID == "" {
		return nil, fmt.Errorf("list watched: %w", domain.ErrUnauthorized)
	}
	return s.list(ctx, req, videoRepo.WatchedBy(req.ViewerID), videoRepo.Listable())
}

// list runs the shared listing pipeline: the given match stages, then the
// root node, creator and viewer state of each tree on the page.
func (s *treeService) list(ctx context.Context, req *videoSvc.ListRequest, matches ...videoRepo.Stage) (*models.ListResult, error) {
	if err := normalizePagination(&req.Pagination); err != nil {
		return nil, validationError(err)
	}

	pipeline := append(videoRepo.Pipeline{}, matches...)
	pipeline = append(pipeline, videoRepo.AttachRoot(), videoRepo.AttachCreator())
	pipeline = append(pipeline, viewerStages(req.ViewerID)...)

	records, total, err := s.treeRepo.FindPage(ctx, pipeline, req.Pagination)
	if err != nil {
		return nil, err
	}

	videos := make([]models.ListItem, 0, len(records))
	for i := range records {
		videos = append(videos, toListItem(&records[i]))
	}

	return &models.ListResult{Videos: videos, Count: total}, nil
}

// ToggleFavorite flips the viewer's favorite and reports the new state.
// A retried request flips it back. Toggles on one tree are serialized on
// the tree row so two requests of the same viewer always alternate.
func (s *treeService) ToggleFavorite(ctx context.Context, treeID, viewerID string) (bool, error) {
	if viewerID == "" {
		return false, fmt.Errorf("toggle favorite: %w", domain.ErrUnauthorized)
	}

	var favorited bool
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.treeRepo.GetForUpdate(txCtx, treeID); err != nil {
			return err
		}
		var err error
		favorited, err = s.treeRepo.ToggleFavorite(txCtx, treeID, viewerID)
		return err
	})
	if err != nil {
		return false, err
	}

	s.logger.Debug("favorite toggled", "tree_id", treeID, "viewer", viewerID, "favorited", favorited)
	return favorited, nil
}

// IncrementViews adds one view
func (s *treeService) IncrementViews(ctx context.Context, treeID string) (int64, error) {
	return s.treeRepo.IncrementViews(ctx, treeID)
}

// DeleteByCreator removes an account's history, nodes and trees. Histories
// of other viewers on those trees cascade with the trees.
func (s *treeService) DeleteByCreator(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("delete account videos: %w", domain.ErrUnauthorized)
	}

	var trees int64
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.historySvc.DeleteByViewer(txCtx, ownerID); err != nil {
			return err
		}
		if err := s.nodeService.DeleteByCreator(txCtx, ownerID); err != nil {
			return err
		}
		var err error
		trees, err = s.treeRepo.DeleteByCreator(txCtx, ownerID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("video trees deleted for account", "owner_id", ownerID, "count", trees)
	return nil
}

func toTree(tree *models.VideoTree, root *models.NodeTree) *models.Tree {
	data := tree.Data
	if data.Favorites == nil {
		data.Favorites = []string{}
	}
	return &models.Tree{
		ID:        tree.ID,
		Root:      root,
		Info:      tree.Info,
		Data:      data,
		CreatedAt: tree.CreatedAt,
		UpdatedAt: tree.UpdatedAt,
	}
}

func toListItem(record *videoRepo.TreeRecord) models.ListItem {
	data := record.Data
	if data.Favorites == nil {
		data.Favorites = []string{}
	}
	return models.ListItem{
		ID:          record.ID,
		Root:        record.Root,
		Info:        record.Info,
		Data:        data,
		Creator:     record.Creator,
		IsFavorited: record.IsFavorited,
		History:     record.History,
		Score:       record.Score,
	}
}
