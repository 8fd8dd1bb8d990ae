package videotree

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
	"branchvid/internal/domain/repositories"
	videoRepo "branchvid/internal/domain/repositories/videotree"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the PostgreSQL schema: same foreign
// key cascades, same uniqueness rules.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	trees     map[string]models.VideoTree
	nodes     map[string]storedNode
	favorites map[string][]favorite
	histories map[string]models.History // key: user|tree
	users     map[string]models.CreatorProfile
	subs      map[string]int64
	seq       int64
}

type storedNode struct {
	node models.VideoNode
	seq  int64
}

type favorite struct {
	userID string
	at     time.Time
}

func newMemStore() *memStore {
	return &memStore{
		trees:     make(map[string]models.VideoTree),
		nodes:     make(map[string]storedNode),
		favorites: make(map[string][]favorite),
		histories: make(map[string]models.History),
		users:     make(map[string]models.CreatorProfile),
		subs:      make(map[string]int64),
	}
}

func historyKey(userID, treeID string) string { return userID + "|" + treeID }

// snapshot copies every table; values are copied, slices are cloned
func (m *memStore) snapshot() *memStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := newMemStore()
	for k, v := range m.trees {
		c.trees[k] = v
	}
	for k, v := range m.nodes {
		c.nodes[k] = v
	}
	for k, v := range m.favorites {
		c.favorites[k] = append([]favorite(nil), v...)
	}
	for k, v := range m.histories {
		c.histories[k] = v
	}
	c.seq = m.seq
	return c
}

func (m *memStore) restore(c *memStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees, m.nodes, m.favorites, m.histories, m.seq = c.trees, c.nodes, c.favorites, c.histories, c.seq
}

// deleteNodesLocked removes nodes and the histories pointing at them
func (m *memStore) deleteNodesLocked(ids map[string]struct{}) {
	for id := range ids {
		delete(m.nodes, id)
	}
	for key, h := range m.histories {
		if _, gone := ids[h.ActiveNodeID]; gone {
			delete(m.histories, key)
		}
	}
}

func (m *memStore) deleteTreeLocked(treeID string) {
	delete(m.trees, treeID)
	delete(m.favorites, treeID)
	ids := make(map[string]struct{})
	for id, sn := range m.nodes {
		if sn.node.TreeID == treeID {
			ids[id] = struct{}{}
		}
	}
	m.deleteNodesLocked(ids)
	for key, h := range m.histories {
		if h.TreeID == treeID {
			delete(m.histories, key)
		}
	}
}

func (m *memStore) favoriteIDsLocked(treeID string) []string {
	ids := make([]string, 0, len(m.favorites[treeID]))
	for _, f := range m.favorites[treeID] {
		ids = append(ids, f.userID)
	}
	return ids
}

// --- transactions ---

type memTxKey struct{}

type memTxManager struct{ store *memStore }

// ExecTx serializes transactions and restores the snapshot on error
func (tm *memTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	before := tm.store.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		tm.store.restore(before)
		return err
	}
	return nil
}

// --- nodes ---

type memNodeRepo struct{ store *memStore }

func (r *memNodeRepo) Create(ctx context.Context, node *models.VideoNode) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.createLocked(node)
}

func (r *memNodeRepo) createLocked(node *models.VideoNode) error {
	if _, ok := r.store.nodes[node.ID]; ok {
		return &domain.ConflictError{Message: "node exists", ResourceType: "node", ResourceID: node.ID}
	}
	if _, ok := r.store.trees[node.TreeID]; !ok {
		return fmt.Errorf("tree %s: %w", node.TreeID, domain.ErrNotFound)
	}
	now := time.Now()
	node.CreatedAt, node.UpdatedAt = now, now
	r.store.seq++
	r.store.nodes[node.ID] = storedNode{node: *node, seq: r.store.seq}
	return nil
}

func (r *memNodeRepo) CreateBatch(ctx context.Context, nodes []models.VideoNode) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range nodes {
		if err := r.createLocked(&nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *memNodeRepo) UpdateBatch(ctx context.Context, nodes []models.VideoNode) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, node := range nodes {
		sn, ok := r.store.nodes[node.ID]
		if !ok || sn.node.TreeID != node.TreeID {
			return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
		}
		sn.node.ParentID = node.ParentID
		sn.node.Layer = node.Layer
		sn.node.Info = node.Info
		sn.node.UpdatedAt = time.Now()
		r.store.nodes[node.ID] = sn
	}
	return nil
}

func (r *memNodeRepo) GetByID(ctx context.Context, id string) (*models.VideoNode, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sn, ok := r.store.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	node := sn.node
	return &node, nil
}

func (r *memNodeRepo) GetAllByTree(ctx context.Context, treeID string) ([]models.VideoNode, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.treeNodesLocked(treeID), nil
}

func (m *memStore) treeNodesLocked(treeID string) []models.VideoNode {
	var stored []storedNode
	for _, sn := range m.nodes {
		if sn.node.TreeID == treeID {
			stored = append(stored, sn)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })
	nodes := make([]models.VideoNode, 0, len(stored))
	for _, sn := range stored {
		nodes = append(nodes, sn.node)
	}
	return nodes
}

func (r *memNodeRepo) DeleteByIDs(ctx context.Context, treeID string, ids []string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	set := make(map[string]struct{})
	for _, id := range ids {
		if sn, ok := r.store.nodes[id]; ok && sn.node.TreeID == treeID {
			set[id] = struct{}{}
		}
	}
	r.store.deleteNodesLocked(set)
	return nil
}

func (r *memNodeRepo) DeleteByRoot(ctx context.Context, rootID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	root, ok := r.store.nodes[rootID]
	if !ok || root.node.ParentID != nil {
		return 0, fmt.Errorf("root node %s: %w", rootID, domain.ErrNotFound)
	}
	set := make(map[string]struct{})
	for id, sn := range r.store.nodes {
		if sn.node.TreeID == root.node.TreeID {
			set[id] = struct{}{}
		}
	}
	r.store.deleteNodesLocked(set)
	return int64(len(set)), nil
}

func (r *memNodeRepo) DeleteByCreator(ctx context.Context, creatorID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	set := make(map[string]struct{})
	for id, sn := range r.store.nodes {
		if sn.node.Creator == creatorID {
			set[id] = struct{}{}
		}
	}
	r.store.deleteNodesLocked(set)
	return int64(len(set)), nil
}

// --- trees ---

type memTreeRepo struct{ store *memStore }

func (r *memTreeRepo) Create(ctx context.Context, tree *models.VideoTree) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.trees[tree.ID]; ok {
		return &domain.ConflictError{Message: "tree exists", ResourceType: "tree", ResourceID: tree.ID}
	}
	// Distinct timestamps keep recency ordering deterministic
	now := time.Now().Add(time.Duration(len(r.store.trees)) * time.Millisecond)
	tree.CreatedAt, tree.UpdatedAt = now, now
	stored := *tree
	stored.Data.Favorites = nil
	r.store.trees[tree.ID] = stored
	return nil
}

func (r *memTreeRepo) GetByID(ctx context.Context, id string) (*models.VideoTree, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tree, ok := r.store.trees[id]
	if !ok {
		return nil, fmt.Errorf("video tree %s: %w", id, domain.ErrNotFound)
	}
	tree.Data.Favorites = r.store.favoriteIDsLocked(id)
	return &tree, nil
}

func (r *memTreeRepo) GetForUpdate(ctx context.Context, id string) (*models.VideoTree, error) {
	return r.GetByID(ctx, id)
}

func (r *memTreeRepo) UpdateInfo(ctx context.Context, tree *models.VideoTree) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.trees[tree.ID]
	if !ok {
		return fmt.Errorf("video tree %s: %w", tree.ID, domain.ErrNotFound)
	}
	creator := stored.Info.Creator
	stored.Info = tree.Info
	stored.Info.Creator = creator
	stored.UpdatedAt = time.Now()
	r.store.trees[tree.ID] = stored
	tree.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memTreeRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.trees[id]; !ok {
		return fmt.Errorf("video tree %s: %w", id, domain.ErrNotFound)
	}
	r.store.deleteTreeLocked(id)
	return nil
}

func (r *memTreeRepo) DeleteByCreator(ctx context.Context, creatorID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for id, tree := range r.store.trees {
		if tree.Info.Creator == creatorID {
			r.store.deleteTreeLocked(id)
			n++
		}
	}
	return n, nil
}

// ToggleFavorite mirrors the Postgres contract: callers hold the tree lock
func (r *memTreeRepo) ToggleFavorite(ctx context.Context, treeID, userID string) (bool, error) {
	if ctx.Value(memTxKey{}) == nil {
		return false, fmt.Errorf("toggle favorite on %s outside a transaction", treeID)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.trees[treeID]; !ok {
		return false, fmt.Errorf("video tree %s: %w", treeID, domain.ErrNotFound)
	}
	favs := r.store.favorites[treeID]
	for i, f := range favs {
		if f.userID == userID {
			r.store.favorites[treeID] = append(favs[:i:i], favs[i+1:]...)
			return false, nil
		}
	}
	r.store.favorites[treeID] = append(favs, favorite{userID: userID, at: time.Now()})
	return true, nil
}

func (r *memTreeRepo) IncrementViews(ctx context.Context, treeID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tree, ok := r.store.trees[treeID]
	if !ok {
		return 0, fmt.Errorf("video tree %s: %w", treeID, domain.ErrNotFound)
	}
	tree.Data.Views++
	r.store.trees[treeID] = tree
	return tree.Data.Views, nil
}

func (r *memTreeRepo) FindOne(ctx context.Context, pipeline videoRepo.Pipeline) (*videoRepo.TreeRecord, error) {
	records, _, err := r.run(pipeline, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("video tree: %w", domain.ErrNotFound)
	}
	return &records[0], nil
}

func (r *memTreeRepo) FindPage(ctx context.Context, pipeline videoRepo.Pipeline, page models.Pagination) ([]videoRepo.TreeRecord, int64, error) {
	return r.run(pipeline, &page)
}

// candidate is a matched tree with its ordering keys
type candidate struct {
	tree   models.VideoTree
	score  *float64
	sortAt time.Time
}

// run interprets a pipeline the way the SQL compiler does: match stages
// filter and set the sort key, attach stages fill the record.
func (r *memTreeRepo) run(pipeline videoRepo.Pipeline, page *models.Pagination) ([]videoRepo.TreeRecord, int64, error) {
	if err := pipeline.Validate(); err != nil {
		return nil, 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []candidate
	for _, tree := range r.store.trees {
		c := candidate{tree: tree, sortAt: tree.CreatedAt}
		if r.matchLocked(&c, pipeline) {
			matched = append(matched, c)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.score != nil && b.score != nil && *a.score != *b.score {
			return *a.score > *b.score
		}
		if !a.sortAt.Equal(b.sortAt) {
			return a.sortAt.After(b.sortAt)
		}
		return a.tree.ID < b.tree.ID
	})

	total := int64(len(matched))
	if page != nil {
		start := page.Skip()
		if start > len(matched) {
			start = len(matched)
		}
		end := start + page.Limit()
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	records := make([]videoRepo.TreeRecord, 0, len(matched))
	for _, c := range matched {
		records = append(records, r.attachLocked(c, pipeline))
	}
	return records, total, nil
}

func (r *memTreeRepo) matchLocked(c *candidate, pipeline videoRepo.Pipeline) bool {
	tree := c.tree
	for _, stage := range pipeline {
		switch stage.Kind {
		case videoRepo.StageMatchID:
			if tree.ID != stage.Value {
				return false
			}
		case videoRepo.StageMatchIDs:
			found := false
			for _, id := range stage.Values {
				found = found || id == tree.ID
			}
			if !found {
				return false
			}
		case videoRepo.StageMatchCreator:
			if tree.Info.Creator != stage.Value {
				return false
			}
		case videoRepo.StageListable:
			if tree.Info.Status != models.StatusPublic || tree.Info.IsEditing {
				return false
			}
		case videoRepo.StageFavoritedBy:
			found := false
			for _, f := range r.store.favorites[tree.ID] {
				if f.userID == stage.Value {
					found, c.sortAt = true, f.at
				}
			}
			if !found {
				return false
			}
		case videoRepo.StageWatchedBy:
			h, ok := r.store.histories[historyKey(stage.Value, tree.ID)]
			if !ok {
				return false
			}
			c.sortAt = h.UpdatedAt
		case videoRepo.StageSearch:
			score := 0.0
			text := strings.ToLower(tree.Info.Title + " " + tree.Info.Description)
			for _, word := range strings.Fields(strings.ToLower(stage.Value)) {
				score += float64(strings.Count(text, word))
			}
			if score == 0 {
				return false
			}
			c.score = &score
		}
	}
	return true
}

func (r *memTreeRepo) attachLocked(c candidate, pipeline videoRepo.Pipeline) videoRepo.TreeRecord {
	record := videoRepo.TreeRecord{VideoTree: c.tree, Score: c.score}
	record.Data.Favorites = r.store.favoriteIDsLocked(c.tree.ID)

	nodes := r.store.treeNodesLocked(c.tree.ID)
	for _, stage := range pipeline {
		switch stage.Kind {
		case videoRepo.StageAttachNodes:
			record.Nodes = nodes
		case videoRepo.StageAttachRoot:
			if sn, ok := r.store.nodes[c.tree.RootID]; ok {
				root := sn.node
				record.Root = &root
			}
		case videoRepo.StageAttachCreator:
			profile := r.store.users[c.tree.Info.Creator]
			profile.ID = c.tree.Info.Creator
			profile.Subscribers = r.store.subs[c.tree.Info.Creator]
			record.Creator = &profile
		case videoRepo.StageAttachFavorite:
			for _, f := range r.store.favorites[c.tree.ID] {
				record.IsFavorited = record.IsFavorited || f.userID == stage.Value
			}
		case videoRepo.StageAttachHistory:
			if h, ok := r.store.histories[historyKey(stage.Value, c.tree.ID)]; ok {
				if sn, ok := r.store.nodes[h.ActiveNodeID]; ok && sn.node.TreeID == c.tree.ID {
					record.History = &h
				}
			}
		}
	}
	return record
}

// --- histories ---

type memHistoryRepo struct{ store *memStore }

func (r *memHistoryRepo) Upsert(ctx context.Context, history *models.History) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sn, ok := r.store.nodes[history.ActiveNodeID]
	if !ok || sn.node.TreeID != history.TreeID {
		return fmt.Errorf("node %s in video tree %s: %w", history.ActiveNodeID, history.TreeID, domain.ErrNotFound)
	}

	key := historyKey(history.UserID, history.TreeID)
	now := time.Now()
	if existing, ok := r.store.histories[key]; ok {
		history.ID = existing.ID
		history.CreatedAt = existing.CreatedAt
	} else {
		history.ID = uuid.NewString()
		history.CreatedAt = now
	}
	history.UpdatedAt = now
	r.store.histories[key] = *history
	return nil
}

func (r *memHistoryRepo) GetByUserAndTree(ctx context.Context, userID, treeID string) (*models.History, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.histories[historyKey(userID, treeID)]
	if !ok {
		return nil, fmt.Errorf("history for video tree %s: %w", treeID, domain.ErrNotFound)
	}
	return &h, nil
}

func (r *memHistoryRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for key, h := range r.store.histories {
		if h.UserID == userID {
			delete(r.store.histories, key)
			n++
		}
	}
	return n, nil
}
