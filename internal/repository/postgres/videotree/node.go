package videotree

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
	videoRepo "branchvid/internal/domain/repositories/videotree"
	"branchvid/internal/repository/postgres"
)

// PostgresNodeRepository implements the NodeRepository interface using PostgreSQL
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new PostgresNodeRepository
func NewNodeRepository(config *postgres.RepositoryConfig) videoRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const nodeColumns = "id, tree_id, parent_id, layer, info, creator_id, created_at, updated_at"

// Create inserts a single node
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.VideoNode) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tree_id, parent_id, layer, info, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		node.ID,
		node.TreeID,
		node.ParentID,
		node.Layer,
		node.Info,
		node.Creator,
	).Scan(&node.CreatedAt, &node.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("node %s already exists", node.ID),
				ResourceType: "node",
				ResourceID:   node.ID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("tree %s: %w", node.TreeID, domain.ErrNotFound)
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// CreateBatch inserts nodes in one multi-row statement, preserving their order
func (r *PostgresNodeRepository) CreateBatch(ctx context.Context, nodes []models.VideoNode) error {
	if len(nodes) == 0 {
		return nil
	}

	values := make([]string, 0, len(nodes))
	args := make([]interface{}, 0, len(nodes)*6)
	for i, node := range nodes {
		base := i * 6
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, node.ID, node.TreeID, node.ParentID, node.Layer, node.Info, node.Creator)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, tree_id, parent_id, layer, info, creator_id)
		VALUES %s
	`, r.tables.Nodes, strings.Join(values, ", "))

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, args...); err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("create nodes: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create nodes: %w", err)
	}

	r.logger.Debug("nodes created", "tree_id", nodes[0].TreeID, "count", len(nodes))
	return nil
}

// UpdateBatch rewrites parent, layer and info of existing nodes. Every node
// must already belong to its tree.
func (r *PostgresNodeRepository) UpdateBatch(ctx context.Context, nodes []models.VideoNode) error {
	if len(nodes) == 0 {
		return nil
	}

	values := make([]string, 0, len(nodes))
	args := make([]interface{}, 0, len(nodes)*5)
	for i, node := range nodes {
		base := i * 5
		values = append(values, fmt.Sprintf("($%d::uuid, $%d::uuid, $%d::uuid, $%d::int, $%d::jsonb)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args, node.ID, node.TreeID, node.ParentID, node.Layer, node.Info)
	}

	query := fmt.Sprintf(`
		UPDATE %s n
		SET parent_id = v.parent_id,
			layer = v.layer,
			info = v.info,
			updated_at = NOW()
		FROM (VALUES %s) AS v(id, tree_id, parent_id, layer, info)
		WHERE n.id = v.id AND n.tree_id = v.tree_id
	`, r.tables.Nodes, strings.Join(values, ", "))

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update nodes: %w", err)
	}

	if result.RowsAffected() != int64(len(nodes)) {
		return fmt.Errorf("update nodes: %d of %d nodes in tree %s: %w",
			result.RowsAffected(), len(nodes), nodes[0].TreeID, domain.ErrNotFound)
	}

	return nil
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.VideoNode, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, nodeColumns, r.tables.Nodes)

	var node models.VideoNode
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.TreeID,
		&node.ParentID,
		&node.Layer,
		&node.Info,
		&node.Creator,
		&node.CreatedAt,
		&node.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// GetAllByTree retrieves every node of a tree in insertion order
func (r *PostgresNodeRepository) GetAllByTree(ctx context.Context, treeID string) ([]models.VideoNode, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tree_id = $1 ORDER BY seq`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, treeID)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]models.VideoNode, 0)
	for rows.Next() {
		var node models.VideoNode
		if err := rows.Scan(
			&node.ID,
			&node.TreeID,
			&node.ParentID,
			&node.Layer,
			&node.Info,
			&node.Creator,
			&node.CreatedAt,
			&node.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

// DeleteByIDs deletes the given nodes of a tree
func (r *PostgresNodeRepository) DeleteByIDs(ctx context.Context, treeID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE tree_id = $1 AND id = ANY($2::uuid[])`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, treeID, ids); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}

	return nil
}

// DeleteByRoot deletes the node set of the tree whose root is rootID.
// Histories pointing at those nodes cascade.
func (r *PostgresNodeRepository) DeleteByRoot(ctx context.Context, rootID string) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %[1]s
		WHERE tree_id = (SELECT tree_id FROM %[1]s WHERE id = $1 AND parent_id IS NULL)
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, rootID)
	if err != nil {
		return 0, fmt.Errorf("delete nodes by root: %w", err)
	}

	if result.RowsAffected() == 0 {
		return 0, fmt.Errorf("root node %s: %w", rootID, domain.ErrNotFound)
	}

	return result.RowsAffected(), nil
}

// DeleteByCreator deletes every node owned by creatorID
func (r *PostgresNodeRepository) DeleteByCreator(ctx context.Context, creatorID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE creator_id = $1`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, creatorID)
	if err != nil {
		return 0, fmt.Errorf("delete nodes by creator: %w", err)
	}

	return result.RowsAffected(), nil
}
