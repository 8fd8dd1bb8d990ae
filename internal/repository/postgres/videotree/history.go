package videotree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
	videoRepo "branchvid/internal/domain/repositories/videotree"
	"branchvid/internal/repository/postgres"
)

// PostgresHistoryRepository implements the HistoryRepository interface using PostgreSQL
type PostgresHistoryRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewHistoryRepository creates a new PostgresHistoryRepository
func NewHistoryRepository(config *postgres.RepositoryConfig) videoRepo.HistoryRepository {
	return &PostgresHistoryRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Upsert writes the viewer's position in one statement. Nothing is written
// when the active node does not belong to the tree.
func (r *PostgresHistoryRepository) Upsert(ctx context.Context, history *models.History) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (user_id, tree_id, active_node_id, progress, total_progress, is_ended)
		SELECT $1::text, $2::uuid, $3::uuid, $4::float8, $5::float8, $6::bool
		WHERE EXISTS (SELECT 1 FROM %[2]s WHERE id = $3::uuid AND tree_id = $2::uuid)
		ON CONFLICT (user_id, tree_id) DO UPDATE
		SET active_node_id = EXCLUDED.active_node_id,
			progress = EXCLUDED.progress,
			total_progress = EXCLUDED.total_progress,
			is_ended = EXCLUDED.is_ended,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, r.tables.Histories, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		history.UserID,
		history.TreeID,
		history.ActiveNodeID,
		history.Progress,
		history.TotalProgress,
		history.IsEnded,
	).Scan(&history.ID, &history.CreatedAt, &history.UpdatedAt)

	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("node %s in video tree %s: %w", history.ActiveNodeID, history.TreeID, domain.ErrNotFound)
		}
		// Node or tree deleted between the check and the write
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("video tree %s: %w", history.TreeID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert history: %w", err)
	}

	return nil
}

// GetByUserAndTree retrieves a viewer's record for one tree
func (r *PostgresHistoryRepository) GetByUserAndTree(ctx context.Context, userID, treeID string) (*models.History, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, tree_id, active_node_id, progress, total_progress, is_ended, created_at, updated_at
		FROM %s
		WHERE user_id = $1 AND tree_id = $2
	`, r.tables.Histories)

	var history models.History
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID, treeID).Scan(
		&history.ID,
		&history.UserID,
		&history.TreeID,
		&history.ActiveNodeID,
		&history.Progress,
		&history.TotalProgress,
		&history.IsEnded,
		&history.CreatedAt,
		&history.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("history for video tree %s: %w", treeID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get history: %w", err)
	}

	return &history, nil
}

// DeleteByUser removes every record of a viewer
func (r *PostgresHistoryRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.tables.Histories)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete histories: %w", err)
	}

	return result.RowsAffected(), nil
}
