package videotree

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"branchvid/internal/domain"
	models "branchvid/internal/domain/models/videotree"
	videoRepo "branchvid/internal/domain/repositories/videotree"
	"branchvid/internal/repository/postgres"
)

// PostgresTreeRepository implements the TreeRepository interface using PostgreSQL
type PostgresTreeRepository struct {
	pool     *pgxpool.Pool
	tables   *postgres.TableNames
	logger   *slog.Logger
	language string
}

// NewTreeRepository creates a new PostgresTreeRepository
func NewTreeRepository(config *postgres.RepositoryConfig) videoRepo.TreeRepository {
	language := config.SearchLanguage
	if language == "" {
		language = "simple"
	}
	return &PostgresTreeRepository{
		pool:     config.Pool,
		tables:   config.Tables,
		logger:   config.Logger,
		language: language,
	}
}

// Create inserts tree metadata
func (r *PostgresTreeRepository) Create(ctx context.Context, tree *models.VideoTree) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, root_id, title, description, thumbnail, creator_id, status, is_editing)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING views, created_at, updated_at
	`, r.tables.Trees)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		tree.ID,
		tree.RootID,
		tree.Info.Title,
		tree.Info.Description,
		tree.Info.Thumbnail,
		tree.Info.Creator,
		tree.Info.Status,
		tree.Info.IsEditing,
	).Scan(&tree.Data.Views, &tree.CreatedAt, &tree.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("video tree %s already exists", tree.ID),
				ResourceType: "tree",
				ResourceID:   tree.ID,
			}
		}
		return fmt.Errorf("create video tree: %w", err)
	}

	if tree.Data.Favorites == nil {
		tree.Data.Favorites = []string{}
	}
	return nil
}

// GetByID retrieves tree metadata by ID
func (r *PostgresTreeRepository) GetByID(ctx context.Context, id string) (*models.VideoTree, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate retrieves tree metadata and locks the row. Must be called
// inside a transaction.
func (r *PostgresTreeRepository) GetForUpdate(ctx context.Context, id string) (*models.VideoTree, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *PostgresTreeRepository) get(ctx context.Context, id, lock string) (*models.VideoTree, error) {
	query := fmt.Sprintf(`
		SELECT id, root_id, title, description, thumbnail, creator_id, status, is_editing, views, created_at, updated_at
		FROM %s
		WHERE id = $1
		%s
	`, r.tables.Trees, lock)

	var tree models.VideoTree
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&tree.ID,
		&tree.RootID,
		&tree.Info.Title,
		&tree.Info.Description,
		&tree.Info.Thumbnail,
		&tree.Info.Creator,
		&tree.Info.Status,
		&tree.Info.IsEditing,
		&tree.Data.Views,
		&tree.CreatedAt,
		&tree.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("video tree %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get video tree: %w", err)
	}

	favorites, err := r.favorites(ctx, id)
	if err != nil {
		return nil, err
	}
	tree.Data.Favorites = favorites

	return &tree, nil
}

func (r *PostgresTreeRepository) favorites(ctx context.Context, treeID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT user_id FROM %s WHERE tree_id = $1 ORDER BY created_at`, r.tables.Favorites)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, treeID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]string, 0)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}

	return favorites, nil
}

// UpdateInfo persists title, description, thumbnail, status and the derived
// editing flag. The creator column is never written.
func (r *PostgresTreeRepository) UpdateInfo(ctx context.Context, tree *models.VideoTree) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, thumbnail = $3, status = $4, is_editing = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, r.tables.Trees)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		tree.Info.Title,
		tree.Info.Description,
		tree.Info.Thumbnail,
		tree.Info.Status,
		tree.Info.IsEditing,
		tree.ID,
	).Scan(&tree.UpdatedAt)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("video tree %s: %w", tree.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update video tree: %w", err)
	}

	return nil
}

// Delete removes tree metadata
func (r *PostgresTreeRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Trees)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete video tree: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("video tree %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteByCreator removes every tree owned by creatorID
func (r *PostgresTreeRepository) DeleteByCreator(ctx context.Context, creatorID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE creator_id = $1`, r.tables.Trees)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, creatorID)
	if err != nil {
		return 0, fmt.Errorf("delete video trees by creator: %w", err)
	}

	return result.RowsAffected(), nil
}

// FindOne runs a pipeline and decodes the first matching document
func (r *PostgresTreeRepository) FindOne(ctx context.Context, pipeline videoRepo.Pipeline) (*videoRepo.TreeRecord, error) {
	query, args, err := renderOne(r.tables, r.language, pipeline)
	if err != nil {
		return nil, err
	}

	var doc []byte
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&doc); err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("video tree: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find video tree: %w", err)
	}

	var record videoRepo.TreeRecord
	if err := json.Unmarshal(doc, &record); err != nil {
		return nil, fmt.Errorf("decode video tree: %w", err)
	}

	return &record, nil
}

// FindPage runs a pipeline and returns the requested page with the total
// number of matches, both from one statement
func (r *PostgresTreeRepository) FindPage(ctx context.Context, pipeline videoRepo.Pipeline, page models.Pagination) ([]videoRepo.TreeRecord, int64, error) {
	query, args, err := renderPage(r.tables, r.language, pipeline, page)
	if err != nil {
		return nil, 0, err
	}

	var (
		total int64
		docs  []byte
	)
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&total, &docs); err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return nil, 0, fmt.Errorf("list video trees: %w", domain.ErrValidation)
		}
		return nil, 0, fmt.Errorf("list video trees: %w", err)
	}

	records := make([]videoRepo.TreeRecord, 0)
	if err := json.Unmarshal(docs, &records); err != nil {
		return nil, 0, fmt.Errorf("decode video trees: %w", err)
	}

	return records, total, nil
}

// ToggleFavorite removes userID if present, inserts it otherwise. Both
// branches run in one statement so concurrent toggles never duplicate. Two
// toggles by the same user can still read the same snapshot; callers lock
// the tree row first (GetForUpdate) in the same transaction.
func (r *PostgresTreeRepository) ToggleFavorite(ctx context.Context, treeID, userID string) (bool, error) {
	query := fmt.Sprintf(`
		WITH tree AS (
			SELECT id FROM %[1]s WHERE id = $1
		), removed AS (
			DELETE FROM %[2]s WHERE tree_id = $1 AND user_id = $2
			RETURNING user_id
		), inserted AS (
			INSERT INTO %[2]s (tree_id, user_id)
			SELECT id, $2::text FROM tree
			WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT DO NOTHING
			RETURNING user_id
		)
		SELECT EXISTS (SELECT 1 FROM tree), EXISTS (SELECT 1 FROM inserted)
	`, r.tables.Trees, r.tables.Favorites)

	var found, favorited bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, treeID, userID).Scan(&found, &favorited); err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return false, fmt.Errorf("video tree %s: %w", treeID, domain.ErrNotFound)
		}
		return false, fmt.Errorf("toggle favorite: %w", err)
	}

	if !found {
		return false, fmt.Errorf("video tree %s: %w", treeID, domain.ErrNotFound)
	}

	return favorited, nil
}

// IncrementViews adds one view without a read-modify-write cycle
func (r *PostgresTreeRepository) IncrementViews(ctx context.Context, treeID string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET views = views + 1
		WHERE id = $1
		RETURNING views
	`, r.tables.Trees)

	var views int64
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, treeID).Scan(&views); err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return 0, fmt.Errorf("video tree %s: %w", treeID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("increment views: %w", err)
	}

	return views, nil
}
