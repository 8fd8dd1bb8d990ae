package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"branchvid/internal/domain/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool           *pgxpool.Pool
	Tables         *TableNames
	Logger         *slog.Logger
	SearchLanguage string // Text search configuration used by the search stage
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Trees         string
	Nodes         string
	Favorites     string
	Histories     string
	Users         string
	Subscriptions string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Trees:         fmt.Sprintf("%svideo_trees", prefix),
		Nodes:         fmt.Sprintf("%svideo_nodes", prefix),
		Favorites:     fmt.Sprintf("%stree_favorites", prefix),
		Histories:     fmt.Sprintf("%shistories", prefix),
		Users:         fmt.Sprintf("%susers", prefix),
		Subscriptions: fmt.Sprintf("%ssubscriptions", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// Port 6543 is treated as a PgBouncer transaction pooler, which does not
// support prepared statements: the pool then switches to
// QueryExecModeCacheDescribe, which still uses the extended protocol (needed
// to encode JSONB node info) without creating named statements. An explicit
// default_query_exec_mode in the connection string takes precedence.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there
// is none, so repositories join a surrounding transaction automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
