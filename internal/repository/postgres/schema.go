package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

var searchLanguagePattern = regexp.MustCompile(`^[a-z_]+$`)

// EnsureSchema creates tables and indexes if they don't exist.
//
// The search vector is a generated column, so the text search configuration
// is baked into the DDL and must match RepositoryConfig.SearchLanguage.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix, language string) error {
	if !searchLanguagePattern.MatchString(language) {
		return fmt.Errorf("invalid search language %q", language)
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				picture TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Users),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				channel_id TEXT NOT NULL,
				subscriber_id TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (channel_id, subscriber_id)
			)`, tables.Subscriptions),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				root_id UUID NOT NULL,
				title VARCHAR(255) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				thumbnail TEXT NOT NULL DEFAULT '',
				creator_id TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'public' CHECK (status IN ('draft', 'public', 'private')),
				is_editing BOOLEAN NOT NULL DEFAULT TRUE,
				views BIGINT NOT NULL DEFAULT 0 CHECK (views >= 0),
				search_vector TSVECTOR GENERATED ALWAYS AS (
					setweight(to_tsvector('%[2]s', title), 'A') ||
					setweight(to_tsvector('%[2]s', description), 'B')
				) STORED,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Trees, language),
		// parent_id is checked at commit so a reconciliation batch may
		// insert and delete in any order inside its transaction
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id UUID PRIMARY KEY,
				tree_id UUID NOT NULL REFERENCES %[2]s(id) ON DELETE CASCADE,
				parent_id UUID REFERENCES %[1]s(id) DEFERRABLE INITIALLY DEFERRED,
				layer INTEGER NOT NULL CHECK (layer >= 0),
				info JSONB NOT NULL DEFAULT '{}'::jsonb,
				creator_id TEXT NOT NULL,
				seq BIGINT GENERATED ALWAYS AS IDENTITY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CHECK ((parent_id IS NULL) = (layer = 0))
			)`, tables.Nodes, tables.Trees),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				tree_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				user_id TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (tree_id, user_id)
			)`, tables.Favorites, tables.Trees),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id TEXT NOT NULL,
				tree_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				active_node_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				progress DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (progress >= 0),
				total_progress DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (total_progress >= 0),
				is_ended BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (user_id, tree_id)
			)`, tables.Histories, tables.Trees, tables.Nodes),

		// One root per tree
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%snodes_one_root ON %s(tree_id) WHERE parent_id IS NULL`, tablePrefix, tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%snodes_tree_seq ON %s(tree_id, seq)`, tablePrefix, tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%snodes_creator ON %s(creator_id)`, tablePrefix, tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%strees_creator ON %s(creator_id, created_at DESC)`, tablePrefix, tables.Trees),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%strees_listable ON %s(created_at DESC) WHERE status = 'public' AND NOT is_editing`, tablePrefix, tables.Trees),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%strees_search ON %s USING GIN(search_vector)`, tablePrefix, tables.Trees),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sfavorites_user ON %s(user_id)`, tablePrefix, tables.Favorites),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%shistories_user ON %s(user_id, updated_at DESC)`, tablePrefix, tables.Histories),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops all tables in reverse dependency order.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{
		tables.Histories,
		tables.Favorites,
		tables.Nodes,
		tables.Trees,
		tables.Subscriptions,
		tables.Users,
	} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearData deletes every row but keeps the schema.
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	stmt := fmt.Sprintf("TRUNCATE %s, %s, %s, %s, %s, %s",
		tables.Histories,
		tables.Favorites,
		tables.Nodes,
		tables.Trees,
		tables.Subscriptions,
		tables.Users,
	)
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	return nil
}
