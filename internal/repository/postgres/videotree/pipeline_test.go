package videotree

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "branchvid/internal/domain/models/videotree"
	videoRepo "branchvid/internal/domain/repositories/videotree"
	"branchvid/internal/repository/postgres"
)

var testTables = postgres.NewTableNames("test_")

func TestRenderOne_ClientRead(t *testing.T) {
	pipeline := videoRepo.Pipeline{
		videoRepo.MatchID("tree-1"),
		videoRepo.AttachNodes(),
		videoRepo.AttachCreator(),
		videoRepo.AttachFavorite("viewer-1"),
		videoRepo.AttachHistory("viewer-1"),
	}

	sql, args, err := renderOne(testTables, "english", pipeline)
	require.NoError(t, err)

	assert.Equal(t, []interface{}{"tree-1", "viewer-1", "viewer-1"}, args)
	assert.Contains(t, sql, "FROM test_video_trees t WHERE t.id = $1")
	assert.Contains(t, sql, "jsonb_agg(")
	assert.Contains(t, sql, "ORDER BY n.seq")
	assert.Contains(t, sql, "LEFT JOIN test_users u ON u.id = t.creator_id")
	assert.Contains(t, sql, "FROM test_subscriptions s")
	assert.Contains(t, sql, "f.user_id = $2")
	assert.Contains(t, sql, "h.user_id = $3")
	assert.Contains(t, sql, "hn.id = h.active_node_id")
	assert.True(t, strings.HasSuffix(sql, "LIMIT 1"))

	for _, key := range []string{"'nodes'", "'creator'", "'is_favorited'", "'history'"} {
		assert.Contains(t, sql, key)
	}
	assert.NotContains(t, sql, "'score'")
}

func TestRenderOne_OwnerRead(t *testing.T) {
	pipeline := videoRepo.Pipeline{
		videoRepo.MatchID("tree-1"),
		videoRepo.MatchCreator("owner-1"),
		videoRepo.AttachNodes(),
	}

	sql, args, err := renderOne(testTables, "simple", pipeline)
	require.NoError(t, err)

	assert.Equal(t, []interface{}{"tree-1", "owner-1"}, args)
	assert.Contains(t, sql, "WHERE t.id = $1 AND t.creator_id = $2")
	assert.NotContains(t, sql, "test_users")
}

func TestRenderPage_PublicSearch(t *testing.T) {
	pipeline := videoRepo.Pipeline{
		videoRepo.Listable(),
		videoRepo.Search("dragon quest"),
		videoRepo.AttachRoot(),
		videoRepo.AttachCreator(),
	}

	sql, args, err := renderPage(testTables, "english", pipeline, models.Pagination{Page: 3, Max: 10})
	require.NoError(t, err)

	// language, keyword, limit, offset
	assert.Equal(t, []interface{}{"english", "dragon quest", 10, 20}, args)
	assert.Contains(t, sql, "t.status = 'public' AND NOT t.is_editing")
	assert.Contains(t, sql, "t.search_vector @@ websearch_to_tsquery($1::text::regconfig, $2)")
	assert.Contains(t, sql, "ts_rank(t.search_vector, websearch_to_tsquery($1::text::regconfig, $2)) AS score")
	assert.Contains(t, sql, "LIMIT $3 OFFSET $4")
	assert.Contains(t, sql, "(SELECT count(*) FROM matched)")
	assert.Contains(t, sql, "n.id = t.root_id")
	assert.Contains(t, sql, "'score', t.score")
	assert.NotContains(t, sql, "'nodes'")
}

func TestRenderPage_SortKeys(t *testing.T) {
	page := models.Pagination{Page: 1, Max: 5}

	tests := []struct {
		name     string
		pipeline videoRepo.Pipeline
		want     []string
	}{
		{
			name:     "recent by default",
			pipeline: videoRepo.Pipeline{videoRepo.MatchCreator("u1"), videoRepo.AttachRoot()},
			want:     []string{"NULL::float8 AS score", "t.created_at AS sort_at"},
		},
		{
			name:     "favorites by time favorited",
			pipeline: videoRepo.Pipeline{videoRepo.FavoritedBy("u1"), videoRepo.Listable(), videoRepo.AttachRoot()},
			want:     []string{"JOIN test_tree_favorites fav ON fav.tree_id = t.id AND fav.user_id = $1", "fav.created_at AS sort_at"},
		},
		{
			name:     "watched by last progress",
			pipeline: videoRepo.Pipeline{videoRepo.WatchedBy("u1"), videoRepo.AttachRoot()},
			want:     []string{"JOIN test_histories watched ON", "watched.updated_at AS sort_at"},
		},
		{
			name:     "explicit id list",
			pipeline: videoRepo.Pipeline{videoRepo.MatchIDs([]string{"a", "b"}), videoRepo.AttachRoot()},
			want:     []string{"t.id = ANY($1::uuid[])"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := renderPage(testTables, "simple", tt.pipeline, page)
			require.NoError(t, err)
			for _, fragment := range tt.want {
				assert.Contains(t, sql, fragment)
			}
			assert.Contains(t, sql, orderSQL)
		})
	}
}

func TestRenderPage_NilIDsBindEmptyArray(t *testing.T) {
	_, args, err := renderPage(testTables, "simple", videoRepo.Pipeline{videoRepo.MatchIDs(nil)}, models.Pagination{Page: 1, Max: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{}, args[0])
}

func TestRender_RejectsInvalidPipeline(t *testing.T) {
	pipelines := []videoRepo.Pipeline{
		{videoRepo.AttachRoot(), videoRepo.MatchID("x")},
		{videoRepo.MatchID("x"), videoRepo.AttachHistory("v")},
		{videoRepo.MatchID("x"), videoRepo.AttachNodes(), videoRepo.AttachRoot()},
		{{Kind: "bogus"}},
	}

	for _, pipeline := range pipelines {
		_, _, err := renderOne(testTables, "simple", pipeline)
		assert.True(t, errors.Is(err, videoRepo.ErrInvalidPipeline), "pipeline %v", pipeline)
	}
}
