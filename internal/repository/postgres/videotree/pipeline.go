package videotree

import (
	"fmt"
	"strings"

	models "branchvid/internal/domain/models/videotree"
	videoRepo "branchvid/internal/domain/repositories/videotree"
	"branchvid/internal/repository/postgres"
)

// queryBuilder compiles a pipeline into one SQL statement.
//
// Match stages shape a "matched" derived table (filters, score, sort key);
// attach stages add lateral joins and keys to the JSON document built for
// every row that survives matching and pagination.
type queryBuilder struct {
	tables   *postgres.TableNames
	language string

	args       []interface{}
	where      []string
	matchJoins []string
	scoreExpr  string
	sortExpr   string

	joins  []string
	fields []string
}

func newQueryBuilder(tables *postgres.TableNames, language string) *queryBuilder {
	return &queryBuilder{
		tables:   tables,
		language: language,
		sortExpr: "t.created_at",
	}
}

// arg registers a parameter and returns its placeholder
func (b *queryBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) field(key, expr string) {
	b.fields = append(b.fields, fmt.Sprintf("'%s', %s", key, expr))
}

// apply translates one stage descriptor
func (b *queryBuilder) apply(stage videoRepo.Stage) error {
	switch stage.Kind {
	case videoRepo.StageMatchID:
		b.where = append(b.where, "t.id = "+b.arg(stage.Value))

	case videoRepo.StageMatchIDs:
		ids := stage.Values
		if ids == nil {
			ids = []string{}
		}
		b.where = append(b.where, fmt.Sprintf("t.id = ANY(%s::uuid[])", b.arg(ids)))

	case videoRepo.StageMatchCreator:
		b.where = append(b.where, "t.creator_id = "+b.arg(stage.Value))

	case videoRepo.StageListable:
		b.where = append(b.where, "t.status = 'public' AND NOT t.is_editing")

	case videoRepo.StageFavoritedBy:
		b.matchJoins = append(b.matchJoins, fmt.Sprintf(
			"JOIN %s fav ON fav.tree_id = t.id AND fav.user_id = %s",
			b.tables.Favorites, b.arg(stage.Value)))
		b.sortExpr = "fav.created_at"

	case videoRepo.StageWatchedBy:
		b.matchJoins = append(b.matchJoins, fmt.Sprintf(
			"JOIN %s watched ON watched.tree_id = t.id AND watched.user_id = %s",
			b.tables.Histories, b.arg(stage.Value)))
		b.sortExpr = "watched.updated_at"

	case videoRepo.StageSearch:
		query := fmt.Sprintf("websearch_to_tsquery(%s::text::regconfig, %s)", b.arg(b.language), b.arg(stage.Value))
		b.where = append(b.where, "t.search_vector @@ "+query)
		b.scoreExpr = fmt.Sprintf("ts_rank(t.search_vector, %s)", query)

	case videoRepo.StageAttachNodes:
		b.joins = append(b.joins, fmt.Sprintf(`LEFT JOIN LATERAL (
			SELECT jsonb_agg(%s ORDER BY n.seq) AS nodes
			FROM %s n
			WHERE n.tree_id = t.id
		) nodes ON true`, nodeJSON("n"), b.tables.Nodes))
		b.field("nodes", "COALESCE(nodes.nodes, '[]'::jsonb)")

	case videoRepo.StageAttachRoot:
		b.joins = append(b.joins, fmt.Sprintf(`LEFT JOIN LATERAL (
			SELECT %s AS root
			FROM %s n
			WHERE n.id = t.root_id
		) root ON true`, nodeJSON("n"), b.tables.Nodes))
		b.field("root", "root.root")

	case videoRepo.StageAttachCreator:
		b.joins = append(b.joins,
			fmt.Sprintf("LEFT JOIN %s u ON u.id = t.creator_id", b.tables.Users),
			fmt.Sprintf(`LEFT JOIN LATERAL (
			SELECT count(*) AS subscribers
			FROM %s s
			WHERE s.channel_id = t.creator_id
		) subs ON true`, b.tables.Subscriptions))
		b.field("creator", `jsonb_build_object(
			'id', t.creator_id,
			'name', COALESCE(u.name, ''),
			'picture', COALESCE(u.picture, ''),
			'subscribers', subs.subscribers)`)

	case videoRepo.StageAttachFavorite:
		b.field("is_favorited", fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s f WHERE f.tree_id = t.id AND f.user_id = %s)",
			b.tables.Favorites, b.arg(stage.Value)))

	case videoRepo.StageAttachHistory:
		// A record whose active node no longer belongs to the tree is stale
		b.joins = append(b.joins, fmt.Sprintf(`LEFT JOIN LATERAL (
			SELECT %s AS history
			FROM %s h
			WHERE h.tree_id = t.id AND h.user_id = %s
			  AND EXISTS (SELECT 1 FROM %s hn WHERE hn.id = h.active_node_id AND hn.tree_id = t.id)
		) hist ON true`, historyJSON("h"), b.tables.Histories, b.arg(stage.Value), b.tables.Nodes))
		b.field("history", "hist.history")

	default:
		return fmt.Errorf("%w: unsupported stage %q", videoRepo.ErrInvalidPipeline, stage.Kind)
	}
	return nil
}

// matchedSQL selects the filtered population with its score and sort key
func (b *queryBuilder) matchedSQL() string {
	score := "NULL::float8"
	if b.scoreExpr != "" {
		score = b.scoreExpr
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT t.*, %s AS score, %s AS sort_at FROM %s t", score, b.sortExpr, b.tables.Trees)
	for _, join := range b.matchJoins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	return sb.String()
}

// documentSQL is the JSON projection of a matched row aliased t
func (b *queryBuilder) documentSQL() string {
	doc := fmt.Sprintf(`jsonb_build_object(
		'id', t.id,
		'root_id', t.root_id,
		'info', jsonb_build_object(
			'title', t.title,
			'description', t.description,
			'thumbnail', t.thumbnail,
			'creator', t.creator_id,
			'status', t.status,
			'is_editing', t.is_editing),
		'data', jsonb_build_object(
			'views', t.views,
			'favorites', COALESCE((SELECT jsonb_agg(fv.user_id ORDER BY fv.created_at) FROM %s fv WHERE fv.tree_id = t.id), '[]'::jsonb)),
		'created_at', t.created_at,
		'updated_at', t.updated_at)`, b.tables.Favorites)

	fields := b.fields
	if b.scoreExpr != "" {
		fields = append(append([]string(nil), fields...), "'score', t.score")
	}
	if len(fields) > 0 {
		doc += " || jsonb_build_object(" + strings.Join(fields, ", ") + ")"
	}
	return doc
}

const orderSQL = "t.score DESC NULLS LAST, t.sort_at DESC, t.id"

func (b *queryBuilder) joinSQL() string {
	if len(b.joins) == 0 {
		return ""
	}
	return " " + strings.Join(b.joins, " ")
}

// build applies every stage of a validated pipeline
func build(tables *postgres.TableNames, language string, pipeline videoRepo.Pipeline) (*queryBuilder, error) {
	if err := pipeline.Validate(); err != nil {
		return nil, err
	}
	b := newQueryBuilder(tables, language)
	for _, stage := range pipeline {
		if err := b.apply(stage); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// renderOne returns SQL yielding a single JSON document column
func renderOne(tables *postgres.TableNames, language string, pipeline videoRepo.Pipeline) (string, []interface{}, error) {
	b, err := build(tables, language, pipeline)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT %s FROM (%s) t%s ORDER BY %s LIMIT 1",
		b.documentSQL(), b.matchedSQL(), b.joinSQL(), orderSQL)
	return sql, b.args, nil
}

// renderPage returns SQL yielding (total, documents) in a single row: the
// matched population is computed once and fanned out into a count and a
// paginated, enriched page.
func renderPage(tables *postgres.TableNames, language string, pipeline videoRepo.Pipeline, page models.Pagination) (string, []interface{}, error) {
	b, err := build(tables, language, pipeline)
	if err != nil {
		return "", nil, err
	}
	limit := b.arg(page.Limit())
	offset := b.arg(page.Skip())

	sql := fmt.Sprintf(`WITH matched AS (%s),
		page AS (SELECT * FROM matched t ORDER BY %s LIMIT %s OFFSET %s)
		SELECT
			(SELECT count(*) FROM matched) AS total,
			COALESCE((SELECT jsonb_agg(%s ORDER BY %s) FROM page t%s), '[]'::jsonb) AS videos`,
		b.matchedSQL(), orderSQL, limit, offset,
		b.documentSQL(), orderSQL, b.joinSQL())
	return sql, b.args, nil
}

func nodeJSON(alias string) string {
	return fmt.Sprintf(`jsonb_build_object(
		'id', %[1]s.id,
		'tree_id', %[1]s.tree_id,
		'parent_id', %[1]s.parent_id,
		'layer', %[1]s.layer,
		'info', %[1]s.info,
		'creator', %[1]s.creator_id,
		'created_at', %[1]s.created_at,
		'updated_at', %[1]s.updated_at)`, alias)
}

func historyJSON(alias string) string {
	return fmt.Sprintf(`jsonb_build_object(
		'id', %[1]s.id,
		'user_id', %[1]s.user_id,
		'tree_id', %[1]s.tree_id,
		'active_node_id', %[1]s.active_node_id,
		'progress', %[1]s.progress,
		'total_progress', %[1]s.total_progress,
		'is_ended', %[1]s.is_ended,
		'created_at', %[1]s.created_at,
		'updated_at', %[1]s.updated_at)`, alias)
}
