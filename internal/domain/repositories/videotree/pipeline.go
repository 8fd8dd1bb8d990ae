package videotree

import (
	"errors"
	"fmt"
)

// StageKind identifies one reusable retrieval stage.
type StageKind string

// Match stages narrow the population of trees.
const (
	StageMatchID      StageKind = "match_id"
	StageMatchIDs     StageKind = "match_ids"
	StageMatchCreator StageKind = "match_creator"
	StageListable     StageKind = "listable"
	StageFavoritedBy  StageKind = "favorited_by"
	StageWatchedBy    StageKind = "watched_by"
	StageSearch       StageKind = "search"
)

// Attach stages enrich each tree that survived the match stages.
const (
	StageAttachNodes    StageKind = "attach_nodes"
	StageAttachRoot     StageKind = "attach_root"
	StageAttachCreator  StageKind = "attach_creator"
	StageAttachFavorite StageKind = "attach_favorite"
	StageAttachHistory  StageKind = "attach_history"
)

// Stage is a descriptor of one retrieval step. Repositories translate
// descriptors into their own query language.
type Stage struct {
	Kind   StageKind
	Value  string   // single parameter (id, viewer, keyword)
	Values []string // list parameter (ids)
}

// IsMatch reports whether the stage filters trees rather than enriching them.
func (s Stage) IsMatch() bool {
	switch s.Kind {
	case StageMatchID, StageMatchIDs, StageMatchCreator, StageListable,
		StageFavoritedBy, StageWatchedBy, StageSearch:
		return true
	}
	return false
}

// attachesNodes reports whether the stage loads node content.
func (s Stage) attachesNodes() bool {
	return s.Kind == StageAttachNodes || s.Kind == StageAttachRoot
}

// inspectsNodes reports whether the stage reads node content and therefore
// needs a node-attachment stage before it.
func (s Stage) inspectsNodes() bool {
	return s.Kind == StageAttachHistory
}

func MatchID(id string) Stage          { return Stage{Kind: StageMatchID, Value: id} }
func MatchIDs(ids []string) Stage      { return Stage{Kind: StageMatchIDs, Values: ids} }
func MatchCreator(userID string) Stage { return Stage{Kind: StageMatchCreator, Value: userID} }
func Listable() Stage                  { return Stage{Kind: StageListable} }
func FavoritedBy(userID string) Stage  { return Stage{Kind: StageFavoritedBy, Value: userID} }
func WatchedBy(userID string) Stage    { return Stage{Kind: StageWatchedBy, Value: userID} }
func Search(keyword string) Stage      { return Stage{Kind: StageSearch, Value: keyword} }
func AttachNodes() Stage               { return Stage{Kind: StageAttachNodes} }
func AttachRoot() Stage                { return Stage{Kind: StageAttachRoot} }
func AttachCreator() Stage             { return Stage{Kind: StageAttachCreator} }

func AttachFavorite(viewerID string) Stage {
	return Stage{Kind: StageAttachFavorite, Value: viewerID}
}

func AttachHistory(viewerID string) Stage {
	return Stage{Kind: StageAttachHistory, Value: viewerID}
}

// Pipeline is an ordered list of stages.
type Pipeline []Stage

// ErrInvalidPipeline is returned by Validate for malformed pipelines.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// Validate checks stage ordering:
//   - match stages come before attach stages (attach runs per result row)
//   - a stage that inspects nodes follows a node-attachment stage
//   - each attach stage at most once, at most one node-attachment stage
//     and one search stage
//   - parameterized stages carry their parameter
func (p Pipeline) Validate() error {
	attaching := false
	nodesAttached := false
	searches := 0
	attached := make(map[StageKind]bool)

	for i, stage := range p {
		if stage.IsMatch() {
			if attaching {
				return fmt.Errorf("%w: match stage %s at %d follows an attach stage", ErrInvalidPipeline, stage.Kind, i)
			}
		} else {
			attaching = true
			if attached[stage.Kind] {
				return fmt.Errorf("%w: stage %s repeated at %d", ErrInvalidPipeline, stage.Kind, i)
			}
			attached[stage.Kind] = true
		}

		switch stage.Kind {
		case StageMatchID, StageMatchCreator, StageFavoritedBy, StageWatchedBy,
			StageSearch, StageAttachFavorite, StageAttachHistory:
			if stage.Value == "" {
				return fmt.Errorf("%w: stage %s at %d needs a value", ErrInvalidPipeline, stage.Kind, i)
			}
		case StageMatchIDs, StageListable, StageAttachNodes, StageAttachRoot, StageAttachCreator:
		default:
			return fmt.Errorf("%w: unknown stage %q at %d", ErrInvalidPipeline, stage.Kind, i)
		}

		if stage.Kind == StageSearch {
			searches++
			if searches > 1 {
				return fmt.Errorf("%w: more than one search stage", ErrInvalidPipeline)
			}
		}

		if stage.attachesNodes() {
			if nodesAttached {
				return fmt.Errorf("%w: nodes attached twice", ErrInvalidPipeline)
			}
			nodesAttached = true
		}

		if stage.inspectsNodes() && !nodesAttached {
			return fmt.Errorf("%w: stage %s at %d needs nodes attached first", ErrInvalidPipeline, stage.Kind, i)
		}
	}
	return nil
}

// Has reports whether the pipeline contains a stage of the given kind.
func (p Pipeline) Has(kind StageKind) bool {
	for _, stage := range p {
		if stage.Kind == kind {
			return true
		}
	}
	return false
}
