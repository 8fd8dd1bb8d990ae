package videotree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineValidate(t *testing.T) {
	tests := []struct {
		name     string
		pipeline Pipeline
		wantErr  bool
	}{
		{"empty", Pipeline{}, false},
		{"client read", Pipeline{MatchID("t"), AttachNodes(), AttachCreator(), AttachFavorite("v"), AttachHistory("v")}, false},
		{"listing", Pipeline{Listable(), Search("k"), AttachRoot(), AttachCreator()}, false},
		{"history after root", Pipeline{WatchedBy("v"), AttachRoot(), AttachHistory("v")}, false},
		{"match after attach", Pipeline{AttachRoot(), Listable()}, true},
		{"history without nodes", Pipeline{MatchID("t"), AttachHistory("v")}, true},
		{"history before nodes", Pipeline{MatchID("t"), AttachHistory("v"), AttachNodes()}, true},
		{"nodes twice", Pipeline{AttachNodes(), AttachRoot()}, true},
		{"creator twice", Pipeline{AttachCreator(), AttachCreator()}, true},
		{"two searches", Pipeline{Search("a"), Search("b")}, true},
		{"missing id", Pipeline{MatchID("")}, true},
		{"missing viewer", Pipeline{AttachFavorite("")}, true},
		{"unknown stage", Pipeline{{Kind: "sort_random"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pipeline.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPipeline)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPipelineHas(t *testing.T) {
	p := Pipeline{Listable(), AttachRoot()}
	assert.True(t, p.Has(StageListable))
	assert.True(t, p.Has(StageAttachRoot))
	assert.False(t, p.Has(StageAttachNodes))
}
