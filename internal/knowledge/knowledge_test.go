package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/scout/internal/types"
)

func TestMergeUnionsAndReplacesUnknowns(t *testing.T) {
	current := types.KnowledgeState{
		Confirmed:   []string{"a", "b"},
		Assumptions: []string{"x"},
		Unknowns:    []string{"u1", "u2"},
	}
	incoming := types.KnowledgeSnapshot{
		Confirmed:   []string{"b", "c"},
		Assumptions: []string{"x", "y"},
		Unknowns:    []string{"u3"},
	}

	got := Merge(current, incoming, TouchedPaths{})

	assert.Equal(t, []string{"a", "b", "c"}, got.Confirmed)
	assert.Equal(t, []string{"x", "y"}, got.Assumptions)
	assert.Equal(t, []string{"u3"}, got.Unknowns)
}

func TestMergeEmptyUnknownsClears(t *testing.T) {
	current := types.KnowledgeState{Unknowns: []string{"u1"}}
	got := Merge(current, types.KnowledgeSnapshot{}, TouchedPaths{})
	assert.Empty(t, got.Unknowns)
	assert.NotNil(t, got.Unknowns)
}

func TestMergeExploredSetsNeverShrink(t *testing.T) {
	current := types.KnowledgeState{
		ExploredFiles:       []string{"main.go"},
		ExploredDirectories: []string{"cmd"},
	}
	got := Merge(current, types.KnowledgeSnapshot{}, TouchedPaths{Files: []string{"go.mod", "main.go"}})
	assert.Equal(t, []string{"go.mod", "main.go"}, got.ExploredFiles)
	assert.Equal(t, []string{"cmd"}, got.ExploredDirectories)

	again := Merge(got, types.KnowledgeSnapshot{}, TouchedPaths{})
	assert.Equal(t, got.ExploredFiles, again.ExploredFiles)
}

func TestMergeDoesNotAlias(t *testing.T) {
	current := types.KnowledgeState{Confirmed: []string{"a"}}
	incoming := types.KnowledgeSnapshot{Confirmed: []string{"b"}, Unknowns: []string{"u"}}

	got := Merge(current, incoming, TouchedPaths{})
	got.Confirmed[0] = "mutated"
	got.Unknowns[0] = "mutated"

	assert.Equal(t, []string{"a"}, current.Confirmed)
	assert.Equal(t, []string{"u"}, incoming.Unknowns)
}

func TestTouched(t *testing.T) {
	ok := &types.ActionResult{Success: true}
	failed := &types.ActionResult{Success: false}

	assert.Equal(t, []string{"src/app.go"}, Touched(types.ReadFile{Path: "./src/app.go"}, ok).Files)
	assert.Equal(t, []string{"src"}, Touched(types.ListDirectory{Path: "src/"}, ok).Directories)
	assert.True(t, Touched(types.ReadFile{Path: "a.go"}, failed).Empty())
	assert.True(t, Touched(types.SearchContent{Query: "x"}, ok).Empty())
	assert.True(t, Touched(types.ReadTerminal{Command: "ls"}, ok).Empty())
	assert.True(t, Touched(types.ReadFile{Path: "a.go"}, nil).Empty())
}

func TestTouchedUsesResolvedPath(t *testing.T) {
	read := func(resolved string) *types.ActionResult {
		return &types.ActionResult{Success: true, Data: &types.FileContent{Path: resolved}}
	}
	state := types.NewKnowledgeState()
	state = AddTouched(state, Touched(types.ReadFile{Path: "src/../x.go"}, read("x.go")))
	state = AddTouched(state, Touched(types.ReadFile{Path: "x.go"}, read("x.go")))
	state = AddTouched(state, Touched(types.ReadFile{Path: "/work/x.go"}, read("x.go")))
	assert.Equal(t, []string{"x.go"}, state.ExploredFiles)

	listed := &types.ActionResult{Success: true, Data: &types.DirectoryListing{Path: "."}}
	assert.Equal(t, []string{"."}, Touched(types.ListDirectory{Path: "./src/.."}, listed).Directories)
}

func TestTargets(t *testing.T) {
	assert.Equal(t, []string{"a.go"}, Targets(types.ReadFile{Path: "a.go"}).Files)
	assert.Equal(t, []string{"."}, Targets(types.ListDirectory{Path: "."}).Directories)
	assert.True(t, Targets(types.ReadFile{Path: " "}).Empty())
	assert.True(t, Targets(nil).Empty())
}

func TestAddTouched(t *testing.T) {
	current := types.KnowledgeState{Confirmed: []string{"a"}, Unknowns: []string{"u"}}
	got := AddTouched(current, TouchedPaths{Directories: []string{"pkg"}})
	require.Equal(t, []string{"pkg"}, got.ExploredDirectories)
	assert.Equal(t, current.Confirmed, got.Confirmed)
	assert.Equal(t, current.Unknowns, got.Unknowns)
}
