// Package knowledge merges oracle snapshots into the cumulative knowledge
// state. Everything here is pure: inputs are never mutated or aliased.
package knowledge

import (
	"sort"
	"strings"

	"github.com/steveyegge/scout/internal/types"
)

// TouchedPaths are the paths a successfully executed action inspected.
type TouchedPaths struct {
	Files       []string
	Directories []string
}

// Empty reports whether no paths were touched
func (t TouchedPaths) Empty() bool {
	return len(t.Files) == 0 && len(t.Directories) == 0
}

// Merge folds an incoming snapshot and the touched paths of the just-executed
// action into current. Confirmed and assumptions are unioned, unknowns are
// replaced by the incoming list, explored sets only grow.
func Merge(current types.KnowledgeState, incoming types.KnowledgeSnapshot, touched TouchedPaths) types.KnowledgeState {
	return types.KnowledgeState{
		Confirmed:           union(current.Confirmed, incoming.Confirmed),
		Assumptions:         union(current.Assumptions, incoming.Assumptions),
		Unknowns:            replaceUnknowns(incoming.Unknowns),
		ExploredFiles:       union(current.ExploredFiles, touched.Files),
		ExploredDirectories: union(current.ExploredDirectories, touched.Directories),
	}
}

// AddTouched folds touched paths into the explored sets without touching the
// other fields.
func AddTouched(current types.KnowledgeState, touched TouchedPaths) types.KnowledgeState {
	next := current.Clone()
	next.ExploredFiles = union(current.ExploredFiles, touched.Files)
	next.ExploredDirectories = union(current.ExploredDirectories, touched.Directories)
	return next
}

// Touched derives the paths an action inspected. Only successful read_file
// and list_directory actions touch anything.
func Touched(action types.Action, result *types.ActionResult) TouchedPaths {
	if action == nil || result == nil || !result.Success {
		return TouchedPaths{}
	}
	switch a := action.(type) {
	case types.ReadFile:
		return TouchedPaths{Files: []string{normalize(resolvedPath(result.Data, a.Path))}}
	case types.ListDirectory:
		return TouchedPaths{Directories: []string{normalize(resolvedPath(result.Data, a.Path))}}
	}
	return TouchedPaths{}
}

// resolvedPath prefers the workspace-relative path the executor reports, so
// "src/../x.go" and an absolute path inside the root collapse to one entry.
func resolvedPath(data any, requested string) string {
	var p string
	switch d := data.(type) {
	case *types.FileContent:
		if d != nil {
			p = d.Path
		}
	case types.FileContent:
		p = d.Path
	case *types.DirectoryListing:
		if d != nil {
			p = d.Path
		}
	case types.DirectoryListing:
		p = d.Path
	}
	if strings.TrimSpace(p) == "" {
		return requested
	}
	return p
}

// Targets returns the paths an action intends to inspect, regardless of
// outcome. Used to annotate history entries.
func Targets(action types.Action) TouchedPaths {
	switch a := action.(type) {
	case types.ReadFile:
		if strings.TrimSpace(a.Path) != "" {
			return TouchedPaths{Files: []string{normalize(a.Path)}}
		}
	case types.ListDirectory:
		if strings.TrimSpace(a.Path) != "" {
			return TouchedPaths{Directories: []string{normalize(a.Path)}}
		}
	}
	return TouchedPaths{}
}

func normalize(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") && len(p) > 2 {
		p = p[2:]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// union returns the sorted, de-duplicated union of a and b. Blank strings
// are dropped.
func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if strings.TrimSpace(s) == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func replaceUnknowns(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
