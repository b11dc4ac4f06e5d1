package types

import "sort"

// KnowledgeState is the accumulated understanding of the workspace.
//
// Confirmed, Assumptions, ExploredFiles and ExploredDirectories are sets kept
// as sorted, de-duplicated slices so states compare and serialize
// deterministically. Unknowns is ordered and is replaced, not merged, on
// every decision.
type KnowledgeState struct {
	Confirmed           []string `json:"confirmed"`
	Assumptions         []string `json:"assumptions"`
	Unknowns            []string `json:"unknowns"`
	ExploredFiles       []string `json:"exploredFiles"`
	ExploredDirectories []string `json:"exploredDirectories"`
}

// KnowledgeSnapshot is the oracle's view of current knowledge, returned with
// every decision.
type KnowledgeSnapshot struct {
	Confirmed   []string `json:"confirmed"`
	Assumptions []string `json:"assumptions"`
	Unknowns    []string `json:"unknowns"`
}

// NewKnowledgeState returns an empty state with non-nil slices.
func NewKnowledgeState() KnowledgeState {
	return KnowledgeState{
		Confirmed:           []string{},
		Assumptions:         []string{},
		Unknowns:            []string{},
		ExploredFiles:       []string{},
		ExploredDirectories: []string{},
	}
}

// Clone returns a deep copy.
func (k KnowledgeState) Clone() KnowledgeState {
	return KnowledgeState{
		Confirmed:           cloneStrings(k.Confirmed),
		Assumptions:         cloneStrings(k.Assumptions),
		Unknowns:            cloneStrings(k.Unknowns),
		ExploredFiles:       cloneStrings(k.ExploredFiles),
		ExploredDirectories: cloneStrings(k.ExploredDirectories),
	}
}

// HasExploredFile reports whether path is in the explored-files set
func (k KnowledgeState) HasExploredFile(path string) bool {
	return containsSorted(k.ExploredFiles, path)
}

// HasExploredDirectory reports whether path is in the explored-directories set
func (k KnowledgeState) HasExploredDirectory(path string) bool {
	return containsSorted(k.ExploredDirectories, path)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func containsSorted(set []string, s string) bool {
	i := sort.SearchStrings(set, s)
	return i < len(set) && set[i] == s
}
