package types

// ActionSummary is the condensed description of an action in history.
type ActionSummary struct {
	Type    ActionType `json:"type"`
	Target  string     `json:"target"`
	Success bool       `json:"success"`
}

// HistoryEntry records one iteration of the exploration loop. Observation is
// nil until the iteration's action has executed, and stays nil on the
// terminating iteration.
type HistoryEntry struct {
	Iteration           int           `json:"iteration"`
	UnderstandingLevel  float64       `json:"understandingLevel"`
	ActionSummary       ActionSummary `json:"actionSummary"`
	KeyFindings         []string      `json:"keyFindings"`
	ExploredFiles       []string      `json:"exploredFiles"`
	ExploredDirectories []string      `json:"exploredDirectories"`
	Observation         *ActionResult `json:"observation,omitempty"`
}

// HistorySummary is a history entry without its observation, sent to the
// plan generator. Executed is false for the terminating iteration, whose
// action never ran.
type HistorySummary struct {
	Iteration           int           `json:"iteration"`
	UnderstandingLevel  float64       `json:"understandingLevel"`
	ActionSummary       ActionSummary `json:"actionSummary"`
	KeyFindings         []string      `json:"keyFindings"`
	ExploredFiles       []string      `json:"exploredFiles"`
	ExploredDirectories []string      `json:"exploredDirectories"`
	Executed            bool          `json:"executed"`
}

// Summarize drops observations from a history.
func Summarize(history []HistoryEntry) []HistorySummary {
	out := make([]HistorySummary, 0, len(history))
	for _, h := range history {
		out = append(out, HistorySummary{
			Iteration:           h.Iteration,
			UnderstandingLevel:  h.UnderstandingLevel,
			ActionSummary:       h.ActionSummary,
			KeyFindings:         cloneStrings(h.KeyFindings),
			ExploredFiles:       cloneStrings(h.ExploredFiles),
			ExploredDirectories: cloneStrings(h.ExploredDirectories),
			Executed:            h.Observation != nil,
		})
	}
	return out
}
