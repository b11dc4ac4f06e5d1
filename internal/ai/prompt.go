package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/types"
)

// maxObservationChars bounds how much of each observation goes into a prompt.
// The most recent observation gets more room than older ones.
const (
	maxObservationChars       = 2000
	maxLatestObservationChars = 12000
)

const decisionSystemPrompt = `You are scout, an engineer exploring an unfamiliar repository before implementing a change.
Each turn you choose exactly one inspection action, or stop when you understand enough.
You never modify files. You answer with a single JSON object and nothing else.`

// buildDecisionPrompt renders the goal, workspace profile, knowledge and full
// history into the decision prompt.
func buildDecisionPrompt(req explore.DecisionRequest, profile string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "IMPLEMENTATION GOAL:\n%s\n\n", req.ImplementationGoal)
	fmt.Fprintf(&sb, "ITERATION: %d of at most %d\n\n", req.Iteration, req.MaxIterations)

	if profile != "" {
		fmt.Fprintf(&sb, "WORKSPACE PROFILE:\n%s\n\n", profile)
	}

	k := req.CumulativeKnowledge
	sb.WriteString("CURRENT KNOWLEDGE:\n")
	writeList(&sb, "Confirmed", k.Confirmed)
	writeList(&sb, "Assumptions", k.Assumptions)
	writeList(&sb, "Unknowns", k.Unknowns)
	writeList(&sb, "Files already read", k.ExploredFiles)
	writeList(&sb, "Directories already listed", k.ExploredDirectories)
	sb.WriteString("\n")

	sb.WriteString("EXPLORATION HISTORY:\n")
	if len(req.History) == 0 {
		sb.WriteString("(none yet; start by getting oriented)\n")
	}
	for i, h := range req.History {
		fmt.Fprintf(&sb, "Iteration %d (understanding %.2f): %s %q",
			h.Iteration, h.UnderstandingLevel, h.ActionSummary.Type, h.ActionSummary.Target)
		if h.Observation == nil {
			sb.WriteString(" -> not executed\n")
			continue
		}
		status := "succeeded"
		if !h.Observation.Success {
			status = "failed: " + h.Observation.Error
		}
		fmt.Fprintf(&sb, " -> %s\n", status)
		for _, f := range h.KeyFindings {
			fmt.Fprintf(&sb, "  finding: %s\n", f)
		}
		limit := maxObservationChars
		if i == len(req.History)-1 {
			limit = maxLatestObservationChars
		}
		if obs := renderObservation(h.Observation, limit); obs != "" {
			fmt.Fprintf(&sb, "  observation:\n%s\n", indent(obs, "    "))
		}
	}
	sb.WriteString("\n")

	sb.WriteString(actionCatalog)
	sb.WriteString("\n")
	sb.WriteString(responseSchema)
	return sb.String()
}

const actionCatalog = `AVAILABLE ACTIONS (paths are relative to the workspace root):
- read_file {"path": "..."}: read one file
- list_directory {"path": "...", "recursive": true|false}: list a directory; recursive listings stop 3 levels deep
- search_content {"query": "...", "scope": "..."}: case-insensitive literal search, at most 100 matching lines
- read_terminal {"command": "..."}: run a read-only shell command in the workspace root (10s limit)
`

const responseSchema = `Respond with JSON matching exactly:
{
  "understandingLevel": 0.0-1.0,
  "confidenceScore": {"architecture": 0.0-1.0, "data_flow": 0.0-1.0, "integration_points": 0.0-1.0, "implementation_details": 0.0-1.0},
  "thinking": "short reasoning; separate distinct findings with periods",
  "currentKnowledge": {"confirmed": ["..."], "assumptions": ["..."], "unknowns": ["..."]},
  "action": {"type": "read_file|list_directory|search_content|read_terminal", "parameters": {...}},
  "continueExploration": true|false,
  "nextPriorities": ["..."]
}
Set continueExploration to false once understandingLevel reaches 0.7 or more and you could write a concrete plan.
"unknowns" replaces the previous list, so repeat any that still apply.`

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(sb, "%s: (none)\n", label)
		return
	}
	fmt.Fprintf(sb, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(sb, "  - %s\n", item)
	}
}

// renderObservation turns an action result into compact prompt text.
func renderObservation(r *types.ActionResult, limit int) string {
	var text string
	switch d := r.Data.(type) {
	case *types.FileContent:
		text = fmt.Sprintf("%s (%d lines)\n%s", d.Path, d.LineCount, d.Content)
	case *types.TerminalOutput:
		text = fmt.Sprintf("$ %s (exit %d)\n%s", d.Command, d.ExitCode, d.Stdout)
		if d.Stderr != "" {
			text += "\nstderr:\n" + d.Stderr
		}
	case *types.DirectoryListing:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s: %d files, %d directories\n", d.Path, d.TotalFiles, d.TotalDirectories)
		for _, e := range d.Entries {
			suffix := ""
			if e.Type == types.EntryDirectory {
				suffix = "/"
			}
			fmt.Fprintf(&sb, "%s%s\n", e.Path, suffix)
		}
		text = sb.String()
	case *types.SearchResults:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d matches for %q in %s", d.TotalMatches, d.Query, d.Scope)
		if d.Truncated {
			sb.WriteString(" (truncated)")
		}
		sb.WriteString("\n")
		for _, m := range d.Matches {
			fmt.Fprintf(&sb, "%s:%d: %s\n", m.Path, m.Line, strings.TrimSpace(m.Text))
		}
		text = sb.String()
	case nil:
		return ""
	default:
		data, err := json.Marshal(d)
		if err != nil {
			return ""
		}
		text = string(data)
	}
	text = strings.TrimRight(text, "\n")
	if len(text) > limit {
		text = safeTruncateString(text, limit) + "\n... [truncated]"
	}
	return text
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
