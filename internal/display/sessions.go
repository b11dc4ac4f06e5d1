package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/storage/sqlite"
	"github.com/steveyegge/scout/internal/types"
)

// ShortID is the session ID prefix shown in listings.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintSessions writes one row per stored session.
func PrintSessions(out io.Writer, records []*sqlite.SessionRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No exploration sessions found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tITER\tOUTCOME\tGOAL")
	for _, rec := range records {
		s := rec.Session
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n",
			ShortID(s.ID),
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.CurrentIteration, s.Ceiling(),
			outcomeLabel(s),
			truncateString(s.ImplementationGoal, 50),
		)
	}
	return w.Flush()
}

func outcomeLabel(s types.ExplorationSession) string {
	switch {
	case s.Outcome != "":
		return string(s.Outcome)
	case s.Active:
		return "running"
	default:
		return "-"
	}
}

// PrintSession writes a stored session with its history, knowledge and plan.
func PrintSession(out io.Writer, rec *sqlite.SessionRecord, history []types.HistoryEntry) {
	bold := color.New(color.Bold)
	s := rec.Session

	fmt.Fprintf(out, "%s %s\n", bold.Sprint("Session"), s.ID)
	fmt.Fprintf(out, "  Goal:       %s\n", s.ImplementationGoal)
	if s.Workspace != "" {
		fmt.Fprintf(out, "  Workspace:  %s\n", s.Workspace)
	}
	fmt.Fprintf(out, "  Started:    %s\n", s.StartedAt.Local().Format(time.RFC3339))
	if s.EndedAt != nil {
		fmt.Fprintf(out, "  Duration:   %s\n", s.EndedAt.Sub(s.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(out, "  Iterations: %d/%d\n", s.CurrentIteration, s.Ceiling())
	fmt.Fprintf(out, "  Outcome:    %s\n", outcomeColor(s.Outcome).Sprint(outcomeLabel(s)))

	if len(history) > 0 {
		fmt.Fprintf(out, "\n%s\n", bold.Sprint("History"))
		for _, h := range history {
			printHistoryEntry(out, h)
		}
	}

	fmt.Fprintf(out, "\n%s\n", bold.Sprint("Knowledge"))
	PrintKnowledge(out, rec.Knowledge)

	if rec.Plan != "" {
		fmt.Fprintf(out, "\n%s\n\n%s\n", bold.Sprint("Plan"), strings.TrimRight(rec.Plan, "\n"))
	}
}

func printHistoryEntry(out io.Writer, h types.HistoryEntry) {
	status := color.New(color.FgGreen).Sprint("✓")
	switch {
	case h.Observation == nil:
		status = color.New(color.FgHiBlack).Sprint("-")
	case !h.ActionSummary.Success:
		status = color.New(color.FgRed).Sprint("✗")
	}
	fmt.Fprintf(out, "  %2d. %s %s %s (understanding %s)\n",
		h.Iteration, status, h.ActionSummary.Type,
		truncateString(h.ActionSummary.Target, 50), percent(h.UnderstandingLevel))
	for _, f := range h.KeyFindings {
		fmt.Fprintf(out, "      - %s\n", f)
	}
	if h.Observation != nil && h.Observation.Error != "" {
		fmt.Fprintf(out, "      %s\n", color.New(color.FgRed).Sprint(truncateString(h.Observation.Error, 80)))
	}
}

// PrintKnowledge writes the non-empty knowledge sections.
func PrintKnowledge(out io.Writer, k types.KnowledgeState) {
	sections := []struct {
		name  string
		items []string
	}{
		{"Confirmed", k.Confirmed},
		{"Assumptions", k.Assumptions},
		{"Unknowns", k.Unknowns},
		{"Explored files", k.ExploredFiles},
		{"Explored directories", k.ExploredDirectories},
	}
	empty := true
	for _, sec := range sections {
		if len(sec.items) == 0 {
			continue
		}
		empty = false
		fmt.Fprintf(out, "  %s:\n", sec.name)
		for _, item := range sec.items {
			fmt.Fprintf(out, "    - %s\n", item)
		}
	}
	if empty {
		fmt.Fprintln(out, "  (none)")
	}
}

// PrintResult writes the outcome of a finished run.
func PrintResult(out io.Writer, res *explore.Result) {
	if res == nil {
		return
	}
	c := outcomeColor(res.Outcome)
	fmt.Fprintf(out, "\n%s %s after %d iterations (understanding %s)\n",
		c.Sprint("●"), c.Sprint(res.Outcome), res.Iterations, percent(res.UnderstandingLevel))
	if res.CeilingReached {
		fmt.Fprintln(out, "  Iteration ceiling reached.")
	}
	if res.Reason != "" {
		fmt.Fprintf(out, "  %s\n", res.Reason)
	}
	fmt.Fprintf(out, "  Session: %s\n", res.SessionID)
}

func outcomeColor(o types.Outcome) *color.Color {
	switch o {
	case types.OutcomeHandedOff:
		return color.New(color.FgGreen)
	case types.OutcomeInsufficientConfidence:
		return color.New(color.FgYellow)
	case types.OutcomeAborted:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}
