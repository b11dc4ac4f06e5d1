// Package display renders exploration progress and stored sessions for the
// terminal.
package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/steveyegge/scout/internal/events"
)

var _ events.Sink = (*Printer)(nil)

// Printer is an events.Sink that writes a two-line progress entry per event.
// Plan chunks are streamed verbatim.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	inPlan  bool
}

// NewPrinter creates a Printer. Verbose also prints the routine
// iteration, action start and knowledge events.
func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{out: out, verbose: verbose}
}

// Publish renders one event.
func (p *Printer) Publish(_ context.Context, event *events.ExplorationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.Type == events.EventTypePlanChunk {
		if !p.inPlan {
			p.inPlan = true
			bold := color.New(color.FgCyan, color.Bold)
			fmt.Fprintf(p.out, "\n%s\n\n", bold.Sprint("Implementation plan"))
		}
		_, err := io.WriteString(p.out, event.Message)
		return err
	}
	if p.inPlan {
		p.inPlan = false
		fmt.Fprint(p.out, "\n\n")
	}

	if !p.verbose && isRoutine(event.Type) {
		return nil
	}

	typeColor := color.New(color.FgMagenta)
	iteration := ""
	if event.Iteration > 0 {
		iteration = color.New(color.FgGreen).Sprintf("#%d ", event.Iteration)
	}
	message := truncateString(event.Message, 60-len(string(event.Type)))

	_, err := fmt.Fprintf(p.out, "%s [%s] %s%s: %s\n",
		eventEmoji(event),
		event.Timestamp.Format("15:04:05"),
		iteration,
		typeColor.Sprint(event.Type),
		severityColor(event.Severity).Sprint(message),
	)
	if err != nil {
		return err
	}

	if metadata := eventMetadata(event); metadata != "" {
		gray := color.New(color.FgHiBlack)
		_, err = fmt.Fprintf(p.out, "  %s\n", gray.Sprint(metadata))
	}
	return err
}

func isRoutine(t events.EventType) bool {
	switch t {
	case events.EventTypeIterationStarted, events.EventTypeActionStarted, events.EventTypeKnowledgeUpdated:
		return true
	}
	return false
}

func eventEmoji(event *events.ExplorationEvent) string {
	switch event.Type {
	case events.EventTypeSessionStarted:
		return "🚀"
	case events.EventTypeIterationStarted:
		return "🔁"
	case events.EventTypeDecisionReceived:
		return "🧠"
	case events.EventTypeActionStarted:
		return "🔧"
	case events.EventTypeActionCompleted:
		if getBoolField(event.Data, "success", true) {
			return "✅"
		}
		return "❌"
	case events.EventTypeKnowledgeUpdated:
		return "📚"
	case events.EventTypeSessionTerminated:
		return "🏁"
	}

	switch event.Severity {
	case events.SeverityWarning:
		return "⚠️"
	case events.SeverityError:
		return "❌"
	default:
		return "•"
	}
}

func severityColor(severity events.EventSeverity) *color.Color {
	switch severity {
	case events.SeverityInfo:
		return color.New(color.FgCyan)
	case events.SeverityWarning:
		return color.New(color.FgYellow)
	case events.SeverityError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}

// eventMetadata extracts the key fields of an event as a pipe-separated line.
func eventMetadata(event *events.ExplorationEvent) string {
	var fields []string

	switch event.Type {
	case events.EventTypeDecisionReceived:
		// decision: understanding | action target | continue
		understanding := percent(getFloatField(event.Data, "understanding_level", 0))
		action := strings.TrimSpace(getStringField(event.Data, "action_type", "") + " " +
			truncateString(getStringField(event.Data, "target", ""), 30))
		next := "stop"
		if getBoolField(event.Data, "continue_exploration", false) {
			next = "continue"
		}
		fields = []string{understanding, action, next}

	case events.EventTypeActionCompleted:
		// action: success | type | target | duration | error
		success := "✓"
		if !getBoolField(event.Data, "success", false) {
			success = "✗"
		}
		fields = []string{
			success,
			getStringField(event.Data, "action_type", "unknown"),
			truncateString(getStringField(event.Data, "target", ""), 30),
			formatDurationMs(getIntField(event.Data, "duration_ms", 0)),
			truncateString(getStringField(event.Data, "error", ""), 40),
		}

	case events.EventTypeKnowledgeUpdated:
		fields = []string{
			fmt.Sprintf("%d confirmed", getIntField(event.Data, "confirmed", 0)),
			fmt.Sprintf("%d assumptions", getIntField(event.Data, "assumptions", 0)),
			fmt.Sprintf("%d unknowns", getIntField(event.Data, "unknowns", 0)),
			fmt.Sprintf("%d files", getIntField(event.Data, "explored_files", 0)),
			fmt.Sprintf("%d dirs", getIntField(event.Data, "explored_directories", 0)),
		}

	case events.EventTypeSessionTerminated:
		// terminated: outcome | iterations | understanding | ceiling
		fields = []string{
			getStringField(event.Data, "outcome", "unknown"),
			fmt.Sprintf("%d iterations", getIntField(event.Data, "iterations", 0)),
			percent(getFloatField(event.Data, "understanding_level", 0)),
		}
		if getBoolField(event.Data, "ceiling_reached", false) {
			fields = append(fields, "ceiling reached")
		}

	default:
		if err, ok := event.Data["error"].(string); ok {
			fields = append(fields, truncateString(err, 50))
		}
	}

	return truncateString(joinFields(fields), 70)
}
