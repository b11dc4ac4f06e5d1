package handoff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LineBuffer splits a byte stream into lines, carrying a trailing partial
// line across chunk boundaries so a line split over two network reads is
// parsed once, whole.
type LineBuffer struct {
	partial []byte
}

// Write appends a chunk and returns every line it completed, without line
// terminators. A "\r\n" terminator is handled like "\n".
func (b *LineBuffer) Write(chunk []byte) []string {
	b.partial = append(b.partial, chunk...)
	var lines []string
	for {
		i := bytes.IndexByte(b.partial, '\n')
		if i < 0 {
			break
		}
		line := b.partial[:i]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		lines = append(lines, string(line))
		b.partial = b.partial[i+1:]
	}
	// Reclaim the consumed prefix
	if len(b.partial) == 0 {
		b.partial = b.partial[:0:0]
	}
	return lines
}

// Flush returns any buffered partial line at end of stream.
func (b *LineBuffer) Flush() (string, bool) {
	if len(b.partial) == 0 {
		return "", false
	}
	line := strings.TrimSuffix(string(b.partial), "\r")
	b.partial = nil
	return line, true
}

// Pending returns the number of buffered bytes not yet forming a line
func (b *LineBuffer) Pending() int {
	return len(b.partial)
}

// ParseLine decodes one line of a plan stream. Both raw NDJSON and
// server-sent-event framing ("data: {...}") are accepted. Blank lines, SSE
// comments and non-data SSE fields yield ok=false. "[DONE]" is a complete
// event.
func ParseLine(line string) (ev Event, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ":") {
		return Event{}, false, nil
	}
	if strings.HasPrefix(line, "data:") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	} else if isSSEField(line) {
		return Event{}, false, nil
	}
	if line == "" {
		return Event{}, false, nil
	}
	if line == "[DONE]" {
		return Complete(), true, nil
	}

	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return Event{}, false, fmt.Errorf("failed to decode stream event: %w", err)
	}
	switch ev.Kind {
	case EventChunk, EventComplete, EventError:
		return ev, true, nil
	default:
		return Event{}, false, fmt.Errorf("unknown stream event type %q", ev.Kind)
	}
}

func isSSEField(line string) bool {
	for _, f := range []string{"event:", "id:", "retry:"} {
		if strings.HasPrefix(line, f) {
			return true
		}
	}
	return false
}
