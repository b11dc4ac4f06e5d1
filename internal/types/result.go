package types

import "time"

// ActionResult is the outcome of executing one action. Failures are carried
// as Success=false with Error set; the executor never returns a Go error.
type ActionResult struct {
	ActionType ActionType `json:"actionType"`
	Success    bool       `json:"success"`
	Data       any        `json:"data"`
	Error      string     `json:"error,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// FileContent is the payload of a successful read_file action.
type FileContent struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	LineCount int    `json:"lineCount"`
	ByteSize  int64  `json:"byteSize"`
}

// SearchMatch is a single matching line.
type SearchMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// SearchResults is the payload of a search_content action.
type SearchResults struct {
	Query        string        `json:"query"`
	Scope        string        `json:"scope"`
	Matches      []SearchMatch `json:"matches"`
	TotalMatches int           `json:"totalMatches"`
	FilesScanned int           `json:"filesScanned"`
	Truncated    bool          `json:"truncated,omitempty"`
}

// TerminalOutput is the payload of a read_terminal action. It is attached to
// failed results too so partial output survives a timeout or non-zero exit.
type TerminalOutput struct {
	Command          string `json:"command"`
	Stdout           string `json:"stdout"`
	Stderr           string `json:"stderr"`
	WorkingDirectory string `json:"workingDirectory"`
	ExitCode         int    `json:"exitCode"`
	TimedOut         bool   `json:"timedOut,omitempty"`
	Truncated        bool   `json:"truncated,omitempty"`
}

// EntryKind classifies a directory entry.
type EntryKind string

const (
	EntryFile      EntryKind = "file"
	EntryDirectory EntryKind = "directory"
)

// DirectoryEntry is one item of a directory listing. Path is relative to the
// workspace root and uses forward slashes.
type DirectoryEntry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Type     EntryKind `json:"type"`
	Language string    `json:"language,omitempty"`
	Depth    int       `json:"depth"`
}

// DirectoryListing is the payload of a list_directory action.
type DirectoryListing struct {
	Path             string           `json:"path"`
	Recursive        bool             `json:"recursive"`
	Entries          []DirectoryEntry `json:"entries"`
	TotalFiles       int              `json:"totalFiles"`
	TotalDirectories int              `json:"totalDirectories"`
}
