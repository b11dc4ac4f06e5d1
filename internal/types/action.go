package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActionType identifies one of the inspection actions the oracle can request.
type ActionType string

const (
	ActionReadFile      ActionType = "read_file"
	ActionSearchContent ActionType = "search_content"
	ActionReadTerminal  ActionType = "read_terminal"
	ActionListDirectory ActionType = "list_directory"
)

// IsValid checks if the action type is one of the four known kinds
func (t ActionType) IsValid() bool {
	switch t {
	case ActionReadFile, ActionSearchContent, ActionReadTerminal, ActionListDirectory:
		return true
	}
	return false
}

// Action is a closed sum over the four inspection kinds. The unexported
// marker method keeps implementations inside this package so a type switch
// over ReadFile, SearchContent, ReadTerminal and ListDirectory is exhaustive.
type Action interface {
	Type() ActionType
	// Target is the action's primary parameter (path, query or command),
	// used for history summaries.
	Target() string
	isAction()
}

// ReadFile reads a single file relative to the workspace root.
type ReadFile struct {
	Path string `json:"path" validate:"nonblank"`
}

// SearchContent searches file contents for a literal query.
type SearchContent struct {
	Query string `json:"query" validate:"nonblank"`
	Scope string `json:"scope,omitempty"`
}

// ReadTerminal runs a shell command in the workspace root.
type ReadTerminal struct {
	Command string `json:"command" validate:"nonblank"`
}

// ListDirectory lists a directory, optionally descending into subdirectories.
type ListDirectory struct {
	Path      string `json:"path" validate:"nonblank"`
	Recursive bool   `json:"recursive,omitempty"`
}

func (ReadFile) Type() ActionType      { return ActionReadFile }
func (SearchContent) Type() ActionType { return ActionSearchContent }
func (ReadTerminal) Type() ActionType  { return ActionReadTerminal }
func (ListDirectory) Type() ActionType { return ActionListDirectory }

func (a ReadFile) Target() string      { return a.Path }
func (a SearchContent) Target() string { return a.Query }
func (a ReadTerminal) Target() string  { return a.Command }
func (a ListDirectory) Target() string { return a.Path }

func (ReadFile) isAction()      {}
func (SearchContent) isAction() {}
func (ReadTerminal) isAction()  {}
func (ListDirectory) isAction() {}

// wireAction is the JSON form: {"type": "read_file", "parameters": {"path": "..."}}
type wireAction struct {
	Type       ActionType      `json:"type"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// MarshalAction encodes an action in its wire form.
func MarshalAction(a Action) ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	params, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s parameters: %w", a.Type(), err)
	}
	return json.Marshal(wireAction{Type: a.Type(), Parameters: params})
}

// UnmarshalAction decodes the wire form into a concrete action. Unknown kinds
// are rejected with ErrUnknownAction. Parameters may also be given inline next
// to "type", which models occasionally do.
func UnmarshalAction(data []byte) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}

	params := w.Parameters
	if len(bytes.TrimSpace(params)) == 0 || bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		params = data
	}

	switch w.Type {
	case ActionReadFile:
		var a ReadFile
		if err := json.Unmarshal(params, &a); err != nil {
			return nil, fmt.Errorf("failed to decode %s parameters: %w", w.Type, err)
		}
		return a, nil
	case ActionSearchContent:
		var a SearchContent
		if err := json.Unmarshal(params, &a); err != nil {
			return nil, fmt.Errorf("failed to decode %s parameters: %w", w.Type, err)
		}
		return a, nil
	case ActionReadTerminal:
		var a ReadTerminal
		if err := json.Unmarshal(params, &a); err != nil {
			return nil, fmt.Errorf("failed to decode %s parameters: %w", w.Type, err)
		}
		return a, nil
	case ActionListDirectory:
		var a ListDirectory
		if err := json.Unmarshal(params, &a); err != nil {
			return nil, fmt.Errorf("failed to decode %s parameters: %w", w.Type, err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, w.Type)
	}
}
