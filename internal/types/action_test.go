package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionTypeIsValid(t *testing.T) {
	for _, at := range []ActionType{ActionReadFile, ActionSearchContent, ActionReadTerminal, ActionListDirectory} {
		assert.True(t, at.IsValid(), at)
	}
	assert.False(t, ActionType("write_file").IsValid())
	assert.False(t, ActionType("").IsValid())
}

func TestUnmarshalAction(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Action
	}{
		{"read_file", `{"type":"read_file","parameters":{"path":"main.go"}}`, ReadFile{Path: "main.go"}},
		{"search_content", `{"type":"search_content","parameters":{"query":"TODO","scope":"internal"}}`, SearchContent{Query: "TODO", Scope: "internal"}},
		{"read_terminal", `{"type":"read_terminal","parameters":{"command":"go version"}}`, ReadTerminal{Command: "go version"}},
		{"list_directory", `{"type":"list_directory","parameters":{"path":".","recursive":true}}`, ListDirectory{Path: ".", Recursive: true}},
		{"inline parameters", `{"type":"read_file","path":"go.mod"}`, ReadFile{Path: "go.mod"}},
		{"null parameters", `{"type":"list_directory","parameters":null,"path":"src"}`, ListDirectory{Path: "src"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalAction([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalActionUnknownType(t *testing.T) {
	_, err := UnmarshalAction([]byte(`{"type":"delete_file","parameters":{"path":"x"}}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAction))
	assert.Contains(t, err.Error(), "delete_file")
}

func TestUnmarshalActionMalformed(t *testing.T) {
	_, err := UnmarshalAction([]byte(`{"type":`))
	require.Error(t, err)

	_, err = UnmarshalAction([]byte(`{"type":"read_file","parameters":{"path":42}}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownAction))
}

func TestMarshalActionWireForm(t *testing.T) {
	data, err := MarshalAction(SearchContent{Query: "handler"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "search_content", raw["type"])
	params, ok := raw["parameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "handler", params["query"])

	back, err := UnmarshalAction(data)
	require.NoError(t, err)
	assert.Equal(t, SearchContent{Query: "handler"}, back)
}

func TestActionTarget(t *testing.T) {
	assert.Equal(t, "a.go", ReadFile{Path: "a.go"}.Target())
	assert.Equal(t, "needle", SearchContent{Query: "needle"}.Target())
	assert.Equal(t, "ls", ReadTerminal{Command: "ls"}.Target())
	assert.Equal(t, "src", ListDirectory{Path: "src"}.Target())
}
