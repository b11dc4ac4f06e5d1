package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/steveyegge/scout/internal/config"
	"github.com/steveyegge/scout/internal/types"
)

func TestParseActionArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		recursive bool
		scope     string
		raw       string
		want      types.Action
		wantErr   string
	}{
		{name: "read file", args: []string{"read_file", "go.mod"}, want: types.ReadFile{Path: "go.mod"}},
		{name: "list default path", args: []string{"list_directory"}, want: types.ListDirectory{Path: "."}},
		{name: "list recursive", args: []string{"list_directory", "internal"}, recursive: true,
			want: types.ListDirectory{Path: "internal", Recursive: true}},
		{name: "search joins words", args: []string{"search_content", "func", "main"}, scope: "cmd",
			want: types.SearchContent{Query: "func main", Scope: "cmd"}},
		{name: "terminal joins words", args: []string{"read_terminal", "git", "log", "-1"},
			want: types.ReadTerminal{Command: "git log -1"}},
		{name: "raw wire form", raw: `{"type":"read_file","parameters":{"path":"README.md"}}`,
			want: types.ReadFile{Path: "README.md"}},
		{name: "no args", wantErr: "action type required"},
		{name: "unknown", args: []string{"write_file", "x"}, wantErr: "unknown action type"},
		{name: "read file needs one path", args: []string{"read_file"}, wantErr: "usage"},
		{name: "empty query", args: []string{"search_content", " "}, wantErr: "usage"},
		{name: "recursive on read", args: []string{"read_file", "a"}, recursive: true, wantErr: "--recursive"},
		{name: "scope on list", args: []string{"list_directory"}, scope: "x", wantErr: "--scope"},
		{name: "raw with args", args: []string{"read_file"}, raw: "{}", wantErr: "--raw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseActionArgs(tt.args, tt.recursive, tt.scope, tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPruneRetention(t *testing.T) {
	base := config.DefaultRetentionConfig()

	got, err := pruneRetention(base, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, base, got)

	got, err = pruneRetention(base, "7d", "", "90d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, got.Events.Std())
	assert.Equal(t, 90*24*time.Hour, got.ErrorEvents.Std())
	assert.Equal(t, 90*24*time.Hour, got.Sessions.Std())

	// Raising events above the configured error retention lifts it too
	got, err = pruneRetention(base, "120d", "", "")
	require.NoError(t, err)
	assert.Equal(t, got.Events, got.ErrorEvents)

	_, err = pruneRetention(base, "30d", "7d", "")
	assert.Error(t, err)

	_, err = pruneRetention(base, "soon", "", "")
	assert.ErrorContains(t, err, "--events")
}

func TestAIConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.APIKey = "sk-test"
	c.Model = "m"
	c.RateLimit = config.RateLimitConfig{RequestsPerMinute: 30, Burst: 3}

	got := aiConfig(c, nil)
	assert.Equal(t, "sk-test", got.APIKey)
	assert.Equal(t, "m", got.Model)
	assert.Equal(t, 3, got.Retry.MaxRetries)
	assert.Equal(t, time.Second, got.Retry.InitialBackoff)
	assert.Equal(t, 120*time.Second, got.Retry.Timeout)
	assert.True(t, got.Retry.CircuitBreakerEnabled)
	assert.Equal(t, 2, got.Retry.MaxConcurrentCalls)
	assert.Equal(t, 30, got.RateLimit.RequestsPerMinute)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = newLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}
