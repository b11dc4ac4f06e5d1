package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/storage/sqlite"
	"github.com/steveyegge/scout/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type fakeExplorer struct {
	mu      sync.Mutex
	goals   []string
	explore func(ctx context.Context, goal string) (*explore.Result, error)
	stopped chan struct{}
	once    sync.Once
}

func newFakeExplorer() *fakeExplorer {
	return &fakeExplorer{stopped: make(chan struct{})}
}

func (f *fakeExplorer) Explore(ctx context.Context, goal string) (*explore.Result, error) {
	f.mu.Lock()
	f.goals = append(f.goals, goal)
	f.mu.Unlock()
	if f.explore != nil {
		return f.explore(ctx, goal)
	}
	return &explore.Result{SessionID: "s-1", Outcome: types.OutcomeHandedOff, Iterations: 3, UnderstandingLevel: 0.8}, nil
}

func (f *fakeExplorer) RequestStop() { f.once.Do(func() { close(f.stopped) }) }

func (f *fakeExplorer) Goals() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.goals...)
}

type fakeStore struct {
	records []*sqlite.SessionRecord
	history map[string][]types.HistoryEntry
	limit   int
}

func (s *fakeStore) GetSession(_ context.Context, id string) (*sqlite.SessionRecord, error) {
	for _, rec := range s.records {
		if rec.Session.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", sqlite.ErrNotFound, id)
}

func (s *fakeStore) ListSessions(_ context.Context, limit int) ([]*sqlite.SessionRecord, error) {
	s.limit = limit
	return s.records, nil
}

func (s *fakeStore) GetHistory(_ context.Context, id string) ([]types.HistoryEntry, error) {
	return s.history[id], nil
}

func newTestREPL(t *testing.T, explorer Explorer, store Store) (*REPL, *bytes.Buffer, chan os.Signal) {
	t.Helper()
	var out bytes.Buffer
	r, err := New(&Config{Explorer: explorer, Store: store, Out: &out})
	require.NoError(t, err)
	sigs := make(chan os.Signal, 2)
	r.notify = func() (<-chan os.Signal, func()) { return sigs, func() {} }
	return r, &out, sigs
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(&Config{Store: &fakeStore{}})
	assert.Error(t, err)
	_, err = New(&Config{Explorer: newFakeExplorer()})
	assert.Error(t, err)
}

func TestGoalRunsExploration(t *testing.T) {
	explorer := newFakeExplorer()
	r, out, _ := newTestREPL(t, explorer, &fakeStore{})

	require.NoError(t, r.processInput("  Add rate limiting to the API  "))
	assert.Equal(t, []string{"Add rate limiting to the API"}, explorer.Goals())
	assert.Contains(t, out.String(), "handed_off after 3 iterations (understanding 80%)")
}

func TestExploreCommand(t *testing.T) {
	explorer := newFakeExplorer()
	r, _, _ := newTestREPL(t, explorer, &fakeStore{})

	require.NoError(t, r.processInput("explore help text for the CLI"))
	assert.Equal(t, []string{"help text for the CLI"}, explorer.Goals())

	assert.Error(t, r.processInput("explore"))
}

func TestBlankLineIgnored(t *testing.T) {
	explorer := newFakeExplorer()
	r, _, _ := newTestREPL(t, explorer, &fakeStore{})
	require.NoError(t, r.processInput("   "))
	assert.Empty(t, explorer.Goals())
}

func TestExplorationErrorReported(t *testing.T) {
	explorer := newFakeExplorer()
	explorer.explore = func(context.Context, string) (*explore.Result, error) {
		return &explore.Result{Outcome: types.OutcomeAborted}, explore.ErrOracle
	}
	r, out, _ := newTestREPL(t, explorer, &fakeStore{})

	err := r.processInput("fix the login bug")
	require.Error(t, err)
	assert.ErrorIs(t, err, explore.ErrOracle)
	assert.Contains(t, out.String(), "aborted")
}

func TestInterruptRequestsStop(t *testing.T) {
	explorer := newFakeExplorer()
	r, out, sigs := newTestREPL(t, explorer, &fakeStore{})
	explorer.explore = func(ctx context.Context, _ string) (*explore.Result, error) {
		sigs <- os.Interrupt
		select {
		case <-explorer.stopped:
		case <-time.After(5 * time.Second):
			return nil, errors.New("stop was not requested")
		}
		assert.NoError(t, ctx.Err(), "first interrupt must not cancel")
		return &explore.Result{Outcome: types.OutcomeAborted, Reason: "stop requested", Iterations: 2}, nil
	}

	require.NoError(t, r.processInput("add caching"))
	assert.Contains(t, out.String(), "stopping after the current iteration")
	assert.Contains(t, out.String(), "stop requested")
}

func TestSecondInterruptCancels(t *testing.T) {
	explorer := newFakeExplorer()
	r, out, sigs := newTestREPL(t, explorer, &fakeStore{})
	explorer.explore = func(ctx context.Context, _ string) (*explore.Result, error) {
		sigs <- os.Interrupt
		<-explorer.stopped
		sigs <- os.Interrupt
		select {
		case <-ctx.Done():
			return &explore.Result{Outcome: types.OutcomeAborted}, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, errors.New("context was not cancelled")
		}
	}

	err := r.processInput("add caching")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "cancelling exploration")
}

func TestSessionsCommand(t *testing.T) {
	store := &fakeStore{records: []*sqlite.SessionRecord{{Session: types.ExplorationSession{
		ID: "abcdef0123456789", ImplementationGoal: "add caching", Outcome: types.OutcomeHandedOff,
		StartedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}}}}
	r, out, _ := newTestREPL(t, newFakeExplorer(), store)

	require.NoError(t, r.processInput("sessions"))
	assert.Equal(t, 10, store.limit)
	assert.Contains(t, out.String(), "abcdef01")
	assert.Contains(t, out.String(), "add caching")

	require.NoError(t, r.processInput("sessions 3"))
	assert.Equal(t, 3, store.limit)

	assert.Error(t, r.processInput("sessions zero"))
}

func TestShowCommand(t *testing.T) {
	store := &fakeStore{
		records: []*sqlite.SessionRecord{{
			Session:   types.ExplorationSession{ID: "s-1", ImplementationGoal: "add caching"},
			Knowledge: types.KnowledgeState{Confirmed: []string{"redis client exists"}},
		}},
		history: map[string][]types.HistoryEntry{"s-1": {{
			Iteration:     1,
			ActionSummary: types.ActionSummary{Type: types.ActionListDirectory, Target: ".", Success: true},
		}}},
	}
	r, out, _ := newTestREPL(t, newFakeExplorer(), store)

	require.NoError(t, r.processInput("show s-1"))
	assert.Contains(t, out.String(), "Goal:       add caching")
	assert.Contains(t, out.String(), "list_directory .")
	assert.Contains(t, out.String(), "redis client exists")

	assert.ErrorIs(t, r.processInput("show missing"), sqlite.ErrNotFound)
	assert.Error(t, r.processInput("show"))
}

func TestExitAndHelp(t *testing.T) {
	r, out, _ := newTestREPL(t, newFakeExplorer(), &fakeStore{})

	require.NoError(t, r.processInput("help"))
	assert.Contains(t, out.String(), "Available Commands:")
	assert.ErrorIs(t, r.processInput("quit"), errExit)
	assert.ErrorIs(t, r.processInput("exit"), errExit)
}
