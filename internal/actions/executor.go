// Package actions executes the inspection actions requested by the oracle
// against a single workspace root. Every action yields a timestamped
// ActionResult; failures are data, never Go errors or panics.
package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/steveyegge/scout/internal/types"
)

const (
	// CommandTimeout is the hard limit on a read_terminal subprocess
	CommandTimeout = 10 * time.Second

	// OutputLimit is the hard cap on each of stdout and stderr
	OutputLimit = 1 << 20

	// MaxListDepth is how deep a recursive list_directory descends
	MaxListDepth = 3

	// MaxSearchMatches caps search_content results
	MaxSearchMatches = 100

	// MaxSearchFileSize is the largest file search_content will scan
	MaxSearchFileSize = 1 << 20
)

// Executor runs actions inside a workspace root.
type Executor struct {
	root   string // absolute, symlinks resolved
	logger *zap.Logger
	now    func() time.Time

	commandTimeout time.Duration
	outputLimit    int64
}

// New creates an executor bound to root.
func New(root string, logger *zap.Logger) (*Executor, error) {
	if root == "" {
		return nil, errors.New("workspace root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", abs)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		root:           abs,
		logger:         logger,
		now:            time.Now,
		commandTimeout: CommandTimeout,
		outputLimit:    OutputLimit,
	}, nil
}

// Root returns the resolved workspace root.
func (e *Executor) Root() string {
	return e.root
}

// Execute validates and runs one action. It never returns an error and never
// panics; every failure is reported through the result.
func (e *Executor) Execute(ctx context.Context, action types.Action) (result types.ActionResult) {
	if action != nil {
		result.ActionType = action.Type()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action panicked",
				zap.String("type", string(result.ActionType)),
				zap.Any("panic", r))
			result.Success = false
			result.Data = nil
			result.Error = fmt.Sprintf("%s: action panicked: %v", types.ErrExecution, r)
		}
		result.Timestamp = e.now()
	}()

	if err := types.ValidateAction(action); err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	var (
		data any
		err  error
	)
	switch a := action.(type) {
	case types.ReadFile:
		data, err = e.readFile(a)
	case types.SearchContent:
		data, err = e.searchContent(ctx, a)
	case types.ReadTerminal:
		data, err = e.readTerminal(ctx, a)
	case types.ListDirectory:
		data, err = e.listDirectory(a)
	default:
		err = fmt.Errorf("%w: %T", types.ErrUnknownAction, action)
	}

	result.Data = data
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}

	e.logger.Debug("action executed",
		zap.String("type", string(result.ActionType)),
		zap.String("target", action.Target()),
		zap.Bool("success", result.Success),
		zap.Duration("duration", time.Since(start)),
		zap.String("error", result.Error))
	return result
}
