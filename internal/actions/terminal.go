package actions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/steveyegge/scout/internal/types"
)

// waitDelay bounds how long Wait blocks on pipes held open by orphaned
// grandchildren after the process group is killed.
const waitDelay = 2 * time.Second

var errOutputLimit = errors.New("output limit exceeded")

// readTerminal runs a shell command in the workspace root. The timeout is
// derived from a context detached from the caller's cancellation, so a stop
// request never interrupts a running command. Partial output is returned
// alongside any error.
func (e *Executor) readTerminal(ctx context.Context, a types.ReadTerminal) (*types.TerminalOutput, error) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.commandTimeout)
	defer cancel()
	killCtx, kill := context.WithCancelCause(runCtx)
	defer kill(nil)

	name, args := shellCommand(a.Command)
	cmd := exec.CommandContext(killCtx, name, args...)
	cmd.Dir = e.root
	setupProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	onOverflow := func() { kill(errOutputLimit) }
	outW := &limitedWriter{w: &stdout, max: e.outputLimit, onOverflow: onOverflow}
	errW := &limitedWriter{w: &stderr, max: e.outputLimit, onOverflow: onOverflow}
	cmd.Stdout = outW
	cmd.Stderr = errW

	start := time.Now()
	runErr := cmd.Run()

	out := &types.TerminalOutput{
		Command:          a.Command,
		Stdout:           stdout.String(),
		Stderr:           stderr.String(),
		WorkingDirectory: e.root,
		ExitCode:         -1,
		TimedOut:         errors.Is(runCtx.Err(), context.DeadlineExceeded),
		Truncated:        outW.truncated || errW.truncated,
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	e.logger.Sugar().Debugf("command %q finished in %s (exit %d, timedOut=%v, truncated=%v)",
		a.Command, time.Since(start).Round(time.Millisecond), out.ExitCode, out.TimedOut, out.Truncated)

	switch {
	case out.TimedOut:
		return out, fmt.Errorf("%w: command exceeded %s", types.ErrTimeout, e.commandTimeout)
	case out.Truncated:
		return out, fmt.Errorf("%w: command output exceeded %d bytes", types.ErrExecution, e.outputLimit)
	case runErr != nil:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return out, fmt.Errorf("%w: command exited with status %d", types.ErrExecution, out.ExitCode)
		}
		return out, fmt.Errorf("%w: failed to run command: %v", types.ErrExecution, runErr)
	}
	out.ExitCode = 0
	return out, nil
}
