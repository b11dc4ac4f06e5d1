package types

import "errors"

// Action-level error classes. These never escape the action executor as Go
// errors; they are rendered into ActionResult.Error and remain matchable
// inside the executor and its tests.
var (
	// ErrValidation indicates a missing or empty required action parameter
	ErrValidation = errors.New("validation error")

	// ErrExecution indicates a filesystem or subprocess failure
	ErrExecution = errors.New("execution error")

	// ErrTimeout indicates a subprocess exceeded its time limit
	ErrTimeout = errors.New("timeout")

	// ErrPathOutsideWorkspace indicates a path resolved outside the workspace root
	ErrPathOutsideWorkspace = errors.New("path resolves outside workspace root")

	// ErrUnknownAction indicates an action kind outside the closed set
	ErrUnknownAction = errors.New("unknown action type")
)
