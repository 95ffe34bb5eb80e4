// Package engine implements the step-by-step interpreter: routing,
// dispatch, merging, checkpointing, interruption, and snapshot emission
// over a compiled graph.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// ExecutionError wraps a failure from a node or condition action. It is
// terminal to the invocation.
type ExecutionError struct {
	NodeID string
	Cause  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("engine: node %q failed: %v", e.NodeID, e.Cause)
}
func (e *ExecutionError) Unwrap() error { return e.Cause }

// RoutingError reports a conditional action returning a label absent from
// its mapping. Terminal.
type RoutingError struct {
	NodeID string
	Label  string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("engine: node %q returned unmapped routing label %q", e.NodeID, e.Label)
}

// CheckpointError wraps a checkpoint store failure encountered during a
// step. Terminal unless the caller retries the invocation from a prior
// checkpoint.
type CheckpointError struct {
	Cause error
}

func (e *CheckpointError) Error() string { return fmt.Sprintf("engine: checkpoint failed: %v", e.Cause) }
func (e *CheckpointError) Unwrap() error { return e.Cause }

// ErrCancelled is returned when a run is terminated by context
// cancellation. It wraps context.Canceled so errors.Is(err,
// context.Canceled) holds.
var ErrCancelled = fmt.Errorf("engine: cancelled: %w", context.Canceled)

// IsCancelled reports whether err represents a cooperative cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
