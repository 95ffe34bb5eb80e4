package engine

import (
	"time"

	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/aretw0/stategraph/pkg/state"
)

// Status is the terminal (or non-terminal, for Running) outcome of a step.
type Status int

const (
	StatusRunning Status = iota
	StatusDone
	StatusInterrupted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusInterrupted:
		return "interrupted"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Snapshot is the value persisted by checkpointing and emitted to
// consumers after each step.
type Snapshot struct {
	NodeID       string
	State        state.State
	NextNode     string
	CheckpointID string
	Status       Status
}

// NodeOutput is one item of the lazy stream a run produces: either a
// Snapshot, or a terminal error.
type NodeOutput struct {
	Snapshot Snapshot
	Err      error
}

// NodeEvent describes a single node entering or leaving dispatch, passed to
// Hooks.
type NodeEvent struct {
	ThreadID string
	NodeID   string
	Started  time.Time
}

// Hooks lets a caller observe engine lifecycle events without modifying the
// engine itself, mirroring the teacher's domain.LifecycleHooks shape. Any
// field may be nil.
type Hooks struct {
	OnNodeEnter  func(NodeEvent)
	OnNodeLeave  func(NodeEvent, time.Duration, error)
	OnCheckpoint func(threadID string, cp Snapshot, err error)
	OnInterrupt  func(threadID, nodeID string)
}

func (h Hooks) fireEnter(ev NodeEvent) {
	if h.OnNodeEnter != nil {
		h.OnNodeEnter(ev)
	}
}
func (h Hooks) fireLeave(ev NodeEvent, d time.Duration, err error) {
	if h.OnNodeLeave != nil {
		h.OnNodeLeave(ev, d, err)
	}
}
func (h Hooks) fireCheckpoint(threadID string, snap Snapshot, err error) {
	if h.OnCheckpoint != nil {
		h.OnCheckpoint(threadID, snap, err)
	}
}
func (h Hooks) fireInterrupt(threadID, nodeID string) {
	if h.OnInterrupt != nil {
		h.OnInterrupt(threadID, nodeID)
	}
}

// interruptSets is derived once per Run from the compiled graph's config.
type interruptSets struct {
	before map[string]bool
	after  map[string]bool
}

func newInterruptSets(cfg graph.CompileConfig) interruptSets {
	before := make(map[string]bool, len(cfg.InterruptBefore))
	for _, id := range cfg.InterruptBefore {
		before[id] = true
	}
	after := make(map[string]bool, len(cfg.InterruptAfter))
	for _, id := range cfg.InterruptAfter {
		after[id] = true
	}
	return interruptSets{before: before, after: after}
}
