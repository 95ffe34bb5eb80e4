// Package graph implements the declarative graph model — nodes, edges,
// conditional routing and subgraphs — together with its validator and
// compiler.
package graph

import (
	"context"

	"github.com/aretw0/stategraph/pkg/state"
)

const (
	// Start is the reserved entry node id. It may never be an edge target.
	Start = "__START__"
	// End is the reserved terminal node id. It may never be an edge source.
	End = "__END__"

	// gotoKeyPrefix namespaces the synthetic, schema-invisible state key used
	// to thread a Command's GotoLabel through the "add node with conditional
	// routing" sugar form. See SPEC_FULL.md §9, Open Questions.
	gotoKeyPrefix = "__command_goto__:"
)

// gotoKeyFor returns the command-goto key scoped to a single command-sugar
// node, so two such nodes (or a router revisited on a later step) never read
// a label some other node's previous turn left behind.
func gotoKeyFor(id string) string {
	return gotoKeyPrefix + id
}

// RunnableConfig carries per-invocation parameters through to node and
// condition actions.
type RunnableConfig struct {
	ThreadID     string
	CheckpointID string
	NextNode     string
	Metadata     map[string]any
}

// NodeAction is a node's computation: given the current state and the
// invocation config, it returns a partial update to fold in.
type NodeAction func(ctx context.Context, s state.State, cfg RunnableConfig) (state.Update, error)

// Command is the routing directive a conditional action may return: an
// optional next-node label (looked up in the edge's mapping) and an
// optional state update. At least one of the two must be set; the zero
// Command is invalid except via EmptyCommand.
type Command struct {
	GotoLabel string
	Update    state.Update
	hasGoto   bool
}

// NewCommand builds a Command that both updates state and routes to label.
func NewCommand(label string, update state.Update) Command {
	return Command{GotoLabel: label, Update: update, hasGoto: label != ""}
}

// GotoOnly builds a Command that only routes, with an empty update.
func GotoOnly(label string) Command {
	return Command{GotoLabel: label, hasGoto: true}
}

// UpdateOnly builds a Command that only updates state, with no jump.
func UpdateOnly(update state.Update) Command {
	return Command{Update: update}
}

// EmptyCommand is the no-op command: no update, no jump.
func EmptyCommand() Command {
	return Command{}
}

// HasGoto reports whether the command carries a routing label.
func (c Command) HasGoto() bool { return c.hasGoto }

// ConditionalAction resolves routing (and optionally updates state) for a
// conditional edge or a command-sugar node.
type ConditionalAction func(ctx context.Context, s state.State, cfg RunnableConfig) (Command, error)

// EdgeValue is one target of an Edge: either a direct node id, or a
// condition that picks a target from a label→id mapping.
type EdgeValue struct {
	Target    string
	Condition ConditionalAction
	Mapping   map[string]string
}

// IsConditional reports whether this EdgeValue resolves via a condition
// rather than a direct target id.
func (e EdgeValue) IsConditional() bool { return e.Condition != nil }

// Edge is the outgoing routing rule for a single source node. Targets has
// length 1 for a plain or conditional edge, and length > 1 for a parallel
// fanout (in which case every EdgeValue is a direct target).
type Edge struct {
	Source  string
	Targets []EdgeValue
}

// IsFanout reports whether this edge dispatches to more than one direct
// target concurrently.
func (e Edge) IsFanout() bool { return len(e.Targets) > 1 }

// node is the builder's internal representation of an addNode call.
type node struct {
	id     string
	action NodeAction
	// subgraph is set for subgraph nodes not yet compiled.
	subgraph *StateGraph
	// compiledSubgraph is set for nodes wrapping an already-compiled graph.
	compiledSubgraph *CompiledGraph
}

func (n node) isSubgraph() bool {
	return n.subgraph != nil || n.compiledSubgraph != nil
}
