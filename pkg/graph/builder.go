package graph

import (
	"context"

	"github.com/aretw0/stategraph/pkg/state"
)

// StateGraph is the mutable, declarative graph definition a caller builds
// up before compiling. It is frozen (never mutated again) once Compile
// succeeds.
type StateGraph struct {
	schema state.Schema
	nodes  map[string]node
	// nodeOrder preserves insertion order for deterministic rendering.
	nodeOrder []string
	edges     map[string]*Edge
	// edgeOrder preserves insertion order for deterministic compilation.
	edgeOrder []string
}

// New creates an empty StateGraph over the given schema.
func New(schema state.Schema) *StateGraph {
	if schema == nil {
		schema = state.Schema{}
	}
	return &StateGraph{
		schema: schema,
		nodes:  make(map[string]node),
		edges:  make(map[string]*Edge),
	}
}

// Schema returns the state schema this graph was built with.
func (g *StateGraph) Schema() state.Schema { return g.schema }

// AddNode registers a plain node under id.
func (g *StateGraph) AddNode(id string, action NodeAction) error {
	if err := g.reserveNodeID(id); err != nil {
		return err
	}
	g.nodes[id] = node{id: id, action: action}
	g.nodeOrder = append(g.nodeOrder, id)
	return nil
}

// AddNodeWithCommand is sugar for "add an empty node, then add conditional
// edges from it": the node itself performs no state work of its own beyond
// what the command action returns. Per SPEC_FULL.md's Open Question
// resolution, the routing choice returned in Command.GotoLabel is honored
// by threading it through a synthetic state key rather than discarded.
func (g *StateGraph) AddNodeWithCommand(id string, action ConditionalAction, mapping map[string]string) error {
	key := gotoKeyFor(id)
	nodeAction := func(ctx context.Context, s state.State, cfg RunnableConfig) (state.Update, error) {
		cmd, err := action(ctx, s, cfg)
		if err != nil {
			return nil, err
		}
		update := state.Update{}
		for k, v := range cmd.Update {
			update[k] = v
		}
		if cmd.HasGoto() {
			update[key] = cmd.GotoLabel
		}
		return update, nil
	}
	if err := g.AddNode(id, nodeAction); err != nil {
		return err
	}
	// The condition runs once per visit to id and must never see a label
	// left by a previous turn: it clears the key the moment it reads it, via
	// the same schema.Apply(cmd.Update) call that route() already uses to
	// fold a Command's update into state before taking the jump.
	condition := func(ctx context.Context, s state.State, cfg RunnableConfig) (Command, error) {
		label, _ := s[key].(string)
		cmd := GotoOnly(label)
		cmd.Update = state.Update{key: state.MarkForRemoval}
		return cmd, nil
	}
	return g.AddConditionalEdges(id, condition, mapping)
}

// AddSubgraphNode registers id as wrapping a not-yet-compiled subgraph. The
// subgraph is flattened into the parent at Compile time.
func (g *StateGraph) AddSubgraphNode(id string, sub *StateGraph) error {
	if err := g.reserveNodeID(id); err != nil {
		return err
	}
	g.nodes[id] = node{id: id, subgraph: sub}
	g.nodeOrder = append(g.nodeOrder, id)
	return nil
}

// AddCompiledSubgraphNode registers id as wrapping an already-compiled
// graph, which the parent engine invokes as an opaque nested runner.
func (g *StateGraph) AddCompiledSubgraphNode(id string, compiled *CompiledGraph) error {
	if err := g.reserveNodeID(id); err != nil {
		return err
	}
	g.nodes[id] = node{id: id, compiledSubgraph: compiled}
	g.nodeOrder = append(g.nodeOrder, id)
	return nil
}

func (g *StateGraph) reserveNodeID(id string) error {
	if id == "" {
		return newConfigErr(errInvalidNodeIdentifier, "node id must not be empty")
	}
	if id == End {
		return newConfigErr(errInvalidNodeIdentifier, "node id %q is reserved (END)", id)
	}
	if id == Start {
		return newConfigErr(errInvalidNodeIdentifier, "node id %q is reserved (START)", id)
	}
	if _, exists := g.nodes[id]; exists {
		return newConfigErr(errDuplicateNode, "node %q already added", id)
	}
	return nil
}

// AddEdge declares a direct transition from source to target. Calling it
// again for the same source appends target to the existing edge's target
// list, forming a parallel fanout. source may be Start (setting the entry
// point); target may be End.
func (g *StateGraph) AddEdge(source, target string) error {
	if source == End {
		return newConfigErr(errInvalidEdgeIdentifier, "END cannot be an edge source")
	}
	if target == Start {
		return newConfigErr(errInvalidEdgeTarget, "START cannot be an edge target")
	}
	existing, ok := g.edges[source]
	if !ok {
		e := &Edge{Source: source, Targets: []EdgeValue{{Target: target}}}
		g.edges[source] = e
		g.edgeOrder = append(g.edgeOrder, source)
		return nil
	}
	if len(existing.Targets) == 1 && existing.Targets[0].IsConditional() {
		return newConfigErr(errDuplicateEdge, "source %q already has a conditional edge", source)
	}
	for _, t := range existing.Targets {
		if t.Target == target {
			return newConfigErr(errDuplicateEdgeTarget, "target %q already declared for source %q", target, source)
		}
	}
	existing.Targets = append(existing.Targets, EdgeValue{Target: target})
	return nil
}

// AddConditionalEdges declares a conditional transition from source: cond
// is invoked at routing time and its returned label is looked up in
// mapping to find the actual target. mapping must be non-empty and source
// must not already have an edge.
func (g *StateGraph) AddConditionalEdges(source string, cond ConditionalAction, mapping map[string]string) error {
	if source == End {
		return newConfigErr(errInvalidEdgeIdentifier, "END cannot be an edge source")
	}
	if len(mapping) == 0 {
		return newConfigErr(errEmptyMapping, "conditional edge mapping for %q must not be empty", source)
	}
	if _, exists := g.edges[source]; exists {
		return newConfigErr(errDuplicateConditionalDup, "source %q already has an edge", source)
	}
	for _, target := range mapping {
		if target == Start {
			return newConfigErr(errInvalidEdgeTarget, "START cannot be an edge target")
		}
	}
	g.edges[source] = &Edge{Source: source, Targets: []EdgeValue{{Condition: cond, Mapping: mapping}}}
	g.edgeOrder = append(g.edgeOrder, source)
	return nil
}

// SetEntryPoint is sugar for AddEdge(Start, id).
func (g *StateGraph) SetEntryPoint(id string) error {
	return g.AddEdge(Start, id)
}

// SetConditionalEntryPoint is sugar for AddConditionalEdges(Start, cond, mapping).
func (g *StateGraph) SetConditionalEntryPoint(cond ConditionalAction, mapping map[string]string) error {
	return g.AddConditionalEdges(Start, cond, mapping)
}
