package graph

import (
	"fmt"

	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/aretw0/stategraph/pkg/state"
)

// CompileConfig configures the runtime behavior a compiled graph is fixed
// with: where to checkpoint, and where to pause for external intervention.
type CompileConfig struct {
	CheckpointStore             checkpoint.Store
	InterruptBefore             []string
	InterruptAfter              []string
	ReleaseThreadAfterExecution bool
}

// dispatchNode is what the compiler resolves each node id to: either a
// direct action, or a nested compiled subgraph invoked as an opaque runner.
type dispatchNode struct {
	action  NodeAction
	nested  *CompiledGraph
}

// CompiledGraph is the frozen, reusable output of Compile. It is read-only
// and safe to invoke concurrently from multiple goroutines/invocations.
type CompiledGraph struct {
	schema    state.Schema
	nodes     map[string]dispatchNode
	nodeOrder []string
	outgoing  map[string]*Edge
	config    CompileConfig
}

// Compile validates g and lowers it into a dispatch table, flattening any
// StateGraph subgraph nodes into the parent's namespace. CompiledGraph
// subgraph nodes are kept as opaque nested runners.
func (g *StateGraph) Compile(cfg CompileConfig) (*CompiledGraph, error) {
	interrupts := InterruptConfig{Before: cfg.InterruptBefore, After: cfg.InterruptAfter}
	flatNodes, flatOrder, flatEdges, err := flatten(g, "")
	if err != nil {
		return nil, err
	}

	flat := &StateGraph{
		schema:    g.schema,
		nodes:     flatNodes,
		nodeOrder: flatOrder,
		edges:     flatEdges,
		edgeOrder: keysInOrder(flatEdges, flatOrder),
	}
	if err := flat.Validate(interrupts); err != nil {
		return nil, err
	}

	dispatch := make(map[string]dispatchNode, len(flatNodes))
	for id, n := range flatNodes {
		switch {
		case n.compiledSubgraph != nil:
			dispatch[id] = dispatchNode{nested: n.compiledSubgraph}
		case n.subgraph != nil:
			return nil, newConfigErr(errInvalidNodeIdentifier, "subgraph node %q was not flattened", id)
		default:
			dispatch[id] = dispatchNode{action: n.action}
		}
	}

	return &CompiledGraph{
		schema:    g.schema,
		nodes:     dispatch,
		nodeOrder: flatOrder,
		outgoing:  flatEdges,
		config:    cfg,
	}, nil
}

// keysInOrder returns the subset of nodeOrder-adjacent edge sources plus
// Start, in a stable order matching insertion, for edges present in m.
func keysInOrder(m map[string]*Edge, nodeOrder []string) []string {
	seen := make(map[string]bool, len(m))
	var out []string
	if _, ok := m[Start]; ok {
		out = append(out, Start)
		seen[Start] = true
	}
	for _, id := range nodeOrder {
		if _, ok := m[id]; ok && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for src := range m {
		if !seen[src] {
			out = append(out, src)
			seen[src] = true
		}
	}
	return out
}

// flatten inlines every StateGraph-subgraph node of g under the given
// namespace prefix, returning the merged node/edge sets. prefix is empty at
// the top level and "<parentNodeID>." for nested subgraphs.
func flatten(g *StateGraph, prefix string) (map[string]node, []string, map[string]*Edge, error) {
	nodes := make(map[string]node)
	var order []string
	edges := make(map[string]*Edge)

	rewriteID := func(id string) string {
		if id == Start || id == End {
			return id
		}
		return prefix + id
	}

	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		newID := rewriteID(id)

		if n.subgraph == nil {
			nodes[newID] = node{id: newID, action: n.action, compiledSubgraph: n.compiledSubgraph}
			order = append(order, newID)
			continue
		}

		subPrefix := newID + "."
		if err := n.subgraph.Validate(InterruptConfig{}); err != nil {
			return nil, nil, nil, fmt.Errorf("subgraph %q: %w", id, err)
		}
		subNodes, subOrder, subEdges, err := flatten(n.subgraph, subPrefix)
		if err != nil {
			return nil, nil, nil, err
		}
		for k, v := range subNodes {
			nodes[k] = v
		}
		order = append(order, subOrder...)

		// Determine the sub-graph's single entry target (from its START edge).
		startEdge, ok := subEdges[Start]
		if !ok || startEdge.IsFanout() {
			return nil, nil, nil, newConfigErr(errMissingEntryPoint, "subgraph %q has no single entry point", id)
		}
		entryTarget := resolveEnterTarget(startEdge, subPrefix)

		// The parent's edge for this node (its "exit"), if any, becomes the
		// target that the sub-graph's internal END edges are rewired to.
		parentExit, hasExit := g.edges[id]

		for _, source := range subOrder2(subEdges, subPrefix) {
			if source == Start {
				continue
			}
			e := subEdges[source]
			rewritten := &Edge{Source: source}
			for _, tv := range e.Targets {
				if tv.IsConditional() {
					mapping := make(map[string]string, len(tv.Mapping))
					for label, target := range tv.Mapping {
						mapping[label] = rewriteSubTarget(target, subPrefix, parentExit, hasExit)
					}
					rewritten.Targets = append(rewritten.Targets, EdgeValue{Condition: tv.Condition, Mapping: mapping})
					continue
				}
				rewritten.Targets = append(rewritten.Targets, EdgeValue{
					Target: rewriteSubTarget(tv.Target, subPrefix, parentExit, hasExit),
				})
			}
			edges[source] = rewritten
		}

		// Any parent edge pointing at the placeholder node id now points at
		// the sub-graph's entry target instead.
		for _, pe := range g.edges {
			for i, tv := range pe.Targets {
				if !tv.IsConditional() && tv.Target == id {
					pe.Targets[i].Target = entryTarget
				}
				if tv.IsConditional() {
					for label, target := range tv.Mapping {
						if target == id {
							tv.Mapping[label] = entryTarget
						}
					}
				}
			}
		}
	}

	for _, source := range g.edgeOrder {
		e := g.edges[source]
		if n, ok := g.nodes[source]; ok && n.subgraph != nil {
			continue // already emitted above, rewired into the flattened set
		}
		newSource := rewriteID(source)
		rewritten := &Edge{Source: newSource}
		for _, tv := range e.Targets {
			if tv.IsConditional() {
				mapping := make(map[string]string, len(tv.Mapping))
				for label, target := range tv.Mapping {
					mapping[label] = rewriteID(target)
				}
				rewritten.Targets = append(rewritten.Targets, EdgeValue{Condition: tv.Condition, Mapping: mapping})
				continue
			}
			rewritten.Targets = append(rewritten.Targets, EdgeValue{Target: rewriteID(tv.Target)})
		}
		edges[newSource] = rewritten
	}

	return nodes, order, edges, nil
}

func resolveEnterTarget(startEdge *Edge, subPrefix string) string {
	tv := startEdge.Targets[0]
	if tv.IsConditional() {
		// A conditional entry point has no single target to splice in. The
		// sub-graph's START edge is not carried into the flattened set, so
		// this synthetic id names no node or edge and validation of the
		// flattened graph rejects it as a dangling target: StateGraph
		// subgraphs with a conditional entry point do not compile.
		return subPrefix + "__entry__"
	}
	// flatten has already namespaced the sub-graph's ids with subPrefix.
	return tv.Target
}

func rewriteSubTarget(target, subPrefix string, parentExit *Edge, hasExit bool) string {
	if target != End {
		return target // already namespaced by the recursive flatten call
	}
	if !hasExit || len(parentExit.Targets) == 0 {
		return End
	}
	return parentExit.Targets[0].Target
}

func subOrder2(edges map[string]*Edge, _ string) []string {
	out := make([]string, 0, len(edges))
	for src := range edges {
		out = append(out, src)
	}
	return out
}
