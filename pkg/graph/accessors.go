package graph

import "github.com/aretw0/stategraph/pkg/state"

// Schema returns the state schema this compiled graph was built with.
func (cg *CompiledGraph) Schema() state.Schema { return cg.schema }

// Config returns the compile-time configuration (checkpoint store,
// interrupt sets) this graph was compiled with.
func (cg *CompiledGraph) Config() CompileConfig { return cg.config }

// NodeIDs returns every node id in declaration order (after subgraph
// flattening).
func (cg *CompiledGraph) NodeIDs() []string {
	out := make([]string, len(cg.nodeOrder))
	copy(out, cg.nodeOrder)
	return out
}

// Outgoing returns the routing edge declared for id, if any.
func (cg *CompiledGraph) Outgoing(id string) (*Edge, bool) {
	e, ok := cg.outgoing[id]
	return e, ok
}

// Dispatch resolves id to either a direct action or a nested compiled
// subgraph. Exactly one of the two return values is non-nil when ok is
// true.
func (cg *CompiledGraph) Dispatch(id string) (action NodeAction, nested *CompiledGraph, ok bool) {
	n, found := cg.nodes[id]
	if !found {
		return nil, nil, false
	}
	return n.action, n.nested, true
}
