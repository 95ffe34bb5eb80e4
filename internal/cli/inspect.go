package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/graph"
)

// Inspect loads and compiles the graph file, then prints its flattened node
// list and outgoing edges as a human-readable summary.
func Inspect(graphFile string, out io.Writer) error {
	g, err := dsl.Load(graphFile, dsl.NewRegistry())
	if err != nil {
		return err
	}
	cg, err := g.Compile(graph.CompileConfig{})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "nodes (%d):\n", len(cg.NodeIDs()))
	for _, id := range cg.NodeIDs() {
		edge, ok := cg.Outgoing(id)
		if !ok {
			fmt.Fprintf(out, "  %s -> (no outgoing edge, treated as END)\n", id)
			continue
		}
		fmt.Fprintf(out, "  %s -> %s\n", id, describeEdge(edge))
	}
	return nil
}

func describeEdge(e *graph.Edge) string {
	if e.IsFanout() {
		targets := ""
		for i, tv := range e.Targets {
			if i > 0 {
				targets += ", "
			}
			targets += tv.Target
		}
		return "[" + targets + "] (parallel)"
	}
	tv := e.Targets[0]
	if tv.IsConditional() {
		return "(conditional)"
	}
	return tv.Target
}
