package graph_test

import (
	"context"
	"testing"

	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/aretw0/stategraph/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_RejectsInvalidGraph(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode("A", noopAction))
	// No entry point declared.
	_, err := g.Compile(graph.CompileConfig{})
	assert.Error(t, err)
}

func TestCompile_FlattensStateGraphSubgraph(t *testing.T) {
	sub := graph.New(nil)
	require.NoError(t, sub.AddNode("inner", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"innerRan": true}, nil
	}))
	require.NoError(t, sub.SetEntryPoint("inner"))
	require.NoError(t, sub.AddEdge("inner", graph.End))

	parent := graph.New(nil)
	require.NoError(t, parent.AddNode("before", noopAction))
	require.NoError(t, parent.AddSubgraphNode("nested", sub))
	require.NoError(t, parent.AddNode("after", noopAction))
	require.NoError(t, parent.SetEntryPoint("before"))
	require.NoError(t, parent.AddEdge("before", "nested"))
	require.NoError(t, parent.AddEdge("nested", "after"))
	require.NoError(t, parent.AddEdge("after", graph.End))

	cg, err := parent.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	ids := cg.NodeIDs()
	assert.Contains(t, ids, "before")
	assert.Contains(t, ids, "nested.inner")
	assert.Contains(t, ids, "after")

	// The subgraph's internal node routes to "after" via the placeholder's
	// rewired exit edge, not to __END__.
	edge, ok := cg.Outgoing("nested.inner")
	require.True(t, ok)
	require.Len(t, edge.Targets, 1)
	assert.Equal(t, "after", edge.Targets[0].Target)

	// The parent's edge into the placeholder now points at the subgraph's
	// entry node.
	edge, ok = cg.Outgoing("before")
	require.True(t, ok)
	assert.Equal(t, "nested.inner", edge.Targets[0].Target)
}

func TestCompile_CompiledSubgraphStaysOpaque(t *testing.T) {
	inner := graph.New(nil)
	require.NoError(t, inner.AddNode("x", noopAction))
	require.NoError(t, inner.SetEntryPoint("x"))
	require.NoError(t, inner.AddEdge("x", graph.End))
	compiledInner, err := inner.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	parent := graph.New(nil)
	require.NoError(t, parent.AddCompiledSubgraphNode("nested", compiledInner))
	require.NoError(t, parent.SetEntryPoint("nested"))
	require.NoError(t, parent.AddEdge("nested", graph.End))

	cg, err := parent.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	action, nested, ok := cg.Dispatch("nested")
	require.True(t, ok)
	assert.Nil(t, action)
	assert.Same(t, compiledInner, nested)
}
