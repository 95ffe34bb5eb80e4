package graph_test

import (
	"context"
	"testing"

	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/aretw0/stategraph/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_MissingEntryPoint(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode("A", noopAction))
	require.NoError(t, g.AddEdge("A", graph.End))

	err := g.Validate(graph.InterruptConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry point")
}

func TestValidate_DanglingEdgeTarget(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode("A", noopAction))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", "ghost"))

	err := g.Validate(graph.InterruptConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestValidate_ConditionalMappingToUnknownNode(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode("A", noopAction))
	cond := func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (graph.Command, error) {
		return graph.GotoOnly("x"), nil
	}
	require.NoError(t, g.SetConditionalEntryPoint(cond, map[string]string{"x": "ghost"}))

	err := g.Validate(graph.InterruptConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestValidate_AcceptsWellFormedFanout(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode("A", noopAction))
	require.NoError(t, g.AddNode("B", noopAction))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", "B"))

	// A fanout with a duplicate target, or one mixed with a conditional
	// edge, cannot be built from outside the package: AddEdge and
	// AddConditionalEdges reject both shapes up front (see builder_test.go).
	// This test checks that a well-formed two-target fanout passes Validate.
	require.NoError(t, g.AddNode("C", noopAction))
	require.NoError(t, g.AddEdge("A", "C"))
	require.NoError(t, g.AddEdge("B", graph.End))
	require.NoError(t, g.AddEdge("C", graph.End))
	assert.NoError(t, g.Validate(graph.InterruptConfig{}))
}

func TestValidate_InterruptNodeMustExist(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode("A", noopAction))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", graph.End))

	err := g.Validate(graph.InterruptConfig{Before: []string{"ghost"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")

	assert.NoError(t, g.Validate(graph.InterruptConfig{Before: []string{"A"}}))
}
