package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/stategraph/pkg/checkpoint/memory"
	"github.com/aretw0/stategraph/pkg/engine"
	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/aretw0/stategraph/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overwriteInt() *state.BaseChannel {
	return state.NewBaseChannel(func() any { return 0 }, nil)
}

func sumInt() *state.BaseChannel {
	return state.NewBaseChannel(func() any { return 0 }, func(old, new any) any {
		return old.(int) + new.(int)
	})
}

// (a) Linear
func TestScenarioLinear(t *testing.T) {
	schema := state.Schema{"count": overwriteInt()}
	g := graph.New(schema)
	require.NoError(t, g.AddNode("A", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"count": 1}, nil
	}))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", graph.End))

	cg, err := g.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	r := engine.New(cg)
	final, err := r.Invoke(context.Background(), state.State{}, graph.RunnableConfig{ThreadID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 1, final["count"])
}

// (b) Conditional
func TestScenarioConditional(t *testing.T) {
	schema := state.Schema{}
	g := graph.New(schema)
	require.NoError(t, g.AddNode("L", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"visitedL": true}, nil
	}))
	require.NoError(t, g.AddNode("R", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"visitedR": true}, nil
	}))
	require.NoError(t, g.SetConditionalEntryPoint(func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (graph.Command, error) {
		choice, _ := s["choice"].(string)
		return graph.GotoOnly(choice), nil
	}, map[string]string{"left": "L", "right": "R"}))
	require.NoError(t, g.AddEdge("L", graph.End))
	require.NoError(t, g.AddEdge("R", graph.End))

	cg, err := g.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	r := engine.New(cg)
	final, err := r.Invoke(context.Background(), state.State{"choice": "right"}, graph.RunnableConfig{ThreadID: "t2"})
	require.NoError(t, err)
	assert.Equal(t, "right", final["choice"])
	assert.Equal(t, true, final["visitedR"])
	_, hasL := final["visitedL"]
	assert.False(t, hasL)
}

// (c) Appender
func TestScenarioAppender(t *testing.T) {
	schema := state.Schema{"msgs": state.NewAppenderChannel(true)}
	g := graph.New(schema)
	appendX := func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"msgs": "x"}, nil
	}
	require.NoError(t, g.AddNode("A", appendX))
	require.NoError(t, g.AddNode("B", appendX))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", "B"))
	require.NoError(t, g.AddEdge("B", graph.End))

	cg, err := g.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	r := engine.New(cg)
	final, err := r.Invoke(context.Background(), state.State{}, graph.RunnableConfig{ThreadID: "t3"})
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, final["msgs"])
}

// (d) Removal
func TestScenarioRemoval(t *testing.T) {
	schema := state.Schema{"msgs": state.NewAppenderChannel(true)}
	g := graph.New(schema)
	appendX := func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"msgs": "x"}, nil
	}
	removeX := func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		ident := state.RemoveIdentifier(func(el any, _ int) bool { return el == "x" })
		return state.Update{"msgs": ident}, nil
	}
	require.NoError(t, g.AddNode("A", appendX))
	require.NoError(t, g.AddNode("B", appendX))
	require.NoError(t, g.AddNode("C", removeX))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", "B"))
	require.NoError(t, g.AddEdge("B", "C"))
	require.NoError(t, g.AddEdge("C", graph.End))

	cg, err := g.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	r := engine.New(cg)
	final, err := r.Invoke(context.Background(), state.State{}, graph.RunnableConfig{ThreadID: "t4"})
	require.NoError(t, err)
	assert.Equal(t, []any{}, final["msgs"])
}

// (e) Fanout merge
func TestScenarioFanoutMerge(t *testing.T) {
	schema := state.Schema{"count": sumInt()}
	g := graph.New(schema)
	noop := func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{}, nil
	}
	plusOne := func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"count": 1}, nil
	}
	require.NoError(t, g.AddNode("A", noop))
	require.NoError(t, g.AddNode("B", plusOne))
	require.NoError(t, g.AddNode("C", plusOne))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", "B"))
	require.NoError(t, g.AddEdge("A", "C"))
	require.NoError(t, g.AddEdge("B", graph.End))
	require.NoError(t, g.AddEdge("C", graph.End))

	cg, err := g.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	r := engine.New(cg)
	final, err := r.Invoke(context.Background(), state.State{}, graph.RunnableConfig{ThreadID: "t5"})
	require.NoError(t, err)
	assert.Equal(t, 2, final["count"])
}

// (f) Interrupt & resume
func TestScenarioInterruptAndResume(t *testing.T) {
	schema := state.Schema{"count": overwriteInt()}
	g := graph.New(schema)
	require.NoError(t, g.AddNode("A", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"count": 1}, nil
	}))
	require.NoError(t, g.AddNode("B", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"count": 2}, nil
	}))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", "B"))
	require.NoError(t, g.AddEdge("B", graph.End))

	store := memory.New()
	cg, err := g.Compile(graph.CompileConfig{CheckpointStore: store, InterruptBefore: []string{"B"}})
	require.NoError(t, err)

	r := engine.New(cg)
	cfg := graph.RunnableConfig{ThreadID: "t6"}

	stream, err := r.Stream(context.Background(), state.State{}, cfg)
	require.NoError(t, err)

	var outputs []engine.NodeOutput
	for o := range stream {
		outputs = append(outputs, o)
	}
	require.Len(t, outputs, 2)
	assert.Equal(t, engine.StatusRunning, outputs[0].Snapshot.Status)
	assert.Equal(t, "A", outputs[0].Snapshot.NodeID)
	assert.Equal(t, engine.StatusInterrupted, outputs[1].Snapshot.Status)

	final, err := r.Invoke(context.Background(), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, final["count"])
}

// (h) Cancellation
func TestScenarioCancellation(t *testing.T) {
	schema := state.Schema{"count": overwriteInt()}
	g := graph.New(schema)
	require.NoError(t, g.AddNode("A", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"count": 1}, nil
	}))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", graph.End))

	cg, err := g.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := engine.New(cg)
	stream, err := r.Stream(ctx, state.State{}, graph.RunnableConfig{ThreadID: "t11"})
	require.NoError(t, err)

	var last engine.NodeOutput
	for o := range stream {
		last = o
	}
	require.Error(t, last.Err)
	assert.True(t, engine.IsCancelled(last.Err))
	assert.Equal(t, engine.StatusCancelled, last.Snapshot.Status)
}

func TestGetStateAndStateHistory(t *testing.T) {
	schema := state.Schema{"count": overwriteInt()}
	g := graph.New(schema)
	require.NoError(t, g.AddNode("A", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"count": 1}, nil
	}))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", graph.End))

	store := memory.New()
	cg, err := g.Compile(graph.CompileConfig{CheckpointStore: store})
	require.NoError(t, err)

	r := engine.New(cg)
	cfg := graph.RunnableConfig{ThreadID: "t7"}
	_, err = r.Invoke(context.Background(), state.State{}, cfg)
	require.NoError(t, err)

	snap, err := r.GetState(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.State["count"])

	history, err := r.StateHistory(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "A", history[0].NodeID)
}

func TestUpdateStateInsertsSyntheticCheckpoint(t *testing.T) {
	schema := state.Schema{"notes": state.NewAppenderChannel(true)}
	g := graph.New(schema)
	require.NoError(t, g.AddNode("A", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{}, nil
	}))
	require.NoError(t, g.AddNode("B", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"notes": "b-note"}, nil
	}))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", "B"))
	require.NoError(t, g.AddEdge("B", graph.End))

	store := memory.New()
	cg, err := g.Compile(graph.CompileConfig{CheckpointStore: store, InterruptBefore: []string{"B"}})
	require.NoError(t, err)

	r := engine.New(cg)
	cfg := graph.RunnableConfig{ThreadID: "t8"}
	_, err = r.Invoke(context.Background(), state.State{}, cfg)
	require.NoError(t, err)

	resumeCfg, err := r.UpdateState(context.Background(), cfg, state.State{"notes": "human-note"}, "human")
	require.NoError(t, err)
	assert.Equal(t, "t8", resumeCfg.ThreadID)
	assert.NotEmpty(t, resumeCfg.CheckpointID)

	final, err := r.Invoke(context.Background(), nil, resumeCfg)
	require.NoError(t, err)
	assert.Equal(t, []any{"human-note", "b-note"}, final["notes"])
}

func TestLiftSyncAdaptsPlainFunction(t *testing.T) {
	schema := state.Schema{"count": overwriteInt()}
	g := graph.New(schema)
	require.NoError(t, g.AddNode("A", engine.LiftSync(func(s state.State) (state.Update, error) {
		return state.Update{"count": 7}, nil
	})))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", graph.End))

	cg, err := g.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	final, err := engine.New(cg).Invoke(context.Background(), state.State{}, graph.RunnableConfig{ThreadID: "t9"})
	require.NoError(t, err)
	assert.Equal(t, 7, final["count"])
}

func TestReleaseThreadAfterExecutionDeletesCheckpoints(t *testing.T) {
	schema := state.Schema{"count": overwriteInt()}
	g := graph.New(schema)
	require.NoError(t, g.AddNode("A", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{"count": 1}, nil
	}))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", graph.End))

	store := memory.New()
	cg, err := g.Compile(graph.CompileConfig{CheckpointStore: store, ReleaseThreadAfterExecution: true})
	require.NoError(t, err)

	r := engine.New(cg)
	cfg := graph.RunnableConfig{ThreadID: "t10"}
	_, err = r.Invoke(context.Background(), state.State{}, cfg)
	require.NoError(t, err)

	history, err := store.List(context.Background(), cfg.ThreadID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestScenarioNodeFailureSetsStatusFailed(t *testing.T) {
	schema := state.Schema{"count": overwriteInt()}
	g := graph.New(schema)
	require.NoError(t, g.AddNode("A", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return nil, fmt.Errorf("boom")
	}))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("A", graph.End))

	cg, err := g.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	r := engine.New(cg)
	stream, err := r.Stream(context.Background(), state.State{}, graph.RunnableConfig{ThreadID: "t12"})
	require.NoError(t, err)

	var last engine.NodeOutput
	for o := range stream {
		last = o
	}
	require.Error(t, last.Err)
	var execErr *engine.ExecutionError
	require.True(t, errors.As(last.Err, &execErr))
	assert.Equal(t, engine.StatusFailed, last.Snapshot.Status)
}

// A command-sugar node whose action returns an update-only Command (legal:
// at least one of goto/update must be set, not both) must never be routed
// using a goto label some other command-sugar node's earlier turn left
// behind; it must instead fail loudly with a RoutingError.
func TestScenarioCommandRoutingDoesNotLeakBetweenNodes(t *testing.T) {
	g := graph.New(nil)
	require.NoError(t, g.AddNode("C", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{}, nil
	}))
	require.NoError(t, g.AddNode("WRONG", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{}, nil
	}))
	require.NoError(t, g.AddNodeWithCommand("A", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (graph.Command, error) {
		return graph.NewCommand("toC", nil), nil
	}, map[string]string{"toC": "C"}))
	require.NoError(t, g.AddNodeWithCommand("D", func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (graph.Command, error) {
		return graph.UpdateOnly(state.Update{"done": true}), nil
	}, map[string]string{"toC": "WRONG"}))
	require.NoError(t, g.SetEntryPoint("A"))
	require.NoError(t, g.AddEdge("C", "D"))
	require.NoError(t, g.AddEdge("WRONG", graph.End))

	cg, err := g.Compile(graph.CompileConfig{})
	require.NoError(t, err)

	_, err = engine.New(cg).Invoke(context.Background(), state.State{}, graph.RunnableConfig{ThreadID: "t13"})
	require.Error(t, err)
	var routingErr *engine.RoutingError
	require.True(t, errors.As(err, &routingErr))
	assert.Equal(t, "D", routingErr.NodeID)
}
