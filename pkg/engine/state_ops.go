package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/aretw0/stategraph/pkg/state"
)

// LiftSync adapts a synchronous state-transform function to a NodeAction.
// The engine already treats every NodeAction's return as the completed
// result of an asynchronous step, so lifting a plain function amounts to
// running it on the calling goroutine and forwarding its result unchanged.
func LiftSync(fn func(state.State) (state.Update, error)) graph.NodeAction {
	return func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return fn(s)
	}
}

func (r *Runner) checkpointStore() (checkpoint.Store, error) {
	store := r.cg.Config().CheckpointStore
	if store == nil {
		return nil, fmt.Errorf("engine: graph has no checkpoint store configured")
	}
	return store, nil
}

func (r *Runner) toSnapshot(cp checkpoint.Checkpoint) (Snapshot, error) {
	s, err := r.serializer.Deserialize(cp.State)
	if err != nil {
		return Snapshot{}, &CheckpointError{Cause: err}
	}
	status := StatusRunning
	if cp.NextNodeID == graph.End || cp.NextNodeID == "" {
		status = StatusDone
	}
	return Snapshot{
		NodeID:       cp.NodeID,
		State:        s,
		NextNode:     cp.NextNodeID,
		CheckpointID: cp.ID,
		Status:       status,
	}, nil
}

// GetState returns the thread's most recent checkpoint (or the one named by
// cfg.CheckpointID), decoded into a Snapshot.
func (r *Runner) GetState(ctx context.Context, cfg graph.RunnableConfig) (*Snapshot, error) {
	store, err := r.checkpointStore()
	if err != nil {
		return nil, err
	}
	cp, err := store.Get(ctx, cfg.ThreadID, cfg.CheckpointID)
	if err != nil {
		return nil, err
	}
	snap, err := r.toSnapshot(cp)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// StateHistory returns every checkpoint recorded for the thread, decoded
// and in insertion order.
func (r *Runner) StateHistory(ctx context.Context, cfg graph.RunnableConfig) ([]Snapshot, error) {
	store, err := r.checkpointStore()
	if err != nil {
		return nil, err
	}
	cps, err := store.List(ctx, cfg.ThreadID)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(cps))
	for _, cp := range cps {
		snap, err := r.toSnapshot(cp)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// UpdateState folds values into the thread's current state through the
// compiled graph's channel schema and persists the result as a synthetic
// checkpoint attributed to asNode, without dispatching any node action.
// Resuming the returned RunnableConfig continues from the same next node
// the thread was already headed to (human-in-the-loop state edits do not
// change routing by themselves).
func (r *Runner) UpdateState(ctx context.Context, cfg graph.RunnableConfig, values state.State, asNode string) (graph.RunnableConfig, error) {
	store, err := r.checkpointStore()
	if err != nil {
		return graph.RunnableConfig{}, err
	}

	var cur state.State
	nextNode := cfg.NextNode
	if prior, err := store.Get(ctx, cfg.ThreadID, cfg.CheckpointID); err == nil {
		cur, err = r.serializer.Deserialize(prior.State)
		if err != nil {
			return graph.RunnableConfig{}, &CheckpointError{Cause: err}
		}
		nextNode = prior.NextNodeID
	} else if !errors.Is(err, checkpoint.ErrNotFound) {
		return graph.RunnableConfig{}, &CheckpointError{Cause: err}
	}

	merged := r.cg.Schema().Apply(cur, state.Update(values))
	data, err := r.serializer.Serialize(merged)
	if err != nil {
		return graph.RunnableConfig{}, &CheckpointError{Cause: err}
	}

	id, err := store.Put(ctx, cfg.ThreadID, checkpoint.Checkpoint{NodeID: asNode, NextNodeID: nextNode, State: data})
	if err != nil {
		return graph.RunnableConfig{}, &CheckpointError{Cause: err}
	}

	return graph.RunnableConfig{ThreadID: cfg.ThreadID, CheckpointID: id, NextNode: nextNode, Metadata: cfg.Metadata}, nil
}

// releaseThread deletes every checkpoint recorded for threadID. Called from
// loop when the compiled graph's ReleaseThreadAfterExecution is set and a
// run reaches StatusDone: the store has no bulk-delete primitive, so this
// deletes each checkpoint id in turn.
func releaseThread(ctx context.Context, store checkpoint.Store, threadID string) error {
	cps, err := store.List(ctx, threadID)
	if err != nil {
		return err
	}
	for _, cp := range cps {
		if err := store.Delete(ctx, threadID, cp.ID); err != nil {
			return err
		}
	}
	return nil
}
