package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/aretw0/stategraph/pkg/serialize"
	"github.com/aretw0/stategraph/pkg/state"
)

// frontierSep joins the node ids of a fanout round into a single string for
// Snapshot.NodeID/NextNode and for the checkpoint record's node fields.
// Node ids may not themselves contain it, since graph identifiers are
// caller-supplied plain strings and this engine does not attempt to escape
// collisions — documented as a simplification.
const frontierSep = "|"

func joinFrontier(ids []string) string { return strings.Join(ids, frontierSep) }
func splitFrontier(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, frontierSep)
}

// Runner drives a single compiled graph's step loop. It is safe to reuse
// across invocations; a Runner holds no per-invocation state itself.
type Runner struct {
	cg         *graph.CompiledGraph
	logger     *slog.Logger
	hooks      Hooks
	serializer serialize.Serializer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger used for step-transition and error
// records. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithHooks registers lifecycle hooks for metrics/observability wiring.
func WithHooks(h Hooks) Option {
	return func(r *Runner) { r.hooks = h }
}

// WithSerializer overrides the checkpoint state codec. Defaults to
// serialize.NewGobSerializer().
func WithSerializer(s serialize.Serializer) Option {
	return func(r *Runner) { r.serializer = s }
}

// New builds a Runner for the given compiled graph.
func New(cg *graph.CompiledGraph, opts ...Option) *Runner {
	r := &Runner{
		cg:         cg,
		logger:     slog.New(slog.NewTextHandler(discardWriter{}, nil)),
		serializer: serialize.NewGobSerializer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Stream drives the graph from input (or from a checkpoint, if cfg names a
// thread with existing history and input is nil) and returns a channel of
// NodeOutput values in step order. The channel is closed after the final
// value, which carries either a Done/Interrupted/Cancelled snapshot or a
// non-nil Err.
func (r *Runner) Stream(ctx context.Context, input state.State, cfg graph.RunnableConfig) (<-chan NodeOutput, error) {
	out := make(chan NodeOutput, 1)
	frontier, cur, resumed, err := r.resolveStart(ctx, input, cfg)
	if err != nil {
		return nil, err
	}
	go r.loop(ctx, out, frontier, cur, cfg, resumed)
	return out, nil
}

// Invoke runs Stream to completion and returns the final state.
func (r *Runner) Invoke(ctx context.Context, input state.State, cfg graph.RunnableConfig) (state.State, error) {
	stream, err := r.Stream(ctx, input, cfg)
	if err != nil {
		return nil, err
	}
	var last NodeOutput
	for out := range stream {
		last = out
	}
	if last.Err != nil {
		return nil, last.Err
	}
	return last.Snapshot.State, nil
}

// resolveStart determines the initial dispatch frontier and state: either
// fresh from input via START's edge, or resumed from the thread's latest
// (or explicitly named) checkpoint.
func (r *Runner) resolveStart(ctx context.Context, input state.State, cfg graph.RunnableConfig) ([]string, state.State, bool, error) {
	store := r.cg.Config().CheckpointStore

	if input == nil && store != nil && cfg.ThreadID != "" {
		cp, err := store.Get(ctx, cfg.ThreadID, cfg.CheckpointID)
		switch {
		case err == nil:
			s, derr := r.serializer.Deserialize(cp.State)
			if derr != nil {
				return nil, nil, false, &CheckpointError{Cause: derr}
			}
			return splitFrontier(cp.NextNodeID), s, true, nil
		case errors.Is(err, checkpoint.ErrNotFound):
			// No prior checkpoint for this thread: fall through to a fresh
			// start from START.
		default:
			return nil, nil, false, &CheckpointError{Cause: err}
		}
	}

	if input == nil {
		input = state.State{}
	}
	frontier, newState, err := r.route(ctx, []string{graph.Start}, input, cfg)
	if err != nil {
		return nil, nil, false, err
	}
	return frontier, newState, false, nil
}

// loop runs the step machine. resumedPastInterrupt, when true, skips the
// interrupt-before check on the very first iteration only: the caller has
// already resumed from a checkpoint captured exactly at that pause point,
// so re-checking would interrupt forever instead of making progress.
func (r *Runner) loop(ctx context.Context, out chan<- NodeOutput, frontier []string, cur state.State, cfg graph.RunnableConfig, resumedPastInterrupt bool) {
	defer close(out)
	interrupts := newInterruptSets(r.cg.Config())
	store := r.cg.Config().CheckpointStore

	for {
		select {
		case <-ctx.Done():
			out <- NodeOutput{
				Snapshot: Snapshot{State: cur, NodeID: joinFrontier(frontier), Status: StatusCancelled},
				Err:      ErrCancelled,
			}
			return
		default:
		}

		if isEnd(frontier) {
			if r.cg.Config().ReleaseThreadAfterExecution && store != nil && cfg.ThreadID != "" {
				if err := releaseThread(ctx, store, cfg.ThreadID); err != nil {
					r.logger.Error("engine: release thread failed", "thread_id", cfg.ThreadID, "err", err)
				}
			}
			out <- NodeOutput{Snapshot: Snapshot{State: cur, NodeID: graph.End, Status: StatusDone}}
			return
		}
		// A fanout branch may reach END while sibling branches continue;
		// drop the finished branches and keep routing the rest.
		frontier = dropEnded(frontier)

		if !resumedPastInterrupt && anyIn(frontier, interrupts.before) {
			for _, n := range frontier {
				r.hooks.fireInterrupt(cfg.ThreadID, n)
			}
			r.persistCheckpoint(ctx, cfg, store, "", joinFrontier(frontier), cur)
			out <- NodeOutput{Snapshot: Snapshot{
				State: cur, NextNode: joinFrontier(frontier), Status: StatusInterrupted,
			}}
			return
		}
		resumedPastInterrupt = false

		merged, err := r.dispatchAndMerge(ctx, frontier, cur, cfg)
		if ctx.Err() != nil {
			// Cancelled while the step ran: its results are discarded and no
			// checkpoint is written for it.
			out <- NodeOutput{
				Snapshot: Snapshot{State: cur, NodeID: joinFrontier(frontier), Status: StatusCancelled},
				Err:      ErrCancelled,
			}
			return
		}
		if err != nil {
			r.logger.Error("engine: step failed", "thread_id", cfg.ThreadID, "nodes", joinFrontier(frontier), "err", err)
			out <- NodeOutput{
				Snapshot: Snapshot{State: cur, NodeID: joinFrontier(frontier), Status: StatusFailed},
				Err:      err,
			}
			return
		}
		cur = merged

		nextFrontier, routedState, err := r.route(ctx, frontier, cur, cfg)
		if err != nil {
			out <- NodeOutput{
				Snapshot: Snapshot{State: cur, NodeID: joinFrontier(frontier), Status: StatusFailed},
				Err:      err,
			}
			return
		}
		cur = routedState

		checkpointID := ""
		if store != nil {
			checkpointID = r.persistCheckpoint(ctx, cfg, store, joinFrontier(frontier), joinFrontier(nextFrontier), cur)
		}

		out <- NodeOutput{Snapshot: Snapshot{
			NodeID:       joinFrontier(frontier),
			State:        cur,
			NextNode:     joinFrontier(nextFrontier),
			CheckpointID: checkpointID,
			Status:       StatusRunning,
		}}

		if anyIn(frontier, interrupts.after) {
			for _, n := range frontier {
				r.hooks.fireInterrupt(cfg.ThreadID, n)
			}
			out <- NodeOutput{Snapshot: Snapshot{
				State: cur, NextNode: joinFrontier(nextFrontier), Status: StatusInterrupted,
			}}
			return
		}

		frontier = nextFrontier
	}
}

func isEnd(frontier []string) bool {
	if len(frontier) == 0 {
		return true
	}
	for _, n := range frontier {
		if n != graph.End {
			return false
		}
	}
	return true
}

func dropEnded(frontier []string) []string {
	out := make([]string, 0, len(frontier))
	for _, n := range frontier {
		if n != graph.End {
			out = append(out, n)
		}
	}
	return out
}

func anyIn(ids []string, set map[string]bool) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}

func (r *Runner) persistCheckpoint(ctx context.Context, cfg graph.RunnableConfig, store checkpoint.Store, nodeID, nextNodeID string, s state.State) string {
	if store == nil {
		return ""
	}
	data, err := r.serializer.Serialize(s)
	if err != nil {
		r.hooks.fireCheckpoint(cfg.ThreadID, Snapshot{}, err)
		return ""
	}
	id, err := store.Put(ctx, cfg.ThreadID, checkpoint.Checkpoint{NodeID: nodeID, NextNodeID: nextNodeID, State: data})
	snap := Snapshot{NodeID: nodeID, NextNode: nextNodeID, State: s, CheckpointID: id}
	r.hooks.fireCheckpoint(cfg.ThreadID, snap, err)
	if err != nil {
		r.logger.Error("engine: checkpoint failed", "thread_id", cfg.ThreadID, "err", err)
		return ""
	}
	return id
}

// dispatchAndMerge invokes every node in frontier concurrently against cur
// and folds their updates into a fresh state, in frontier (declaration)
// order.
func (r *Runner) dispatchAndMerge(ctx context.Context, frontier []string, cur state.State, cfg graph.RunnableConfig) (state.State, error) {
	updates := make([]state.Update, len(frontier))
	errs := make([]error, len(frontier))

	var wg sync.WaitGroup
	for i, id := range frontier {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			ev := NodeEvent{ThreadID: cfg.ThreadID, NodeID: id, Started: startTime()}
			r.hooks.fireEnter(ev)
			started := ev.Started
			update, err := r.dispatchOne(ctx, id, cur, cfg)
			r.hooks.fireLeave(ev, elapsed(started), err)
			updates[i] = update
			errs[i] = err
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, &ExecutionError{NodeID: frontier[i], Cause: err}
		}
	}

	schema := r.cg.Schema()
	merged := cur
	for _, u := range updates {
		merged = schema.Apply(merged, u)
	}
	return merged, nil
}

func (r *Runner) dispatchOne(ctx context.Context, id string, cur state.State, cfg graph.RunnableConfig) (state.Update, error) {
	action, nested, ok := r.cg.Dispatch(id)
	if !ok {
		return nil, fmt.Errorf("engine: no dispatch entry for node %q", id)
	}
	if nested != nil {
		sub := New(nested, WithLogger(r.logger), WithHooks(r.hooks), WithSerializer(r.serializer))
		final, err := sub.Invoke(ctx, cur, cfg)
		if err != nil {
			return nil, err
		}
		return state.Update(final), nil
	}
	return action(ctx, cur, cfg)
}

// route resolves the outgoing targets for every node in frontier, applying
// any conditional action's Command.Update to state immediately (before the
// jump is taken, per SPEC_FULL.md §4.5 tie-break (c)), and returns the
// concatenated (declaration-order) list of resolved targets.
func (r *Runner) route(ctx context.Context, frontier []string, cur state.State, cfg graph.RunnableConfig) ([]string, state.State, error) {
	var next []string
	schema := r.cg.Schema()

	for _, id := range frontier {
		edge, ok := r.cg.Outgoing(id)
		if !ok {
			// A node with no declared outgoing edge behaves as if it routed
			// directly to END.
			next = append(next, graph.End)
			continue
		}

		if edge.IsFanout() {
			for _, tv := range edge.Targets {
				next = append(next, tv.Target)
			}
			continue
		}

		tv := edge.Targets[0]
		if !tv.IsConditional() {
			next = append(next, tv.Target)
			continue
		}

		cmd, err := tv.Condition(ctx, cur, cfg)
		if err != nil {
			return nil, nil, &ExecutionError{NodeID: id, Cause: err}
		}
		if cmd.Update != nil {
			cur = schema.Apply(cur, cmd.Update)
		}
		if !cmd.HasGoto() {
			next = append(next, graph.End)
			continue
		}
		target, ok := tv.Mapping[cmd.GotoLabel]
		if !ok {
			return nil, nil, &RoutingError{NodeID: id, Label: cmd.GotoLabel}
		}
		next = append(next, target)
	}

	return next, cur, nil
}

func startTime() time.Time { return time.Now() }
func elapsed(since time.Time) time.Duration { return time.Since(since) }
