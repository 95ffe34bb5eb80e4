// Package dsl loads a StateGraph from a declarative YAML description,
// resolving each node's action by name against a Registry of built-in
// actions. Grounded on the teacher's pkg/registry (a name-to-function map
// with a concurrency-safe Register/Execute contract) and pkg/dsl's fluent
// node-builder shape, adapted here from tool-call dispatch to node-action
// dispatch.
package dsl

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/aretw0/stategraph/pkg/state"
)

// ActionFactory builds a graph.NodeAction from a node's declared params.
type ActionFactory func(params map[string]any) (graph.NodeAction, error)

// Registry maps action names (as used in a YAML graph file's "action"
// field) to factories that build the corresponding NodeAction.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ActionFactory
}

// NewRegistry returns a Registry seeded with the built-in actions: "noop",
// "set", "increment", "append".
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]ActionFactory)}
	r.Register("noop", noopFactory)
	r.Register("set", setFactory)
	r.Register("increment", incrementFactory)
	r.Register("append", appendFactory)
	return r
}

// Register adds or overwrites the factory for name.
func (r *Registry) Register(name string, f ActionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build resolves name against the registry and constructs its action.
func (r *Registry) Build(name string, params map[string]any) (graph.NodeAction, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dsl: unknown action %q", name)
	}
	return f(params)
}

func noopFactory(map[string]any) (graph.NodeAction, error) {
	return func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{}, nil
	}, nil
}

func setFactory(params map[string]any) (graph.NodeAction, error) {
	key, _ := params["key"].(string)
	if key == "" {
		return nil, fmt.Errorf("dsl: set action requires a \"key\" param")
	}
	value := params["value"]
	return func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{key: value}, nil
	}, nil
}

func incrementFactory(params map[string]any) (graph.NodeAction, error) {
	key, _ := params["key"].(string)
	if key == "" {
		return nil, fmt.Errorf("dsl: increment action requires a \"key\" param")
	}
	by := 1
	if v, ok := params["by"]; ok {
		if f, ok := toFloat(v); ok {
			by = int(f)
		}
	}
	return func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		old := 0
		if f, ok := toFloat(s[key]); ok {
			old = int(f)
		}
		return state.Update{key: old + by}, nil
	}, nil
}

func appendFactory(params map[string]any) (graph.NodeAction, error) {
	key, _ := params["key"].(string)
	if key == "" {
		return nil, fmt.Errorf("dsl: append action requires a \"key\" param")
	}
	value := params["value"]
	return func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (state.Update, error) {
		return state.Update{key: append(toAnySlice(s[key]), value)}, nil
	}, nil
}

// toAnySlice coerces a channel value produced by appendFactory (nil or
// []any) into a fresh []any ready to be grown.
func toAnySlice(v any) []any {
	if v == nil {
		return nil
	}
	if l, ok := v.([]any); ok {
		return append([]any(nil), l...)
	}
	return []any{v}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
