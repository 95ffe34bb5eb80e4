package dsl

import (
	"context"

	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/aretw0/stategraph/pkg/state"
)

// conditionalOn builds a ConditionalAction that routes using the string
// value stored at the state key named by on as the label looked up in the
// edge's mapping.
func conditionalOn(on string) graph.ConditionalAction {
	return func(ctx context.Context, s state.State, cfg graph.RunnableConfig) (graph.Command, error) {
		label, _ := s[on].(string)
		return graph.GotoOnly(label), nil
	}
}
