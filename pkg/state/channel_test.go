package state_test

import (
	"testing"

	"github.com/aretw0/stategraph/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaApply_EmptyUpdateIsIdempotent(t *testing.T) {
	schema := state.Schema{}
	current := state.State{"a": 1, "b": "x"}

	out := schema.Apply(current, state.Update{})

	assert.Equal(t, current, out)
}

func TestSchemaApply_DoesNotMutateInputs(t *testing.T) {
	schema := state.Schema{}
	current := state.State{"a": 1}

	out := schema.Apply(current, state.Update{"a": 2, "b": 3})

	require.Equal(t, 1, current["a"])
	assert.Equal(t, 2, out["a"])
	assert.Equal(t, 3, out["b"])
}

func TestBaseChannel_NoReducer(t *testing.T) {
	def := func() any { return 0 }
	ch := state.NewBaseChannel(def, nil)

	assert.Equal(t, 5, ch.Update("count", nil, 5))
	assert.Equal(t, 0, ch.Update("count", 5, state.MarkForReset))
	assert.Nil(t, ch.Update("count", 5, state.MarkForRemoval))
}

func TestBaseChannel_WithReducer(t *testing.T) {
	sum := func(old, new any) any { return old.(int) + new.(int) }
	ch := state.NewBaseChannel(func() any { return 0 }, sum)

	schema := state.Schema{"count": ch}
	out := schema.Apply(state.State{"count": 1}, state.Update{"count": 1})

	assert.Equal(t, 2, out["count"])
}

func TestSchemaApply_RemovalDropsKey(t *testing.T) {
	schema := state.Schema{}
	out := schema.Apply(state.State{"x": 1}, state.Update{"x": state.MarkForRemoval})

	_, present := out["x"]
	assert.False(t, present)
}

func TestSentinelIdentity(t *testing.T) {
	assert.True(t, state.IsMarkedForReset(state.MarkForReset))
	assert.False(t, state.IsMarkedForReset(state.MarkForRemoval))
	assert.False(t, state.IsMarkedForReset(nil))
	assert.False(t, state.IsMarkedForReset("MARK_FOR_RESET"))
}
