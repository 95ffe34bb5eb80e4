package checkpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract exercises the store contract every adapter must satisfy,
// grounded on the teacher's shared ports.RunStateStoreContract helper. Both
// the in-memory and Redis adapters run this same suite.
func RunStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	thread := "contract-thread"

	t.Run("put then get by id", func(t *testing.T) {
		id, err := store.Put(ctx, thread, Checkpoint{NodeID: "A", NextNodeID: "B", State: []byte("s1")})
		require.NoError(t, err)

		got, err := store.Get(ctx, thread, id)
		require.NoError(t, err)
		assert.Equal(t, "A", got.NodeID)
		assert.Equal(t, []byte("s1"), got.State)
	})

	t.Run("get with empty id returns latest", func(t *testing.T) {
		thread := "latest-thread"
		_, err := store.Put(ctx, thread, Checkpoint{NodeID: "A", State: []byte("1")})
		require.NoError(t, err)
		_, err = store.Put(ctx, thread, Checkpoint{NodeID: "B", State: []byte("2")})
		require.NoError(t, err)

		latest, err := store.Get(ctx, thread, "")
		require.NoError(t, err)
		assert.Equal(t, "B", latest.NodeID)
	})

	t.Run("get on unknown thread returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "no-such-thread", "")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("list preserves insertion order", func(t *testing.T) {
		thread := "list-thread"
		var ids []string
		for _, n := range []string{"A", "B", "C"} {
			id, err := store.Put(ctx, thread, Checkpoint{NodeID: n, State: []byte(n)})
			require.NoError(t, err)
			ids = append(ids, id)
		}

		list, err := store.List(ctx, thread)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, cp := range list {
			assert.Equal(t, ids[i], cp.ID)
		}
		assert.Equal(t, "A", list[0].NodeID)
		assert.Equal(t, "C", list[2].NodeID)
	})

	t.Run("delete removes a checkpoint", func(t *testing.T) {
		thread := "delete-thread"
		id, err := store.Put(ctx, thread, Checkpoint{NodeID: "A", State: []byte("x")})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, thread, id))

		_, err = store.Get(ctx, thread, id)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
