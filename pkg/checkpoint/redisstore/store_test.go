package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/aretw0/stategraph/pkg/checkpoint/redisstore"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *redisstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisstore.NewFromClient(client)
}

func TestStore_Contract(t *testing.T) {
	checkpoint.RunStoreContract(t, newTestStore(t))
}

func TestStore_ListThreads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "thread-a", checkpoint.Checkpoint{NodeID: "A", State: []byte("x")})
	require.NoError(t, err)
	_, err = store.Put(ctx, "thread-b", checkpoint.Checkpoint{NodeID: "B", State: []byte("y")})
	require.NoError(t, err)

	threads, err := store.ListThreads(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"thread-a", "thread-b"}, threads)
}

func TestLocker_MutualExclusion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	locker := redisstore.NewLocker(client, "stategraph:test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "thread-1", 5*time.Second)
	require.NoError(t, err)

	shortCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(shortCtx, "thread-1", 5*time.Second)
	require.Error(t, err, "lock should not be acquirable while held")

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "thread-1", 5*time.Second)
	require.NoError(t, err, "lock should be acquirable after release")
	require.NoError(t, unlock2(ctx))
}
