package cli_test

import (
	"testing"
	"time"

	"github.com/aretw0/stategraph/internal/cli"
	"github.com/aretw0/stategraph/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLocker_DisabledByDefault(t *testing.T) {
	locker, ttl, err := cli.BuildLocker(config.CheckpointConfig{Driver: "redis"})
	require.NoError(t, err)
	assert.Nil(t, locker)
	assert.Zero(t, ttl)
}

func TestBuildLocker_MemoryDriverIgnoresLocking(t *testing.T) {
	locker, _, err := cli.BuildLocker(config.CheckpointConfig{Driver: "memory", Locking: true})
	require.NoError(t, err)
	assert.Nil(t, locker)
}

func TestBuildLocker_RedisDriverBuildsLocker(t *testing.T) {
	locker, ttl, err := cli.BuildLocker(config.CheckpointConfig{
		Driver:   "redis",
		RedisURL: "localhost:6379",
		Prefix:   "stategraph:",
		Locking:  true,
		LockTTL:  "5s",
	})
	require.NoError(t, err)
	require.NotNil(t, locker)
	assert.Equal(t, 5*time.Second, ttl)
}

func TestBuildLocker_InvalidTTLErrors(t *testing.T) {
	_, _, err := cli.BuildLocker(config.CheckpointConfig{Driver: "redis", Locking: true, LockTTL: "not-a-duration"})
	assert.Error(t, err)
}
