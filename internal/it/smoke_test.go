package it

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distcache/internal/config"
	"distcache/internal/store"
)

func TestSmoke_PutGetDelete_SingleKey(t *testing.T) {
	cluster, err := StartCluster(3, func(c *config.Config) {
		c.Strategy = "quorum"
		c.ReplicationFactor = 3
		c.WriteQuorum = 2
	})
	require.NoError(t, err, "start cluster")
	defer cluster.Stop()

	require.NoError(t, cluster.Put(0, "test-key", "test-value"))

	got, err := cluster.Get(0, "test-key")
	require.NoError(t, err)
	assert.Equal(t, "test-value", got)

	require.NoError(t, cluster.Delete(0, "test-key"))

	_, err = cluster.Get(0, "test-key")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSmoke_ReadFromAnyNode(t *testing.T) {
	cluster, err := StartCluster(3, func(c *config.Config) {
		c.Strategy = "sync"
		c.ReplicationFactor = 3
	})
	require.NoError(t, err, "start cluster")
	defer cluster.Stop()

	// With rf == cluster size and synchronous replication, every node
	// holds every key, so any entry point serves any key.
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%d", i)
		require.NoError(t, cluster.Put(i%cluster.Size(), key, fmt.Sprintf("value-%d", i)))
	}
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%d", i)
		for n := 0; n < cluster.Size(); n++ {
			got, err := cluster.Get(n, key)
			require.NoErrorf(t, err, "get %s via node %d", key, n)
			assert.Equal(t, fmt.Sprintf("value-%d", i), got)
		}
	}
}

func TestSmoke_MissIsNotFoundEverywhere(t *testing.T) {
	cluster, err := StartCluster(2, nil)
	require.NoError(t, err, "start cluster")
	defer cluster.Stop()

	for n := 0; n < cluster.Size(); n++ {
		_, err := cluster.Get(n, "never-written")
		assert.Truef(t, errors.Is(err, store.ErrNotFound), "node %d: err = %v", n, err)
	}
}

func TestSmoke_OverwriteWins(t *testing.T) {
	cluster, err := StartCluster(3, func(c *config.Config) {
		c.Strategy = "sync"
		c.ReplicationFactor = 3
	})
	require.NoError(t, err, "start cluster")
	defer cluster.Stop()

	require.NoError(t, cluster.Put(0, "color", "red"))
	require.NoError(t, cluster.Put(1, "color", "blue"))

	for n := 0; n < cluster.Size(); n++ {
		got, err := cluster.Get(n, "color")
		require.NoError(t, err)
		assert.Equalf(t, "blue", got, "node %d", n)
	}
}

func TestSmoke_SingleNodeCluster(t *testing.T) {
	cluster, err := StartCluster(1, nil)
	require.NoError(t, err, "start cluster")
	defer cluster.Stop()

	require.NoError(t, cluster.Put(0, "solo", "value"))
	got, err := cluster.Get(0, "solo")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}
