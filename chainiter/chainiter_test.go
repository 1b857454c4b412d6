package chainiter_test

import (
	"testing"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/chainiter"
	"github.com/oxleyfs/fat32/cluster"
	"github.com/oxleyfs/fat32/fat"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T) *fat.Table {
	t.Helper()
	dev := block.NewMemDevice(64)
	return &fat.Table{
		Device:        dev,
		PartitionOff:  0,
		Geometry:      cluster.Geometry{BlocksPerCluster: 1, ReservedBlocks: 4, FirstDataOffset: 6},
		ClusterCount:  50,
		NumFATs:       1,
		FATSizeBlocks: 2,
	}
}

func TestChainIteratorWalksToEndOfChain(t *testing.T) {
	table := newTable(t)
	require.NoError(t, table.Put(cluster.ID(2), fat.Value{Kind: fat.Data, Next: cluster.ID(3)}))
	require.NoError(t, table.Put(cluster.ID(3), fat.Value{Kind: fat.EndOfChain}))

	it := chainiter.New(table, cluster.ID(2))

	var got []cluster.ID
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		require.NoError(t, item.Err)
		got = append(got, item.Cluster)
	}

	require.Equal(t, []cluster.ID{2, 3}, got)
}

func TestChainIteratorStopsOnFreeMidChain(t *testing.T) {
	table := newTable(t)
	// cluster 2's slot left Free: corruption, terminates immediately after
	// yielding the head.
	it := chainiter.New(table, cluster.ID(2))

	item, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, cluster.ID(2), item.Cluster)

	_, ok = it.Next()
	require.False(t, ok)
}

func TestChainIteratorYieldsSingletonChain(t *testing.T) {
	table := newTable(t)
	require.NoError(t, table.Put(cluster.ID(2), fat.Value{Kind: fat.EndOfChain}))

	it := chainiter.New(table, cluster.ID(2))
	item, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, cluster.ID(2), item.Cluster)

	_, ok = it.Next()
	require.False(t, ok)
}
