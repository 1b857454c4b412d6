package fat_test

import (
	"testing"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/cluster"
	"github.com/oxleyfs/fat32/fat"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, numFATs uint8) (*fat.Table, *block.MemDevice) {
	t.Helper()
	const fatSizeBlocks = 2
	const reservedBlocks = 4

	dev := block.NewMemDevice(reservedBlocks + block.Count(numFATs)*fatSizeBlocks + 16)
	table := &fat.Table{
		Device:        dev,
		PartitionOff:  0,
		Geometry:      cluster.Geometry{BlocksPerCluster: 1, ReservedBlocks: reservedBlocks, FirstDataOffset: reservedBlocks + block.Index(numFATs)*fatSizeBlocks},
		ClusterCount:  100,
		NumFATs:       numFATs,
		FATSizeBlocks: fatSizeBlocks,
	}
	return table, dev
}

func TestTableGetPutRoundTrip(t *testing.T) {
	table, _ := newTestTable(t, 1)

	require.NoError(t, table.Put(cluster.ID(5), fat.Value{Kind: fat.Data, Next: cluster.ID(6)}))

	v, err := table.Get(cluster.ID(5))
	require.NoError(t, err)
	require.Equal(t, fat.Data, v.Kind)
	require.Equal(t, cluster.ID(6), v.Next)
}

func TestTableMirrorsAcrossFATCopies(t *testing.T) {
	table, dev := newTestTable(t, 2)

	require.NoError(t, table.Put(cluster.ID(10), fat.Value{Kind: fat.EndOfChain}))

	mirrorTable := &fat.Table{
		Device:        dev,
		PartitionOff:  0,
		Geometry:      table.Geometry,
		ClusterCount:  table.ClusterCount,
		NumFATs:       1,
		FATSizeBlocks: table.FATSizeBlocks,
	}
	mirrorTable.Geometry.ReservedBlocks += table.FATSizeBlocks

	v, err := mirrorTable.Get(cluster.ID(10))
	require.NoError(t, err)
	require.Equal(t, fat.EndOfChain, v.Kind)
}

func TestScanFreeCountsAndBuildsBitmap(t *testing.T) {
	table, _ := newTestTable(t, 1)

	require.NoError(t, table.Put(cluster.ID(2), fat.Value{Kind: fat.EndOfChain}))
	require.NoError(t, table.Put(cluster.ID(3), fat.Value{Kind: fat.EndOfChain}))

	free, bmp, err := table.ScanFree()
	require.NoError(t, err)
	require.Equal(t, table.ClusterCount-2-2, free)
	require.False(t, bmp.IsFree(cluster.ID(2)))
	require.False(t, bmp.IsFree(cluster.ID(3)))
	require.True(t, bmp.IsFree(cluster.ID(4)))
}
