package volume_test

import (
	"testing"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/cluster"
	"github.com/oxleyfs/fat32/diskerr"
	"github.com/oxleyfs/fat32/fat"
	"github.com/oxleyfs/fat32/fsinfo"
	"github.com/oxleyfs/fat32/testing/fsfixture"
	"github.com/oxleyfs/fat32/volume"
	"github.com/stretchr/testify/require"
)

// newBareFS builds a FatFileSystem directly over a FAT whose slots are all
// Free, including cluster 2, starting from an empty FS Info — distinct from
// fsfixture.Build's image where cluster 2 is already claimed by the root
// directory.
func newBareFS(t *testing.T, clusterCount uint32) *volume.FatFileSystem {
	t.Helper()
	const reservedBlocks = 4
	const fatSizeBlocks = 4

	dev := block.NewMemDevice(reservedBlocks + fatSizeBlocks + block.Count(clusterCount))
	table := &fat.Table{
		Device:        dev,
		PartitionOff:  0,
		Geometry:      cluster.Geometry{BlocksPerCluster: 1, ReservedBlocks: reservedBlocks, FirstDataOffset: reservedBlocks + fatSizeBlocks},
		ClusterCount:  clusterCount,
		NumFATs:       1,
		FATSizeBlocks: fatSizeBlocks,
	}

	info := fsinfo.New(0)
	info.SetFreeCount(clusterCount - 2)

	return &volume.FatFileSystem{
		Device:          dev,
		PartitionOrigin: 0,
		Table:           table,
		FSInfo:          info,
	}
}

// TestMountScenario checks that mounting a freshly-formatted image succeeds,
// the root directory starts at cluster 2, and first_data_offset is
// 32 + 2*128 = 288.
func TestMountScenario(t *testing.T) {
	opts := fsfixture.Default()
	dev := fsfixture.Build(opts)

	fs, err := volume.Mount(dev, opts.PartitionStartBlock, opts.TotalBlocks)
	require.NoError(t, err)

	require.Equal(t, uint32(288), uint32(fs.Boot.FirstDataOffset()))
	root := fs.RootDirectory()
	require.Equal(t, cluster.ID(2), root.Entry().StartCluster)
}

// TestAllocateTwoClustersInSequence checks that allocating a second cluster
// with the first as its predecessor chains them together in the FAT.
func TestAllocateTwoClustersInSequence(t *testing.T) {
	fs := newBareFS(t, 20)

	freeBefore := fs.FSInfo.FreeCount()

	first, err := fs.AllocCluster(nil)
	require.NoError(t, err)
	require.Equal(t, cluster.ID(2), first)

	firstCopy := first
	second, err := fs.AllocCluster(&firstCopy)
	require.NoError(t, err)
	require.Equal(t, cluster.ID(3), second)

	require.Equal(t, freeBefore-2, fs.FSInfo.FreeCount())

	v, err := fs.Table.Get(first)
	require.NoError(t, err)
	require.Equal(t, second, v.Next)
}

// TestFreeTwoClusterChain checks that freeing the head of a two-cluster
// chain frees both clusters and that the updated free count survives an
// FS Info reload.
func TestFreeTwoClusterChain(t *testing.T) {
	fs := newBareFS(t, 20)

	first, err := fs.AllocCluster(nil)
	require.NoError(t, err)
	firstCopy := first
	_, err = fs.AllocCluster(&firstCopy)
	require.NoError(t, err)

	freeBefore := fs.FSInfo.FreeCount()
	require.NoError(t, fs.FreeCluster(first, nil))
	require.Equal(t, freeBefore+2, fs.FSInfo.FreeCount())

	v, err := fs.Table.Get(first)
	require.NoError(t, err)
	require.Equal(t, "Free", v.Kind.String())

	reloaded, rerr := fsinfo.Load(fs.Device, fs.PartitionOrigin, fs.FSInfo.BlockIndex, fs.Table.ClusterCount)
	require.NoError(t, rerr)
	require.Equal(t, fs.FSInfo.FreeCount(), reloaded.FreeCount())
}

// TestAllocThenFreeRoundTrip checks that alloc_cluster followed by
// free_cluster(head, None) on a freshly-allocated singleton chain returns
// the free-cluster counter to its pre-allocation value and leaves the
// chosen slot Free.
func TestAllocThenFreeRoundTrip(t *testing.T) {
	fs := newBareFS(t, 20)

	freeBefore := fs.FSInfo.FreeCount()

	chosen, err := fs.AllocCluster(nil)
	require.NoError(t, err)
	require.NoError(t, fs.FreeCluster(chosen, nil))

	require.Equal(t, freeBefore, fs.FSInfo.FreeCount())
	v, err := fs.Table.Get(chosen)
	require.NoError(t, err)
	require.Equal(t, "Free", v.Kind.String())
}

func TestMkdirTouchFindUnlink(t *testing.T) {
	opts := fsfixture.Default()
	dev := fsfixture.Build(opts)
	fs, err := volume.Mount(dev, opts.PartitionStartBlock, opts.TotalBlocks)
	require.NoError(t, err)

	root := fs.RootDirectory()

	sub, err := root.Mkdir("SUBDIR")
	require.NoError(t, err)
	require.True(t, sub.Entry().Attribute.IsDirectory())

	_, err = root.Mkdir("SUBDIR")
	require.ErrorIs(t, err, diskerr.ErrFileExists)

	entry, err := root.Touch("FILE.TXT")
	require.NoError(t, err)
	require.Equal(t, "FILE.TXT", entry.Name)

	found, err := root.FindEntry("file.txt")
	require.NoError(t, err)
	require.Equal(t, "FILE.TXT", found.Name)

	require.NoError(t, root.Unlink("FILE.TXT"))
	_, err = root.FindEntry("FILE.TXT")
	require.ErrorIs(t, err, diskerr.ErrNotFound)
}

func TestRenameRejectsExistingTarget(t *testing.T) {
	opts := fsfixture.Default()
	dev := fsfixture.Build(opts)
	fs, err := volume.Mount(dev, opts.PartitionStartBlock, opts.TotalBlocks)
	require.NoError(t, err)

	root := fs.RootDirectory()
	_, err = root.Touch("A.TXT")
	require.NoError(t, err)
	_, err = root.Touch("B.TXT")
	require.NoError(t, err)

	err = root.Rename("A.TXT", "B.TXT")
	require.ErrorIs(t, err, diskerr.ErrFileExists)

	require.NoError(t, root.Rename("A.TXT", "C.TXT"))
	_, err = root.FindEntry("C.TXT")
	require.NoError(t, err)
}
