// Package volume implements the mounted filesystem core: mount/init,
// cluster allocation and release, cluster-chain zeroing, and the root
// directory handle. FatFileSystem is a top-level struct owning a block
// device plus its parsed metadata, with every mutating operation a plain
// synchronous method — there is no internal scheduler.
package volume

import (
	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/bootrecord"
	"github.com/oxleyfs/fat32/cluster"
	"github.com/oxleyfs/fat32/diskerr"
	"github.com/oxleyfs/fat32/dirent"
	"github.com/oxleyfs/fat32/fat"
	"github.com/oxleyfs/fat32/fsinfo"
	"github.com/oxleyfs/fat32/mbr"
)

// FatFileSystem is a mounted FAT32 volume: the block device, the partition's
// absolute origin and length, the parsed boot record, the FAT table
// accessor, and the FS Info cache.
type FatFileSystem struct {
	Device          block.Device
	PartitionOrigin block.Index
	PartitionBlocks block.Count

	Boot   bootrecord.BootRecord
	Table  *fat.Table
	FSInfo *fsinfo.Info
}

// Mount reads the boot sector at the partition origin, validates it, and
// initializes the filesystem object: constructing the FAT table accessor,
// loading FS Info, and recomputing the free-cluster count by a full scan if
// FS Info's value is the sentinel after loading.
func Mount(dev block.Device, partitionOrigin block.Index, partitionBlocks block.Count) (*FatFileSystem, diskerr.DriverError) {
	buf := [1]block.Block{}
	if err := dev.Read(buf[:], partitionOrigin, 0); err != nil {
		return nil, diskerr.ErrReadFailed.WrapError(err)
	}

	boot := bootrecord.New(buf[0])
	if err := boot.Validate(); err != nil {
		return nil, err
	}
	if boot.FatType() != bootrecord.Fat32 {
		return nil, diskerr.ErrNotImplemented.WithMessage("only FAT32 volumes are mountable")
	}

	geometry := cluster.Geometry{
		BlocksPerCluster: uint32(boot.BlocksPerCluster()),
		ReservedBlocks:   uint32(boot.ReservedBlockCount()),
		FirstDataOffset:  boot.FirstDataOffset(),
	}

	table := &fat.Table{
		Device:        dev,
		PartitionOff:  partitionOrigin,
		Geometry:      geometry,
		ClusterCount:  boot.ClusterCount(),
		NumFATs:       boot.NumFATs(),
		FATSizeBlocks: boot.FATSize(),
	}

	fs := &FatFileSystem{
		Device:          dev,
		PartitionOrigin: partitionOrigin,
		PartitionBlocks: partitionBlocks,
		Boot:            boot,
		Table:           table,
	}

	if err := fs.init(); err != nil {
		return nil, err
	}
	return fs, nil
}

// GetPartition resolves partitionIndex (0..3) from dev's legacy MBR
// partition table and mounts the FAT32 volume found there, the public entry
// point for devices that carry a partition table.
func GetPartition(dev block.Device, partitionIndex int) (*FatFileSystem, diskerr.DriverError) {
	entry, err := mbr.ReadPartition(dev, partitionIndex)
	if err != nil {
		return nil, err
	}
	return Mount(dev, entry.StartLBA, entry.BlockCount)
}

// GetRawPartition mounts dev as a single unpartitioned FAT32 volume starting
// at sector 0, bypassing the MBR entirely — the public entry point for
// devices that are themselves a bare FAT32 volume with no partition table.
func GetRawPartition(dev block.Device) (*FatFileSystem, diskerr.DriverError) {
	return Mount(dev, 0, 0)
}

func (fs *FatFileSystem) init() diskerr.DriverError {
	info, err := fsinfo.Load(fs.Device, fs.PartitionOrigin, block.Index(fs.Boot.FSInfoBlock()), fs.Table.ClusterCount)
	if err != nil {
		return err
	}
	fs.FSInfo = info

	if info.FreeCount() == fsinfo.Unknown {
		free, _, err := fs.Table.ScanFree()
		if err != nil {
			return err
		}
		info.SetFreeCount(free)
	}
	return nil
}

// AllocCluster extends a chain (if prev is non-nil) or starts a new one.
// Extending a chain first probes the cluster immediately following prev;
// starting a new chain does a wraparound linear probe from the FS Info hint.
func (fs *FatFileSystem) AllocCluster(prev *cluster.ID) (cluster.ID, diskerr.DriverError) {
	clusterCount := fs.Table.ClusterCount

	resizeExisting := false
	var adjacentCandidate cluster.ID

	hint := fs.FSInfo.NextFree()
	linearOrigin := cluster.ID(1)
	if hint != fsinfo.Unknown && hint != 0 && hint < clusterCount {
		linearOrigin = cluster.ID(hint)
	}

	if prev != nil {
		prevValue, err := fs.Table.Get(*prev)
		if err != nil {
			return 0, err
		}
		if prevValue.Kind == fat.Data && prevValue.Next.IsValidData(clusterCount) {
			return prevValue.Next, nil
		}
		resizeExisting = true
		adjacentCandidate = wrapCluster(*prev+1, clusterCount)
	}

	if fs.FSInfo.FreeCount() == 0 {
		return 0, diskerr.ErrNoSpaceLeft
	}

	var chosen cluster.ID
	found := false

	if resizeExisting {
		if v, err := fs.Table.Get(adjacentCandidate); err != nil {
			return 0, err
		} else if v.Kind == fat.Free {
			chosen = adjacentCandidate
			found = true
		}
	}

	if !found {
		for probe := wrapCluster(linearOrigin+1, clusterCount); probe != linearOrigin; probe = wrapCluster(probe+1, clusterCount) {
			v, err := fs.Table.Get(probe)
			if err != nil {
				return 0, err
			}
			if v.Kind == fat.Free {
				chosen = probe
				found = true
				break
			}
		}
	}

	if !found {
		return 0, diskerr.ErrNoSpaceLeft
	}

	if err := fs.Table.Put(chosen, fat.Value{Kind: fat.EndOfChain}); err != nil {
		return 0, err
	}
	if prev != nil {
		if err := fs.Table.Put(*prev, fat.Value{Kind: fat.Data, Next: chosen}); err != nil {
			return 0, err
		}
	}

	fs.FSInfo.SetNextFree(uint32(chosen))
	fs.FSInfo.SetFreeCount(fs.FSInfo.FreeCount() - 1)
	return chosen, fs.FSInfo.Flush(fs.Device, fs.PartitionOrigin)
}

// wrapCluster wraps a cluster index at clusterCount back to the first data
// cluster.
func wrapCluster(c cluster.ID, clusterCount uint32) cluster.ID {
	if uint32(c) >= clusterCount {
		return cluster.MinData
	}
	if uint32(c) < uint32(cluster.MinData) {
		return cluster.MinData
	}
	return c
}

// FreeCluster releases the chain starting at head, first detaching it from
// predecessor if supplied.
func (fs *FatFileSystem) FreeCluster(head cluster.ID, predecessor *cluster.ID) diskerr.DriverError {
	if predecessor != nil {
		if err := fs.Table.Put(*predecessor, fat.Value{Kind: fat.EndOfChain}); err != nil {
			return err
		}
	}

	current := head
	for {
		v, err := fs.Table.Get(current)
		if err != nil {
			return err
		}
		if v.Kind == fat.Free {
			break
		}

		if err := fs.Table.Put(current, fat.Value{Kind: fat.Free}); err != nil {
			return err
		}
		fs.FSInfo.SetFreeCount(fs.FSInfo.FreeCount() + 1)

		for {
			old := fs.FSInfo.NextFree()
			if old != fsinfo.Unknown {
				break
			}
			if fs.FSInfo.CompareAndSwapNextFree(old, uint32(current)) {
				break
			}
		}

		if v.Kind != fat.Data {
			break
		}
		current = v.Next
	}

	return fs.FSInfo.Flush(fs.Device, fs.PartitionOrigin)
}

// CleanClusterData zeroes every block of every cluster in the chain
// starting at c, used to initialize a newly-allocated directory cluster.
// Block 0 of each cluster is zeroed first, before advancing to the next
// block.
func (fs *FatFileSystem) CleanClusterData(c cluster.ID) diskerr.DriverError {
	zero := block.NewBlock()
	bpc := fs.Table.Geometry.BlocksPerCluster

	current := c
	for {
		base := current.ToDataBlockIndex(fs.Table.Geometry)
		for i := uint32(0); i < bpc; i++ {
			buf := [1]block.Block{zero}
			if err := fs.Device.Write(buf[:], fs.PartitionOrigin, base+block.Index(i)); err != nil {
				return diskerr.ErrWriteFailed.WrapError(err)
			}
		}

		v, err := fs.Table.Get(current)
		if err != nil {
			return err
		}
		if v.Kind != fat.Data || !v.Next.IsValidData(fs.Table.ClusterCount) {
			return nil
		}
		current = v.Next
	}
}

// RootDirectory returns the volume's root directory handle: start cluster
// from the boot record, DIRECTORY attribute, no raw-location back-reference
// since the root cannot be renamed or unlinked.
func (fs *FatFileSystem) RootDirectory() *Directory {
	entry := dirent.Entry{
		StartCluster: cluster.ID(fs.Boot.RootDirCluster()),
		Attribute:    dirent.AttrDirectory,
		Name:         "",
	}
	return &Directory{fs: fs, entry: entry}
}
