// Package fsinfo implements the FAT32 FS Info block: a single sector caching
// a free-cluster count and an allocation-search starting hint, so mounting
// doesn't require a full table scan. The two hint fields are held as
// atomic.Uint32 so Load/Flush can be called from the allocator without the
// volume layer serializing every access around them.
package fsinfo

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/diskerr"
)

const (
	offLeadSignature     = 0x000
	offStructSignature    = 0x1E4
	offFreeClusterCount   = 0x1E8
	offLastAllocCluster   = 0x1EC
	offTrailSignature     = 0x1FE

	leadSignature  = 0x41615252 // "RRaA"
	structSignature = 0x61417272 // "rrAa"
	trailSignature uint16 = 0xAA55
)

// Unknown is the sentinel value FAT32 uses in both hint fields to mean
// "not known, recompute by scanning".
const Unknown uint32 = 0xFFFFFFFF

// Info is the mutable FS Info cache. FreeCount and NextFree are the two
// fields the allocator actually consults and updates; both are atomics so
// concurrent readers can observe them without taking a lock.
// AllocCluster/FreeCluster (package volume) update the free count with a
// separate load and store, so those read-modify-write sequences are not
// atomic as a whole.
type Info struct {
	BlockIndex block.Index

	freeCount atomic.Uint32
	nextFree  atomic.Uint32
}

// New creates an Info located at blockIndex (relative to the partition
// start), with both hints set to Unknown until Load populates them.
func New(blockIndex block.Index) *Info {
	info := &Info{BlockIndex: blockIndex}
	info.freeCount.Store(Unknown)
	info.nextFree.Store(Unknown)
	return info
}

// FreeCount returns the cached free-cluster count, or Unknown.
func (i *Info) FreeCount() uint32 { return i.freeCount.Load() }

// NextFree returns the cached allocation search hint, or Unknown.
func (i *Info) NextFree() uint32 { return i.nextFree.Load() }

// SetFreeCount stores a new free-cluster count.
func (i *Info) SetFreeCount(v uint32) { i.freeCount.Store(v) }

// SetNextFree stores a new allocation search hint.
func (i *Info) SetNextFree(v uint32) { i.nextFree.Store(v) }

// CompareAndSwapNextFree atomically updates the search hint, used by
// FreeCluster (package volume) to set the hint to a newly-freed cluster only
// while it is still Unknown, without clobbering a concurrently stored hint.
func (i *Info) CompareAndSwapNextFree(old, new uint32) bool {
	return i.nextFree.CompareAndSwap(old, new)
}

// Load reads and validates the FS Info sector, substituting Unknown for
// either hint field if the sector's signatures don't check out, or if the
// field's own value fails its bounds check: the free-cluster count must not
// exceed clusterCount, and the next-free hint must satisfy
// 2 <= hint < clusterCount. Each field is substituted independently — a bad
// next-free hint doesn't invalidate a good free count, or vice versa.
func Load(dev block.Device, partitionOff block.Index, blockIndex block.Index, clusterCount uint32) (*Info, diskerr.DriverError) {
	info := New(blockIndex)

	buf := [1]block.Block{}
	if err := dev.Read(buf[:], partitionOff, blockIndex); err != nil {
		return info, diskerr.ErrReadFailed.WrapError(err)
	}
	sec := buf[0]

	lead := binary.LittleEndian.Uint32(sec[offLeadSignature : offLeadSignature+4])
	strct := binary.LittleEndian.Uint32(sec[offStructSignature : offStructSignature+4])
	trail := binary.LittleEndian.Uint16(sec[offTrailSignature : offTrailSignature+2])

	if lead != leadSignature || strct != structSignature || trail != trailSignature {
		return info, nil
	}

	freeCount := binary.LittleEndian.Uint32(sec[offFreeClusterCount : offFreeClusterCount+4])
	if freeCount <= clusterCount {
		info.SetFreeCount(freeCount)
	}

	nextFree := binary.LittleEndian.Uint32(sec[offLastAllocCluster : offLastAllocCluster+4])
	if nextFree >= 2 && nextFree < clusterCount {
		info.SetNextFree(nextFree)
	}

	return info, nil
}

// Flush writes the current hint values back to the FS Info sector,
// preserving the three fixed signatures.
func (i *Info) Flush(dev block.Device, partitionOff block.Index) diskerr.DriverError {
	buf := [1]block.Block{}
	if err := dev.Read(buf[:], partitionOff, i.BlockIndex); err != nil {
		return diskerr.ErrReadFailed.WrapError(err)
	}
	sec := buf[0]

	binary.LittleEndian.PutUint32(sec[offLeadSignature:offLeadSignature+4], leadSignature)
	binary.LittleEndian.PutUint32(sec[offStructSignature:offStructSignature+4], structSignature)
	binary.LittleEndian.PutUint16(sec[offTrailSignature:offTrailSignature+2], trailSignature)
	binary.LittleEndian.PutUint32(sec[offFreeClusterCount:offFreeClusterCount+4], i.FreeCount())
	binary.LittleEndian.PutUint32(sec[offLastAllocCluster:offLastAllocCluster+4], i.NextFree())

	if err := dev.Write(buf[:], partitionOff, i.BlockIndex); err != nil {
		return diskerr.ErrWriteFailed.WrapError(err)
	}
	return nil
}
