// Package cluster defines the Cluster value type and the address
// arithmetic mapping a cluster number to a FAT byte offset and to a
// data-region block index.
package cluster

import "github.com/oxleyfs/fat32/block"

// ID identifies a cluster. 0 and 1 are reserved; valid data clusters satisfy
// 2 <= ID < cluster_count.
type ID uint32

// First and Second are the two reserved cluster numbers that never address
// data.
const (
	First  ID = 0
	Second ID = 1
	// MinData is the lowest cluster number that can hold data.
	MinData ID = 2
)

// Geometry carries the handful of boot-record-derived numbers needed to
// convert a cluster number into block addresses. It's passed by value
// rather than requiring a pointer back to a filesystem object, so this
// package has no dependency on bootrecord or volume.
type Geometry struct {
	// BlocksPerCluster is the boot record's sectors-per-cluster field.
	BlocksPerCluster uint32
	// ReservedBlocks is the boot record's reserved sector count.
	ReservedBlocks uint32
	// FirstDataOffset is the block index of cluster 2 (reserved blocks plus
	// the combined size of every FAT copy).
	FirstDataOffset block.Index
}

// ToDataBlockIndex returns the block index of the first sector of the
// cluster within the data region: fdo + (c-2) * bpc.
func (c ID) ToDataBlockIndex(g Geometry) block.Index {
	offsetClusters := uint32(c) - uint32(MinData)
	return g.FirstDataOffset + block.Index(offsetClusters*g.BlocksPerCluster)
}

// ToFATOffset returns the byte offset of this cluster's 4-byte slot within
// the FAT.
func (c ID) ToFATOffset() uint32 {
	return uint32(c) * 4
}

// ToFATBlockIndex returns the block index, relative to the partition start,
// of the FAT sector containing this cluster's slot.
func (c ID) ToFATBlockIndex(g Geometry) block.Index {
	return block.Index(g.ReservedBlocks) + block.Index(c.ToFATOffset()/block.Size)
}

// FATByteOffsetInBlock returns the in-block byte offset of this cluster's
// 4-byte slot.
func (c ID) FATByteOffsetInBlock() uint32 {
	return c.ToFATOffset() % block.Size
}

// IsValidData reports whether c is a usable data cluster for a volume with
// the given cluster count: 2 <= c < clusterCount.
func (c ID) IsValidData(clusterCount uint32) bool {
	return uint32(c) >= uint32(MinData) && uint32(c) < clusterCount
}
