// Package dirent implements the directory-entry stream produced by walking
// a directory's cluster chain, plus the logical, caller-friendly view of a
// 32-byte record.
package dirent

import (
	"encoding/binary"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/chainiter"
	"github.com/oxleyfs/fat32/cluster"
	"github.com/oxleyfs/fat32/diskerr"
	"github.com/oxleyfs/fat32/fat"
)

// Size is the width of a single on-disk directory record.
const Size = 32

// entriesPerBlock is the number of 32-byte records in a 512-byte block.
const entriesPerBlock = block.Size / Size

// Raw is a single 32-byte directory record as produced by the iterator,
// carrying the coordinates it was read from so a caller can write a
// modification back to the exact slot it came from.
type Raw struct {
	Data               [Size]byte
	Cluster            cluster.ID
	BlockWithinCluster uint32
	OffsetInBlock      uint32
}

// IsEndMarker reports whether this record's first byte is the FAT
// end-of-directory marker (0x00).
func (r Raw) IsEndMarker() bool {
	return r.Data[0] == 0x00
}

// IsDeleted reports whether this record's first byte is the "deleted"
// marker (0xE5).
func (r Raw) IsDeleted() bool {
	return r.Data[0] == 0xE5
}

// RawIterator is a cursor over a directory's raw 32-byte records, advancing
// block-within-cluster then cluster-within-chain. It is infinite in
// principle; the caller terminates on IsEndMarker or on the iterator
// reporting exhaustion of the underlying cluster chain.
type RawIterator struct {
	table              *fat.Table
	chainIter          *chainiter.BlockAwareIterator
	lastCluster        cluster.ID
	blockWithinCluster uint32
	entryWithinBlock   uint32
	isFirst            bool
	blocksPerCluster   uint32
	exhausted          bool
}

// NewRawIterator creates a cursor starting at startCluster, resuming
// enumeration from initialBlockIndex (a block-within-the-first-cluster
// position) and offsetInBlock (a byte offset within that block).
func NewRawIterator(table *fat.Table, startCluster cluster.ID, initialBlockIndex block.Index, offsetInBlock uint32) *RawIterator {
	return &RawIterator{
		table:              table,
		chainIter:          chainiter.NewBlockAware(table, startCluster, initialBlockIndex),
		blockWithinCluster: uint32(initialBlockIndex),
		entryWithinBlock:   offsetInBlock / Size,
		isFirst:            true,
		blocksPerCluster:   table.Geometry.BlocksPerCluster,
	}
}

// advanceCluster pulls the next link from the chain iterator, updating
// lastCluster on success. The second return is false once the chain is
// exhausted or a device error ended it; the caller distinguishes the two
// by checking the returned error.
func (it *RawIterator) advanceCluster() (diskerr.DriverError, bool) {
	item, ok := it.chainIter.Next()
	if !ok {
		it.exhausted = true
		return nil, false
	}
	if item.Err != nil {
		it.exhausted = true
		return item.Err, false
	}
	it.lastCluster = item.Cluster
	return nil, true
}

// Next advances the cursor. The returned bool is false only once the
// underlying cluster chain is exhausted; callers normally stop earlier,
// upon seeing Raw.IsEndMarker() on a successfully-read record. On error the
// bool is true (the cursor is still live) and the caller should inspect err;
// the cursor advances past the failing block so the next call makes
// progress instead of repeating the same read.
func (it *RawIterator) Next() (Raw, diskerr.DriverError, bool) {
	if it.exhausted {
		return Raw{}, nil, false
	}

	switch {
	case it.isFirst:
		it.isFirst = false
		it.blockWithinCluster %= it.blocksPerCluster
		if err, ok := it.advanceCluster(); !ok {
			return Raw{}, err, err != nil
		}
	case it.entryWithinBlock == entriesPerBlock:
		it.entryWithinBlock = 0
		it.blockWithinCluster++
		if it.blockWithinCluster == it.blocksPerCluster {
			it.blockWithinCluster = 0
			if err, ok := it.advanceCluster(); !ok {
				return Raw{}, err, err != nil
			}
		}
	}

	dataBlockBase := it.lastCluster.ToDataBlockIndex(it.table.Geometry)
	targetBlock := dataBlockBase + block.Index(it.blockWithinCluster)

	buf := [1]block.Block{}
	if err := it.table.Device.Read(buf[:], it.table.PartitionOff, targetBlock); err != nil {
		it.entryWithinBlock = entriesPerBlock
		return Raw{}, diskerr.ErrReadFailed.WrapError(err), true
	}

	entryIndex := it.entryWithinBlock % entriesPerBlock
	entryStart := entryIndex * Size

	var rec Raw
	copy(rec.Data[:], buf[0][entryStart:entryStart+Size])
	rec.Cluster = it.lastCluster
	rec.BlockWithinCluster = it.blockWithinCluster
	rec.OffsetInBlock = entryStart

	it.entryWithinBlock++

	return rec, nil, true
}

// little-endian helpers shared with logical.go, kept here since they read
// directly out of the Raw record's on-disk layout.
func (r Raw) firstClusterHigh() uint16 { return binary.LittleEndian.Uint16(r.Data[20:22]) }
func (r Raw) firstClusterLow() uint16  { return binary.LittleEndian.Uint16(r.Data[26:28]) }
