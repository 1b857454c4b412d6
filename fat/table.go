package fat

import (
	"encoding/binary"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/cluster"
	"github.com/oxleyfs/fat32/diskerr"
)

// Table is typed read/write access to a mounted volume's File Allocation
// Table(s): a thin struct wrapping a block.Device plus the handful of
// numbers needed to compute addresses.
type Table struct {
	Device       block.Device
	PartitionOff block.Index
	Geometry     cluster.Geometry
	ClusterCount uint32
	// NumFATs is the number of on-disk FAT copies. Get always reads the
	// first copy; Put mirrors the write to every copy so the copies never
	// drift out of sync (see DESIGN.md for the tradeoff against a
	// single-FAT-write optimization).
	NumFATs uint8
	// FATSizeBlocks is the size, in blocks, of a single FAT copy, used to
	// locate the start of the Nth mirror.
	FATSizeBlocks uint32
}

func (t *Table) fatCopyOffset(copyIndex uint8) block.Index {
	return block.Index(t.Geometry.ReservedBlocks) + block.Index(uint32(copyIndex)*t.FATSizeBlocks)
}

// Get reads and classifies the FAT slot for cluster c.
func (t *Table) Get(c cluster.ID) (Value, diskerr.DriverError) {
	blockIdx := c.ToFATBlockIndex(t.Geometry)
	buf := [1]block.Block{}
	if err := t.Device.Read(buf[:], t.PartitionOff, blockIdx); err != nil {
		return Value{}, diskerr.ErrReadFailed.WrapError(err)
	}

	off := c.FATByteOffsetInBlock()
	raw := binary.LittleEndian.Uint32(buf[0][off : off+4])
	return ValueFromRaw(raw, t.ClusterCount), nil
}

// Put writes v to the FAT slot for cluster c, preserving the existing slot's
// high nibble, and mirrors the write across every FAT copy.
func (t *Table) Put(c cluster.ID, v Value) diskerr.DriverError {
	blockIdx := c.ToFATBlockIndex(t.Geometry)
	off := c.FATByteOffsetInBlock()

	buf := [1]block.Block{}
	if err := t.Device.Read(buf[:], t.PartitionOff, blockIdx); err != nil {
		return diskerr.ErrReadFailed.WrapError(err)
	}

	existing := binary.LittleEndian.Uint32(buf[0][off : off+4])
	binary.LittleEndian.PutUint32(buf[0][off:off+4], v.Raw(existing))

	if err := t.Device.Write(buf[:], t.PartitionOff, blockIdx); err != nil {
		return diskerr.ErrWriteFailed.WrapError(err)
	}

	offsetIntoFirstCopy := blockIdx - block.Index(t.Geometry.ReservedBlocks)
	for copyIdx := uint8(1); copyIdx < t.NumFATs; copyIdx++ {
		mirrorIdx := t.fatCopyOffset(copyIdx) + offsetIntoFirstCopy
		if err := t.Device.Write(buf[:], t.PartitionOff, mirrorIdx); err != nil {
			return diskerr.ErrWriteFailed.WrapError(err)
		}
	}

	return nil
}

// ScanFree walks clusters [2, ClusterCount) counting Free slots, and as a
// side effect builds a FreeBitmap diagnostic snapshot (see bitmapcache.go).
// volume.Mount falls back to this when FS Info's free counter is the
// sentinel.
func (t *Table) ScanFree() (uint32, *FreeBitmap, diskerr.DriverError) {
	bmp := newFreeBitmap(t.ClusterCount)
	var free uint32

	for c := cluster.ID(cluster.MinData); uint32(c) < t.ClusterCount; c++ {
		v, err := t.Get(c)
		if err != nil {
			return 0, nil, err
		}
		if v.Kind == Free {
			free++
			bmp.setFree(c, true)
		}
	}

	return free, bmp, nil
}
