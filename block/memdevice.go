package block

import (
	"io"

	"github.com/xaionaro-go/bytesextra"
)

// MemDevice is a reference Device backed by an in-memory byte slice, turned
// into a seekable stream with bytesextra.NewReadWriteSeeker. It backs a real
// (if volatile) block device for callers who don't have a raw disk or image
// file handy, and for this repo's own test fixtures (see testing/fsfixture).
type MemDevice struct {
	stream      io.ReadWriteSeeker
	TotalBlocks Count
}

// NewMemDevice creates a MemDevice of the given size, zero-filled.
func NewMemDevice(totalBlocks Count) *MemDevice {
	data := make([]byte, int(totalBlocks)*Size)
	return &MemDevice{
		stream:      bytesextra.NewReadWriteSeeker(data),
		TotalBlocks: totalBlocks,
	}
}

// NewMemDeviceFromBytes wraps existing bytes (whose length must be a
// multiple of Size) as a block device without copying.
func NewMemDeviceFromBytes(data []byte) *MemDevice {
	return &MemDevice{
		stream:      bytesextra.NewReadWriteSeeker(data),
		TotalBlocks: Count(len(data) / Size),
	}
}

func (d *MemDevice) seek(index Index) error {
	if index >= Index(d.TotalBlocks) {
		return OutOfRangeError{Requested: index, Bound: Index(d.TotalBlocks)}
	}
	_, err := d.stream.Seek(int64(index)*Size, io.SeekStart)
	return err
}

func (d *MemDevice) readAt(index Index, dst []Block) error {
	if err := d.seek(index); err != nil {
		return err
	}
	for i := range dst {
		if _, err := io.ReadFull(d.stream, dst[i][:]); err != nil {
			return err
		}
	}
	return nil
}

func (d *MemDevice) writeAt(index Index, src []Block) error {
	if err := d.seek(index); err != nil {
		return err
	}
	for i := range src {
		if _, err := d.stream.Write(src[i][:]); err != nil {
			return err
		}
	}
	return nil
}

// Read implements Device.
func (d *MemDevice) Read(dst []Block, partitionOrigin Index, relativeIndex Index) error {
	return d.readAt(partitionOrigin+relativeIndex, dst)
}

// Write implements Device.
func (d *MemDevice) Write(src []Block, partitionOrigin Index, relativeIndex Index) error {
	return d.writeAt(partitionOrigin+relativeIndex, src)
}

// RawRead implements Device.
func (d *MemDevice) RawRead(dst []Block, absoluteIndex Index) error {
	return d.readAt(absoluteIndex, dst)
}
