// Package mbr parses the legacy MBR partition table, the entry point a mount
// request starts from before the boot-record parser takes over.
package mbr

import (
	"encoding/binary"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/diskerr"
)

// PartitionType identifies the filesystem/usage a partition table entry
// declares.
type PartitionType byte

const (
	PartitionTypeUnused   PartitionType = 0x00
	PartitionTypeFAT12    PartitionType = 0x01
	PartitionTypeFAT16    PartitionType = 0x04
	PartitionTypeExtended PartitionType = 0x05
	PartitionTypeFAT32CHS PartitionType = 0x0B
	PartitionTypeFAT32LBA PartitionType = 0x0C
	PartitionTypeNTFS     PartitionType = 0x07 // Also includes exFAT.
	PartitionTypeLinux    PartitionType = 0x83
	PartitionTypeFreeBSD  PartitionType = 0xA5
	PartitionTypeAppleHFS PartitionType = 0xAF
)

const (
	signatureOffset   = 0x1FE
	tableOffset       = 0x1BE
	entrySize         = 16
	entryStatusOffset = 0x00
	entryTypeOffset   = 0x04
	entryStartOffset  = 0x08
	entryCountOffset  = 0x0C
	signature         = 0xAA55
	numEntries        = 4
)

// Entry is a single 16-byte partition table entry.
type Entry struct {
	Status      byte
	Type        PartitionType
	StartLBA    block.Index
	BlockCount  block.Count
}

// Bootable reports whether the status byte's bootable flag (0x80) is set.
func (e Entry) Bootable() bool { return e.Status == 0x80 }

// ReadPartition reads LBA 0 of dev (bypassing any partition offset),
// validates the 0xAA55 signature, and returns the requested entry
// (0..3) if it is a valid, accepted FAT32-LBA partition.
//
// Entries with a status byte outside {0x00, 0x80} are rejected, and only
// PartitionTypeFAT32LBA is accepted — every other type, including the
// FAT32-CHS variant, returns diskerr.ErrInvalidPartition.
func ReadPartition(dev block.Device, index int) (Entry, diskerr.DriverError) {
	if index < 0 || index >= numEntries {
		return Entry{}, diskerr.ErrPartitionNotFound
	}

	buf := [1]block.Block{}
	if err := dev.RawRead(buf[:], 0); err != nil {
		return Entry{}, diskerr.ErrReadFailed.WrapError(err)
	}
	sec := buf[0]

	if binary.LittleEndian.Uint16(sec[signatureOffset:signatureOffset+2]) != signature {
		return Entry{}, diskerr.ErrInvalidPartition.WithMessage("missing 0xAA55 MBR signature")
	}

	base := tableOffset + index*entrySize
	raw := sec[base : base+entrySize]

	status := raw[entryStatusOffset]
	if status != 0x00 && status != 0x80 {
		return Entry{}, diskerr.ErrInvalidPartition.WithMessage("invalid partition status byte")
	}

	entry := Entry{
		Status:     status,
		Type:       PartitionType(raw[entryTypeOffset]),
		StartLBA:   block.Index(binary.LittleEndian.Uint32(raw[entryStartOffset : entryStartOffset+4])),
		BlockCount: block.Count(binary.LittleEndian.Uint32(raw[entryCountOffset : entryCountOffset+4])),
	}

	if entry.Type != PartitionTypeFAT32LBA {
		return Entry{}, diskerr.ErrInvalidPartition.WithMessage("only FAT32 LBA partitions are supported")
	}

	return entry, nil
}
