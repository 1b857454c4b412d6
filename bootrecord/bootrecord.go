// Package bootrecord parses and validates the FAT Volume Boot Record,
// classifying the volume's FAT variant and exposing its geometry. The raw
// sector is decoded with encoding/binary into a struct with convenience
// getters, including the FAT32-only extended fields (FS Info block, root
// cluster) that FAT12/FAT16 volumes don't carry.
package bootrecord

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/diskerr"
)

// Type enumerates the FAT variants a boot record can be classified as.
// Only Fat32 is mountable by this driver; the others are recognized so
// InvalidPartition/NotImplemented can be reported precisely instead of just
// failing validation.
type Type int

const (
	Fat12 Type = iota
	Fat16
	Fat32
	ExFat
)

func (t Type) String() string {
	switch t {
	case Fat12:
		return "FAT12"
	case Fat16:
		return "FAT16"
	case Fat32:
		return "FAT32"
	case ExFat:
		return "exFAT"
	default:
		return "unknown"
	}
}

// Field byte offsets within the boot sector.
const (
	offJump             = 0
	offBytesPerBlock    = 11
	offBlocksPerCluster = 13
	offReservedBlocks   = 14
	offNumFATs          = 16
	offRootEntryCount   = 17
	offTotalBlocks16    = 19
	offFATSize16        = 22
	offTotalBlocks32    = 32
	offFATSize32        = 36
	offRootCluster      = 44
	offFSInfoBlock      = 48
	offSystemIDFAT      = 36
	offSystemIDFAT32    = 82
	offBootSignature    = 510
)

var systemIDFAT = []byte{0x46, 0x41, 0x54}
var systemIDFAT32 = []byte{0x46, 0x41, 0x54, 0x33, 0x32}

const bootSignature = 0xAA55

// BootRecord is the raw first sector of a FAT volume plus the two fields
// derived from it: FatType and ClusterCount. Once constructed its geometry
// getters are pure functions of the bytes it holds.
type BootRecord struct {
	data         block.Block
	fatType      Type
	clusterCount uint32
}

// New parses data into a BootRecord and classifies its FAT variant. The
// result's geometry getters are valid regardless of whether Validate
// succeeds; callers that skip validation do so at their own risk.
func New(data block.Block) BootRecord {
	br := BootRecord{data: data}

	// A zero sector size or cluster size leaves nothing to classify; Validate
	// reports the bad sector size.
	if br.BytesPerBlock() == 0 || br.BlocksPerCluster() == 0 {
		return br
	}

	rootDirBlocks := (uint32(br.RootEntryCount())*32 + uint32(br.BytesPerBlock()) - 1) /
		uint32(br.BytesPerBlock())
	dataBlocks := br.TotalBlocks() -
		(uint32(br.ReservedBlockCount()) + uint32(br.NumFATs())*br.FATSize() + rootDirBlocks)
	clusterCount := dataBlocks / uint32(br.BlocksPerCluster())

	switch {
	case clusterCount < 4085:
		br.fatType = Fat12
	case clusterCount < 65525:
		br.fatType = Fat16
	default:
		br.fatType = Fat32
	}
	br.clusterCount = clusterCount + 2

	return br
}

// Validate checks the boot signature, jump byte, system identifier, and
// sector size, aggregating every failing check with go-multierror before
// mapping the result to a single diskerr.ErrInvalidPartition-classed error,
// so a caller sees every violation instead of just the first.
func (br *BootRecord) Validate() diskerr.DriverError {
	var result *multierror.Error

	if binary.LittleEndian.Uint16(br.data[offBootSignature:offBootSignature+2]) != bootSignature {
		result = multierror.Append(result, fmt.Errorf("missing 0xAA55 boot signature"))
	}

	jmp := br.data[offJump]
	if jmp != 0xE9 && jmp != 0xEB && jmp != 0xE8 {
		result = multierror.Append(result, fmt.Errorf("invalid jump instruction byte 0x%02X", jmp))
	}

	hasFAT := bytes.Equal(br.data[offSystemIDFAT:offSystemIDFAT+3], systemIDFAT)
	hasFAT32 := bytes.Equal(br.data[offSystemIDFAT32:offSystemIDFAT32+5], systemIDFAT32)
	if !hasFAT && !hasFAT32 {
		result = multierror.Append(result, fmt.Errorf("missing FAT/FAT32 system identifier"))
	}

	if br.BytesPerBlock() != block.Size {
		result = multierror.Append(result, fmt.Errorf(
			"bytes per block must be %d, got %d", block.Size, br.BytesPerBlock()))
	}

	if result == nil {
		return nil
	}
	return diskerr.ErrInvalidPartition.WithMessage(result.Error())
}

// FatType returns the classified FAT variant.
func (br *BootRecord) FatType() Type { return br.fatType }

// ClusterCount returns the total cluster count, including the two reserved
// clusters 0 and 1.
func (br *BootRecord) ClusterCount() uint32 { return br.clusterCount }

// BytesPerBlock is the boot record's declared sector size.
func (br *BootRecord) BytesPerBlock() uint16 {
	return binary.LittleEndian.Uint16(br.data[offBytesPerBlock : offBytesPerBlock+2])
}

// BlocksPerCluster is the number of sectors making up one cluster.
func (br *BootRecord) BlocksPerCluster() uint8 {
	return br.data[offBlocksPerCluster]
}

// ReservedBlockCount is the number of sectors before the first FAT copy.
func (br *BootRecord) ReservedBlockCount() uint16 {
	return binary.LittleEndian.Uint16(br.data[offReservedBlocks : offReservedBlocks+2])
}

// NumFATs is the number of FAT copies on the volume.
func (br *BootRecord) NumFATs() uint8 {
	return br.data[offNumFATs]
}

// RootEntryCount is the number of 32-byte slots reserved for the root
// directory on FAT12/16; always 0 on FAT32.
func (br *BootRecord) RootEntryCount() uint16 {
	return binary.LittleEndian.Uint16(br.data[offRootEntryCount : offRootEntryCount+2])
}

func (br *BootRecord) totalBlocks16() uint16 {
	return binary.LittleEndian.Uint16(br.data[offTotalBlocks16 : offTotalBlocks16+2])
}

func (br *BootRecord) totalBlocks32() uint32 {
	return binary.LittleEndian.Uint32(br.data[offTotalBlocks32 : offTotalBlocks32+4])
}

// TotalBlocks returns the volume's total sector count, picking the 32-bit
// field when the 16-bit one is zero.
func (br *BootRecord) TotalBlocks() uint32 {
	if v := br.totalBlocks16(); v != 0 {
		return uint32(v)
	}
	return br.totalBlocks32()
}

func (br *BootRecord) fatSize16() uint16 {
	return binary.LittleEndian.Uint16(br.data[offFATSize16 : offFATSize16+2])
}

func (br *BootRecord) fatSize32() uint32 {
	return binary.LittleEndian.Uint32(br.data[offFATSize32 : offFATSize32+4])
}

// FATSize returns the size, in sectors, of a single FAT copy, picking the
// 32-bit field when the 16-bit one is zero.
func (br *BootRecord) FATSize() uint32 {
	if v := br.fatSize16(); v != 0 {
		return uint32(v)
	}
	return br.fatSize32()
}

// RootDirCluster returns the FAT32 root directory's start cluster.
func (br *BootRecord) RootDirCluster() uint32 {
	return binary.LittleEndian.Uint32(br.data[offRootCluster : offRootCluster+4])
}

// FSInfoBlock returns the sector index of the FAT32 FS Info structure,
// relative to the partition start.
func (br *BootRecord) FSInfoBlock() uint16 {
	return binary.LittleEndian.Uint16(br.data[offFSInfoBlock : offFSInfoBlock+2])
}

// FirstDataOffset returns the sector index of cluster 2: reserved sectors
// plus every FAT copy.
func (br *BootRecord) FirstDataOffset() block.Index {
	return block.Index(uint32(br.ReservedBlockCount()) + uint32(br.NumFATs())*br.FATSize())
}
