// Package fsfixture builds in-memory, well-formed FAT32 images for use by
// this repo's test suite, handing tests a ready-made block.Device instead of
// a real disk file, serializing the on-disk layout field by field with
// encoding/binary and github.com/noxer/bytewriter.
package fsfixture

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/oxleyfs/fat32/block"
)

// Options describes the geometry of a fixture image. The zero value is
// invalid; use Default() for a ready-to-mount set of parameters.
type Options struct {
	PartitionStartBlock block.Index
	TotalBlocks         block.Count
	BlocksPerCluster    uint8
	ReservedBlocks      uint16
	NumFATs             uint8
	FATSize32           uint32
	RootCluster         uint32
	FSInfoBlock         uint16
}

// Default returns a 64 MiB image's geometry: 8 blocks/cluster, 32 reserved
// blocks, two FAT copies of 128 blocks each, root directory at cluster 2,
// FS Info at block 1.
func Default() Options {
	return Options{
		PartitionStartBlock: 0,
		TotalBlocks:         64 * 1024 * 1024 / block.Size,
		BlocksPerCluster:    8,
		ReservedBlocks:      32,
		NumFATs:             2,
		FATSize32:           128,
		RootCluster:         2,
		FSInfoBlock:         1,
	}
}

// FirstDataOffset mirrors bootrecord.BootRecord.FirstDataOffset for
// fixtures that need the value before a volume is mounted.
func (o Options) FirstDataOffset() block.Index {
	return block.Index(uint32(o.ReservedBlocks) + uint32(o.NumFATs)*o.FATSize32)
}

// ClusterCount computes the data-region cluster count the same way
// bootrecord.New does, for test assertions that need it before mounting.
func (o Options) ClusterCount() uint32 {
	dataBlocks := uint32(o.TotalBlocks) - (uint32(o.ReservedBlocks) + uint32(o.NumFATs)*o.FATSize32)
	return dataBlocks/uint32(o.BlocksPerCluster) + 2
}

// Build formats a MemDevice containing a single FAT32 partition starting at
// opts.PartitionStartBlock, with a valid boot sector, FS Info block, and
// both FAT copies initialized (cluster 0 and 1 reserved, cluster 2 marked
// EndOfChain for the empty root directory, every other slot Free). The
// root directory's single cluster is zeroed.
func Build(opts Options) *block.MemDevice {
	dev := block.NewMemDevice(opts.TotalBlocks)

	writeBootSector(dev, opts)
	writeFSInfo(dev, opts)
	writeFATs(dev, opts)
	zeroRootCluster(dev, opts)

	return dev
}

// fat32BootFields mirrors the boot sector's field order byte for byte, from
// the jump instruction (offset 0) through the FAT32-only extended block
// (offset 82); it is filled in and serialized with binary.Write, then the
// trailing signature is patched in separately. The boot code area is left
// zeroed.
type fat32BootFields struct {
	Jump             [3]byte
	OEMName          [8]byte
	BytesPerBlock    uint16
	BlocksPerCluster uint8
	ReservedBlocks   uint16
	NumFATs          uint8
	RootEntryCount   uint16
	TotalBlocks16    uint16
	MediaDescriptor  uint8
	FATSize16        uint16
	SectorsPerTrack  uint16
	NumHeads         uint16
	HiddenSectors    uint32
	TotalBlocks32    uint32
	FATSize32        uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfoBlock      uint16
	BackupBootBlock  uint16
	Reserved12       [12]byte
	DriveNumber      uint8
	Reserved1        uint8
	ExtBootSignature uint8
	VolumeID         uint32
	VolumeLabel      [11]byte
	SystemID         [8]byte
}

func writeBootSector(dev *block.MemDevice, opts Options) {
	sec := block.NewBlock()
	w := bytewriter.New(sec[:])

	fields := fat32BootFields{
		Jump:             [3]byte{0xEB, 0x00, 0x90},
		OEMName:          [8]byte{'M', 'S', 'W', 'I', 'N', '4', '.', '1'},
		BytesPerBlock:    block.Size,
		BlocksPerCluster: opts.BlocksPerCluster,
		ReservedBlocks:   opts.ReservedBlocks,
		NumFATs:          opts.NumFATs,
		MediaDescriptor:  0xF8,
		TotalBlocks32:    uint32(opts.TotalBlocks),
		FATSize32:        opts.FATSize32,
		RootCluster:      opts.RootCluster,
		FSInfoBlock:      opts.FSInfoBlock,
		ExtBootSignature: 0x29,
		VolumeLabel:      [11]byte{'N', 'O', ' ', 'N', 'A', 'M', 'E', ' ', ' ', ' ', ' '},
		SystemID:         [8]byte{'F', 'A', 'T', '3', '2', ' ', ' ', ' '},
	}
	binary.Write(w, binary.LittleEndian, &fields)

	binary.LittleEndian.PutUint16(sec[510:512], 0xAA55)

	buf := [1]block.Block{sec}
	dev.Write(buf[:], opts.PartitionStartBlock, 0)
}

func writeFSInfo(dev *block.MemDevice, opts Options) {
	sec := block.NewBlock()
	binary.LittleEndian.PutUint32(sec[0x000:0x004], 0x41615252)
	binary.LittleEndian.PutUint32(sec[0x1E4:0x1E8], 0x61417272)
	binary.LittleEndian.PutUint32(sec[0x1E8:0x1EC], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(sec[0x1EC:0x1F0], 0xFFFFFFFF)
	binary.LittleEndian.PutUint16(sec[0x1FE:0x200], 0xAA55)

	buf := [1]block.Block{sec}
	dev.Write(buf[:], opts.PartitionStartBlock, block.Index(opts.FSInfoBlock))
}

func writeFATs(dev *block.MemDevice, opts Options) {
	for copyIdx := uint8(0); copyIdx < opts.NumFATs; copyIdx++ {
		base := block.Index(opts.ReservedBlocks) + block.Index(uint32(copyIdx)*opts.FATSize32)

		sec := block.NewBlock()
		binary.LittleEndian.PutUint32(sec[0:4], 0x0FFFFFF8) // cluster 0: media descriptor + EOC pattern
		binary.LittleEndian.PutUint32(sec[4:8], 0x0FFFFFFF) // cluster 1: reserved
		binary.LittleEndian.PutUint32(sec[8:12], 0x0FFFFFFF) // cluster 2 (root dir): EndOfChain

		buf := [1]block.Block{sec}
		dev.Write(buf[:], opts.PartitionStartBlock, base)

		for i := uint32(1); i < opts.FATSize32; i++ {
			zero := block.NewBlock()
			zbuf := [1]block.Block{zero}
			dev.Write(zbuf[:], opts.PartitionStartBlock, base+block.Index(i))
		}
	}
}

func zeroRootCluster(dev *block.MemDevice, opts Options) {
	fdo := opts.FirstDataOffset()
	rootBase := fdo + block.Index((opts.RootCluster-2)*uint32(opts.BlocksPerCluster))

	zero := block.NewBlock()
	for i := uint8(0); i < opts.BlocksPerCluster; i++ {
		buf := [1]block.Block{zero}
		dev.Write(buf[:], opts.PartitionStartBlock, rootBase+block.Index(i))
	}
}
