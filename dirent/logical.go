package dirent

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/oxleyfs/fat32/cluster"
)

// Attribute flags for a directory record's single attribute byte.
const (
	AttrReadOnly = 1 << iota
	AttrHidden
	AttrSystem
	AttrVolumeLabel
	AttrDirectory
	AttrArchived
	AttrDevice
	AttrReserved
)

// Attributes is the on-disk attribute byte of a directory record.
type Attributes uint8

func (a Attributes) IsDirectory() bool  { return a&AttrDirectory != 0 }
func (a Attributes) IsReadOnly() bool   { return a&AttrReadOnly != 0 }
func (a Attributes) IsHidden() bool     { return a&AttrHidden != 0 }
func (a Attributes) IsSystem() bool     { return a&AttrSystem != 0 }
func (a Attributes) IsVolumeLabel() bool { return a&AttrVolumeLabel != 0 }
func (a Attributes) IsArchived() bool   { return a&AttrArchived != 0 }

// Entry is the logical, caller-friendly view of a directory record: start
// cluster, optional raw-location back-reference, size, three timestamps,
// name, and attributes.
type Entry struct {
	StartCluster cluster.ID
	// RawLocation is the origin this entry was read from, used to write
	// modifications back to the exact on-disk slot. Absent for synthesized
	// entries such as the root directory.
	RawLocation *Raw

	FileSize           uint32
	CreatedAt          time.Time
	LastAccessedAt     time.Time
	LastModifiedAt     time.Time
	Name               string
	Attribute          Attributes
}

// dateFromPacked decodes a FAT packed date: 5 bits day, 4 bits month, 7 bits
// year-since-1980.
func dateFromPacked(value uint16) time.Time {
	day := int(value & 0x001F)
	month := time.Month((value >> 5) & 0x000F)
	year := 1980 + int(value>>9)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// timeFromPacked decodes a FAT packed date+time pair into a full time.Time:
// a packed time halfword (5 bits seconds/2, 6 bits minutes, 5 bits hours)
// plus an optional hundredths-of-a-second byte for sub-second resolution on
// creation timestamps.
func timeFromPacked(datePart, timePart uint16, hundredths uint8) time.Time {
	d := dateFromPacked(datePart)

	seconds := int(timePart&0x001F) * 2
	nanoseconds := 0
	if hundredths >= 100 {
		seconds++
		hundredths -= 100
	}
	nanoseconds = int(hundredths) * 10_000_000

	minutes := int((timePart >> 5) & 0x003F)
	hours := int(timePart >> 11)

	return time.Date(d.Year(), d.Month(), d.Day(), hours, minutes, seconds, nanoseconds, time.UTC)
}

// ToEntry converts a raw record into its logical form. Callers are expected
// to have already checked IsEndMarker; ToEntry still recovers a deleted
// entry's real first name character so Name round-trips even when called on
// a record IsDeleted reports true for.
func (r Raw) ToEntry() Entry {
	attr := Attributes(r.Data[11])
	ntReserved := r.Data[12]
	createTenths := r.Data[13]
	createTime := binary.LittleEndian.Uint16(r.Data[14:16])
	createDate := binary.LittleEndian.Uint16(r.Data[16:18])
	lastAccessDate := binary.LittleEndian.Uint16(r.Data[18:20])
	writeTime := binary.LittleEndian.Uint16(r.Data[22:24])
	writeDate := binary.LittleEndian.Uint16(r.Data[24:26])
	fileSize := binary.LittleEndian.Uint32(r.Data[28:32])

	_ = ntReserved

	start := cluster.ID((uint32(r.firstClusterHigh()) << 16) | uint32(r.firstClusterLow()))

	rawCopy := r
	return Entry{
		StartCluster:   start,
		RawLocation:    &rawCopy,
		FileSize:       fileSize,
		CreatedAt:      timeFromPacked(createDate, createTime, createTenths),
		LastAccessedAt: dateFromPacked(lastAccessDate),
		LastModifiedAt: timeFromPacked(writeDate, writeTime, 0),
		Name:           shortNameFromRecord(r.Data[0:8], r.Data[8:11], createTenths),
		Attribute:      attr,
	}
}

// shortNameFromRecord reassembles the 8.3 name, substituting the first byte
// per the two reserved markers a real first character can collide with:
// 0xE5 means the entry is deleted and the real first character was stashed
// in createTenths; 0x05 is itself the literal first character 0xE5 (which
// would otherwise be indistinguishable from the deleted marker).
func shortNameFromRecord(name8, ext3 []byte, createTenths uint8) string {
	buf := make([]byte, len(name8))
	copy(buf, name8)

	switch buf[0] {
	case 0xE5:
		buf[0] = createTenths
	case 0x05:
		buf[0] = 0xE5
	}

	return ShortNameFromBytes(buf, ext3)
}

// ShortNameFromBytes reassembles an 8.3 name from its fixed-width name and
// extension fields, trimming the space padding FAT uses and joining with a
// dot when an extension is present.
func ShortNameFromBytes(name8 []byte, ext3 []byte) string {
	name := strings.TrimRight(string(name8), " ")
	ext := strings.TrimRight(string(ext3), " ")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// EncodeShortName packs name (without extension) and ext into the 11-byte
// 8.3 field layout, space-padded, for writing a new record.
func EncodeShortName(name, ext string) (name8 [8]byte, ext3 [3]byte) {
	for i := range name8 {
		name8[i] = ' '
	}
	for i := range ext3 {
		ext3[i] = ' '
	}
	copy(name8[:], name)
	copy(ext3[:], ext)
	return
}
