// Package fat implements typed access to a single FAT slot: Free, Data(next),
// Bad, Reserved, and EndOfChain, plus the free-cluster scan used when FS Info
// is unavailable.
package fat

import "github.com/oxleyfs/fat32/cluster"

// Kind is the tag of a FatValue variant.
type Kind int

const (
	Free Kind = iota
	Data
	Bad
	Reserved
	EndOfChain
)

func (k Kind) String() string {
	switch k {
	case Free:
		return "Free"
	case Data:
		return "Data"
	case Bad:
		return "Bad"
	case Reserved:
		return "Reserved"
	case EndOfChain:
		return "EndOfChain"
	default:
		return "Unknown"
	}
}

// Value is the decoded form of a 32-bit FAT slot. Next is only meaningful
// when Kind is Data.
type Value struct {
	Kind Kind
	Next cluster.ID
}

// The masks and sentinels a raw FAT32 slot is classified against. The high
// nibble of every slot is reserved by the FAT32 standard and must be masked
// off on read, preserved on write.
const (
	highNibbleMask uint32 = 0x0FFFFFFF
	slotReserved   uint32 = 1
	slotBad        uint32 = 0x0FFFFFF7
	slotEOCLow     uint32 = 0x0FFFFFF8
	slotEOCHigh    uint32 = 0x0FFFFFFF
)

// ValueFromRaw classifies a raw little-endian 32-bit FAT slot, masking the
// reserved high nibble first.
func ValueFromRaw(raw uint32, clusterCount uint32) Value {
	masked := raw & highNibbleMask

	switch {
	case masked == 0:
		return Value{Kind: Free}
	case masked == slotReserved:
		return Value{Kind: Reserved}
	case masked == slotBad:
		return Value{Kind: Bad}
	case masked >= slotEOCLow && masked <= slotEOCHigh:
		return Value{Kind: EndOfChain}
	case masked >= uint32(cluster.MinData) && masked < clusterCount:
		return Value{Kind: Data, Next: cluster.ID(masked)}
	default:
		return Value{Kind: Reserved}
	}
}

// Raw encodes v back into the low 28 bits of a FAT slot. existing supplies
// the high nibble to preserve: writing a slot must not disturb its high
// nibble.
func (v Value) Raw(existing uint32) uint32 {
	highNibble := existing &^ highNibbleMask

	var low uint32
	switch v.Kind {
	case Free:
		low = 0
	case Reserved:
		low = slotReserved
	case Bad:
		low = slotBad
	case EndOfChain:
		low = slotEOCHigh
	case Data:
		low = uint32(v.Next)
	}

	return highNibble | (low & highNibbleMask)
}
