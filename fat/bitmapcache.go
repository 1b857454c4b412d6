package fat

import (
	"github.com/boljen/go-bitmap"
	"github.com/oxleyfs/fat32/cluster"
)

// FreeBitmap is a read-only, one-bit-per-cluster snapshot of which clusters
// were free the last time Table.ScanFree ran. It is never written back to
// and never consulted to make an allocation decision — the FAT slots
// themselves (via Table.Get/Put) remain the sole source of truth, the same
// way FS Info's own counters are only a hint. It is a diagnostic view for
// reporting fragmentation without re-scanning the whole table; volume.Mount
// discards it and cmd/fatinspect does not use it.
type FreeBitmap struct {
	bits         bitmap.Bitmap
	clusterCount uint32
}

func newFreeBitmap(clusterCount uint32) *FreeBitmap {
	return &FreeBitmap{
		bits:         bitmap.New(int(clusterCount)),
		clusterCount: clusterCount,
	}
}

func (b *FreeBitmap) setFree(c cluster.ID, free bool) {
	b.bits.Set(int(c), free)
}

// IsFree reports whether cluster c was free as of the last scan.
func (b *FreeBitmap) IsFree(c cluster.ID) bool {
	if uint32(c) >= b.clusterCount {
		return false
	}
	return b.bits.Get(int(c))
}

// FreeRuns returns the lengths of every maximal run of consecutive free
// clusters, in cluster order, a measure of free-space fragmentation (many
// short runs vs. a few long ones).
func (b *FreeBitmap) FreeRuns() []uint32 {
	var runs []uint32
	var current uint32

	for c := uint32(cluster.MinData); c < b.clusterCount; c++ {
		if b.bits.Get(int(c)) {
			current++
			continue
		}
		if current > 0 {
			runs = append(runs, current)
			current = 0
		}
	}
	if current > 0 {
		runs = append(runs, current)
	}
	return runs
}
