// Package chainiter walks a FAT cluster chain one link at a time. It borrows
// the fat.Table for its lifetime and never holds its own block device
// reference.
package chainiter

import (
	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/cluster"
	"github.com/oxleyfs/fat32/diskerr"
	"github.com/oxleyfs/fat32/fat"
)

// Item is a single step of a chain walk: either a cluster, or a terminal
// device error. Once an Item carrying Err is produced, the iterator is
// exhausted.
type Item struct {
	Cluster cluster.ID
	Err     diskerr.DriverError
}

// ChainIterator yields the clusters of a chain, starting with the head
// cluster, by repeatedly decoding the FAT slot of the cluster most recently
// yielded.
type ChainIterator struct {
	table    *fat.Table
	pending  cluster.ID
	first    bool
	finished bool
}

// New creates an iterator over the chain starting at start. The chain's
// head is always yielded regardless of its own FAT slot's contents.
func New(table *fat.Table, start cluster.ID) *ChainIterator {
	return &ChainIterator{table: table, pending: start, first: true}
}

// Next advances the iterator. The returned bool is false once the chain has
// ended, normally (EndOfChain/Bad/Reserved/Free/out-of-range next) or via a
// device error — callers must check Item.Err on the final true result to
// tell the two apart.
func (it *ChainIterator) Next() (Item, bool) {
	if it.finished {
		return Item{}, false
	}

	if it.first {
		it.first = false
		return Item{Cluster: it.pending}, true
	}

	v, err := it.table.Get(it.pending)
	if err != nil {
		it.finished = true
		return Item{Err: err}, true
	}

	if v.Kind == fat.Data && v.Next.IsValidData(it.table.ClusterCount) {
		it.pending = v.Next
		return Item{Cluster: it.pending}, true
	}

	// EndOfChain, Bad, Reserved, Free (corruption mid-chain), or a Data
	// slot pointing outside the valid cluster range: all end the walk.
	it.finished = true
	return Item{}, false
}

// BlockAwareIterator decorates ChainIterator with the block-within-cluster
// position a directory iterator needs to resume enumeration partway through
// the first cluster. The chain-walking logic is identical; this only carries
// the extra piece of state the directory-entry iterator (package dirent)
// consumes on construction.
type BlockAwareIterator struct {
	*ChainIterator
	// InitialBlockIndex is the block-within-the-first-cluster to resume
	// enumeration from, as supplied by the caller.
	InitialBlockIndex block.Index
}

// NewBlockAware creates a BlockAwareIterator starting at start, annotated
// with the block index a caller wants the first cluster's enumeration to
// resume from.
func NewBlockAware(table *fat.Table, start cluster.ID, initialBlockIndex block.Index) *BlockAwareIterator {
	return &BlockAwareIterator{
		ChainIterator:     New(table, start),
		InitialBlockIndex: initialBlockIndex,
	}
}
