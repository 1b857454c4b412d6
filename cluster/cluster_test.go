package cluster_test

import (
	"testing"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/cluster"
	"github.com/stretchr/testify/assert"
)

func geometry() cluster.Geometry {
	// reserved=32, num_fats=2, fat_size=128.
	return cluster.Geometry{
		BlocksPerCluster: 8,
		ReservedBlocks:   32,
		FirstDataOffset:  288,
	}
}

func TestToDataBlockIndex(t *testing.T) {
	g := geometry()
	assert.Equal(t, block.Index(288), cluster.ID(2).ToDataBlockIndex(g))
	assert.Equal(t, block.Index(296), cluster.ID(3).ToDataBlockIndex(g))
}

func TestToFATBlockIndex(t *testing.T) {
	g := geometry()
	// Cluster 0's slot is at FAT byte offset 0, block 32 (reserved blocks).
	assert.Equal(t, block.Index(32), cluster.ID(0).ToFATBlockIndex(g))
	// Cluster 128 lands exactly one block further in (128*4/512 = 1).
	assert.Equal(t, block.Index(33), cluster.ID(128).ToFATBlockIndex(g))
}

func TestFATByteOffsetInBlock(t *testing.T) {
	assert.Equal(t, uint32(8), cluster.ID(2).FATByteOffsetInBlock())
	assert.Equal(t, uint32(0), cluster.ID(128).FATByteOffsetInBlock())
}

func TestIsValidData(t *testing.T) {
	assert.False(t, cluster.ID(0).IsValidData(1000))
	assert.False(t, cluster.ID(1).IsValidData(1000))
	assert.True(t, cluster.ID(2).IsValidData(1000))
	assert.True(t, cluster.ID(999).IsValidData(1000))
	assert.False(t, cluster.ID(1000).IsValidData(1000))
}
