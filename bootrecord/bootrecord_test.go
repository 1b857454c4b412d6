package bootrecord_test

import (
	"encoding/binary"
	"testing"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/bootrecord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validSector builds a minimally-valid FAT32 boot sector.
func validSector() block.Block {
	sec := block.NewBlock()
	sec[0] = 0xEB
	binary.LittleEndian.PutUint16(sec[11:13], block.Size)
	sec[13] = 8 // blocks per cluster
	binary.LittleEndian.PutUint16(sec[14:16], 32)
	sec[16] = 2 // num fats
	binary.LittleEndian.PutUint32(sec[32:36], 131072)
	binary.LittleEndian.PutUint32(sec[36:40], 128)
	binary.LittleEndian.PutUint32(sec[44:48], 2)
	binary.LittleEndian.PutUint16(sec[48:50], 1)
	copy(sec[82:87], []byte("FAT32"))
	binary.LittleEndian.PutUint16(sec[510:512], 0xAA55)
	return sec
}

func TestValidateAcceptsWellFormedSector(t *testing.T) {
	br := bootrecord.New(validSector())
	assert.NoError(t, br.Validate())
	assert.Equal(t, bootrecord.Fat32, br.FatType())
}

func TestValidateRejectsBadJumpByte(t *testing.T) {
	sec := validSector()
	sec[0] = 0x00
	br := bootrecord.New(sec)
	err := br.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jump")
}

func TestValidateRejectsMissingBootSignature(t *testing.T) {
	sec := validSector()
	binary.LittleEndian.PutUint16(sec[510:512], 0)
	br := bootrecord.New(sec)
	err := br.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0xAA55")
}

func TestValidateAggregatesMultipleFailures(t *testing.T) {
	sec := validSector()
	sec[0] = 0x00
	binary.LittleEndian.PutUint16(sec[510:512], 0)
	br := bootrecord.New(sec)
	err := br.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jump")
	assert.Contains(t, err.Error(), "0xAA55")
}

func TestFirstDataOffsetMatchesScenario(t *testing.T) {
	br := bootrecord.New(validSector())
	assert.Equal(t, block.Index(288), br.FirstDataOffset())
	assert.Equal(t, uint32(2), br.RootDirCluster())
}
