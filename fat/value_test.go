package fat_test

import (
	"testing"

	"github.com/oxleyfs/fat32/cluster"
	"github.com/oxleyfs/fat32/fat"
	"github.com/stretchr/testify/assert"
)

const clusterCount = 1000

func TestValueFromRaw(t *testing.T) {
	cases := []struct {
		name string
		raw  uint32
		want fat.Value
	}{
		{"free", 0, fat.Value{Kind: fat.Free}},
		{"reserved", 1, fat.Value{Kind: fat.Reserved}},
		{"bad", 0x0FFFFFF7, fat.Value{Kind: fat.Bad}},
		{"eoc-low", 0x0FFFFFF8, fat.Value{Kind: fat.EndOfChain}},
		{"eoc-high", 0x0FFFFFFF, fat.Value{Kind: fat.EndOfChain}},
		{"data", 5, fat.Value{Kind: fat.Data, Next: cluster.ID(5)}},
		{"data-high-nibble-masked", 0xF0000005, fat.Value{Kind: fat.Data, Next: cluster.ID(5)}},
		{"data-out-of-range", clusterCount + 1, fat.Value{Kind: fat.Reserved}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := fat.ValueFromRaw(c.raw, clusterCount)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestValueRawPreservesHighNibble(t *testing.T) {
	existing := uint32(0xA0000000)
	v := fat.Value{Kind: fat.Data, Next: cluster.ID(42)}
	raw := v.Raw(existing)
	assert.Equal(t, uint32(0xA0000000), raw&0xF0000000)
	assert.Equal(t, uint32(42), raw&0x0FFFFFFF)
}

func TestValueRawRoundTrip(t *testing.T) {
	for _, v := range []fat.Value{
		{Kind: fat.Free},
		{Kind: fat.Reserved},
		{Kind: fat.Bad},
		{Kind: fat.EndOfChain},
		{Kind: fat.Data, Next: cluster.ID(7)},
	} {
		raw := v.Raw(0)
		got := fat.ValueFromRaw(raw, clusterCount)
		assert.Equal(t, v, got)
	}
}
