package bootrecord

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// clusterSizeRow is one row of this package's fatgen103-style "recommended
// cluster size by volume size" table for FAT32 (its thresholds are its own,
// not fatgen103's), parsed with gocsv from a raw CSV
// string unmarshaled by row into a package-level lookup at init time.
type clusterSizeRow struct {
	MinVolumeBytes    uint64 `csv:"min_volume_bytes"`
	MaxVolumeBytes    uint64 `csv:"max_volume_bytes"`
	BlocksPerCluster  uint32 `csv:"blocks_per_cluster"`
}

const recommendedClusterSizesCSV = `min_volume_bytes,max_volume_bytes,blocks_per_cluster
0,66600960,0
66600960,134348800,1
134348800,268697600,2
268697600,537395200,4
537395200,1074790400,8
1074790400,17179869184,16
17179869184,34359738368,32
34359738368,18446744073709551615,64
`

var recommendedClusterSizes []clusterSizeRow

func init() {
	reader := strings.NewReader(recommendedClusterSizesCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row clusterSizeRow) error {
		recommendedClusterSizes = append(recommendedClusterSizes, row)
		return nil
	})
	if err != nil && err != io.EOF {
		panic(fmt.Sprintf("bootrecord: malformed embedded cluster-size table: %s", err))
	}
}

// RecommendedClusterSize returns the blocks-per-cluster value the embedded
// table recommends for a volume of the given size, for callers
// formatting a new volume (cmd/fatinspect's format path is out of scope,
// but this stays available for test fixtures and future tooling). A zero
// result ("format as FAT16 instead") means this driver's FAT32-only scope
// doesn't apply.
func RecommendedClusterSize(totalBytes uint64) (blocksPerCluster uint32, ok bool) {
	for _, row := range recommendedClusterSizes {
		if totalBytes >= row.MinVolumeBytes && totalBytes < row.MaxVolumeBytes {
			return row.BlocksPerCluster, row.BlocksPerCluster != 0
		}
	}
	return 0, false
}
