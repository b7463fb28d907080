package blockarray

import (
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
	"github.com/blockgrid/blockarray/metrics"
)

// Snapshot captures the Array's current aggregate state for feeding into
// a metrics.Collector. It walks every present block, so callers on a hot
// path should throttle how often they call it.
func (a *Array[T]) Snapshot() metrics.Snapshot {
	var dirty int64
	a.ForEachBlock(func(_ coord.BlockIndex, blk *block.CompressedBlock[T]) {
		if blk.IsDirty() {
			dirty++
		}
	})
	return metrics.Snapshot{
		NumBlocks:               int64(a.NumBlocks()),
		SizeBytes:               a.SizeBytes(),
		DirtyBlocks:             dirty,
		AverageCompressionRatio: a.AverageCompressionRatio(),
	}
}
