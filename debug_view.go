package blockarray

import (
	"github.com/blockgrid/blockarray/debug"
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
)

// BlockInfos snapshots every present block as a debug.BlockInfo, in the
// Array's deterministic block iteration order (see ForEachBlock), for feeding into
// debug.DebugString or debug.CompressionSparkline.
func (a *Array[T]) BlockInfos() []debug.BlockInfo {
	infos := make([]debug.BlockInfo, 0, a.NumBlocks())
	a.ForEachBlock(func(c coord.BlockIndex, blk *block.CompressedBlock[T]) {
		infos = append(infos, debug.BlockInfo{
			Index:           c,
			Shape:           blk.Shape(),
			Compression:     a.CompressionKind(),
			IsCompressed:    blk.IsCompressed(),
			CompressedBytes: blk.CompressedSizeBytes(),
			RawBytes:        blk.Size() * int64(block.SizeOf[T]()),
			WholeDirty:      blk.IsDirty(),
		})
	})
	return infos
}
