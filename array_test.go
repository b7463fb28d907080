package blockarray

import (
	"testing"

	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
	"github.com/blockgrid/blockarray/internal/view"
	"github.com/stretchr/testify/require"
)

func TestReadWritePointRoundTrip(t *testing.T) {
	a := New[uint32](coord.NewPoint(4, 4))
	require.NoError(t, a.WritePoint(coord.NewPoint(5, 5), 42))

	v, err := a.ReadPoint(coord.NewPoint(5, 5))
	require.NoError(t, err)
	require.Equal(t, uint32(42), v)

	v, err = a.ReadPoint(coord.NewPoint(0, 0))
	require.NoError(t, err)
	require.Equal(t, uint32(0), v)

	require.Equal(t, 1, a.NumBlocks())
}

func TestWriteRegionSpanningBlocks(t *testing.T) {
	a := New[uint32](coord.NewPoint(4, 4))
	p, q := coord.NewPoint(2, 2), coord.NewPoint(6, 6)
	src := view.New[uint32](q.Sub(p))
	src.ForEach(func(pt coord.Point, _ uint32) {
		src.Set(pt, uint32(pt[0]*10+pt[1]+1))
	})
	require.NoError(t, a.WriteRegion(p, q, src))
	require.Equal(t, 4, a.NumBlocks()) // spans a 2x2 grid of blocks

	out := view.New[uint32](q.Sub(p))
	require.NoError(t, a.ReadRegion(p, q, out))
	out.ForEach(func(pt coord.Point, val uint32) {
		require.Equal(t, src.At(pt), val)
	})
}

func TestReadRegionAbsentBlocksAreZero(t *testing.T) {
	a := New[uint32](coord.NewPoint(4, 4))
	out := view.New[uint32](coord.NewPoint(4, 4))
	require.NoError(t, a.ReadRegion(coord.NewPoint(0, 0), coord.NewPoint(4, 4), out))
	out.ForEach(func(_ coord.Point, val uint32) {
		require.Equal(t, uint32(0), val)
	})
	require.Equal(t, 0, a.NumBlocks())
}

func TestDeleteRegionResetsToZero(t *testing.T) {
	a := New[uint32](coord.NewPoint(4, 4))
	require.NoError(t, a.WritePoint(coord.NewPoint(1, 1), 9))
	a.DeleteRegion(coord.NewPoint(0, 0), coord.NewPoint(4, 4))
	require.Equal(t, 0, a.NumBlocks())

	v, err := a.ReadPoint(coord.NewPoint(1, 1))
	require.NoError(t, err)
	require.Equal(t, uint32(0), v)
}

func TestDeleteEmptyPrunesAllZeroBlocks(t *testing.T) {
	a := New[uint32](coord.NewPoint(2, 2), WithDeleteEmpty(true))
	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 7))
	require.Equal(t, 1, a.NumBlocks())

	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 0))
	require.Equal(t, 0, a.NumBlocks())
}

func TestMinMaxTracking(t *testing.T) {
	a := New[uint32](coord.NewPoint(2, 2), WithMinMaxTracking(true))
	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 3))
	require.NoError(t, a.WritePoint(coord.NewPoint(5, 5), 9))

	mn, mx := a.MinMax()
	require.Equal(t, uint32(0), mn)
	require.Equal(t, uint32(9), mx)
}

func TestCoordinateListsImplyDeleteEmpty(t *testing.T) {
	a := New[uint32](coord.NewPoint(2, 2), WithCoordinateLists(true))
	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 4))
	require.NoError(t, a.WritePoint(coord.NewPoint(1, 1), 6))

	positions, values := a.Nonzero()
	require.ElementsMatch(t, []coord.Point{coord.NewPoint(0, 0), coord.NewPoint(1, 1)}, positions)
	require.ElementsMatch(t, []uint32{4, 6}, values)

	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 0))
	require.NoError(t, a.WritePoint(coord.NewPoint(1, 1), 0))
	require.Equal(t, 0, a.NumBlocks()) // delete-empty implied
}

func TestWriteRegionNonzeroSkipsZeroAndMapsWriteAsZero(t *testing.T) {
	a := New[uint32](coord.NewPoint(4, 4))
	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 5))
	require.NoError(t, a.WritePoint(coord.NewPoint(0, 1), 6))

	shape := coord.NewPoint(4, 4)
	src := view.New[uint32](shape)
	const sentinelZero = uint32(1 << 20) // value standing in for "write zero"
	src.Set(coord.NewPoint(0, 0), sentinelZero)
	// every other element is the natural zero -> "leave untouched"

	require.NoError(t, a.WriteRegionNonzero(coord.NewPoint(0, 0), coord.NewPoint(4, 4), src, sentinelZero))

	v, err := a.ReadPoint(coord.NewPoint(0, 0))
	require.NoError(t, err)
	require.Equal(t, uint32(0), v)

	v, err = a.ReadPoint(coord.NewPoint(0, 1))
	require.NoError(t, err)
	require.Equal(t, uint32(6), v) // untouched
}

func TestWriteRegionNonzeroMaterializesAbsentBlockWithAllSkipValues(t *testing.T) {
	a := New[uint32](coord.NewPoint(4, 4))

	shape := coord.NewPoint(4, 4)
	src := view.New[uint32](shape) // every element is the natural zero -> "leave untouched"

	require.NoError(t, a.WriteRegionNonzero(coord.NewPoint(0, 0), coord.NewPoint(4, 4), src, uint32(1<<20)))

	// The block must be materialized even though nothing was actually
	// written, matching WriteRegion's "always touches the block" contract.
	require.Equal(t, 1, a.NumBlocks())

	v, err := a.ReadPoint(coord.NewPoint(0, 0))
	require.NoError(t, err)
	require.Equal(t, uint32(0), v)
}

func TestApplyRelabeling(t *testing.T) {
	a := New[uint32](coord.NewPoint(2, 2))
	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 1))
	require.NoError(t, a.WritePoint(coord.NewPoint(1, 1), 2))

	require.NoError(t, a.ApplyRelabeling([]uint32{100, 200, 300}))

	v, err := a.ReadPoint(coord.NewPoint(0, 0))
	require.NoError(t, err)
	require.Equal(t, uint32(200), v)

	v, err = a.ReadPoint(coord.NewPoint(1, 1))
	require.NoError(t, err)
	require.Equal(t, uint32(300), v)
}

func TestDirtyRegionLifecycle(t *testing.T) {
	a := New[uint32](coord.NewPoint(4, 4))
	p, q := coord.NewPoint(0, 0), coord.NewPoint(4, 4)
	require.True(t, a.IsDirtyRegion(p, q)) // absent block counts as dirty

	require.NoError(t, a.WriteRegion(p, q, view.New[uint32](coord.NewPoint(4, 4))))
	require.False(t, a.IsDirtyRegion(p, q)) // whole-block write leaves it clean

	a.SetDirtyRegion(p, q, true)
	require.True(t, a.IsDirtyRegion(p, q))

	blocks := a.DirtyBlocks(p, q)
	require.Len(t, blocks, 1)
}

func TestBlocksFiltersToIntersectingRegion(t *testing.T) {
	a := New[uint32](coord.NewPoint(2, 2))
	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 1))
	require.NoError(t, a.WritePoint(coord.NewPoint(10, 10), 1))

	got := a.Blocks(coord.NewPoint(0, 0), coord.NewPoint(2, 2))
	require.Equal(t, []coord.BlockIndex{coord.NewPoint(0, 0)}, got)
}

func TestCompressionToggleRoundTrips(t *testing.T) {
	a := New[uint8](coord.NewPoint(4, 4), WithCompression(block.ZstdCompression))
	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 1))
	require.NoError(t, a.SetCompressionEnabled(false))
	require.NoError(t, a.SetCompressionEnabled(true))

	v, err := a.ReadPoint(coord.NewPoint(0, 0))
	require.NoError(t, err)
	require.Equal(t, uint8(1), v)
}
