package blockarray

import (
	"math/rand/v2"
	"testing"

	"github.com/blockgrid/blockarray/internal/coord"
	"github.com/blockgrid/blockarray/internal/view"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

// referenceGrid is a dense oracle mirroring what an Array should contain:
// every WriteRegion is replayed against it too, and a full ReadRegion is
// cross-checked against it once each trial's writes are done.
type referenceGrid struct {
	extent coord.Point
	data   map[[2]int32]uint32
}

func newReferenceGrid(extent coord.Point) *referenceGrid {
	return &referenceGrid{extent: extent, data: make(map[[2]int32]uint32)}
}

func (g *referenceGrid) at(p coord.Point) uint32 {
	return g.data[[2]int32{p[0], p[1]}]
}

func (g *referenceGrid) set(p coord.Point, v uint32) {
	if v == 0 {
		delete(g.data, [2]int32{p[0], p[1]})
		return
	}
	g.data[[2]int32{p[0], p[1]}] = v
}

// TestPropertyWriteReadAgreesWithReferenceGrid is a randomized property
// test (mirroring the teacher's own use of math/rand/v2 in its data-driven
// tests): random region writes against both an Array and a dense
// reference must always agree when read back, for every seed.
func TestPropertyWriteReadAgreesWithReferenceGrid(t *testing.T) {
	extent := coord.NewPoint(12, 12)
	blockShape := coord.NewPoint(4, 4)

	for trial := 0; trial < 20; trial++ {
		rng := rand.New(rand.NewPCG(uint64(trial), 0xC0FFEE))
		a := New[uint32](blockShape)
		ref := newReferenceGrid(extent)

		for step := 0; step < 30; step++ {
			p := coord.NewPoint(int32(rng.IntN(int(extent[0]-1))), int32(rng.IntN(int(extent[1]-1))))
			w := int32(rng.IntN(3)) + 1
			h := int32(rng.IntN(3)) + 1
			q := coord.NewPoint(min32(p[0]+w, extent[0]), min32(p[1]+h, extent[1]))

			src := view.New[uint32](q.Sub(p))
			src.ForEach(func(pt coord.Point, _ uint32) {
				src.Set(pt, uint32(rng.IntN(1000)))
			})
			require.NoError(t, a.WriteRegion(p, q, src))
			src.ForEach(func(pt coord.Point, val uint32) {
				ref.set(p.Add(pt), val)
			})
		}

		out := view.New[uint32](extent)
		require.NoError(t, a.ReadRegion(coord.NewPoint(0, 0), extent, out))

		out.ForEach(func(pt coord.Point, val uint32) {
			want := ref.at(pt)
			if val != want {
				t.Fatalf("trial %d: mismatch at %v: got %d, want %d\n%s", trial, pt, val, want, pretty.Sprint(ref.data))
			}
		})
	}
}

// TestPropertyDeleteThenReadIsAlwaysZero checks that, for any random
// sequence of writes followed by a delete covering the same footprint,
// every subsequent read in that footprint returns zero.
func TestPropertyDeleteThenReadIsAlwaysZero(t *testing.T) {
	extent := coord.NewPoint(16, 16)
	blockShape := coord.NewPoint(4, 4)

	for trial := 0; trial < 20; trial++ {
		rng := rand.New(rand.NewPCG(uint64(trial), 0xBEEF))
		a := New[uint32](blockShape)

		for step := 0; step < 15; step++ {
			p := coord.NewPoint(int32(rng.IntN(12)), int32(rng.IntN(12)))
			q := coord.NewPoint(p[0]+int32(rng.IntN(4))+1, p[1]+int32(rng.IntN(4))+1)
			src := view.New[uint32](q.Sub(p))
			src.Fill(uint32(rng.IntN(1000) + 1))
			require.NoError(t, a.WriteRegion(p, q, src))
		}

		a.DeleteRegion(coord.NewPoint(0, 0), extent)

		out := view.New[uint32](extent)
		require.NoError(t, a.ReadRegion(coord.NewPoint(0, 0), extent, out))
		out.ForEach(func(pt coord.Point, val uint32) {
			require.Equal(t, uint32(0), val, "trial %d position %v", trial, pt)
		})
		require.Equal(t, 0, a.NumBlocks())
	}
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
