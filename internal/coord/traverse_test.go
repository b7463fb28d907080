package coord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnumerateBlocksCardinality(t *testing.T) {
	shape := NewPoint(10, 10, 10)
	p := NewPoint(1, 1, 1)
	q := NewPoint(23, 4, 31)

	low := BlockIndexLow(p, shape)
	high := BlockIndexHigh(q, shape)
	want := 1
	for i := range low {
		want *= int(high[i] - low[i])
	}

	got := EnumerateBlocks(p, q, shape)
	require.Len(t, got, want)
}

func TestEnumerateBlocksOrderLastAxisFastest(t *testing.T) {
	shape := NewPoint(10, 10)
	p := NewPoint(0, 0)
	q := NewPoint(20, 30)

	blocks := EnumerateBlocks(p, q, shape)
	require.Equal(t, []BlockIndex{
		NewPoint(0, 0), NewPoint(0, 1), NewPoint(0, 2),
		NewPoint(1, 0), NewPoint(1, 1), NewPoint(1, 2),
	}, blocks)
}

func TestEnumerateBlocksSingleBlock(t *testing.T) {
	shape := NewPoint(10, 10, 10)
	blocks := EnumerateBlocks(NewPoint(1, 1, 1), NewPoint(3, 4, 5), shape)
	require.Equal(t, []BlockIndex{NewPoint(0, 0, 0)}, blocks)
}

func TestEnumerateBlocksEmptyRegion(t *testing.T) {
	shape := NewPoint(10, 10, 10)
	blocks := EnumerateBlocks(NewPoint(1, 1, 1), NewPoint(3, 1, 5), shape)
	require.Empty(t, blocks)
}

func collect(p, q Point, shape BlockShape) []Step {
	var steps []Step
	for s := range Traverse(p, q, shape) {
		steps = append(steps, s)
	}
	return steps
}

func TestTraverseSingleBlock(t *testing.T) {
	shape := NewPoint(10, 10, 10)
	steps := collect(NewPoint(1, 1, 1), NewPoint(3, 4, 5), shape)
	require.Len(t, steps, 1)
	step := steps[0]
	require.Equal(t, NewPoint(0, 0, 0), step.C)
	require.Equal(t, Region{P: NewPoint(1, 1, 1), Q: NewPoint(3, 4, 5)}, step.WithinBlock)
	require.Equal(t, Region{P: NewPoint(0, 0, 0), Q: NewPoint(2, 3, 4)}, step.Source)
}

func TestTraverseEmptyRegion(t *testing.T) {
	shape := NewPoint(10, 10, 10)
	steps := collect(NewPoint(1, 1, 1), NewPoint(3, 1, 5), shape)
	require.Empty(t, steps)
}

// TestTraverseCoverageAndDisjointness exercises P10: the union of source
// sub-regions equals [p, q) and they are pairwise disjoint, and likewise
// for within-block regions inside each block.
func TestTraverseCoverageAndDisjointness(t *testing.T) {
	shape := NewPoint(4, 5)
	p := NewPoint(1, 2)
	q := NewPoint(11, 17)

	full := q.Sub(p)
	covered := make([][]bool, full[0])
	for i := range covered {
		covered[i] = make([]bool, full[1])
	}

	withinCoveredPerBlock := map[string][][]bool{}

	for step := range Traverse(p, q, shape) {
		require.Equal(t, step.WithinBlock.Shape(), step.Source.Shape())

		key := step.C.String()
		wc, ok := withinCoveredPerBlock[key]
		if !ok {
			wc = make([][]bool, shape[0])
			for i := range wc {
				wc[i] = make([]bool, shape[1])
			}
			withinCoveredPerBlock[key] = wc
		}

		for dx := int32(0); dx < step.Source.Shape()[0]; dx++ {
			for dy := int32(0); dy < step.Source.Shape()[1]; dy++ {
				sx := step.Source.P[0] + dx
				sy := step.Source.P[1] + dy
				require.False(t, covered[sx][sy], "source region overlap at (%d,%d)", sx, sy)
				covered[sx][sy] = true

				wx := step.WithinBlock.P[0] + dx
				wy := step.WithinBlock.P[1] + dy
				require.False(t, wc[wx][wy], "within-block overlap in block %s at (%d,%d)", key, wx, wy)
				wc[wx][wy] = true
			}
		}
	}

	for i := range covered {
		for j := range covered[i] {
			require.True(t, covered[i][j], "uncovered source position (%d,%d)", i, j)
		}
	}
}

func TestBlockBounds(t *testing.T) {
	shape := NewPoint(10, 10, 10)
	r := BlockBounds(NewPoint(1, 2, 0), shape)
	require.Equal(t, NewPoint(10, 20, 0), r.P)
	require.Equal(t, NewPoint(20, 30, 10), r.Q)
}
