package coord

import "github.com/cockroachdb/errors"

// BlockShape is a Point with every component > 0, fixed for the lifetime
// of an Array.
type BlockShape = Point

// CheckBlockShape asserts that shape is a valid BlockShape.
func CheckBlockShape(shape BlockShape) {
	for i, s := range shape {
		if s <= 0 {
			panic(errors.AssertionFailedf("coord: block shape axis %d must be > 0, got %d", i, s))
		}
	}
}

// floorDiv computes floor(a/b) for b > 0, matching the Euclidean division
// needed for negative-safe block math (the spec only requires correctness
// for non-negative a, but floor division is used uniformly for clarity).
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// BlockIndexLow returns, for each axis i, floor(p[i]/BlockShape[i]) — the
// block index containing the region's low corner.
func BlockIndexLow(p Point, shape BlockShape) BlockIndex {
	p.checkSameDims(shape)
	c := make(BlockIndex, len(p))
	for i := range p {
		c[i] = floorDiv(p[i], shape[i])
	}
	return c
}

// BlockIndexHigh returns, for each axis i, floor((q[i]-1)/BlockShape[i])+1
// — one past the block index containing the region's high corner. q is
// exclusive and must exceed the corresponding low corner (q > p).
func BlockIndexHigh(q Point, shape BlockShape) BlockIndex {
	q.checkSameDims(shape)
	c := make(BlockIndex, len(q))
	for i := range q {
		c[i] = floorDiv(q[i]-1, shape[i]) + 1
	}
	return c
}

// BlockBounds returns the region spanned by block c: [c·BlockShape,
// (c+1)·BlockShape).
func BlockBounds(c BlockIndex, shape BlockShape) Region {
	c.checkSameDims(shape)
	p := make(Point, len(c))
	q := make(Point, len(c))
	for i := range c {
		p[i] = c[i] * shape[i]
		q[i] = (c[i] + 1) * shape[i]
	}
	return Region{P: p, Q: q}
}
