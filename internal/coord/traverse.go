package coord

import "iter"

// EnumerateBlocks produces every BlockIndex c with BlockIndexLow(p)[i] <=
// c[i] < BlockIndexHigh(q)[i] for all axes i, in lexicographic order with
// the last axis varying fastest (row-major / C order). This ordering is
// deterministic and is relied on by Traverse and by the order DirtyBlocks
// reports blocks in.
func EnumerateBlocks(p, q Point, shape BlockShape) []BlockIndex {
	if (Region{P: p, Q: q}).Empty() {
		return nil
	}
	low := BlockIndexLow(p, shape)
	high := BlockIndexHigh(q, shape)

	n := len(p)
	count := 1
	for i := 0; i < n; i++ {
		count *= int(high[i] - low[i])
	}
	out := make([]BlockIndex, 0, count)

	cur := low.Clone()
	for {
		out = append(out, cur.Clone())

		// Odometer increment: last axis varies fastest.
		axis := n - 1
		for axis >= 0 {
			cur[axis]++
			if cur[axis] < high[axis] {
				break
			}
			cur[axis] = low[axis]
			axis--
		}
		if axis < 0 {
			break
		}
	}
	return out
}

// Step is one record of a Traverse decomposition: the block touched, the
// subregion of that block actually addressed (in block-local coordinates),
// and the matching subregion of the caller-supplied, region-shaped view
// (in caller-local coordinates).
type Step struct {
	C           BlockIndex
	WithinBlock Region
	Source      Region
}

// Traverse decomposes the region [p, q) into a sequence of Steps, one per
// block the region touches, in EnumerateBlocks order. A single-block
// region yields exactly one Step; an empty region yields none.
func Traverse(p, q Point, shape BlockShape) iter.Seq[Step] {
	return func(yield func(Step) bool) {
		if (Region{P: p, Q: q}).Empty() {
			return
		}
		low := BlockIndexLow(p, shape)
		high := BlockIndexHigh(q, shape)
		n := len(p)

		for _, c := range EnumerateBlocks(p, q, shape) {
			within := Region{P: make(Point, n), Q: make(Point, n)}
			source := Region{P: make(Point, n), Q: make(Point, n)}
			for i := 0; i < n; i++ {
				if c[i] == low[i] {
					within.P[i] = mod(p[i], shape[i])
					source.P[i] = 0
				} else {
					within.P[i] = 0
					source.P[i] = (shape[i] - mod(p[i], shape[i])) + max32(0, c[i]-low[i]-1)*shape[i]
				}
				if c[i] == high[i]-1 {
					within.Q[i] = mod(q[i]-1, shape[i]) + 1
				} else {
					within.Q[i] = shape[i]
				}
				source.Q[i] = source.P[i] + (within.Q[i] - within.P[i])
			}
			if !yield(Step{C: c, WithinBlock: within, Source: source}) {
				return
			}
		}
	}
}

func mod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
