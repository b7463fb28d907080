package block

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cockroachdb/errors"
)

// dirtyVector is the per-axis-slice-dirty bit-vector described in spec
// §3: logically the concatenation of N bit-vectors, one per axis d of
// length shape[d]. It is backed by a roaring bitmap over the flattened
// index so that a fully-dirty or fully-clean block (the common case,
// immediately after creation or after a whole-block write) costs O(1)
// words rather than O(Σ shape[d]) bits.
type dirtyVector struct {
	shape  []int32
	offset []int64 // offset[d] = sum of shape[0:d], flattened index base for axis d
	bits   *roaring.Bitmap
}

func newDirtyVector(shape []int32) *dirtyVector {
	offset := make([]int64, len(shape))
	var total int64
	for i, s := range shape {
		offset[i] = total
		total += int64(s)
	}
	return &dirtyVector{shape: shape, offset: offset, bits: roaring.New()}
}

func (d *dirtyVector) flatten(axis int, slice int32) uint32 {
	if axis < 0 || axis >= len(d.shape) {
		panic(errors.AssertionFailedf("block: axis %d out of range [0,%d)", axis, len(d.shape)))
	}
	if slice < 0 || slice >= d.shape[axis] {
		panic(errors.AssertionFailedf("block: slice %d out of range [0,%d) on axis %d", slice, d.shape[axis], axis))
	}
	return uint32(d.offset[axis] + int64(slice))
}

func (d *dirtyVector) clone() *dirtyVector {
	return &dirtyVector{shape: d.shape, offset: d.offset, bits: d.bits.Clone()}
}

func (d *dirtyVector) setAll(dirty bool) {
	if dirty {
		d.bits.Clear()
		var total uint64
		for _, s := range d.shape {
			total += uint64(s)
		}
		d.bits.AddRange(0, total)
	} else {
		d.bits.Clear()
	}
}

func (d *dirtyVector) isClean() bool {
	return d.bits.IsEmpty()
}

func (d *dirtyVector) isSliceDirty(axis int, slice int32) bool {
	return d.bits.Contains(d.flatten(axis, slice))
}

func (d *dirtyVector) setSliceRangeDirty(axis int, lo, hi int32, dirty bool) {
	if lo >= hi {
		return
	}
	start := uint64(d.flatten(axis, lo))
	end := uint64(d.flatten(axis, hi-1)) + 1
	if dirty {
		d.bits.AddRange(start, end)
	} else {
		d.bits.RemoveRange(start, end)
	}
}

// anyDirtyInRange reports whether any slice in [lo, hi) on the given axis
// is marked dirty.
func (d *dirtyVector) anyDirtyInRange(axis int, lo, hi int32) bool {
	if lo >= hi {
		return false
	}
	start := uint64(d.flatten(axis, lo))
	end := uint64(d.flatten(axis, hi-1)) + 1
	probe := roaring.New()
	probe.AddRange(start, end)
	return d.bits.Intersects(probe)
}
