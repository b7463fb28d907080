package block

import (
	"encoding/binary"
	"math"

	"github.com/blockgrid/blockarray/internal/coord"
	"github.com/blockgrid/blockarray/internal/view"
	"github.com/cockroachdb/errors"
)

// ErrCorrupted is returned by Uncompress/ReadInto/ReadSub when a codec
// reports a decompressed length that disagrees with the block's declared
// shape. The Array layer attaches the offending BlockIndex when
// surfacing this to callers (see the root package's BlockCorrupted).
type ErrCorrupted struct {
	Expected, Actual int
}

func (e *ErrCorrupted) Error() string {
	return errors.Newf("block: corrupted payload: expected %d bytes, decoded %d", e.Expected, e.Actual).Error()
}

// CompressedBlock holds one block's payload and dirty metadata, per spec
// §4.2: raw or compressed payload, shape, whole-block-dirty flag, and a
// per-axis-slice-dirty bit-vector.
type CompressedBlock[T Element] struct {
	shape       coord.Point
	compression Compression

	raw        []T    // non-nil iff !isCompressed
	compressed []byte // non-nil iff isCompressed

	isCompressed   bool
	compressedSize int // bytes; 0 means "not yet measured"

	wholeDirty bool
	dirty      *dirtyVector
}

// NewFromView constructs a CompressedBlock from a dense view whose shape
// equals the block shape, copying the data out. The new block is
// uncompressed and not dirty (§4.2's new_from contract); callers that want
// a dirty block (the common case for a lazily-created block touched by a
// partial write) must call SetDirty(true) themselves, mirroring how the
// root package's Array decides dirtiness based on whether the triggering
// write covered the whole block.
func NewFromView[T Element](v view.View[T], compression Compression) *CompressedBlock[T] {
	flat := view.ToFlat(v)
	return &CompressedBlock[T]{
		shape:       v.Shape.Clone(),
		compression: compression,
		raw:         flat,
		dirty:       newDirtyVector(v.Shape),
	}
}

// Shape returns the block's fixed shape.
func (b *CompressedBlock[T]) Shape() coord.Point { return b.shape }

// IsCompressed reports whether the block currently holds a compressed
// payload.
func (b *CompressedBlock[T]) IsCompressed() bool { return b.isCompressed }

// Size returns the number of elements in the block (the product of its
// shape).
func (b *CompressedBlock[T]) Size() int64 {
	size := int64(1)
	for _, s := range b.shape {
		size *= int64(s)
	}
	return size
}

// CurrentSizeBytes returns the number of bytes the block currently
// occupies in memory: the compressed length if compressed, else the raw
// element count times sizeof(T).
func (b *CompressedBlock[T]) CurrentSizeBytes() int64 {
	if b.isCompressed {
		return int64(len(b.compressed))
	}
	return b.Size() * int64(SizeOf[T]())
}

// CompressedSizeBytes returns the recorded compressed-size cookie: 0 while
// the block is not compressed, else the exact compressed byte length
// measured by the most recent compression.
func (b *CompressedBlock[T]) CompressedSizeBytes() int {
	if !b.isCompressed {
		return 0
	}
	return b.compressedSize
}

// Compress replaces the uncompressed payload with its compressed form and
// records the exact compressed byte length. No-op if already compressed
// or if the block's configured compression kind is NoCompression.
func (b *CompressedBlock[T]) Compress() {
	if b.isCompressed || b.compression == NoCompression {
		return
	}
	codec := CodecFor(b.compression)
	src := encodeElements(b.raw)
	buf := make([]byte, codec.MaxEncodedLen(len(src)))
	out := codec.Encode(buf, src)
	shrunk := make([]byte, len(out))
	copy(shrunk, out)

	b.compressed = shrunk
	b.compressedSize = len(shrunk)
	b.raw = nil
	b.isCompressed = true
}

// Uncompress restores the raw payload. No-op if not compressed. Returns
// ErrCorrupted if the codec's reported decompressed length disagrees with
// the block's declared size.
func (b *CompressedBlock[T]) Uncompress() error {
	if !b.isCompressed {
		return nil
	}
	raw, err := b.decompressToElements()
	if err != nil {
		return err
	}
	b.raw = raw
	b.compressed = nil
	b.isCompressed = false
	return nil
}

func (b *CompressedBlock[T]) decompressToElements() ([]T, error) {
	codec := CodecFor(b.compression)
	wantBytes := int(b.Size()) * SizeOf[T]()
	dst := make([]byte, wantBytes)
	out, err := codec.Decode(dst, b.compressed)
	if err != nil {
		return nil, errors.Wrap(err, "block: decoding compressed payload")
	}
	if len(out) != wantBytes {
		return nil, &ErrCorrupted{Expected: wantBytes, Actual: len(out)}
	}
	return decodeElements[T](out), nil
}

// ReadInto decompresses the block (without mutating the block's stored
// state) directly into out. out.Shape must equal the block shape.
func (b *CompressedBlock[T]) ReadInto(out view.View[T]) error {
	if !out.Shape.Equal(b.shape) {
		panic(errors.AssertionFailedf("block: ReadInto shape mismatch: out %v, block %v", out.Shape, b.shape))
	}
	if !b.isCompressed {
		out.CopyFrom(view.FromFlat(b.raw, b.shape))
		return nil
	}
	raw, err := b.decompressToElements()
	if err != nil {
		return err
	}
	out.CopyFrom(view.FromFlat(raw, b.shape))
	return nil
}

// ReadSub decompresses the block into the caller-supplied, block-shaped
// scratch view, then returns scratch's subregion `within` (sharing
// scratch's backing slice). The caller is expected to copy the result
// into its own destination immediately, before scratch is reused by
// another operation (§5's scratch-buffer contract).
func (b *CompressedBlock[T]) ReadSub(within coord.Region, scratch view.View[T]) (view.View[T], error) {
	if err := b.ReadInto(scratch); err != nil {
		return view.View[T]{}, err
	}
	return scratch.Sub(within), nil
}

// WriteSub overwrites the subregion `within` of the block with src.
// src.Shape must equal within.Shape. If the block is currently compressed,
// it is temporarily uncompressed, overwritten, and recompressed; the
// compressed-size cookie is naturally re-derived by that recompression.
// Dirty bits are updated per §4.2's write_sub contract.
func (b *CompressedBlock[T]) WriteSub(within coord.Region, src view.View[T]) error {
	if !src.Shape.Equal(within.Shape()) {
		panic(errors.AssertionFailedf("block: WriteSub shape mismatch: src %v, within %v", src.Shape, within.Shape()))
	}
	wasCompressed := b.isCompressed
	if wasCompressed {
		if err := b.Uncompress(); err != nil {
			return err
		}
	}

	dst := view.FromFlat(b.raw, b.shape).Sub(within)
	dst.CopyFrom(src)
	b.clearDirtyAfterWrite(within)

	if wasCompressed {
		b.Compress()
	}
	return nil
}

func (b *CompressedBlock[T]) clearDirtyAfterWrite(within coord.Region) {
	if isFullBlockRegion(within, b.shape) {
		b.wholeDirty = false
		b.dirty.setAll(false)
		return
	}
	for d := range b.shape {
		if isFullExceptAxis(within, b.shape, d) {
			b.dirty.setSliceRangeDirty(d, within.P[d], within.Q[d], false)
		}
	}
	if b.dirty.isClean() {
		b.wholeDirty = false
	}
}

func isFullBlockRegion(r coord.Region, shape coord.Point) bool {
	for i := range shape {
		if r.P[i] != 0 || r.Q[i] != shape[i] {
			return false
		}
	}
	return true
}

// isFullExceptAxis reports whether r spans the full block extent on every
// axis other than d (i.e. r is a contiguous stack of full slices on axis
// d).
func isFullExceptAxis(r coord.Region, shape coord.Point, d int) bool {
	for i := range shape {
		if i == d {
			continue
		}
		if r.P[i] != 0 || r.Q[i] != shape[i] {
			return false
		}
	}
	return true
}

// IsDirty is the whole-block dirty predicate.
func (b *CompressedBlock[T]) IsDirty() bool { return b.wholeDirty }

// SetDirty bulk-sets the whole-block flag and the entire slice vector.
func (b *CompressedBlock[T]) SetDirty(dirty bool) {
	b.wholeDirty = dirty
	b.dirty.setAll(dirty)
}

// IsDirtyAxisSlice reports whether the given slice of the given axis is
// marked dirty.
func (b *CompressedBlock[T]) IsDirtyAxisSlice(axis int, slice int32) bool {
	return b.dirty.isSliceDirty(axis, slice)
}

// SetDirtyAxisSlice marks a single slice of a single axis dirty or clean.
func (b *CompressedBlock[T]) SetDirtyAxisSlice(axis int, slice int32, dirty bool) {
	b.dirty.setSliceRangeDirty(axis, slice, slice+1, dirty)
	if !dirty && b.dirty.isClean() {
		b.wholeDirty = false
	}
}

// IsDirtyRegion reports true iff, for every axis d, some slice in
// [within.P[d], within.Q[d]) is marked dirty on axis d, or the block is
// wholly dirty.
func (b *CompressedBlock[T]) IsDirtyRegion(within coord.Region) bool {
	if b.wholeDirty {
		return true
	}
	for d := range b.shape {
		if !b.dirty.anyDirtyInRange(d, within.P[d], within.Q[d]) {
			return false
		}
	}
	return true
}

// SetDirtyRegion marks `within` dirty or clean. When dirty=true, every
// slice in the cross-section of `within` is marked dirty on its axis (and,
// if within spans the whole block, the whole-block flag is set too). When
// dirty=false, a slice on axis d is cleared only when within spans the
// full block extent on every other axis (a stack of full slices on axis
// d) — the same rule WriteSub applies.
func (b *CompressedBlock[T]) SetDirtyRegion(within coord.Region, dirty bool) {
	if dirty {
		for d := range b.shape {
			b.dirty.setSliceRangeDirty(d, within.P[d], within.Q[d], true)
		}
		if isFullBlockRegion(within, b.shape) {
			b.wholeDirty = true
		}
		return
	}
	b.clearDirtyAfterWrite(within)
}

// IsAllZero reports whether every element of the block, decompressed if
// necessary, is the zero value of T. It does not mutate the block's
// stored compression state.
func (b *CompressedBlock[T]) IsAllZero() (bool, error) {
	var raw []T
	if b.isCompressed {
		r, err := b.decompressToElements()
		if err != nil {
			return false, err
		}
		raw = r
	} else {
		raw = b.raw
	}
	var zero T
	for _, v := range raw {
		if v != zero {
			return false, nil
		}
	}
	return true, nil
}

// MinMax returns the componentwise min/max of the block's current
// elements, decompressing if necessary without mutating stored state.
func (b *CompressedBlock[T]) MinMax() (min, max T, err error) {
	var raw []T
	if b.isCompressed {
		r, decErr := b.decompressToElements()
		if decErr != nil {
			return min, max, decErr
		}
		raw = r
	} else {
		raw = b.raw
	}
	if len(raw) == 0 {
		return min, max, nil
	}
	min, max = raw[0], raw[0]
	for _, v := range raw[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, nil
}

// Nonzero returns, in ascending scan order, every within-block position
// and value where the block's current contents are non-zero.
func (b *CompressedBlock[T]) Nonzero() ([]coord.Point, []T, error) {
	var raw []T
	if b.isCompressed {
		r, err := b.decompressToElements()
		if err != nil {
			return nil, nil, err
		}
		raw = r
	} else {
		raw = b.raw
	}
	var zero T
	var positions []coord.Point
	var values []T
	v := view.FromFlat(raw, b.shape)
	v.ForEach(func(p coord.Point, val T) {
		if val != zero {
			positions = append(positions, p.Clone())
			values = append(values, val)
		}
	})
	return positions, values, nil
}

// Relabel replaces every element v with table[v mod len(table)], matching
// Array.ApplyRelabeling's per-block step.
func (b *CompressedBlock[T]) Relabel(table []T) error {
	if b.isCompressed {
		if err := b.Uncompress(); err != nil {
			return err
		}
		defer b.Compress()
	}
	n := len(table)
	if n == 0 {
		panic(errors.AssertionFailedf("block: relabel table must be non-empty"))
	}
	for i, v := range b.raw {
		idx := int64(v) % int64(n)
		if idx < 0 {
			idx += int64(n)
		}
		b.raw[i] = table[idx]
	}
	b.wholeDirty = true
	b.dirty.setAll(true)
	return nil
}

func encodeElements[T Element](raw []T) []byte {
	var z T
	switch any(z).(type) {
	case uint8:
		out := make([]byte, len(raw))
		for i, v := range raw {
			out[i] = byte(any(v).(uint8))
		}
		return out
	case uint32:
		out := make([]byte, len(raw)*4)
		for i, v := range raw {
			binary.LittleEndian.PutUint32(out[i*4:], any(v).(uint32))
		}
		return out
	case float32:
		out := make([]byte, len(raw)*4)
		for i, v := range raw {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(any(v).(float32)))
		}
		return out
	default:
		panic(errors.AssertionFailedf("block: unsupported element type"))
	}
}

func decodeElements[T Element](data []byte) []T {
	var z T
	switch any(z).(type) {
	case uint8:
		out := make([]T, len(data))
		for i, b := range data {
			out[i] = any(b).(T)
		}
		return out
	case uint32:
		n := len(data) / 4
		out := make([]T, n)
		for i := 0; i < n; i++ {
			out[i] = any(binary.LittleEndian.Uint32(data[i*4:])).(T)
		}
		return out
	case float32:
		n := len(data) / 4
		out := make([]T, n)
		for i := 0; i < n; i++ {
			out[i] = any(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))).(T)
		}
		return out
	default:
		panic(errors.AssertionFailedf("block: unsupported element type"))
	}
}
