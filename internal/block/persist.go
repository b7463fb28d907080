package block

import (
	"github.com/blockgrid/blockarray/internal/coord"
)

// CompressionKind returns the codec this block uses once compressed.
func (b *CompressedBlock[T]) CompressionKind() Compression { return b.compression }

// MarshalPayload returns the block's current on-wire bytes: the
// compressed payload if compressed, else the raw elements encoded the
// same way Compress would encode them. This is exactly
// CurrentSizeBytes() worth of data, matching the persisted
// compressed-block record's payload dataset (§6.3).
func (b *CompressedBlock[T]) MarshalPayload() []byte {
	if b.isCompressed {
		out := make([]byte, len(b.compressed))
		copy(out, b.compressed)
		return out
	}
	return encodeElements(b.raw)
}

// MarshalDirtySlices returns the per-axis-slice-dirty bit-vector
// flattened to one byte per slice (1 = dirty, 0 = clean), in the same
// axis-major order §6.3's `ds` attribute specifies. It returns nil if
// the block is entirely clean, matching `ds`'s "absent means all-clean"
// convention.
func (b *CompressedBlock[T]) MarshalDirtySlices() []byte {
	if b.dirty.isClean() {
		return nil
	}
	total := 0
	for _, s := range b.shape {
		total += int(s)
	}
	out := make([]byte, total)
	idx := 0
	for axis, s := range b.shape {
		for slice := int32(0); slice < s; slice++ {
			if b.dirty.isSliceDirty(axis, slice) {
				out[idx] = 1
			}
			idx++
		}
	}
	return out
}

// Record is the fully decoded form of a persisted compressed-block
// record (§6.3), ready to be re-hydrated into a CompressedBlock or
// written out by a persist.Writer.
type Record struct {
	Shape          coord.Point
	Compression    Compression
	IsCompressed   bool
	CompressedSize int
	WholeDirty     bool
	DirtySlices    []byte // nil means all-clean
	Payload        []byte
	Empty          bool // true iff the block was never written (placeholder record)
}

// ToRecord captures b's current state as a Record, suitable for
// persist.Writer to serialize.
func (b *CompressedBlock[T]) ToRecord() Record {
	return Record{
		Shape:          b.shape.Clone(),
		Compression:    b.compression,
		IsCompressed:   b.isCompressed,
		CompressedSize: b.compressedSize,
		WholeDirty:     b.wholeDirty,
		DirtySlices:    b.MarshalDirtySlices(),
		Payload:        b.MarshalPayload(),
	}
}

// FromRecord reconstructs a CompressedBlock from a previously persisted
// Record. It returns ErrCorrupted if an uncompressed record's payload
// length disagrees with what its Shape implies; a compressed payload is
// not checked here, only when it is later decompressed.
func FromRecord[T Element](rec Record) (*CompressedBlock[T], error) {
	b := &CompressedBlock[T]{
		shape:          rec.Shape.Clone(),
		compression:    rec.Compression,
		wholeDirty:     rec.WholeDirty,
		dirty:          newDirtyVector(rec.Shape),
		isCompressed:   rec.IsCompressed,
		compressedSize: rec.CompressedSize,
	}
	if rec.DirtySlices != nil {
		idx := 0
		for axis, s := range rec.Shape {
			for slice := int32(0); slice < s; slice++ {
				if rec.DirtySlices[idx] != 0 {
					b.dirty.setSliceRangeDirty(axis, slice, slice+1, true)
				}
				idx++
			}
		}
	}
	if rec.IsCompressed {
		b.compressed = append([]byte(nil), rec.Payload...)
		return b, nil
	}
	want := int(b.Size()) * SizeOf[T]()
	if len(rec.Payload) != want {
		return nil, &ErrCorrupted{Expected: want, Actual: len(rec.Payload)}
	}
	b.raw = decodeElements[T](rec.Payload)
	return b, nil
}
