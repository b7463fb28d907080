package persist

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/blockgrid/blockarray"
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
)

// writerOptions mirrors sstable's functional-option Options pattern.
type writerOptions struct {
	blobThreshold int
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithBlobThreshold routes any per-block payload at or above n bytes to
// the companion blob writer instead of inlining it in the primary
// record, adapted from the teacher's writeNewBlobFiles/
// preserveBlobReferences value-separation strategy
// (value_separation.go). A threshold of 0 (the default) always inlines,
// preserving the plain round-trip semantics of P7.
func WithBlobThreshold(n int) WriterOption {
	return func(o *writerOptions) { o.blobThreshold = n }
}

// Writer serializes an Array of element type T to the persisted record
// format (§6.2/§6.3).
type Writer[T block.Element] struct {
	opts writerOptions
}

// NewWriter constructs a Writer.
func NewWriter[T block.Element](opts ...WriterOption) *Writer[T] {
	w := &Writer[T]{}
	for _, opt := range opts {
		opt(&w.opts)
	}
	return w
}

// countingWriter tracks the total number of bytes written through it, so
// section offsets can be recorded for the footer's handle table.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Write serializes a to dst. If the Writer was configured with a
// non-zero blob threshold, qualifying block payloads are appended to
// blob instead of inlined; blob may be nil iff the threshold is 0 (no
// payload will ever qualify).
func (w *Writer[T]) Write(dst io.Writer, blob io.Writer, a *blockarray.Array[T]) error {
	cw := &countingWriter{w: dst}
	var f footer
	var blobOffset int64

	shape := a.BlockShape()
	n := len(shape)

	headerStart := cw.n
	var header bytes.Buffer
	header.WriteByte(byte(elemKindOf[T]()))
	header.WriteByte(byte(n))
	for _, s := range shape {
		var b4 [4]byte
		binary.LittleEndian.PutUint32(b4[:], uint32(s))
		header.Write(b4[:])
	}
	var fl flags
	if a.DeleteEmptyEnabled() {
		fl |= flagDeleteEmpty
	}
	if a.CompressionEnabled() {
		fl |= flagCompressionEnabled
	}
	if a.MinMaxTrackingEnabled() {
		fl |= flagMinMaxTracking
	}
	if a.CoordinateListsEnabled() {
		fl |= flagManageCoordinateLists
	}
	header.WriteByte(byte(fl))
	header.WriteByte(byte(a.CompressionKind()))
	var countBuf [4]byte
	blockCount := uint32(a.NumBlocks())
	binary.LittleEndian.PutUint32(countBuf[:], blockCount)
	header.Write(countBuf[:])
	if _, err := cw.Write(header.Bytes()); err != nil {
		return err
	}
	f.header = handle{Offset: uint64(headerStart), Length: uint64(cw.n - headerStart)}

	blocksIndexStart := cw.n
	var blocksIndex bytes.Buffer
	a.ForEachBlock(func(c coord.BlockIndex, _ *block.CompressedBlock[T]) {
		for _, v := range c {
			var b4 [4]byte
			binary.LittleEndian.PutUint32(b4[:], uint32(v))
			blocksIndex.Write(b4[:])
		}
	})
	if _, err := cw.Write(blocksIndex.Bytes()); err != nil {
		return err
	}
	f.blocksIndex = handle{Offset: uint64(blocksIndexStart), Length: uint64(cw.n - blocksIndexStart)}

	blockRecsStart := cw.n
	var writeErr error
	a.ForEachBlock(func(_ coord.BlockIndex, blk *block.CompressedBlock[T]) {
		if writeErr != nil {
			return
		}
		rec := blk.ToRecord()
		var buf bytes.Buffer
		for _, s := range rec.Shape {
			var b4 [4]byte
			binary.LittleEndian.PutUint32(b4[:], uint32(s))
			buf.Write(b4[:])
		}
		buf.WriteByte(byte(rec.Compression))
		buf.WriteByte(boolByte(rec.IsCompressed))
		buf.WriteByte(boolByte(rec.WholeDirty))
		var b8 [8]byte
		binary.LittleEndian.PutUint64(b8[:], uint64(rec.CompressedSize))
		buf.Write(b8[:])

		var b4 [4]byte
		binary.LittleEndian.PutUint32(b4[:], uint32(len(rec.DirtySlices)))
		buf.Write(b4[:])
		buf.Write(rec.DirtySlices)

		inBlob := w.opts.blobThreshold > 0 && len(rec.Payload) >= w.opts.blobThreshold
		buf.WriteByte(boolByte(inBlob))
		if inBlob {
			binary.LittleEndian.PutUint64(b8[:], uint64(blobOffset))
			buf.Write(b8[:])
			binary.LittleEndian.PutUint64(b8[:], uint64(len(rec.Payload)))
			buf.Write(b8[:])
			nw, err := blob.Write(rec.Payload)
			if err != nil {
				writeErr = err
				return
			}
			blobOffset += int64(nw)
		} else {
			binary.LittleEndian.PutUint32(b4[:], uint32(len(rec.Payload)))
			buf.Write(b4[:])
			buf.Write(rec.Payload)
		}
		if _, err := cw.Write(buf.Bytes()); err != nil {
			writeErr = err
		}
	})
	if writeErr != nil {
		return writeErr
	}
	f.blockRecs = handle{Offset: uint64(blockRecsStart), Length: uint64(cw.n - blockRecsStart)}

	if a.MinMaxTrackingEnabled() && blockCount > 0 {
		minMaxStart := cw.n
		var buf bytes.Buffer
		a.ForEachBlock(func(c coord.BlockIndex, _ *block.CompressedBlock[T]) {
			min, max, _ := a.MinMaxForBlock(c)
			buf.Write(encodeScalar(min))
			buf.Write(encodeScalar(max))
		})
		if _, err := cw.Write(buf.Bytes()); err != nil {
			return err
		}
		f.minMax = handle{Offset: uint64(minMaxStart), Length: uint64(cw.n - minMaxStart)}
	}

	if a.CoordinateListsEnabled() {
		nonzeroStart := cw.n
		var buf bytes.Buffer
		a.ForEachBlock(func(c coord.BlockIndex, _ *block.CompressedBlock[T]) {
			positions, values, _ := a.NonzeroForBlock(c)
			var b4 [4]byte
			binary.LittleEndian.PutUint32(b4[:], uint32(len(positions)))
			buf.Write(b4[:])
			for _, p := range positions {
				for _, v := range p {
					var pb [4]byte
					binary.LittleEndian.PutUint32(pb[:], uint32(v))
					buf.Write(pb[:])
				}
			}
			for _, v := range values {
				buf.Write(encodeScalar(v))
			}
		})
		if _, err := cw.Write(buf.Bytes()); err != nil {
			return err
		}
		f.nonzero = handle{Offset: uint64(nonzeroStart), Length: uint64(cw.n - nonzeroStart)}
	}

	_, err := cw.Write(f.encode())
	return err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
