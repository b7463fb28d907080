package persist

import (
	"encoding/binary"
	"io"

	"github.com/blockgrid/blockarray"
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
)

// Read reconstructs an Array of element type T from src (of the given
// total size), matching the record Write produced. blob supplies the
// companion overflow file for any block payloads that were routed there
// by a non-zero WithBlobThreshold; it may be nil if the record was
// written with the default threshold of 0.
func Read[T block.Element](src io.ReaderAt, size int64, blob io.ReaderAt) (*blockarray.Array[T], error) {
	if size < footerLen {
		return nil, &PersistenceError{Reason: "record too small to contain a footer"}
	}
	footBuf := make([]byte, footerLen)
	if _, err := src.ReadAt(footBuf, size-footerLen); err != nil {
		return nil, &PersistenceError{Reason: "could not read footer: " + err.Error()}
	}
	f, err := parseFooter(footBuf)
	if err != nil {
		return nil, err
	}

	headerBuf, err := readSection(src, f.header)
	if err != nil {
		return nil, err
	}
	if len(headerBuf) < 2 {
		return nil, &PersistenceError{Reason: "truncated header"}
	}
	if elemKind(headerBuf[0]) != elemKindOf[T]() {
		return nil, &PersistenceError{Reason: "record element type does not match requested type"}
	}
	n := int(headerBuf[1])
	off := 2
	shape := make(coord.Point, n)
	for i := 0; i < n; i++ {
		shape[i] = int32(binary.LittleEndian.Uint32(headerBuf[off:]))
		off += 4
	}
	fl := flags(headerBuf[off])
	off++
	compression := block.Compression(headerBuf[off])
	off++
	blockCount := binary.LittleEndian.Uint32(headerBuf[off:])

	var opts []blockarray.Option
	opts = append(opts, blockarray.WithCompression(compression))
	if !fl.has(flagCompressionEnabled) {
		opts = append(opts, blockarray.WithCompressionDisabled())
	}
	if fl.has(flagMinMaxTracking) {
		opts = append(opts, blockarray.WithMinMaxTracking(true))
	}
	if fl.has(flagManageCoordinateLists) {
		opts = append(opts, blockarray.WithCoordinateLists(true))
	}
	if fl.has(flagDeleteEmpty) {
		opts = append(opts, blockarray.WithDeleteEmpty(true))
	}
	a := blockarray.New[T](shape, opts...)

	blocksIndexBuf, err := readSection(src, f.blocksIndex)
	if err != nil {
		return nil, err
	}
	indices := make([]coord.BlockIndex, blockCount)
	pos := 0
	for i := range indices {
		c := make(coord.Point, n)
		for d := 0; d < n; d++ {
			c[d] = int32(binary.LittleEndian.Uint32(blocksIndexBuf[pos:]))
			pos += 4
		}
		indices[i] = c
	}

	recsBuf, err := readSection(src, f.blockRecs)
	if err != nil {
		return nil, err
	}
	pos = 0
	for i := uint32(0); i < blockCount; i++ {
		rec, consumed, err := decodeRecord[T](recsBuf[pos:], n, blob)
		if err != nil {
			return nil, err
		}
		pos += consumed
		blk, err := block.FromRecord[T](rec)
		if err != nil {
			return nil, &PersistenceError{Reason: "corrupted block record: " + err.Error()}
		}
		if err := a.RestoreBlock(indices[i], blk); err != nil {
			return nil, &PersistenceError{Reason: "restoring block: " + err.Error()}
		}
	}

	return a, nil
}

func readSection(src io.ReaderAt, h handle) ([]byte, error) {
	if h.Length == 0 {
		return nil, nil
	}
	buf := make([]byte, h.Length)
	if _, err := src.ReadAt(buf, int64(h.Offset)); err != nil {
		return nil, &PersistenceError{Reason: "could not read section: " + err.Error()}
	}
	return buf, nil
}

func decodeRecord[T block.Element](buf []byte, n int, blob io.ReaderAt) (block.Record, int, error) {
	var rec block.Record
	pos := 0
	rec.Shape = make(coord.Point, n)
	for d := 0; d < n; d++ {
		rec.Shape[d] = int32(binary.LittleEndian.Uint32(buf[pos:]))
		pos += 4
	}
	rec.Compression = block.Compression(buf[pos])
	pos++
	rec.IsCompressed = buf[pos] != 0
	pos++
	rec.WholeDirty = buf[pos] != 0
	pos++
	rec.CompressedSize = int(binary.LittleEndian.Uint64(buf[pos:]))
	pos += 8

	dsLen := int(binary.LittleEndian.Uint32(buf[pos:]))
	pos += 4
	if dsLen > 0 {
		rec.DirtySlices = append([]byte(nil), buf[pos:pos+dsLen]...)
		pos += dsLen
	}

	inBlob := buf[pos] != 0
	pos++
	if inBlob {
		if blob == nil {
			return rec, 0, &PersistenceError{Reason: "record references a blob file but none was supplied"}
		}
		blobOffset := int64(binary.LittleEndian.Uint64(buf[pos:]))
		pos += 8
		blobLen := int64(binary.LittleEndian.Uint64(buf[pos:]))
		pos += 8
		payload := make([]byte, blobLen)
		if _, err := blob.ReadAt(payload, blobOffset); err != nil {
			return rec, 0, &PersistenceError{Reason: "could not read blob payload: " + err.Error()}
		}
		rec.Payload = payload
	} else {
		payloadLen := int(binary.LittleEndian.Uint32(buf[pos:]))
		pos += 4
		rec.Payload = append([]byte(nil), buf[pos:pos+payloadLen]...)
		pos += payloadLen
	}
	return rec, pos, nil
}
