package persist

import (
	"encoding/binary"
	"math"

	"github.com/blockgrid/blockarray/internal/block"
)

// magic identifies a blockarray record, the way levelDBMagic/rocksDBMagic/
// pebbleDBMagic close out an sstable footer (sstable/table.go). Chosen
// arbitrarily but fixed: any change requires bumping formatVersion.
var magic = [8]byte{'b', 'l', 'k', 'g', 'r', 'i', 'd', '1'}

// formatVersion names the current layout version. It is not written into
// the record (neither the header nor the footer carries it), so Read does
// not check it.
const formatVersion uint32 = 1

// elemKind names the element type a record holds, analogous to how the
// teacher's TableFormat records which on-disk dialect a table uses.
type elemKind byte

const (
	elemUint8 elemKind = iota
	elemUint32
	elemFloat32
)

func elemKindOf[T block.Element]() elemKind {
	var z T
	switch any(z).(type) {
	case uint8:
		return elemUint8
	case uint32:
		return elemUint32
	case float32:
		return elemFloat32
	default:
		panic("persist: unsupported element type")
	}
}

// flags packs the Array's boolean option set into a single byte, mirroring
// §6.2's deb/ec/mmt/mcl attributes.
type flags byte

const (
	flagDeleteEmpty flags = 1 << iota
	flagCompressionEnabled
	flagMinMaxTracking
	flagManageCoordinateLists
)

func (f flags) has(bit flags) bool { return f&bit != 0 }

// handle is an (offset, length) pair into the record, matching the
// teacher's block.Handle used throughout sstable/table.go's footer.
type handle struct {
	Offset uint64
	Length uint64
}

// encodeScalar encodes a single element value to little-endian bytes,
// mirroring the block package's own encodeElements but for one scalar
// (used by the minMax and nonzero-value sidecars, §6.2).
func encodeScalar[T block.Element](v T) []byte {
	switch x := any(v).(type) {
	case uint8:
		return []byte{x}
	case uint32:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, x)
		return out
	case float32:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, math.Float32bits(x))
		return out
	default:
		panic("persist: unsupported element type")
	}
}

func scalarSize[T block.Element]() int { return block.SizeOf[T]() }

func decodeScalar[T block.Element](data []byte) T {
	var z T
	switch any(z).(type) {
	case uint8:
		return any(data[0]).(T)
	case uint32:
		return any(binary.LittleEndian.Uint32(data)).(T)
	case float32:
		return any(math.Float32frombits(binary.LittleEndian.Uint32(data))).(T)
	default:
		panic("persist: unsupported element type")
	}
}
