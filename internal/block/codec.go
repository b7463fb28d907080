package block

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compression names a byte-level LZ-class codec used to store a block's
// payload on the wire. SnappyCompression is the spec's default
// "snappy-equivalent" codec; ZstdCompression and S2Compression are
// additional pluggable codecs, mirroring the teacher's sstable.Compression
// enum (NoCompression/SnappyCompression/ZstdCompression).
type Compression int8

const (
	// NoCompression disables compression; compress() becomes a no-op.
	NoCompression Compression = iota
	// SnappyCompression is the default codec.
	SnappyCompression
	// ZstdCompression trades CPU for a higher compression ratio.
	ZstdCompression
	// S2Compression is snappy's faster, SIMD-accelerated superset.
	S2Compression
)

func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case SnappyCompression:
		return "snappy"
	case ZstdCompression:
		return "zstd"
	case S2Compression:
		return "s2"
	default:
		return "unknown"
	}
}

// Codec compresses and decompresses byte payloads. MaxEncodedLen gives the
// codec-provided worst-case upper bound for a source of the given length,
// used to size the first-compression scratch buffer (§5).
type Codec interface {
	MaxEncodedLen(srcLen int) int
	Encode(dst, src []byte) []byte
	Decode(dst, src []byte) ([]byte, error)
}

// CodecFor returns the Codec implementing c. It panics for NoCompression,
// which callers must special-case (there is nothing to encode/decode).
func CodecFor(c Compression) Codec {
	switch c {
	case SnappyCompression:
		return snappyCodec{}
	case ZstdCompression:
		return zstdCodec{}
	case S2Compression:
		return s2Codec{}
	default:
		panic(errors.AssertionFailedf("block: no codec for compression kind %v", c))
	}
}

type snappyCodec struct{}

func (snappyCodec) MaxEncodedLen(n int) int { return snappy.MaxEncodedLen(n) }
func (snappyCodec) Encode(dst, src []byte) []byte {
	return snappy.Encode(dst, src)
}
func (snappyCodec) Decode(dst, src []byte) ([]byte, error) {
	out, err := snappy.Decode(dst, src)
	if err != nil {
		return nil, errors.Wrap(err, "block: snappy decode")
	}
	return out, nil
}

type s2Codec struct{}

func (s2Codec) MaxEncodedLen(n int) int { return s2.MaxEncodedLen(n) }
func (s2Codec) Encode(dst, src []byte) []byte {
	return s2.Encode(dst, src)
}
func (s2Codec) Decode(dst, src []byte) ([]byte, error) {
	out, err := s2.Decode(dst, src)
	if err != nil {
		return nil, errors.Wrap(err, "block: s2 decode")
	}
	return out, nil
}

// zstdCodec uses a package-level encoder/decoder, constructed once in
// init, both of which are safe for concurrent use per klauspost/compress/zstd's documentation;
// the core itself never calls them concurrently (§5), but sharing them
// avoids re-deriving zstd's tables on every block.
type zstdCodec struct{}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic(errors.Wrap(err, "block: constructing zstd encoder"))
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(errors.Wrap(err, "block: constructing zstd decoder"))
	}
}

func (zstdCodec) MaxEncodedLen(n int) int {
	// zstd does not expose a tight worst-case bound; follow the library's
	// own recommendation (source size plus a small fixed overhead).
	return n + n/8 + 64
}

func (zstdCodec) Encode(dst, src []byte) []byte {
	return zstdEncoder.EncodeAll(src, dst[:0])
}

func (zstdCodec) Decode(dst, src []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(src, dst[:0])
	if err != nil {
		return nil, errors.Wrap(err, "block: zstd decode")
	}
	return out, nil
}
