package persist

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// footerLen is fixed (no variable-length encoding), unlike the teacher's
// LevelDB/RocksDB footers which mix varints with padding to match a legacy
// layout; this format has no legacy layout to match.
const footerLen = 8*10 + 8 + len(magic) // five handles + checksum + magic

// footer closes a record the way sstable/table.go's footer closes a
// table: a fixed-size trailer, read eagerly from the end of the file,
// holding the offsets of every major section plus a whole-footer
// checksum and magic number.
type footer struct {
	header      handle
	blocksIndex handle
	blockRecs   handle
	minMax      handle
	nonzero     handle
	checksum    uint64
}

func (f footer) encode() []byte {
	buf := make([]byte, footerLen)
	n := 0
	putHandle := func(h handle) {
		binary.LittleEndian.PutUint64(buf[n:], h.Offset)
		binary.LittleEndian.PutUint64(buf[n+8:], h.Length)
		n += 16
	}
	putHandle(f.header)
	putHandle(f.blocksIndex)
	putHandle(f.blockRecs)
	putHandle(f.minMax)
	putHandle(f.nonzero)

	checksum := xxhash.Sum64(buf[:n])
	binary.LittleEndian.PutUint64(buf[n:], checksum)
	n += 8
	copy(buf[n:], magic[:])
	return buf
}

func parseFooter(buf []byte) (footer, error) {
	if len(buf) != footerLen {
		return footer{}, &PersistenceError{Reason: "footer has wrong length"}
	}
	for i, b := range magic {
		if buf[footerLen-len(magic)+i] != b {
			return footer{}, &PersistenceError{Reason: "bad magic number"}
		}
	}
	checksumOff := footerLen - len(magic) - 8
	wantChecksum := xxhash.Sum64(buf[:checksumOff])
	gotChecksum := binary.LittleEndian.Uint64(buf[checksumOff:])
	if wantChecksum != gotChecksum {
		return footer{}, &PersistenceError{Reason: "footer checksum mismatch"}
	}

	var f footer
	n := 0
	getHandle := func() handle {
		h := handle{
			Offset: binary.LittleEndian.Uint64(buf[n:]),
			Length: binary.LittleEndian.Uint64(buf[n+8:]),
		}
		n += 16
		return h
	}
	f.header = getHandle()
	f.blocksIndex = getHandle()
	f.blockRecs = getHandle()
	f.minMax = getHandle()
	f.nonzero = getHandle()
	f.checksum = gotChecksum
	return f, nil
}
