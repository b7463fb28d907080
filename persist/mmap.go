package persist

import (
	"os"

	"github.com/blockgrid/blockarray"
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/edsrzf/mmap-go"
)

// MappedFile memory-maps a record file for reading, avoiding a full copy
// into process memory the way Read's ReadAt-based approach would for a
// large archive. It implements io.ReaderAt directly over the mapping.
type MappedFile struct {
	f   *os.File
	mm  mmap.MMap
	own bool
}

// OpenMapped maps path read-only and returns a MappedFile. Close unmaps
// and closes the underlying file.
func OpenMapped(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &MappedFile{f: f, mm: mm, own: true}, nil
}

// ReadAt implements io.ReaderAt over the mapped bytes.
func (m *MappedFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.mm)) {
		return 0, &PersistenceError{Reason: "read offset out of range"}
	}
	n := copy(p, m.mm[off:])
	if n < len(p) {
		return n, &PersistenceError{Reason: "short read past end of mapped file"}
	}
	return n, nil
}

// Size returns the mapped file's length.
func (m *MappedFile) Size() int64 { return int64(len(m.mm)) }

// Close unmaps and closes the underlying file.
func (m *MappedFile) Close() error {
	if !m.own {
		return nil
	}
	if err := m.mm.Unmap(); err != nil {
		m.f.Close()
		return err
	}
	return m.f.Close()
}

// ReadMapped opens path, memory-maps it, and reconstructs an Array from
// it in one step, closing the mapping before returning. blobPath, if
// non-empty, is likewise mapped to resolve any blob-routed payloads.
func ReadMapped[T block.Element](path string, blobPath string) (*blockarray.Array[T], error) {
	mf, err := OpenMapped(path)
	if err != nil {
		return nil, err
	}
	defer mf.Close()

	var blobReaderAt *MappedFile
	if blobPath != "" {
		blobReaderAt, err = OpenMapped(blobPath)
		if err != nil {
			return nil, err
		}
		defer blobReaderAt.Close()
	}

	var blob *MappedFile
	if blobReaderAt != nil {
		blob = blobReaderAt
	}
	if blob != nil {
		return Read[T](mf, mf.Size(), blob)
	}
	return Read[T](mf, mf.Size(), nil)
}
