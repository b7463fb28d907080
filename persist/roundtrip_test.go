package persist

import (
	"bytes"
	"testing"

	"github.com/blockgrid/blockarray"
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
	"github.com/blockgrid/blockarray/internal/view"
	"github.com/stretchr/testify/require"
)

func buildSampleArray(t *testing.T) *blockarray.Array[uint32] {
	t.Helper()
	a := blockarray.New[uint32](coord.NewPoint(4, 4),
		blockarray.WithCompression(block.SnappyCompression),
		blockarray.WithMinMaxTracking(true),
		blockarray.WithCoordinateLists(true),
	)
	require.NoError(t, a.WritePoint(coord.NewPoint(0, 0), 7))
	require.NoError(t, a.WritePoint(coord.NewPoint(5, 5), 9))
	require.NoError(t, a.WritePoint(coord.NewPoint(9, 1), 3))
	return a
}

// TestRoundTripPreservesContentAndOptions is P7: serialize/deserialize
// must reconstruct an Array operationally indistinguishable from the
// original for every public read.
func TestRoundTripPreservesContentAndOptions(t *testing.T) {
	a := buildSampleArray(t)

	var buf bytes.Buffer
	w := NewWriter[uint32]()
	require.NoError(t, w.Write(&buf, nil, a))

	got, err := Read[uint32](bytes.NewReader(buf.Bytes()), int64(buf.Len()), nil)
	require.NoError(t, err)

	require.Equal(t, a.BlockShape(), got.BlockShape())
	require.Equal(t, a.CompressionKind(), got.CompressionKind())
	require.Equal(t, a.CompressionEnabled(), got.CompressionEnabled())
	require.Equal(t, a.MinMaxTrackingEnabled(), got.MinMaxTrackingEnabled())
	require.Equal(t, a.CoordinateListsEnabled(), got.CoordinateListsEnabled())
	require.Equal(t, a.NumBlocks(), got.NumBlocks())

	out := view.New[uint32](coord.NewPoint(12, 12))
	require.NoError(t, got.ReadRegion(coord.NewPoint(0, 0), coord.NewPoint(12, 12), out))

	want := view.New[uint32](coord.NewPoint(12, 12))
	require.NoError(t, a.ReadRegion(coord.NewPoint(0, 0), coord.NewPoint(12, 12), want))

	out.ForEach(func(p coord.Point, val uint32) {
		require.Equal(t, want.At(p), val, "mismatch at %v", p)
	})

	wantMin, wantMax := a.MinMax()
	gotMin, gotMax := got.MinMax()
	require.Equal(t, wantMin, gotMin)
	require.Equal(t, wantMax, gotMax)
}

// TestRoundTripWithBlobThreshold exercises the overflow-blob strategy: a
// low threshold routes every block's payload out of the primary record.
func TestRoundTripWithBlobThreshold(t *testing.T) {
	a := buildSampleArray(t)

	var primary, blob bytes.Buffer
	w := NewWriter[uint32](WithBlobThreshold(1))
	require.NoError(t, w.Write(&primary, &blob, a))

	got, err := Read[uint32](bytes.NewReader(primary.Bytes()), int64(primary.Len()), bytes.NewReader(blob.Bytes()))
	require.NoError(t, err)

	v, err := got.ReadPoint(coord.NewPoint(5, 5))
	require.NoError(t, err)
	require.Equal(t, uint32(9), v)
}

func TestRoundTripEmptyArray(t *testing.T) {
	a := blockarray.New[uint32](coord.NewPoint(4, 4))
	var buf bytes.Buffer
	w := NewWriter[uint32]()
	require.NoError(t, w.Write(&buf, nil, a))

	got, err := Read[uint32](bytes.NewReader(buf.Bytes()), int64(buf.Len()), nil)
	require.NoError(t, err)
	require.Equal(t, 0, got.NumBlocks())
}
