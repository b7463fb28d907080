package coord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyRoundTrip(t *testing.T) {
	c := NewPoint(3, -4, 100)
	k := c.ToKey()
	require.Equal(t, c, FromKey(k))
}

func TestKeyDistinguishesDistinctIndices(t *testing.T) {
	require.NotEqual(t, NewPoint(1, 2, 3).ToKey(), NewPoint(1, 2, 4).ToKey())
}

func TestRegionEmpty(t *testing.T) {
	require.True(t, NewRegion(NewPoint(0, 0), NewPoint(5, 0)).Empty())
	require.False(t, NewRegion(NewPoint(0, 0), NewPoint(5, 1)).Empty())
}

func TestRegionContainsIntersects(t *testing.T) {
	outer := NewRegion(NewPoint(0, 0), NewPoint(10, 10))
	inner := NewRegion(NewPoint(2, 2), NewPoint(5, 5))
	disjoint := NewRegion(NewPoint(20, 20), NewPoint(25, 25))

	require.True(t, outer.Contains(inner))
	require.False(t, inner.Contains(outer))
	require.True(t, outer.Intersects(inner))
	require.False(t, outer.Intersects(disjoint))
}

func TestPointArithmetic(t *testing.T) {
	a := NewPoint(1, 2, 3)
	b := NewPoint(4, 1, 10)
	require.Equal(t, NewPoint(5, 3, 13), a.Add(b))
	require.Equal(t, NewPoint(-3, 1, -7), a.Sub(b))
	require.Equal(t, NewPoint(1, 1, 3), a.Min(b))
	require.Equal(t, NewPoint(4, 2, 10), a.Max(b))
}
