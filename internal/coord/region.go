package coord

import "github.com/cockroachdb/errors"

// Region is a half-open N-D box [P, Q), with P <= Q componentwise. An axis
// with P[i] == Q[i] makes the region empty.
type Region struct {
	P, Q Point
}

// NewRegion constructs a Region, asserting the precondition P <= Q
// componentwise.
func NewRegion(p, q Point) Region {
	p.checkSameDims(q)
	for i := range p {
		if p[i] > q[i] {
			panic(errors.AssertionFailedf("coord: region precondition violated: p[%d]=%d > q[%d]=%d", i, p[i], i, q[i]))
		}
	}
	return Region{P: p, Q: q}
}

// Dims reports the region's dimensionality.
func (r Region) Dims() int { return len(r.P) }

// Shape returns Q-P.
func (r Region) Shape() Point { return r.Q.Sub(r.P) }

// Empty reports whether the region has zero volume on any axis.
func (r Region) Empty() bool {
	for i := range r.P {
		if r.P[i] == r.Q[i] {
			return true
		}
	}
	return false
}

// Size returns the product of the region's shape components.
func (r Region) Size() int64 {
	size := int64(1)
	for i := range r.P {
		size *= int64(r.Q[i] - r.P[i])
	}
	return size
}

// Contains reports whether other is entirely inside r.
func (r Region) Contains(other Region) bool {
	r.checkSameDims(other)
	for i := range r.P {
		if other.P[i] < r.P[i] || other.Q[i] > r.Q[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether r and other share any volume.
func (r Region) Intersects(other Region) bool {
	r.checkSameDims(other)
	for i := range r.P {
		if r.P[i] >= other.Q[i] || other.P[i] >= r.Q[i] {
			return false
		}
	}
	return true
}

func (r Region) checkSameDims(other Region) {
	if len(r.P) != len(other.P) {
		panic(errors.AssertionFailedf("coord: region dimension mismatch: %d vs %d", len(r.P), len(other.P)))
	}
}
