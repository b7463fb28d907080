// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package coord implements the pure coordinate algebra that all block
// traversal in blockarray is built on: points, half-open regions, block
// indices, and the region/block decomposition used by every read, write,
// and delete.
package coord

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// MaxDims bounds the dimensionality an Array may be constructed with. It
// exists only so that Key (the map-key representation of a BlockIndex) can
// be a fixed-size, comparable array usable as a swiss.Map key; Point and
// BlockIndex themselves are not bounded by it.
const MaxDims = 5

// Point is an ordered tuple of N signed integers. It is used both for
// absolute coordinates (a position in the unbounded logical grid) and,
// under the BlockIndex alias, for block coordinates.
type Point []int32

// NewPoint returns a Point with the given components.
func NewPoint(components ...int32) Point {
	p := make(Point, len(components))
	copy(p, components)
	return p
}

// Dims reports the dimensionality of p.
func (p Point) Dims() int { return len(p) }

// Clone returns an independent copy of p.
func (p Point) Clone() Point {
	q := make(Point, len(p))
	copy(q, p)
	return q
}

// Add returns the componentwise sum of p and q. Both must have the same
// dimensionality.
func (p Point) Add(q Point) Point {
	p.checkSameDims(q)
	r := make(Point, len(p))
	for i := range p {
		r[i] = p[i] + q[i]
	}
	return r
}

// Sub returns the componentwise difference p-q. Both must have the same
// dimensionality.
func (p Point) Sub(q Point) Point {
	p.checkSameDims(q)
	r := make(Point, len(p))
	for i := range p {
		r[i] = p[i] - q[i]
	}
	return r
}

// Equal reports whether p and q are lexicographically identical.
func (p Point) Equal(q Point) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Min returns the componentwise minimum of p and q.
func (p Point) Min(q Point) Point {
	p.checkSameDims(q)
	r := make(Point, len(p))
	for i := range p {
		if p[i] < q[i] {
			r[i] = p[i]
		} else {
			r[i] = q[i]
		}
	}
	return r
}

// Max returns the componentwise maximum of p and q.
func (p Point) Max(q Point) Point {
	p.checkSameDims(q)
	r := make(Point, len(p))
	for i := range p {
		if p[i] > q[i] {
			r[i] = p[i]
		} else {
			r[i] = q[i]
		}
	}
	return r
}

// Less reports whether p precedes q in lexicographic order, comparing the
// first axis to the last.
func (p Point) Less(q Point) bool {
	p.checkSameDims(q)
	for i := range p {
		if p[i] != q[i] {
			return p[i] < q[i]
		}
	}
	return false
}

func (p Point) String() string {
	return fmt.Sprint([]int32(p))
}

func (p Point) checkSameDims(q Point) {
	if len(p) != len(q) {
		panic(errors.AssertionFailedf("coord: dimension mismatch: %d vs %d", len(p), len(q)))
	}
}

// BlockIndex is a Point interpreted as block coordinates: the block at
// index c spans [c·BlockShape, (c+1)·BlockShape).
type BlockIndex = Point

// Key packs a BlockIndex into a fixed-size, comparable value suitable for
// use as a hash map key (e.g. in a cockroachdb/swiss.Map). Dims records
// the number of significant leading components; the remainder are zero
// padding and must be ignored by comparisons that care about
// dimensionality mismatches across Arrays of different N (which never
// happens in practice, since an Array is fixed to one BlockShape/N for its
// lifetime).
type Key struct {
	Dims   int8
	Coords [MaxDims]int32
}

// ToKey packs c into a Key. It panics if c has more than MaxDims
// components.
func (c BlockIndex) ToKey() Key {
	if len(c) > MaxDims {
		panic(errors.AssertionFailedf("coord: block index has %d dims, max is %d", len(c), MaxDims))
	}
	var k Key
	k.Dims = int8(len(c))
	copy(k.Coords[:], c)
	return k
}

// FromKey unpacks a Key back into a BlockIndex.
func FromKey(k Key) BlockIndex {
	return append(BlockIndex(nil), k.Coords[:k.Dims]...)
}
