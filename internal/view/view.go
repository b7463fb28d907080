// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package view implements View, the dense N-D buffer type that every
// public blockarray operation reads from or writes into, along with the
// strided sub-view arithmetic coord.Step relies on.
package view

import (
	"github.com/blockgrid/blockarray/internal/coord"
	"github.com/cockroachdb/errors"
)

// View is a dense N-D buffer of element type T: a flat backing slice plus
// a shape and a set of row-major strides, and an offset into the backing
// slice. Sub-views share the backing slice with their parent.
type View[T any] struct {
	Data    []T
	Shape   coord.Point
	Strides []int
	Offset  int
}

// New allocates a fresh, contiguous, row-major View of the given shape.
func New[T any](shape coord.Point) View[T] {
	size := 1
	for _, s := range shape {
		size *= int(s)
	}
	return View[T]{
		Data:    make([]T, size),
		Shape:   shape.Clone(),
		Strides: rowMajorStrides(shape),
		Offset:  0,
	}
}

// FromFlat wraps an existing flat, contiguous, row-major slice as a View
// of the given shape. len(data) must equal the product of shape.
func FromFlat[T any](data []T, shape coord.Point) View[T] {
	size := 1
	for _, s := range shape {
		size *= int(s)
	}
	if len(data) != size {
		panic(errors.AssertionFailedf("view: data has %d elements, shape wants %d", len(data), size))
	}
	return View[T]{Data: data, Shape: shape.Clone(), Strides: rowMajorStrides(shape), Offset: 0}
}

func rowMajorStrides(shape coord.Point) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= int(shape[i])
	}
	return strides
}

// Sub returns a View over the subregion r of v, expressed in v-local
// coordinates. The returned View shares v's backing slice.
func (v View[T]) Sub(r coord.Region) View[T] {
	if len(r.P) != len(v.Shape) {
		panic(errors.AssertionFailedf("view: region has %d dims, view has %d", len(r.P), len(v.Shape)))
	}
	off := v.Offset
	for i, p := range r.P {
		off += int(p) * v.Strides[i]
	}
	return View[T]{Data: v.Data, Shape: r.Shape(), Strides: v.Strides, Offset: off}
}

// index computes the flat index of local point p within v.
func (v View[T]) index(p coord.Point) int {
	idx := v.Offset
	for i, c := range p {
		idx += int(c) * v.Strides[i]
	}
	return idx
}

// At returns the element at local point p.
func (v View[T]) At(p coord.Point) T {
	return v.Data[v.index(p)]
}

// Set assigns the element at local point p.
func (v View[T]) Set(p coord.Point, val T) {
	v.Data[v.index(p)] = val
}

// Size returns the product of v's shape.
func (v View[T]) Size() int64 {
	size := int64(1)
	for _, s := range v.Shape {
		size *= int64(s)
	}
	return size
}

// Fill sets every element of v to val.
func (v View[T]) Fill(val T) {
	forEachPoint(v.Shape, func(p coord.Point) {
		v.Set(p, val)
	})
}

// CopyFrom copies every element of src into v. src and v must have equal
// shape.
func (v View[T]) CopyFrom(src View[T]) {
	if !v.Shape.Equal(src.Shape) {
		panic(errors.AssertionFailedf("view: shape mismatch in copy: dst %v, src %v", v.Shape, src.Shape))
	}
	forEachPoint(v.Shape, func(p coord.Point) {
		v.Set(p, src.At(p))
	})
}

// ToFlat returns a new, contiguous, row-major []T holding v's elements in
// ascending scan order (last axis varying fastest), regardless of v's
// underlying strides/offset.
func ToFlat[T any](v View[T]) []T {
	out := make([]T, v.Size())
	i := 0
	forEachPoint(v.Shape, func(p coord.Point) {
		out[i] = v.At(p)
		i++
	})
	return out
}

// ForEach invokes fn for every local point of v, in ascending scan order
// (last axis varying fastest), along with the element's current value.
func (v View[T]) ForEach(fn func(p coord.Point, val T)) {
	forEachPoint(v.Shape, func(p coord.Point) {
		fn(p, v.At(p))
	})
}

// forEachPoint invokes fn for every point in [0, shape), last axis
// varying fastest, without allocating for the common small-N case.
func forEachPoint(shape coord.Point, fn func(p coord.Point)) {
	n := len(shape)
	if n == 0 {
		return
	}
	for _, s := range shape {
		if s == 0 {
			return
		}
	}
	p := make(coord.Point, n)
	for {
		fn(p)
		axis := n - 1
		for axis >= 0 {
			p[axis]++
			if p[axis] < shape[axis] {
				break
			}
			p[axis] = 0
			axis--
		}
		if axis < 0 {
			return
		}
	}
}
