// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package block implements CompressedBlock, the container for one block's
// payload and dirty metadata, with on-demand byte-level compression.
package block

import "golang.org/x/exp/constraints"

// Element is the set of element types a CompressedBlock may hold: the
// unsigned 8/32-bit integers and the 32-bit float used by the deployments
// this engine targets (§9 of the design). It is expressed as an
// intersection of constraints.Ordered (needed for min/max tracking) with
// the concrete type union, rather than a bare union, so that generic
// helpers elsewhere can be written against constraints.Ordered directly.
type Element interface {
	constraints.Ordered
	~uint8 | ~uint32 | ~float32
}

// SizeOf returns sizeof(T) in bytes for an Element type.
func SizeOf[T Element]() int {
	var z T
	switch any(z).(type) {
	case uint8:
		return 1
	case uint32, float32:
		return 4
	default:
		return 0
	}
}
