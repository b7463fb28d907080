// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package extern declares the abstract collaborator contracts the
// streaming operators built on top of an Array depend on: Source, Sink,
// and the region-of-interest value type both share. An Array is neither
// a Source nor a Sink; it is the storage engine those operators read
// from and write to independently (§4.5). No concrete Source/Sink is
// provided here — a file-backed or cube-store-backed implementation is a
// non-goal of this package.
package extern

import (
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
	"github.com/blockgrid/blockarray/internal/view"
)

// ROI is an axis-aligned half-open N-D region of interest, the same
// [P, Q) shape as coord.Region, shared by Source and Sink so a streaming
// operator can narrow both ends of a pipeline to the same window.
type ROI = coord.Region

// Source is an abstract readable collaborator: something a streaming
// operator can pull dense regions from.
type Source[T block.Element] interface {
	// Shape returns the Source's full logical extent.
	Shape() coord.Point

	// ReadBlock fills out with the contents of region, reporting false
	// if the Source could not satisfy the read (e.g. the region lies
	// outside a narrowed ROI).
	ReadBlock(region coord.Region, out view.View[T]) (ok bool)

	// SetROI narrows subsequent ReadBlock calls to region. A Source that
	// does not support narrowing may treat this as a no-op.
	SetROI(region ROI)
}

// Sink is an abstract writable collaborator: something a streaming
// operator can push dense regions into.
type Sink[T block.Element] interface {
	// SetShape declares the Sink's full logical extent before any writes.
	SetShape(shape coord.Point)

	// SetBlockShape declares the block partitioning the Sink should use
	// internally, if it partitions at all.
	SetBlockShape(shape coord.BlockShape)

	// WriteBlock writes in's contents to region, reporting false if the
	// Sink could not accept the write.
	WriteBlock(region coord.Region, in view.View[T]) (ok bool)
}
