// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package blockarray implements an out-of-core, block-partitioned N-D
// array: a sparse map of fixed-shape compressed blocks addressed by
// region and point operations, with optional min/max and non-zero
// coordinate caches maintained incrementally as blocks are written.
package blockarray

import (
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
	"github.com/blockgrid/blockarray/internal/view"
	"github.com/blockgrid/blockarray/metrics"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"
)

type minMaxPair[T block.Element] struct {
	Min, Max T
}

type nonzeroEntry[T block.Element] struct {
	Positions []coord.Point
	Values    []T
}

// Array is a sparse, block-partitioned N-D array of element type T. Its
// zero value is not usable; construct one with New.
type Array[T block.Element] struct {
	blockShape coord.BlockShape

	preferredCompression block.Compression
	compressionEnabled    bool
	minMaxTracking        bool
	manageCoordinateLists bool
	deleteEmpty           bool

	blocks *swiss.Map[coord.Key, *block.CompressedBlock[T]]

	// order and orderIndex give a deterministic (not necessarily
	// insertion-stable — destroyBlock swap-removes) iteration order over
	// present blocks, since swiss.Map's own iteration order is
	// unspecified and persistence (§6.2) and Nonzero's concatenation
	// order require determinism.
	order      []coord.Key
	orderIndex map[coord.Key]int

	minMax  map[coord.Key]minMaxPair[T]
	nonzero map[coord.Key]nonzeroEntry[T]

	// collector, if non-nil, times every read/write operation below. Left
	// nil by default, in which case startRead/startWrite are no-ops.
	collector *metrics.Collector

	// scratch is the single block-shaped decompression buffer shared by
	// every read path (§5: the core is single-threaded, so one scratch
	// buffer per Array suffices). scratchInUse guards against the
	// reentrant misuse of an Array from within a callback passed back
	// into it.
	scratch      view.View[T]
	scratchInUse bool
}

// New constructs an empty Array with the given block shape (every
// component must be > 0) and options.
func New[T block.Element](blockShape coord.BlockShape, opts ...Option) *Array[T] {
	coord.CheckBlockShape(blockShape)
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Array[T]{
		blockShape:            blockShape.Clone(),
		preferredCompression:  o.compression,
		compressionEnabled:    o.compressionEnabled,
		minMaxTracking:        o.minMaxTracking,
		manageCoordinateLists: o.manageCoordinateLists,
		deleteEmpty:           o.deleteEmpty,
		blocks:                swiss.New[coord.Key, *block.CompressedBlock[T]](0),
		orderIndex:            make(map[coord.Key]int),
		minMax:                make(map[coord.Key]minMaxPair[T]),
		nonzero:               make(map[coord.Key]nonzeroEntry[T]),
		collector:             o.collector,
		scratch:               view.New[T](blockShape),
	}
}

// startRead begins timing a read operation against the attached
// metrics.Collector, if any; the returned func stops the timer.
func (a *Array[T]) startRead() func() {
	if a.collector == nil {
		return func() {}
	}
	return a.collector.StartOperation(metrics.ReadOperation)
}

// startWrite begins timing a write operation against the attached
// metrics.Collector, if any; the returned func stops the timer.
func (a *Array[T]) startWrite() func() {
	if a.collector == nil {
		return func() {}
	}
	return a.collector.StartOperation(metrics.WriteOperation)
}

// BlockShape returns the Array's fixed block shape.
func (a *Array[T]) BlockShape() coord.BlockShape { return a.blockShape.Clone() }

// CompressionKind returns the codec newly created blocks use once
// compressed, regardless of whether compression is currently enabled.
func (a *Array[T]) CompressionKind() block.Compression { return a.preferredCompression }

// CompressionEnabled reports whether compression is currently enabled.
func (a *Array[T]) CompressionEnabled() bool { return a.compressionEnabled }

// MinMaxTrackingEnabled reports whether the min/max cache is maintained.
func (a *Array[T]) MinMaxTrackingEnabled() bool { return a.minMaxTracking }

// CoordinateListsEnabled reports whether the non-zero coordinate-list
// cache is maintained.
func (a *Array[T]) CoordinateListsEnabled() bool { return a.manageCoordinateLists }

// DeleteEmptyEnabled reports whether the delete-empty policy is active.
func (a *Array[T]) DeleteEmptyEnabled() bool { return a.deleteEmpty }

// ForEachBlock invokes fn for every present block, in the Array's
// deterministic iteration order, the same order persist.Writer must use
// to index per-block sidecar records (§6.2).
func (a *Array[T]) ForEachBlock(fn func(c coord.BlockIndex, blk *block.CompressedBlock[T])) {
	for _, key := range a.order {
		blk, ok := a.blocks.Get(key)
		if !ok {
			continue
		}
		fn(coord.FromKey(key), blk)
	}
}

// RestoreBlock inserts a block reconstructed from a persisted record
// directly into the map, bypassing the write paths, then re-derives its
// auxiliary caches from the block's actual content. It is intended for
// use by persist.Reader while rebuilding an Array from a serialized
// record; ordinary callers should use WritePoint/WriteRegion instead.
func (a *Array[T]) RestoreBlock(c coord.BlockIndex, blk *block.CompressedBlock[T]) error {
	key := c.ToKey()
	a.insertBlock(key, blk)
	if err := a.deriveCaches(key, blk); err != nil {
		return a.wrapCorrupted(c, err)
	}
	return nil
}

func (a *Array[T]) acquireScratch() func() {
	if a.scratchInUse {
		panic(errors.AssertionFailedf("blockarray: reentrant use of Array from within a callback"))
	}
	a.scratchInUse = true
	return func() { a.scratchInUse = false }
}

// currentCompression is the codec a newly created block is given. It is
// the preferred codec even while compression is disabled, so that a later
// SetCompressionEnabled(true) can compress the block.
func (a *Array[T]) currentCompression() block.Compression {
	return a.preferredCompression
}

func (a *Array[T]) insertBlock(key coord.Key, blk *block.CompressedBlock[T]) {
	a.blocks.Put(key, blk)
	a.orderIndex[key] = len(a.order)
	a.order = append(a.order, key)
}

func (a *Array[T]) destroyBlock(key coord.Key) {
	a.blocks.Delete(key)
	delete(a.minMax, key)
	delete(a.nonzero, key)
	idx, ok := a.orderIndex[key]
	if !ok {
		return
	}
	last := len(a.order) - 1
	if idx != last {
		a.order[idx] = a.order[last]
		a.orderIndex[a.order[idx]] = idx
	}
	a.order = a.order[:last]
	delete(a.orderIndex, key)
}

func (a *Array[T]) wrapCorrupted(c coord.BlockIndex, err error) error {
	var ce *block.ErrCorrupted
	if errors.As(err, &ce) {
		return &BlockCorrupted{BlockIndex: c.Clone(), Expected: ce.Expected, Actual: ce.Actual}
	}
	return errors.Wrapf(err, "blockarray: block %v", c)
}

func isWholeBlock(r coord.Region, shape coord.Point) bool {
	for i := range shape {
		if r.P[i] != 0 || r.Q[i] != shape[i] {
			return false
		}
	}
	return true
}

// ReadRegion fills out (whose shape must equal q-p) with the contents of
// [p, q), reading zero for every position not covered by a present block.
func (a *Array[T]) ReadRegion(p, q coord.Point, out view.View[T]) error {
	defer a.startRead()()

	region := coord.NewRegion(p, q)
	if !out.Shape.Equal(region.Shape()) {
		panic(errors.AssertionFailedf("blockarray: ReadRegion shape mismatch: out %v, region %v", out.Shape, region.Shape()))
	}
	var zero T
	out.Fill(zero)

	release := a.acquireScratch()
	defer release()

	for step := range coord.Traverse(p, q, a.blockShape) {
		blk, ok := a.blocks.Get(step.C.ToKey())
		if !ok {
			continue
		}
		sub, err := blk.ReadSub(step.WithinBlock, a.scratch)
		if err != nil {
			return a.wrapCorrupted(step.C, err)
		}
		out.Sub(step.Source).CopyFrom(sub)
	}
	return nil
}

// ReadPoint returns the element at p, or the zero value if p falls in an
// absent block.
func (a *Array[T]) ReadPoint(p coord.Point) (T, error) {
	defer a.startRead()()

	var zero T
	c := coord.BlockIndexLow(p, a.blockShape)
	blk, ok := a.blocks.Get(c.ToKey())
	if !ok {
		return zero, nil
	}
	release := a.acquireScratch()
	defer release()

	if err := blk.ReadInto(a.scratch); err != nil {
		return zero, a.wrapCorrupted(c, err)
	}
	local := p.Sub(coord.BlockBounds(c, a.blockShape).P)
	return a.scratch.At(local), nil
}

// WritePoint sets the element at p to val, creating the containing block
// if absent.
func (a *Array[T]) WritePoint(p coord.Point, val T) error {
	defer a.startWrite()()

	c := coord.BlockIndexLow(p, a.blockShape)
	key := c.ToKey()
	local := p.Sub(coord.BlockBounds(c, a.blockShape).P)
	within := coord.NewRegion(local, local.Add(onesLike(local)))
	src := view.New[T](within.Shape())
	src.Set(make(coord.Point, len(local)), val)

	blk, ok := a.blocks.Get(key)
	if !ok {
		blk = block.NewFromView(view.New[T](a.blockShape), a.currentCompression())
		blk.SetDirty(true)
		if err := blk.WriteSub(within, src); err != nil {
			return a.wrapCorrupted(c, err)
		}
		if a.compressionEnabled {
			blk.Compress()
		}
		a.insertBlock(key, blk)
	} else {
		if err := blk.WriteSub(within, src); err != nil {
			return a.wrapCorrupted(c, err)
		}
	}
	if err := a.deriveCaches(key, blk); err != nil {
		return a.wrapCorrupted(c, err)
	}
	return nil
}

func onesLike(p coord.Point) coord.Point {
	out := make(coord.Point, len(p))
	for i := range out {
		out[i] = 1
	}
	return out
}

// WriteRegion overwrites [p, q) with src, whose shape must equal q-p.
// Blocks touched for the first time are created on demand.
func (a *Array[T]) WriteRegion(p, q coord.Point, src view.View[T]) error {
	defer a.startWrite()()

	region := coord.NewRegion(p, q)
	if !src.Shape.Equal(region.Shape()) {
		panic(errors.AssertionFailedf("blockarray: WriteRegion shape mismatch: src %v, region %v", src.Shape, region.Shape()))
	}

	for step := range coord.Traverse(p, q, a.blockShape) {
		key := step.C.ToKey()
		srcSub := src.Sub(step.Source)
		blk, ok := a.blocks.Get(key)
		if !ok {
			if isWholeBlock(step.WithinBlock, a.blockShape) {
				blk = block.NewFromView(srcSub, a.currentCompression())
			} else {
				blk = block.NewFromView(view.New[T](a.blockShape), a.currentCompression())
				blk.SetDirty(true)
				if err := blk.WriteSub(step.WithinBlock, srcSub); err != nil {
					return a.wrapCorrupted(step.C, err)
				}
			}
			if a.compressionEnabled {
				blk.Compress()
			}
			a.insertBlock(key, blk)
		} else {
			if err := blk.WriteSub(step.WithinBlock, srcSub); err != nil {
				return a.wrapCorrupted(step.C, err)
			}
		}
		if err := a.deriveCaches(key, blk); err != nil {
			return a.wrapCorrupted(step.C, err)
		}
	}
	return nil
}

// WriteRegionNonzero behaves like WriteRegion except that elements of src
// equal to the zero value of T are skipped, preserving whatever the
// destination already holds there, and elements equal to writeAsZero are
// written as the actual zero value. This lets callers encode "write zero"
// and "leave untouched" as distinct values when the natural zero value of
// T is itself a meaningful payload value.
func (a *Array[T]) WriteRegionNonzero(p, q coord.Point, src view.View[T], writeAsZero T) error {
	defer a.startWrite()()

	region := coord.NewRegion(p, q)
	if !src.Shape.Equal(region.Shape()) {
		panic(errors.AssertionFailedf("blockarray: WriteRegionNonzero shape mismatch: src %v, region %v", src.Shape, region.Shape()))
	}
	var zero T

	release := a.acquireScratch()
	defer release()

	for step := range coord.Traverse(p, q, a.blockShape) {
		key := step.C.ToKey()
		srcSub := src.Sub(step.Source)

		blk, ok := a.blocks.Get(key)
		if !ok {
			blk = block.NewFromView(view.New[T](a.blockShape), a.currentCompression())
			blk.SetDirty(true)
			if a.compressionEnabled {
				blk.Compress()
			}
			a.insertBlock(key, blk)
		}

		cur, err := blk.ReadSub(step.WithinBlock, a.scratch)
		if err != nil {
			return a.wrapCorrupted(step.C, err)
		}
		patch := view.New[T](step.WithinBlock.Shape())
		srcSub.ForEach(func(p coord.Point, val T) {
			switch {
			case val == zero:
				patch.Set(p, cur.At(p))
			case val == writeAsZero:
				patch.Set(p, zero)
			default:
				patch.Set(p, val)
			}
		})
		if err := blk.WriteSub(step.WithinBlock, patch); err != nil {
			return a.wrapCorrupted(step.C, err)
		}
		if err := a.deriveCaches(key, blk); err != nil {
			return a.wrapCorrupted(step.C, err)
		}
	}
	return nil
}

// DeleteRegion removes every block fully or partially overlapping
// [p, q) from the map. Reads of the deleted region subsequently return
// zero.
func (a *Array[T]) DeleteRegion(p, q coord.Point) {
	for _, c := range coord.EnumerateBlocks(p, q, a.blockShape) {
		key := c.ToKey()
		if _, ok := a.blocks.Get(key); ok {
			a.destroyBlock(key)
		}
	}
}

// ApplyRelabeling replaces every element v, across every present block,
// with table[v mod len(table)].
func (a *Array[T]) ApplyRelabeling(table []T) error {
	keys := append([]coord.Key(nil), a.order...)
	for _, key := range keys {
		blk, ok := a.blocks.Get(key)
		if !ok {
			continue
		}
		if err := blk.Relabel(table); err != nil {
			return a.wrapCorrupted(coord.FromKey(key), err)
		}
		if err := a.deriveCaches(key, blk); err != nil {
			return a.wrapCorrupted(coord.FromKey(key), err)
		}
	}
	return nil
}

// SetDirtyRegion marks [p, q) dirty or clean in every block it touches.
// Absent blocks are left absent.
func (a *Array[T]) SetDirtyRegion(p, q coord.Point, dirty bool) {
	for step := range coord.Traverse(p, q, a.blockShape) {
		blk, ok := a.blocks.Get(step.C.ToKey())
		if !ok {
			continue
		}
		blk.SetDirtyRegion(step.WithinBlock, dirty)
	}
}

// IsDirtyRegion reports whether [p, q) has any dirty content: an absent
// block counts as dirty (since a read there implicitly returns a
// synthetic zero, not persisted data).
func (a *Array[T]) IsDirtyRegion(p, q coord.Point) bool {
	for step := range coord.Traverse(p, q, a.blockShape) {
		blk, ok := a.blocks.Get(step.C.ToKey())
		if !ok {
			return true
		}
		if blk.IsDirtyRegion(step.WithinBlock) {
			return true
		}
	}
	return false
}

// DirtyBlocks returns every block index in [p, q)'s block range that is
// either absent or whole-block dirty.
func (a *Array[T]) DirtyBlocks(p, q coord.Point) []coord.BlockIndex {
	var out []coord.BlockIndex
	for _, c := range coord.EnumerateBlocks(p, q, a.blockShape) {
		blk, ok := a.blocks.Get(c.ToKey())
		if !ok || blk.IsDirty() {
			out = append(out, c)
		}
	}
	return out
}

// Blocks returns the index of every present block intersecting [p, q),
// in the Array's deterministic iteration order.
func (a *Array[T]) Blocks(p, q coord.Point) []coord.BlockIndex {
	region := coord.NewRegion(p, q)
	var out []coord.BlockIndex
	for _, key := range a.order {
		c := coord.FromKey(key)
		if region.Intersects(coord.BlockBounds(c, a.blockShape)) {
			out = append(out, c)
		}
	}
	return out
}

// Nonzero returns the global position and value of every non-zero
// element, in the Array's deterministic block order followed by each
// block's ascending scan order. It returns (nil, nil) if coordinate-list
// management is not enabled.
func (a *Array[T]) Nonzero() ([]coord.Point, []T) {
	if !a.manageCoordinateLists {
		return nil, nil
	}
	var positions []coord.Point
	var values []T
	for _, key := range a.order {
		entry, ok := a.nonzero[key]
		if !ok {
			continue
		}
		base := coord.BlockBounds(coord.FromKey(key), a.blockShape).P
		for i, pos := range entry.Positions {
			positions = append(positions, base.Add(pos))
			values = append(values, entry.Values[i])
		}
	}
	return positions, values
}

// MinMax returns the componentwise min/max across every present block.
// It returns the zero value of T for both if min/max tracking is not
// enabled or no block is present.
func (a *Array[T]) MinMax() (min, max T) {
	if !a.minMaxTracking {
		return min, max
	}
	first := true
	for _, key := range a.order {
		e, ok := a.minMax[key]
		if !ok {
			continue
		}
		if first {
			min, max = e.Min, e.Max
			first = false
			continue
		}
		if e.Min < min {
			min = e.Min
		}
		if e.Max > max {
			max = e.Max
		}
	}
	return min, max
}

// MinMaxForBlock returns the cached min/max for block c, if min/max
// tracking is enabled and a cache entry exists for it.
func (a *Array[T]) MinMaxForBlock(c coord.BlockIndex) (min, max T, ok bool) {
	e, ok := a.minMax[c.ToKey()]
	if !ok {
		return min, max, false
	}
	return e.Min, e.Max, true
}

// NonzeroForBlock returns the cached non-zero positions/values for block
// c, if coordinate-list management is enabled and a cache entry exists
// for it.
func (a *Array[T]) NonzeroForBlock(c coord.BlockIndex) (positions []coord.Point, values []T, ok bool) {
	e, ok := a.nonzero[c.ToKey()]
	if !ok {
		return nil, nil, false
	}
	return e.Positions, e.Values, true
}

// AverageCompressionRatio returns the mean, across every present
// compressed block, of raw size over compressed size. Uncompressed
// blocks do not contribute to the average. It returns 0 if no block is
// present or compressed.
func (a *Array[T]) AverageCompressionRatio() float64 {
	var sum float64
	var n int
	elemSize := float64(block.SizeOf[T]())
	for _, key := range a.order {
		blk, ok := a.blocks.Get(key)
		if !ok || !blk.IsCompressed() {
			continue
		}
		raw := float64(blk.Size()) * elemSize
		cur := float64(blk.CurrentSizeBytes())
		if cur == 0 {
			continue
		}
		sum += raw / cur
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// NumBlocks returns the number of present blocks.
func (a *Array[T]) NumBlocks() int { return int(a.blocks.Len()) }

// SizeBytes returns the total in-memory footprint of every present
// block's payload (compressed where applicable), excluding cache and
// bookkeeping overhead.
func (a *Array[T]) SizeBytes() int64 {
	var total int64
	for _, key := range a.order {
		blk, ok := a.blocks.Get(key)
		if !ok {
			continue
		}
		total += blk.CurrentSizeBytes()
	}
	return total
}
