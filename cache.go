// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package blockarray

import (
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
)

// deriveCaches re-derives the auxiliary caches for a block just touched
// by a write or relabel, in this fixed order: delete-empty first (which,
// if it fires, removes the block and its cache entries entirely and
// skips the remaining steps); then min/max tracking; then coordinate-list
// management. Each enabled cache is rebuilt, so an Array with both min/max
// tracking and coordinate lists enabled keeps both current.
func (a *Array[T]) deriveCaches(key coord.Key, blk *block.CompressedBlock[T]) error {
	if a.deleteEmpty {
		allZero, err := blk.IsAllZero()
		if err != nil {
			return err
		}
		if allZero {
			a.destroyBlock(key)
			return nil
		}
	}
	if a.minMaxTracking {
		mn, mx, err := blk.MinMax()
		if err != nil {
			return err
		}
		a.minMax[key] = minMaxPair[T]{Min: mn, Max: mx}
	}
	if a.manageCoordinateLists {
		positions, values, err := blk.Nonzero()
		if err != nil {
			return err
		}
		a.nonzero[key] = nonzeroEntry[T]{Positions: positions, Values: values}
	}
	return nil
}

// SetCompressionEnabled toggles whether present and future blocks are
// compressed. Enabling compresses every present block now (using the
// Array's preferred codec); disabling uncompresses every present block
// now. New blocks created after the call follow the new setting.
func (a *Array[T]) SetCompressionEnabled(enabled bool) error {
	if enabled == a.compressionEnabled {
		return nil
	}
	a.compressionEnabled = enabled
	for _, key := range a.order {
		blk, ok := a.blocks.Get(key)
		if !ok {
			continue
		}
		if enabled {
			blk.Compress()
		} else if err := blk.Uncompress(); err != nil {
			return a.wrapCorrupted(coord.FromKey(key), err)
		}
	}
	return nil
}

// SetMinMaxTracking toggles the min/max cache. Enabling it scans every
// present block once to backfill the cache; disabling it discards the
// cache entirely (it is rebuilt from scratch if re-enabled later).
func (a *Array[T]) SetMinMaxTracking(enabled bool) error {
	a.minMaxTracking = enabled
	a.minMax = make(map[coord.Key]minMaxPair[T])
	if !enabled {
		return nil
	}
	for _, key := range a.order {
		blk, ok := a.blocks.Get(key)
		if !ok {
			continue
		}
		mn, mx, err := blk.MinMax()
		if err != nil {
			return a.wrapCorrupted(coord.FromKey(key), err)
		}
		a.minMax[key] = minMaxPair[T]{Min: mn, Max: mx}
	}
	return nil
}

// SetManageCoordinateLists toggles the non-zero coordinate-list cache.
// Enabling it also enables delete-empty (§4.3.1) and scans every present
// block once to backfill the cache. Disabling it discards the cache but
// leaves delete-empty as-is.
func (a *Array[T]) SetManageCoordinateLists(enabled bool) error {
	a.manageCoordinateLists = enabled
	a.nonzero = make(map[coord.Key]nonzeroEntry[T])
	if !enabled {
		return nil
	}
	a.deleteEmpty = true
	for _, key := range a.order {
		blk, ok := a.blocks.Get(key)
		if !ok {
			continue
		}
		positions, values, err := blk.Nonzero()
		if err != nil {
			return a.wrapCorrupted(coord.FromKey(key), err)
		}
		a.nonzero[key] = nonzeroEntry[T]{Positions: positions, Values: values}
	}
	return nil
}

// SetDeleteEmpty toggles the delete-empty policy. Enabling it immediately
// prunes every present block that is currently all-zero.
func (a *Array[T]) SetDeleteEmpty(enabled bool) error {
	a.deleteEmpty = enabled
	if !enabled {
		return nil
	}
	keys := append([]coord.Key(nil), a.order...)
	for _, key := range keys {
		blk, ok := a.blocks.Get(key)
		if !ok {
			continue
		}
		allZero, err := blk.IsAllZero()
		if err != nil {
			return a.wrapCorrupted(coord.FromKey(key), err)
		}
		if allZero {
			a.destroyBlock(key)
		}
	}
	return nil
}
