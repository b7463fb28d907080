// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package blockarray

import (
	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/metrics"
)

// options collects the construction-time settings an Option mutates.
// defaultOptions supplies the defaults: snappy compression enabled,
// min/max tracking and coordinate-list management both off, delete-empty
// off.
type options struct {
	compression           block.Compression
	compressionEnabled    bool
	minMaxTracking        bool
	manageCoordinateLists bool
	deleteEmpty           bool
	collector             *metrics.Collector
}

func defaultOptions() *options {
	return &options{
		compression:        block.SnappyCompression,
		compressionEnabled: true,
	}
}

// Option configures an Array at construction time. See WithCompression,
// WithCompressionDisabled, WithMinMaxTracking, WithCoordinateLists,
// WithDeleteEmpty, and WithMetricsCollector.
type Option func(*options)

// WithCompression selects the codec blocks use once compressed. It does
// not by itself enable compression; pair with the default (compression
// enabled) or call Array.SetCompressionEnabled later.
func WithCompression(c block.Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithCompressionDisabled constructs the Array with compression off: new
// blocks remain raw until SetCompressionEnabled(true) is called.
func WithCompressionDisabled() Option {
	return func(o *options) { o.compressionEnabled = false }
}

// WithMinMaxTracking enables the min/max cache from construction, so it
// need not be backfilled via SetMinMaxTracking after the fact.
func WithMinMaxTracking(enabled bool) Option {
	return func(o *options) { o.minMaxTracking = enabled }
}

// WithCoordinateLists enables the non-zero coordinate-list cache from
// construction. Per §4.3.1, enabling it also implies delete-empty.
func WithCoordinateLists(enabled bool) Option {
	return func(o *options) {
		o.manageCoordinateLists = enabled
		if enabled {
			o.deleteEmpty = true
		}
	}
}

// WithDeleteEmpty enables the delete-empty policy: a block that becomes
// all-zero after a write or relabel is pruned from the map.
func WithDeleteEmpty(enabled bool) Option {
	return func(o *options) { o.deleteEmpty = enabled }
}

// WithMetricsCollector attaches a metrics.Collector that records read/
// write latency for every point and region operation. Unset by default,
// in which case operations incur no timing overhead.
func WithMetricsCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}
