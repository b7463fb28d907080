// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package metrics exposes an Array's aggregate state as Prometheus
// collectors and tracks operation latency with HDR histograms, entirely
// decoupled from the blockarray package: a Collector is fed periodic
// Snapshots rather than holding a reference to an Array directly, so it
// has no dependency on the element-type parameter.
package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/crlib/crtime"
	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is the aggregate state of an Array at one point in time,
// as produced by the root package's Array for feeding into a Collector.
type Snapshot struct {
	NumBlocks               int64
	SizeBytes               int64
	DirtyBlocks             int64
	AverageCompressionRatio float64
}

// Collector implements prometheus.Collector, reporting the most recent
// Snapshot given to Observe as a set of gauges, plus operation-latency
// histograms recorded via StartOperation.
type Collector struct {
	numBlocks   prometheus.Gauge
	sizeBytes   prometheus.Gauge
	dirtyBlocks prometheus.Gauge
	compression prometheus.Gauge

	readLatency  *hdrhistogram.Histogram
	writeLatency *hdrhistogram.Histogram
}

// NewCollector constructs a Collector. namespace/subsystem follow the
// usual Prometheus naming convention and may be empty.
func NewCollector(namespace, subsystem string) *Collector {
	mk := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	return &Collector{
		numBlocks:   mk("blocks_total", "Number of present blocks."),
		sizeBytes:   mk("bytes_total", "Total in-memory footprint of present blocks."),
		dirtyBlocks: mk("dirty_blocks_total", "Number of blocks considered dirty."),
		compression: mk("average_compression_ratio", "Mean raw/compressed size ratio across compressed blocks."),

		// 1 microsecond to 10 seconds, 3 significant figures, matching a
		// typical single-block operation's expected latency range.
		readLatency:  hdrhistogram.New(1, 10_000_000, 3),
		writeLatency: hdrhistogram.New(1, 10_000_000, 3),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.numBlocks.Desc()
	ch <- c.sizeBytes.Desc()
	ch <- c.dirtyBlocks.Desc()
	ch <- c.compression.Desc()
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- c.numBlocks
	ch <- c.sizeBytes
	ch <- c.dirtyBlocks
	ch <- c.compression
}

// Observe updates the gauges from a fresh Snapshot.
func (c *Collector) Observe(s Snapshot) {
	c.numBlocks.Set(float64(s.NumBlocks))
	c.sizeBytes.Set(float64(s.SizeBytes))
	c.dirtyBlocks.Set(float64(s.DirtyBlocks))
	c.compression.Set(s.AverageCompressionRatio)
}

// operationKind selects which latency histogram StartOperation records
// into.
type operationKind int

const (
	// ReadOperation marks a read-path call (ReadPoint/ReadRegion).
	ReadOperation operationKind = iota
	// WriteOperation marks a write-path call (WritePoint/WriteRegion/...).
	WriteOperation
)

// StartOperation begins timing one operation using a monotonic clock
// (crlib/crtime, which avoids the syscall overhead of repeated
// time.Now() calls on the hot path). The returned func records the
// elapsed duration into the matching histogram when called.
func (c *Collector) StartOperation(kind operationKind) func() {
	start := crtime.NowMono()
	return func() {
		elapsed := start.Elapsed()
		micros := elapsed.Microseconds()
		if micros <= 0 {
			micros = 1
		}
		switch kind {
		case ReadOperation:
			_ = c.readLatency.RecordValue(micros)
		case WriteOperation:
			_ = c.writeLatency.RecordValue(micros)
		}
	}
}

// ReadLatencyPercentile returns the given percentile (0-100) of recorded
// read-operation latency.
func (c *Collector) ReadLatencyPercentile(p float64) time.Duration {
	return time.Duration(c.readLatency.ValueAtPercentile(p)) * time.Microsecond
}

// WriteLatencyPercentile returns the given percentile (0-100) of
// recorded write-operation latency.
func (c *Collector) WriteLatencyPercentile(p float64) time.Duration {
	return time.Duration(c.writeLatency.ValueAtPercentile(p)) * time.Microsecond
}
