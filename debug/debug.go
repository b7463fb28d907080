// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package debug renders human-readable views of an Array's block map for
// interactive inspection: a tabular dump of per-block metadata, and an
// ASCII sparkline of compression ratio across blocks.
package debug

import (
	"fmt"
	"strings"

	"github.com/blockgrid/blockarray/internal/block"
	"github.com/blockgrid/blockarray/internal/coord"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
)

// BlockInfo is the subset of a block's state the debug views need, kept
// independent of the element type so a single formatting path handles
// every instantiation of Array.
type BlockInfo struct {
	Index            coord.BlockIndex
	Shape            coord.Point
	Compression      block.Compression
	IsCompressed     bool
	CompressedBytes  int
	RawBytes         int64
	WholeDirty       bool
}

// DebugString renders blocks as an ASCII table: one row per block, ordered
// as given, with index/shape/compression/size/dirty columns.
func DebugString(blocks []BlockInfo) string {
	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Block", "Shape", "Codec", "Compressed", "Raw Bytes", "Ratio", "Dirty"})
	table.SetAutoFormatHeaders(false)

	for _, b := range blocks {
		ratio := "-"
		if b.IsCompressed && b.CompressedBytes > 0 {
			ratio = fmt.Sprintf("%.2fx", float64(b.RawBytes)/float64(b.CompressedBytes))
		}
		table.Append([]string{
			formatBlockIndex(b.Index),
			formatShape(b.Shape),
			b.Compression.String(),
			fmt.Sprintf("%t", b.IsCompressed),
			fmt.Sprintf("%d", b.RawBytes),
			ratio,
			fmt.Sprintf("%t", b.WholeDirty),
		})
	}
	table.Render()
	return buf.String()
}

func formatBlockIndex(c coord.BlockIndex) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func formatShape(p coord.Point) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, "x")
}

// CompressionSparkline renders an ASCII line chart of per-block
// compression ratio (raw/compressed size), in the order blocks is given.
// Uncompressed or empty blocks contribute a ratio of 1.0.
func CompressionSparkline(blocks []BlockInfo, opts ...asciigraph.Option) string {
	series := make([]float64, len(blocks))
	for i, b := range blocks {
		if b.IsCompressed && b.CompressedBytes > 0 {
			series[i] = float64(b.RawBytes) / float64(b.CompressedBytes)
		} else {
			series[i] = 1.0
		}
	}
	if len(series) == 0 {
		return ""
	}
	defaults := []asciigraph.Option{asciigraph.Height(8), asciigraph.Caption("compression ratio by block")}
	return asciigraph.Plot(series, append(defaults, opts...)...)
}
