// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package blockarray

import (
	"fmt"

	"github.com/blockgrid/blockarray/internal/coord"
)

// BlockCorrupted is returned when a block's codec reports a decompressed
// length disagreeing with its declared shape (§7: codec corruption).
type BlockCorrupted struct {
	BlockIndex       coord.BlockIndex
	Expected, Actual int
}

func (e *BlockCorrupted) Error() string {
	return fmt.Sprintf("blockarray: block %v corrupted: expected %d bytes, got %d", e.BlockIndex, e.Expected, e.Actual)
}

// OutOfMemory describes a failed allocation for a block's payload or the
// Array's scratch buffer (§7). No operation in this package returns it.
type OutOfMemory struct {
	BlockIndex coord.BlockIndex
}

func (e *OutOfMemory) Error() string {
	return fmt.Sprintf("blockarray: out of memory allocating block %v", e.BlockIndex)
}
