// Copyright 2024 The Blockgrid Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package persist implements the on-disk record format that serializes a
// blockarray.Array and reads it back, closing the record with a footer in
// the teacher's sstable-footer style: a fixed-size trailer holding
// section handles and a checksum, read eagerly from the tail of the file.
package persist

import "fmt"

// PersistenceError reports a malformed or truncated on-disk record, or a
// record whose dimensionality or element size does not match what the
// caller asked to read it as (§7).
type PersistenceError struct {
	Reason string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist: %s", e.Reason)
}
