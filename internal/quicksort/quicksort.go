// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package quicksort implements the pattern-defeating quicksort driver:
// recursive pivot selection and stable partitioning, with an equal-band
// shortcut (borrowed from pdqsort) that gives O(n log k) behavior on
// inputs with few distinct values, and a fallback to the driftsort
// merge-based driver once the recursion limit is exhausted.
package quicksort

import (
	"unsafe"

	"github.com/SnellerInc/driftsort/internal/blob"
	"github.com/SnellerInc/driftsort/internal/compare"
	"github.com/SnellerInc/driftsort/internal/partition"
	"github.com/SnellerInc/driftsort/internal/pivot"
	"github.com/SnellerInc/driftsort/internal/smallsort"
)

// Fallback is invoked when the recursion limit is exhausted before the
// range has shrunk to the small-sort threshold; it is expected to be the
// top-level driftsort merge driver, wired in by the caller to avoid an
// import cycle between quicksort and driftsort.
type Fallback func(v, scratch blob.Blob, length, scratchLen int, eagerSort bool, less compare.Less)

// Sort recursively quicksorts v[0:length) in place, using scratch
// (capacity scratchLen, scratchLen >= length) as working space; scratch
// must also hold at least smallsort.Threshold+16 elements, since the
// small-sort leaves may use up to 16 elements beyond their own length.
// limit
// bounds the recursion depth (the caller is expected to seed it with
// roughly c*log2(length) so that adversarial inputs cannot force
// quadratic stack growth); when it reaches zero control is handed to
// fallback instead of recursing further. leftAncestorPivot is the pivot
// value used by the parent call's right-recursion, or nil at the root;
// it lets a run of equal values collapse to a single equal-partition
// pass instead of recursing into them, per pdqsort's "equal partition"
// trick.
func Sort(v, scratch blob.Blob, length, scratchLen int, limit int, leftAncestorPivot blob.Blob, less compare.Less, elemSize uintptr, fallback Fallback) {
	for {
		if length <= smallsort.Threshold {
			smallsort.Sort(v, length, scratch, less, elemSize)
			return
		}

		if limit == 0 {
			fallback(v, scratch, length, scratchLen, true, less)
			return
		}
		limit--

		pivotPos := pivot.Choose(v, length, less)

		pivotBuf := make([]byte, elemSize)
		pivotCopy := blob.New(unsafe.Pointer(&pivotBuf[0]), elemSize)
		v.Offset(pivotPos).CopyTo(pivotCopy)

		performEqualPartition := false
		if !leftAncestorPivot.IsNil() {
			performEqualPartition = !less(leftAncestorPivot, v.Offset(pivotPos))
		}

		leftPartitionLen := 0
		if !performEqualPartition {
			leftPartitionLen = partition.Partition(v, scratch, length, pivotPos, false, less)
			performEqualPartition = leftPartitionLen == 0
		}

		if performEqualPartition {
			midEq := partition.Partition(v, scratch, length, pivotPos, true, less)
			v = v.Offset(midEq)
			length -= midEq
			leftAncestorPivot = blob.Blob{}
			continue
		}

		right := v.Offset(leftPartitionLen)
		rightLen := length - leftPartitionLen
		Sort(right, scratch, rightLen, scratchLen, limit, pivotCopy, less, elemSize, fallback)

		length = leftPartitionLen
	}
}
