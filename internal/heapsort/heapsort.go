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

// Package heapsort implements a stable sift-down heapsort used as the
// fallback path when the element alignment exceeds what the engine is
// willing to stack-allocate, or when a scratch allocation fails. It
// needs no scratch proportional to the element size beyond a single
// swap slot, only an int-per-element position array used to keep the
// otherwise-unstable sift-down tie-break-compatible with the rest of
// the engine's stability guarantee.
package heapsort

import (
	"unsafe"

	"github.com/SnellerInc/driftsort/internal/blob"
	"github.com/SnellerInc/driftsort/internal/compare"
)

// Sort heapsorts v[0:length) in place using less for ordering, stably.
// It performs no allocation beyond a single stack-local element used as
// the swap slot for sift-down exchanges, plus an int-per-element
// position array used to break ties.
func Sort(v blob.Blob, length int, less compare.Less) {
	if length < 2 {
		return
	}

	swapBuf := make([]byte, v.Size)
	swap := blob.New(unsafe.Pointer(&swapBuf[0]), v.Size)

	// pos[i] is the original input position of the element currently
	// occupying v[i]. A plain sift-down has no notion of input order and
	// is not stable on its own, so ties under less are broken by pos:
	// that refines less into a strict total order whose tie-breaking
	// always agrees with original position, which is enough to make the
	// heap-sorted result stable regardless of how the heap reorders
	// equal elements internally.
	pos := make([]int, length)
	for i := range pos {
		pos[i] = i
	}
	lessAt := func(i, j int) bool {
		a, b := v.Offset(i), v.Offset(j)
		switch {
		case less(a, b):
			return true
		case less(b, a):
			return false
		default:
			return pos[i] < pos[j]
		}
	}
	exchangeAt := func(i, j int) {
		exchange(v.Offset(i), v.Offset(j), swap)
		pos[i], pos[j] = pos[j], pos[i]
	}

	for start := length/2 - 1; start >= 0; start-- {
		siftDown(start, length, lessAt, exchangeAt)
	}
	for end := length - 1; end > 0; end-- {
		exchangeAt(0, end)
		siftDown(0, end, lessAt, exchangeAt)
	}
}

// siftDown restores the max-heap property of the subtree rooted at
// root, over the heap occupying slots [0, heapLen).
func siftDown(root, heapLen int, lessAt func(i, j int) bool, exchangeAt func(i, j int)) {
	for {
		child := 2*root + 1
		if child >= heapLen {
			return
		}
		if child+1 < heapLen && lessAt(child, child+1) {
			child++
		}
		if !lessAt(root, child) {
			return
		}
		exchangeAt(root, child)
		root = child
	}
}

// exchange swaps the elements addressed by a and b via the scratch
// slot swap.
func exchange(a, b, swap blob.Blob) {
	a.CopyTo(swap)
	b.CopyTo(a)
	swap.CopyTo(b)
}
