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

// Package smallsort implements the leaf sorting procedures used at and
// below the driver's small-sort threshold: a five-comparison stable
// sort-of-4 network, a sort-of-8 built from two sort-of-4 plus a merge,
// a bidirectional merge primitive, a guarded insertion-tail, and the
// small_sort dispatcher that picks among them by element size and count.
package smallsort

import (
	"unsafe"

	"github.com/SnellerInc/driftsort/internal/blob"
	"github.com/SnellerInc/driftsort/internal/compare"
)

// Threshold is the element count at and below which Sort (rather than
// the quicksort/driftsort drivers) handles the range directly.
const Threshold = 32

// Sort4 sorts the four elements at base into dest, stably, using exactly
// five comparisons. base and dest may not alias.
func Sort4(base, dest blob.Blob, less compare.Less) {
	b0, b1, b2, b3 := base.Offset(0), base.Offset(1), base.Offset(2), base.Offset(3)

	c1 := less(b1, b0)
	c2 := less(b3, b2)

	// a/hi01 is the sorted (min,max) of (b0,b1); c/hi23 of (b2,b3).
	a, hi01 := b0, b1
	if c1 {
		a, hi01 = b1, b0
	}
	c, hi23 := b2, b3
	if c2 {
		c, hi23 = b3, b2
	}

	c3 := less(c, a)
	c4 := less(hi23, hi01)

	min := a
	if c3 {
		min = c
	}
	max := hi23
	if c4 {
		max = hi01
	}

	// The two elements not yet placed: whichever of (a,c) wasn't the
	// overall min, and whichever of (hi01,hi23) wasn't the overall max,
	// ordered by the (c3,c4) table so that on a tie the one that came
	// first in base stays first.
	unknownLeft := hi01
	if c3 {
		unknownLeft = a
	} else if c4 {
		unknownLeft = c
	}
	unknownRight := c
	if c4 {
		unknownRight = hi23
	} else if c3 {
		unknownRight = hi01
	}

	c5 := less(unknownRight, unknownLeft)
	lo, hi := unknownLeft, unknownRight
	if c5 {
		lo, hi = unknownRight, unknownLeft
	}

	min.CopyTo(dest.Offset(0))
	lo.CopyTo(dest.Offset(1))
	hi.CopyTo(dest.Offset(2))
	max.CopyTo(dest.Offset(3))
}

// Sort8 sorts the eight elements at base into dest, stably, via two
// Sort4 calls into scratch followed by a bidirectional merge. scratch
// must have room for at least 8 elements and must not alias base or
// dest.
func Sort8(base, dest, scratch blob.Blob, less compare.Less) {
	Sort4(base.Offset(0), scratch.Offset(0), less)
	Sort4(base.Offset(4), scratch.Offset(4), less)
	BidirectionalMerge(scratch, 8, dest, less)
}

// BidirectionalMerge merges the two sorted halves of src (src[:len/2]
// and src[len/2:len]) into dst, stably, advancing two cursors forward
// from the start of each half and two cursors backward from the end of
// each half simultaneously. Ties favor the left half going forward and
// the right half going backward, which is what makes the overall result
// stable regardless of which direction filled a given slot.
func BidirectionalMerge(src blob.Blob, length int, dst blob.Blob, less compare.Less) {
	if length == 0 {
		return
	}
	half := length / 2

	fl, fr := 0, half     // forward cursors, advancing toward the middle
	bl, br := half-1, length-1 // backward cursors, advancing toward the middle
	outF, outB := 0, length-1  // destination cursors

	for i := 0; i < half; i++ {
		left, right := src.Offset(fl), src.Offset(fr)
		if !less(right, left) {
			left.CopyTo(dst.Offset(outF))
			fl++
		} else {
			right.CopyTo(dst.Offset(outF))
			fr++
		}
		outF++

		leftRev, rightRev := src.Offset(bl), src.Offset(br)
		if less(rightRev, leftRev) {
			leftRev.CopyTo(dst.Offset(outB))
			bl--
		} else {
			rightRev.CopyTo(dst.Offset(outB))
			br--
		}
		outB--
	}

	if length%2 != 0 {
		if fl <= bl {
			src.Offset(fl).CopyTo(dst.Offset(outF))
		} else {
			src.Offset(fr).CopyTo(dst.Offset(outF))
		}
	}
}

// InsertTail inserts the element at tail into the already-sorted range
// [begin, tail), shifting larger elements right. tail must immediately
// follow the sorted range (i.e. tail == begin.Offset(n) for some n >= 1).
func InsertTail(begin, tail blob.Blob, less compare.Less) {
	tmp := make([]byte, tail.Size)
	tmpBlob := blob.New(unsafe.Pointer(&tmp[0]), tail.Size)
	tail.CopyTo(tmpBlob)

	gap := tail
	defer func() {
		tmpBlob.CopyTo(gap)
	}()

	cursor := tail.Offset(-1)
	for !blob.Less(cursor, begin) {
		if !less(tmpBlob, cursor) {
			break
		}
		cursor.CopyTo(gap)
		gap = cursor
		cursor = cursor.Offset(-1)
	}
}

// InsertionSortShiftLeft extends the sorted prefix [begin, begin+offset)
// to cover [begin, begin+total), inserting one element at a time.
// Precondition: 0 < offset < total.
func InsertionSortShiftLeft(begin blob.Blob, total, offset int, less compare.Less) {
	for i := offset; i < total; i++ {
		InsertTail(begin, begin.Offset(i), less)
	}
}

// sort4InPlace sorts the four elements at v in place. Sort4 itself
// requires base and dest not to alias, so this routes the result through
// a small stack-local temporary and copies it back, the same gap-buffer
// idiom InsertTail uses above.
func sort4InPlace(v blob.Blob, elemSize uintptr, less compare.Less) {
	tmp := make([]byte, 4*elemSize)
	tmpBlob := blob.New(unsafe.Pointer(&tmp[0]), elemSize)
	Sort4(v, tmpBlob, less)
	blob.CopyRange(v, tmpBlob, 4)
}

// Sort sorts the length<=Threshold elements at base in place, using
// scratch as working space. scratch must have room for at least
// length+16 elements when elemSize<=16 && length>=16 (the two extra
// 8-element regions back the nested Sort8 calls' own scratch), and at
// least length elements otherwise.
func Sort(base blob.Blob, length int, scratch blob.Blob, less compare.Less, elemSize uintptr) {
	if length < 2 {
		return
	}
	half := length / 2
	rightLen := length - half

	var presorted int
	switch {
	case elemSize <= 16 && length >= 16:
		presorted = 8
	case length >= 8:
		presorted = 4
	default:
		presorted = 1
	}

	blob.CopyRange(scratch, base, length)

	switch presorted {
	case 8:
		Sort8(scratch, scratch, scratch.Offset(length), less)
		Sort8(scratch.Offset(half), scratch.Offset(half), scratch.Offset(length+8), less)
	case 4:
		sort4InPlace(scratch, elemSize, less)
		sort4InPlace(scratch.Offset(half), elemSize, less)
	}

	if presorted < half {
		InsertionSortShiftLeft(scratch, half, presorted, less)
	}
	if presorted < rightLen {
		InsertionSortShiftLeft(scratch.Offset(half), rightLen, presorted, less)
	}

	BidirectionalMerge(scratch, length, base, less)
}
