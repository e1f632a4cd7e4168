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

// Package driftsort implements the top-level merge-tree driver described
// in "Nearly-Optimal Mergesorts" (Munro & Wild): it discovers runs of
// already-sorted (or reverse-sorted) input left to right, sorts the gaps
// between them (small-sorting them at once in eager mode, otherwise
// keeping them as unsorted runs that are quicksorted when merged), and
// merges
// adjacent runs in an order chosen to approximate the optimal merge
// tree for the run-length sequence actually observed. It is the
// fallback the quicksort driver hands off to once its recursion budget
// is exhausted, and the entry point the public API calls first.
package driftsort

import (
	"unsafe"

	"github.com/SnellerInc/driftsort/internal/blob"
	"github.com/SnellerInc/driftsort/internal/compare"
	"github.com/SnellerInc/driftsort/internal/merge"
	"github.com/SnellerInc/driftsort/internal/quicksort"
	"github.com/SnellerInc/driftsort/internal/smallsort"
	"github.com/SnellerInc/driftsort/ints"
)

// minSqrtRunLen bounds how aggressively create_run looks for a
// pre-existing run: below this size, a sqrt(n)-based threshold would be
// too small to be worth the scan, so a straight fraction of the
// remaining length is used instead.
const minSqrtRunLen = 64

// recursionLimit seeds stable_quicksort's depth budget at roughly
// c*log2(length), matching the reference driver's "bit_width(2*(n|1))"
// bound, which is generous enough to never trip on ordinary inputs
// while still bounding the worst case.
func recursionLimit(length int) int {
	return ints.BitWidth64(uint64(2 * (length | 1)))
}

// StableQuicksort runs the pattern-defeating quicksort driver over
// v[0:length), falling back to this package's merge-tree Sort once its
// recursion budget is exhausted.
func StableQuicksort(v, scratch blob.Blob, length, scratchLen int, less compare.Less, elemSize uintptr) {
	limit := recursionLimit(length)
	fallback := func(v, scratch blob.Blob, length, scratchLen int, eagerSort bool, less compare.Less) {
		sortEager(v, length, scratch, scratchLen, eagerSort, less, elemSize)
	}
	quicksort.Sort(v, scratch, length, scratchLen, limit, blob.Blob{}, less, elemSize, fallback)
}

// runState records a run's length together with whether that run is
// already sorted, as two separate fields.
type runState struct {
	lengthVal int
	sorted    bool
}

func sortedRun(length int) runState   { return runState{lengthVal: length, sorted: true} }
func unsortedRun(length int) runState { return runState{lengthVal: length, sorted: false} }
func (r runState) isSorted() bool     { return r.sorted }
func (r runState) length() int        { return r.lengthVal }

// findExistingRun scans forward from the start of v[0:length) for a run
// that is already sorted (non-decreasing) or strictly descending, and
// returns its length plus whether it was descending.
func findExistingRun(v blob.Blob, length int, less compare.Less) (runLength int, descending bool) {
	if length < 2 {
		return length, false
	}
	runLength = 2
	descending = less(v.Offset(1), v.Offset(0))
	if descending {
		for runLength < length && less(v.Offset(runLength), v.Offset(runLength-1)) {
			runLength++
		}
	} else {
		for runLength < length && !less(v.Offset(runLength), v.Offset(runLength-1)) {
			runLength++
		}
	}
	return runLength, descending
}

// reverseRange reverses the first length elements of v in place.
func reverseRange(v blob.Blob, length int, elemSize uintptr) {
	tmp := make([]byte, elemSize)
	tmpBlob := blob.New(unsafe.Pointer(&tmp[0]), elemSize)
	for i := 0; i < length/2; i++ {
		a := v.Offset(i)
		b := v.Offset(length - 1 - i)
		a.CopyTo(tmpBlob)
		b.CopyTo(a)
		tmpBlob.CopyTo(b)
	}
}

// createRun produces the next logical run starting at v[0:length). If a
// pre-existing (ascending or descending) run at least minGoodRunLen long
// is found, it is returned sorted in place (reversing it first if it
// was descending). Otherwise, when eagerSort is set, a prefix of up to
// the small-sort threshold is sorted outright and returned sorted;
// when eagerSort is clear, an unsorted run of up to minGoodRunLen is
// returned instead, deferring the sort to the eventual quicksort pass
// over the merged range.
func createRun(v blob.Blob, length int, scratch blob.Blob, scratchLen, minGoodRunLen int, eagerSort bool, less compare.Less, elemSize uintptr) runState {
	if length >= minGoodRunLen {
		runLength, descending := findExistingRun(v, length, less)
		if runLength >= minGoodRunLen {
			if descending {
				reverseRange(v, runLength, elemSize)
			}
			return sortedRun(runLength)
		}
	}

	if eagerSort {
		eagerLen := ints.Min(length, smallsort.Threshold)
		smallsort.Sort(v, eagerLen, scratch, less, elemSize)
		return sortedRun(eagerLen)
	}

	return unsortedRun(ints.Min(length, minGoodRunLen))
}

// logicalMerge merges the adjacent runs left and right (together
// spanning v[0:length)) into one sorted run, quicksorting whichever
// side isn't already sorted first. When the combined length fits in the
// available scratch and both sides are still unsorted, the merge is
// deferred: the combined range is reported unsorted and left for a
// later merge (or the final quicksort pass) to handle.
func logicalMerge(v blob.Blob, length int, scratch blob.Blob, scratchLen int, left, right runState, less compare.Less, elemSize uintptr) runState {
	fitsInScratch := length <= scratchLen
	if !fitsInScratch || left.isSorted() || right.isSorted() {
		if !left.isSorted() {
			StableQuicksort(v, scratch, left.length(), scratchLen, less, elemSize)
		}
		if !right.isSorted() {
			StableQuicksort(v.Offset(left.length()), scratch, length-left.length(), scratchLen, less, elemSize)
		}
		merge.Merge(v, scratch, length, left.length(), scratchLen, less)
		return sortedRun(length)
	}
	return unsortedRun(length)
}

// mergeTreeScaleFactor returns the fixed-point scaling factor that lets
// mergeTreeDepth find the most significant differing bit of two
// midpoints via multiplication instead of a floating-point division by
// n, rescaling the conceptual [0,1) number line to [0, 2^62).
func mergeTreeScaleFactor(n int) uint64 {
	n64 := uint64(n)
	return ((uint64(1) << 62) + n64 - 1) / n64
}

// mergeTreeDepth returns the desired binary-merge-tree depth of the
// split point between the adjacent runs [left,mid) and [mid,right), per
// Munro & Wild: the depth is the number of leading bits the two
// (rescaled) midpoints share, found via the leading-zero count of their
// XOR.
func mergeTreeDepth(left, mid, right int, scaleFactor uint64) uint8 {
	x := scaleFactor * uint64(left+mid)
	y := scaleFactor * uint64(mid+right)
	return uint8(ints.CountLeadingZeros64(x ^ y))
}

// stackEntry is one level of the bounded merge-tree stack: a pending
// run together with its desired merge-tree depth.
type stackEntry struct {
	run   runState
	depth uint8
}

// Sort runs the driftsort merge-tree driver over v[0:length), using
// scratch (capacity scratchLen) as merge working space. When eagerSort
// is set, gaps between discovered runs are small-sorted immediately, in
// chunks of up to smallsort.Threshold elements, as they're discovered
// (used when this driver is itself a quicksort fallback, where the
// caller has already committed to finishing the sort here, and by the
// entry point for short inputs); when clear, gaps are left as unsorted logical runs for as
// long as possible, which is cheaper when most of the input turns out
// to already consist of long runs.
func Sort(v, scratch blob.Blob, length, scratchLen int, eagerSort bool, less compare.Less, elemSize uintptr) {
	sortEager(v, length, scratch, scratchLen, eagerSort, less, elemSize)
}

func sortEager(v blob.Blob, length int, scratch blob.Blob, scratchLen int, eagerSort bool, less compare.Less, elemSize uintptr) {
	if length < 2 {
		return
	}
	scaleFactor := mergeTreeScaleFactor(length)

	minGoodRunLen := ints.ApproxSqrt(uint64(length))
	if length <= minSqrtRunLen*minSqrtRunLen {
		minGoodRunLen = uint64(ints.Min(length-length/2, minSqrtRunLen))
	}

	var stack [66]stackEntry
	stackLen := 0

	scanIdx := 0
	prevRun := sortedRun(0)

	for {
		var nextRun runState
		var desiredDepth uint8
		if scanIdx < length {
			nextRun = createRun(v.Offset(scanIdx), length-scanIdx, scratch, scratchLen, int(minGoodRunLen), eagerSort, less, elemSize)
			desiredDepth = mergeTreeDepth(scanIdx-prevRun.length(), scanIdx, scanIdx+nextRun.length(), scaleFactor)
		} else {
			nextRun = sortedRun(0)
			desiredDepth = 0
		}

		for stackLen > 1 && stack[stackLen-1].depth >= desiredDepth {
			left := stack[stackLen-1].run
			mergeLength := left.length() + prevRun.length()
			mergeStartIndex := scanIdx - mergeLength
			mergeStart := v.Offset(mergeStartIndex)
			prevRun = logicalMerge(mergeStart, mergeLength, scratch, scratchLen, left, prevRun, less, elemSize)
			stackLen--
		}

		stack[stackLen] = stackEntry{run: prevRun, depth: desiredDepth}
		stackLen++

		if scanIdx >= length {
			break
		}
		scanIdx += nextRun.length()
		prevRun = nextRun
	}

	if !prevRun.isSorted() {
		StableQuicksort(v, scratch, length, scratchLen, less, elemSize)
	}
}
