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

// Package driftsort sorts a contiguous array of fixed-size, type-erased
// elements in place, stably, using a caller-supplied comparator — the
// same contract as the C standard library's qsort/qsort_r, but
// delivering driftsort/glidesort-style adaptive asymptotics: O(n log n)
// worst case, O(n) on already-sorted or reverse-sorted input, and
// O(n log k) when only k distinct values are present.
package driftsort

import (
	"unsafe"

	"github.com/SnellerInc/driftsort/internal/blob"
	"github.com/SnellerInc/driftsort/internal/compare"
	"github.com/SnellerInc/driftsort/internal/driftsort"
	"github.com/SnellerInc/driftsort/internal/heapsort"
	"github.com/SnellerInc/driftsort/internal/smallsort"
	"github.com/SnellerInc/driftsort/ints"
)

// CompareFunc is a three-way comparator: negative if a < b, zero if a
// and b are equivalent, positive if a > b.
type CompareFunc func(a, b unsafe.Pointer) int32

// LessFunc is a strict less-than comparator.
type LessFunc func(a, b unsafe.Pointer) bool

// ContextCompareFunc is the GNU qsort_r comparator flavor:
// compar(a, b, context).
type ContextCompareFunc func(a, b, context unsafe.Pointer) int32

// Debug, when non-nil, is called to report internal engine events that
// are otherwise invisible from the outside: falling back to heap-sort
// because of an over-aligned element or a failed scratch allocation
// (allocateScratch never reports failure, so in practice only the
// over-aligned case fires). Quicksort's recursion-limit exhaustion is
// not reported. It mirrors the plain printf-style logging callback shape
// used elsewhere in this codebase rather than pulling in a structured
// logging dependency; the engine itself never decides to log anything
// beyond these heap-sort fallback points.
var Debug func(format string, args ...interface{})

func debugf(format string, args ...interface{}) {
	if Debug != nil {
		Debug(format, args...)
	}
}

// insertionOnlyThreshold is the element count at and below which the
// entry point sorts via a single insertion-sort-shift-left pass rather
// than entering the quicksort/driftsort machinery at all.
const insertionOnlyThreshold = 20

// maxStackAlignment is the largest element alignment the engine is
// willing to route through the stack-scratch quicksort/driftsort path;
// above this, correctness would require over-aligned heap allocation
// that this module does not attempt, so heap-sort (which needs only a
// single element's worth of swap space) is used instead.
const maxStackAlignment = 32

// eagerSortThreshold bounds how small the top-level driftsort call must
// be for it to eagerly small-sort the gaps between discovered runs
// rather than leaving them as unsorted logical runs.
const eagerSortThreshold = 2 * smallsort.Threshold

// maxScratchBytes caps how much scratch space the entry point will
// consider allocating, regardless of element count.
const maxScratchBytes = 8 * 1024 * 1024

// Sort sorts the nmemb elements of size bytes each, starting at base,
// in place, using compar for ordering. It is a silent no-op when
// size == 0 or nmemb < 2.
func Sort(base unsafe.Pointer, nmemb, size uintptr, compar CompareFunc) {
	run(base, nmemb, size, compare.FromThreeWay(size, guessAlignment(size, base), func(a, b blob.Blob) int32 {
		return compar(a.Ptr, b.Ptr)
	}))
}

// SortFunc sorts the nmemb elements of size bytes each, starting at
// base, in place, using less for ordering. It is a silent no-op when
// size == 0 or nmemb < 2.
func SortFunc(base unsafe.Pointer, nmemb, size uintptr, less LessFunc) {
	run(base, nmemb, size, compare.FromLess(size, guessAlignment(size, base), func(a, b blob.Blob) bool {
		return less(a.Ptr, b.Ptr)
	}))
}

// SortContext sorts the nmemb elements of size bytes each, starting at
// base, in place, using compar(a, b, context) for ordering — the GNU
// qsort_r argument order. It is a silent no-op when size == 0 or
// nmemb < 2.
func SortContext(base unsafe.Pointer, nmemb, size uintptr, compar ContextCompareFunc, context unsafe.Pointer) {
	run(base, nmemb, size, compare.FromThreeWay(size, guessAlignment(size, base), func(a, b blob.Blob) int32 {
		return compar(a.Ptr, b.Ptr, context)
	}))
}

// guessAlignment returns the largest power of two dividing both size
// and the address of base — the same "trailing zero bits of the OR"
// trick the entry point uses in spec.md §4.J to infer an element's
// natural alignment without the caller stating it explicitly.
func guessAlignment(size uintptr, base unsafe.Pointer) uintptr {
	return ints.LargestPowerOfTwoDividing(size, uintptr(base))
}

func run(base unsafe.Pointer, nmemb, size uintptr, cmp compare.Comparator) {
	if size == 0 || nmemb < 2 {
		return
	}

	length := int(nmemb)
	v := blob.New(base, size)

	if length <= insertionOnlyThreshold {
		smallsort.InsertionSortShiftLeft(v, length, 1, cmp.Less)
		return
	}

	if cmp.Alignment > maxStackAlignment {
		debugf("driftsort: element alignment %d exceeds %d, using heap-sort fallback", cmp.Alignment, maxStackAlignment)
		heapsort.Sort(v, length, cmp.Less)
		return
	}

	allocLen := ints.Max(length/2, ints.Min(length, int(maxScratchBytes/size)))
	allocLen = ints.Max(allocLen, smallsort.Threshold+16)

	scratch, ok := allocateScratch(allocLen, cmp)
	if !ok {
		debugf("driftsort: scratch allocation of %d elements failed, using heap-sort fallback", allocLen)
		heapsort.Sort(v, length, cmp.Less)
		return
	}

	eagerSort := length <= eagerSortThreshold
	driftsort.Sort(v, scratch, length, allocLen, eagerSort, cmp.Less, cmp.ElemSize)
}

// allocateScratch returns a Blob with room for n elements of the
// comparator's element size, backed by an ordinary Go slice (playing
// the role of the reference implementation's stack/heap alloca, since
// Go has no portable alloca of its own and the runtime decides for
// itself whether a given make([]byte, ...) call stays on the stack).
// Go's allocator does not fail in the way spec.md anticipates (it
// panics on true exhaustion rather than returning an error), so the
// second return value is always true here — the signature is kept
// bool-returning so the call site's fallback-on-failure shape matches
// spec.md §4.J and §7 exactly, in case a future allocation strategy
// (e.g. a size-limited arena) makes failure observable.
func allocateScratch(n int, cmp compare.Comparator) (blob.Blob, bool) {
	buf := make([]byte, uintptr(n)*cmp.ElemSize+cmp.Padding)
	ptr := unsafe.Pointer(&buf[0])
	if cmp.Padding > 0 {
		addr := ints.AlignUp(uintptr(ptr), cmp.Alignment)
		ptr = unsafe.Pointer(addr)
	}
	return blob.New(ptr, cmp.ElemSize), true
}
