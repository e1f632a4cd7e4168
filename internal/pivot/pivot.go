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

// Package pivot implements the quicksort driver's pivot selection:
// median-of-3 and its recursive pseudo-median-of-sqrt(n) generalization.
package pivot

import (
	"sync"
	"unsafe"

	"github.com/SnellerInc/driftsort/internal/blob"
	"github.com/SnellerInc/driftsort/internal/compare"
	"github.com/dchest/siphash"
)

// MedianOf3 returns the median of the three addressed elements.
func MedianOf3(a, b, c blob.Blob, less compare.Less) blob.Blob {
	x := less(a, b)
	y := less(a, c)
	if x == y {
		if less(b, c) != x {
			return c
		}
		return b
	}
	return a
}

// RecursiveMedianOf3 replaces a, b, c with the recursive median-of-3
// over (base, base+4*(n/8), base+7*(n/8)) of size n/8 when the sample is
// large enough to subdivide further, then takes the median-of-3 of the
// three results.
func RecursiveMedianOf3(a, b, c blob.Blob, n uintptr, less compare.Less) blob.Blob {
	if n*8 >= 64 {
		n8 := n / 8
		a = RecursiveMedianOf3(a, a.Offset(int(4*n8)), a.Offset(int(7*n8)), n8, less)
		b = RecursiveMedianOf3(b, b.Offset(int(4*n8)), b.Offset(int(7*n8)), n8, less)
		c = RecursiveMedianOf3(c, c.Offset(int(4*n8)), c.Offset(int(7*n8)), n8, less)
	}
	return MedianOf3(a, b, c, less)
}

var (
	seedOnce sync.Once
	seed     uint64
)

// salt has no security property; it just keeps processSeed from being a
// trivial function of the canary address alone.
var salt = []byte{0x44, 0x72, 0x69, 0x66, 0x74, 0x53, 0x6f, 0x72, 0x74, 0x21, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// processSeed returns a one-time, per-process 64-bit value derived from
// the address of a stack-local canary. It carries no security property;
// its only purpose is to perturb Choose's otherwise fully
// deterministic sample offsets by a few elements, so an input crafted
// against the exact fixed sampling positions in this source cannot
// reliably defeat median-of-3 pivot selection.
func processSeed() uint64 {
	seedOnce.Do(func() {
		var canary byte
		addr := uint64(uintptr(unsafe.Pointer(&canary)))
		seed = siphash.Hash(addr, 0, salt)
	})
	return seed
}

// Choose selects a pivot index into v[0:n) using median-of-3 sampling
// for small n and the recursive pseudo-median for large n, with a small
// bounded jitter folded into the sample offsets so the exact sampled
// indices are not a pure function of n alone.
func Choose(v blob.Blob, n int, less compare.Less) int {
	n8 := n / 8
	jitter := int(processSeed()%3) - 1 // in {-1, 0, 1}

	lo := 0
	mid := n / 2
	hi := n - 1
	if n8 > 0 {
		mid = clampIndex(4*n8+jitter, n)
		// Capped at n-n8 so the recursive sample taken from hi (which
		// spans at most n8 elements) stays inside v.
		hi = clampIndex(7*n8-jitter, n-n8+1)
	}

	a, b, c := v.Offset(lo), v.Offset(mid), v.Offset(hi)

	var median blob.Blob
	if n < 64 {
		median = MedianOf3(a, b, c, less)
	} else {
		median = RecursiveMedianOf3(a, b, c, uintptr(n8), less)
	}

	return indexOf(v, median)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func indexOf(base, element blob.Blob) int {
	return int((uintptr(element.Ptr) - uintptr(base.Ptr)) / base.Size)
}
