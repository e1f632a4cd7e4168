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

package smallsort

import (
	"math/rand"
	"sort"
	"testing"
	"unsafe"

	"github.com/SnellerInc/driftsort/internal/blob"
)

type keyed struct {
	key int32
	idx int32
}

func int32Blob(s []int32) blob.Blob {
	return blob.New(unsafe.Pointer(&s[0]), unsafe.Sizeof(s[0]))
}

func keyedBlob(s []keyed) blob.Blob {
	return blob.New(unsafe.Pointer(&s[0]), unsafe.Sizeof(s[0]))
}

func lessInt32(a, b blob.Blob) bool {
	return *(*int32)(a.Ptr) < *(*int32)(b.Ptr)
}

func lessKeyedByKey(a, b blob.Blob) bool {
	return (*keyed)(a.Ptr).key < (*keyed)(b.Ptr).key
}

func isSortedInt32(s []int32) bool {
	return sort.SliceIsSorted(s, func(i, j int) bool { return s[i] < s[j] })
}

func TestSort4AllPermutations(t *testing.T) {
	base := []int32{0, 1, 2, 3}
	perm := make([]int, 4)
	var permute func(int)
	check := func() {
		in := make([]int32, 4)
		for i, p := range perm {
			in[i] = base[p]
		}
		out := make([]int32, 4)
		Sort4(int32Blob(in), int32Blob(out), lessInt32)
		if !isSortedInt32(out) {
			t.Fatalf("Sort4(%v) = %v, not sorted", in, out)
		}
	}
	used := make([]bool, 4)
	permute = func(depth int) {
		if depth == 4 {
			check()
			return
		}
		for i := 0; i < 4; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			perm[depth] = i
			permute(depth + 1)
			used[i] = false
		}
	}
	permute(0)
}

func TestSort4Stable(t *testing.T) {
	in := []keyed{{1, 0}, {1, 1}, {0, 2}, {1, 3}}
	out := make([]keyed, 4)
	Sort4(keyedBlob(in), keyedBlob(out), lessKeyedByKey)
	wantIdx := []int32{2, 0, 1, 3}
	for i, w := range wantIdx {
		if out[i].idx != w {
			t.Fatalf("out[%d].idx = %d, want %d (full: %v)", i, out[i].idx, w, out)
		}
	}
}

func TestSort8(t *testing.T) {
	rand.Seed(0)
	for trial := 0; trial < 200; trial++ {
		in := make([]int32, 8)
		for i := range in {
			in[i] = int32(rand.Intn(20))
		}
		out := make([]int32, 8)
		scratch := make([]int32, 8)
		Sort8(int32Blob(in), int32Blob(out), int32Blob(scratch), lessInt32)
		if !isSortedInt32(out) {
			t.Fatalf("Sort8(%v) = %v, not sorted", in, out)
		}
	}
}

func TestBidirectionalMergeEmpty(t *testing.T) {
	var out [1]int32
	BidirectionalMerge(blob.Blob{}, 0, int32Blob(out[:]), lessInt32)
}

func TestBidirectionalMergeOddLength(t *testing.T) {
	src := []int32{2, 4, 1, 3, 5}
	out := make([]int32, 5)
	BidirectionalMerge(int32Blob(src), 5, int32Blob(out), lessInt32)
	if !isSortedInt32(out) {
		t.Fatalf("merge result %v not sorted", out)
	}
}

func TestInsertionSortShiftLeft(t *testing.T) {
	rand.Seed(1)
	for size := 2; size < 40; size++ {
		s := make([]int32, size)
		for i := range s {
			s[i] = int32(rand.Intn(50))
		}
		scratch := make([]int32, size)
		copy(scratch, s)
		InsertionSortShiftLeft(int32Blob(scratch), size, 1, lessInt32)
		if !isSortedInt32(scratch) {
			t.Fatalf("size=%d: %v not sorted", size, scratch)
		}
	}
}

func TestSortAtAndBelowThreshold(t *testing.T) {
	rand.Seed(2)
	for size := 0; size <= Threshold; size++ {
		s := make([]int32, size)
		for i := range s {
			s[i] = int32(rand.Intn(size + 1))
		}
		want := make([]int32, size)
		copy(want, s)
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

		scratch := make([]int32, size+16)
		var base blob.Blob
		if size > 0 {
			base = int32Blob(s)
		}
		Sort(base, size, int32Blob(scratch), lessInt32, 4)
		for i := 0; i < size; i++ {
			if s[i] != want[i] {
				t.Fatalf("size=%d: got %v want %v", size, s, want)
			}
		}
	}
}

// TestSortPresorted4Aliasing locks in a specific regression: presorted==4
// in the dispatcher must not sort its two four-element groups in place
// over the same memory Sort4 reads from (Sort4's base and dest may not
// alias), since doing so silently corrupts non-trivial orderings.
func TestSortPresorted4Aliasing(t *testing.T) {
	s := []int32{8, 36, 48, 4, 16, 7, 31, 48}
	want := []int32{4, 7, 8, 16, 31, 36, 48, 48}
	scratch := make([]int32, len(s)+16)
	Sort(int32Blob(s), len(s), int32Blob(scratch), lessInt32, 4)
	if !isSortedInt32(s) || s[0] != want[0] {
		t.Fatalf("got %v, want %v", s, want)
	}
	for i := range want {
		if s[i] != want[i] {
			t.Fatalf("got %v, want %v", s, want)
		}
	}
}

func TestSortStable(t *testing.T) {
	in := []keyed{{1, 0}, {2, 1}, {1, 2}, {2, 3}, {1, 4}}
	scratch := make([]keyed, len(in)+16)
	Sort(keyedBlob(in), len(in), keyedBlob(scratch), lessKeyedByKey, 8)
	wantIdx := []int32{0, 2, 4, 1, 3}
	for i, w := range wantIdx {
		if in[i].idx != w {
			t.Fatalf("in[%d].idx = %d, want %d (full: %v)", i, in[i].idx, w, in)
		}
	}
}
