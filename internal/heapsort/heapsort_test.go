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

package heapsort

import (
	"math/rand"
	"sort"
	"testing"
	"unsafe"

	"github.com/SnellerInc/driftsort/internal/blob"
)

func int32Blob(s []int32) blob.Blob {
	return blob.New(unsafe.Pointer(&s[0]), unsafe.Sizeof(s[0]))
}

func lessInt32(a, b blob.Blob) bool {
	return *(*int32)(a.Ptr) < *(*int32)(b.Ptr)
}

func TestSortRandom(t *testing.T) {
	rand.Seed(0)
	for size := 0; size < 300; size++ {
		s := make([]int32, size)
		for i := range s {
			s[i] = int32(rand.Intn(size + 1))
		}
		want := make([]int32, size)
		copy(want, s)
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

		var b blob.Blob
		if size > 0 {
			b = int32Blob(s)
		}
		Sort(b, size, lessInt32)
		for i := range s {
			if s[i] != want[i] {
				t.Fatalf("size=%d: got %v want %v", size, s, want)
			}
		}
	}
}

func TestSortAlreadySorted(t *testing.T) {
	s := []int32{1, 2, 3, 4, 5, 6, 7, 8}
	Sort(int32Blob(s), len(s), lessInt32)
	for i, v := range s {
		if v != int32(i+1) {
			t.Fatalf("already-sorted input changed: %v", s)
		}
	}
}

func TestSortDescending(t *testing.T) {
	s := []int32{8, 7, 6, 5, 4, 3, 2, 1}
	Sort(int32Blob(s), len(s), lessInt32)
	for i, v := range s {
		if v != int32(i+1) {
			t.Fatalf("got %v, want ascending", s)
		}
	}
}

type keyIdx struct {
	key int32
	idx int32
}

func keyIdxBlob(s []keyIdx) blob.Blob {
	return blob.New(unsafe.Pointer(&s[0]), unsafe.Sizeof(s[0]))
}

func lessKeyIdx(a, b blob.Blob) bool {
	return (*keyIdx)(a.Ptr).key < (*keyIdx)(b.Ptr).key
}

// TestSortStable locks in that the sift-down fallback preserves relative
// order among comparator-equal elements, the same as every other sort
// strategy in this engine.
func TestSortStable(t *testing.T) {
	rand.Seed(1)
	for size := 2; size < 300; size += 3 {
		s := make([]keyIdx, size)
		for i := range s {
			s[i] = keyIdx{key: int32(rand.Intn(8)), idx: int32(i)}
		}
		Sort(keyIdxBlob(s), size, lessKeyIdx)

		byKey := map[int32][]int32{}
		for i := 1; i < size; i++ {
			if s[i].key < s[i-1].key {
				t.Fatalf("size=%d: not sorted: %v", size, s)
			}
		}
		for _, e := range s {
			byKey[e.key] = append(byKey[e.key], e.idx)
		}
		for key, idxs := range byKey {
			for i := 1; i < len(idxs); i++ {
				if idxs[i] < idxs[i-1] {
					t.Fatalf("size=%d key=%d: relative order broken: %v", size, key, idxs)
				}
			}
		}
	}
}
