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

package partition

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/SnellerInc/driftsort/internal/blob"
)

type keyed struct {
	key int32
	idx int32
}

func keyedBlob(s []keyed) blob.Blob {
	return blob.New(unsafe.Pointer(&s[0]), unsafe.Sizeof(s[0]))
}

func lessKeyedByKey(a, b blob.Blob) bool {
	return (*keyed)(a.Ptr).key < (*keyed)(b.Ptr).key
}

func TestPartitionKeepsAllData(t *testing.T) {
	for size := 2; size < 200; size++ {
		rand.Seed(int64(size))
		v := make([]keyed, size)
		for i := range v {
			v[i] = keyed{key: int32(rand.Intn(size)), idx: int32(i)}
		}
		scratch := make([]keyed, size)
		pivotPos := size / 2
		pivotKey := v[pivotPos].key

		numLeft := Partition(keyedBlob(v), keyedBlob(scratch), size, pivotPos, false, lessKeyedByKey)

		seen := make([]bool, size)
		for _, e := range v {
			if seen[e.idx] {
				t.Fatalf("size=%d: index %d appeared twice after partition", size, e.idx)
			}
			seen[e.idx] = true
		}
		for i := 0; i < size; i++ {
			if !seen[i] {
				t.Fatalf("size=%d: index %d missing after partition", size, i)
			}
		}
		for i := 0; i < numLeft; i++ {
			if v[i].key >= pivotKey {
				t.Fatalf("size=%d: left element %v not < pivot %d", size, v[i], pivotKey)
			}
		}
		for i := numLeft; i < size; i++ {
			if v[i].key < pivotKey {
				t.Fatalf("size=%d: right element %v < pivot %d", size, v[i], pivotKey)
			}
		}
	}
}

func TestPartitionStableWithinSide(t *testing.T) {
	rand.Seed(7)
	for size := 2; size < 200; size++ {
		v := make([]keyed, size)
		for i := range v {
			v[i] = keyed{key: int32(rand.Intn(4)), idx: int32(i)}
		}
		scratch := make([]keyed, size)
		pivotPos := size / 3
		pivotKey := v[pivotPos].key

		numLeft := Partition(keyedBlob(v), keyedBlob(scratch), size, pivotPos, false, lessKeyedByKey)

		checkRelativeOrder(t, size, v[:numLeft])
		checkRelativeOrder(t, size, v[numLeft:])
		_ = pivotKey
	}
}

// checkRelativeOrder verifies elements sharing the same key keep their
// original relative order within one side of the partition.
func checkRelativeOrder(t *testing.T, size int, side []keyed) {
	byKey := map[int32][]int32{}
	for _, e := range side {
		byKey[e.key] = append(byKey[e.key], e.idx)
	}
	for key, idxs := range byKey {
		for i := 1; i < len(idxs); i++ {
			if idxs[i] < idxs[i-1] {
				t.Fatalf("size=%d: key %d out of relative order: %v", size, key, idxs)
			}
		}
	}
}

func TestPartitionEqualPartition(t *testing.T) {
	rand.Seed(3)
	for size := 2; size < 200; size++ {
		v := make([]keyed, size)
		for i := range v {
			v[i] = keyed{key: 5, idx: int32(i)}
		}
		scratch := make([]keyed, size)
		pivotPos := size / 2

		numLeft := Partition(keyedBlob(v), keyedBlob(scratch), size, pivotPos, true, lessKeyedByKey)
		if numLeft != size {
			t.Fatalf("size=%d: all-equal inverted partition should send everything left, got numLeft=%d", size, numLeft)
		}
		for i := 0; i < size; i++ {
			if v[i].idx != int32(i) {
				t.Fatalf("size=%d: equal partition should be a no-op on order, got %v", size, v)
			}
		}
	}
}

func TestPartitionDegenerateAllSameIndices(t *testing.T) {
	for size := 2; size < 64; size++ {
		v := make([]keyed, size)
		for i := range v {
			v[i] = keyed{key: int32(i), idx: int32(i)}
		}
		scratch := make([]keyed, size)
		numLeft := Partition(keyedBlob(v), keyedBlob(scratch), size, 0, false, lessKeyedByKey)
		if numLeft != 0 {
			t.Fatalf("size=%d: partitioning around the minimum should yield numLeft=0, got %d", size, numLeft)
		}
	}
}
