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

// Package compare adapts the handful of comparator calling conventions
// the public API accepts (three-way, boolean, and GNU/Apple context
// flavors) into the single strict less-than predicate every internal
// sorting component is written against.
package compare

import "github.com/SnellerInc/driftsort/internal/blob"

// maxFundamentalAlignment is the largest alignment the runtime guarantees
// for an ordinary allocation on the platforms this module targets (the
// width of the widest SSE/vector register word moves operate on).
const maxFundamentalAlignment = 16

// Less is the normalized predicate every internal component is written
// against: a strict, total "a < b" relation over two live element
// addresses.
type Less func(a, b blob.Blob) bool

// Comparator bundles the normalized less-than predicate with the element
// layout facts the engine needs to size scratch buffers and decide
// between stack and heap allocation.
type Comparator struct {
	Less      Less
	ElemSize  uintptr
	Alignment uintptr

	// Padding is the extra bytes a stack-allocated scratch buffer must
	// reserve, beyond ElemSize*count, in order to be re-aligned up to
	// Alignment after allocation.
	Padding uintptr
}

// FromThreeWay builds a Comparator from a three-way callback (negative
// means a < b), the shape the C qsort/qsort_r family uses.
func FromThreeWay(elemSize, alignment uintptr, compar func(a, b blob.Blob) int32) Comparator {
	return newComparator(elemSize, alignment, func(a, b blob.Blob) bool {
		return compar(a, b) < 0
	})
}

// FromLess builds a Comparator directly from a boolean less-than
// callback.
func FromLess(elemSize, alignment uintptr, less func(a, b blob.Blob) bool) Comparator {
	return newComparator(elemSize, alignment, less)
}

func newComparator(elemSize, alignment uintptr, less Less) Comparator {
	padding := uintptr(0)
	if alignment > maxFundamentalAlignment {
		padding = alignment - maxFundamentalAlignment
	}
	return Comparator{
		Less:      less,
		ElemSize:  elemSize,
		Alignment: alignment,
		Padding:   padding,
	}
}
