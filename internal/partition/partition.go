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

// Package partition implements the quicksort driver's branchless stable
// partition: a single forward scan that writes each element to either
// the growing left prefix or the growing (reversed) right suffix of a
// scratch buffer, with no data-dependent branch in the inner loop.
package partition

import (
	"github.com/SnellerInc/driftsort/internal/blob"
	"github.com/SnellerInc/driftsort/internal/compare"
)

// state carries the two scratch write cursors across calls to once, the
// branchless core of the partition.
type state struct {
	scan       blob.Blob
	scratch    blob.Blob
	scratchRev blob.Blob
	numLeft    int
}

// once writes the current scan element to the left or right side of
// scratch depending on towardsLeft and advances scan. Both candidate
// destinations are always computed, and towardsLeft selects one of them
// by a conditional assignment.
func (s *state) once(towardsLeft bool) {
	s.scratchRev = s.scratchRev.Offset(-1)
	dst := s.scratch
	if !towardsLeft {
		dst = s.scratchRev
	}
	dst = dst.Offset(s.numLeft)
	s.scan.CopyTo(dst)
	if towardsLeft {
		s.numLeft++
	}
	s.scan = s.scan.Offset(1)
}

// Partition partitions v[0:length) around the pivot at v[pivotPos],
// writing the permutation into scratch (which must have room for at
// least length elements) and copying it back into v. It returns the
// number of elements that ended up on the left.
//
// When inverted is false, elements comparing strictly less than the
// pivot go left (the pivot itself goes right). When inverted is true,
// elements comparing strictly greater than the pivot go right and
// everything else — including the pivot and all elements equal to it —
// goes left; this is the "equal partition" used to strip a band of
// pivot-equal elements out of the middle in one pass.
//
// The partition is stable: within each side, elements retain their
// original relative order.
func Partition(v, scratch blob.Blob, length, pivotPos int, inverted bool, less compare.Less) int {
	pivotGoesLeft := inverted
	pivot := v.Offset(pivotPos)

	predicate := func(x blob.Blob) bool {
		if inverted {
			return !less(pivot, x)
		}
		return less(x, pivot)
	}

	st := &state{
		scan:       v,
		scratch:    scratch,
		scratchRev: scratch.Offset(length),
	}

	loopEndPos := pivotPos
	for {
		const unroll = 4
		unrollEnd := v.Offset(saturatingSub(loopEndPos, unroll-1))
		for blob.Less(st.scan, unrollEnd) {
			for i := 0; i < unroll; i++ {
				st.once(predicate(st.scan))
			}
		}

		loopEnd := v.Offset(loopEndPos)
		for blob.Less(st.scan, loopEnd) {
			st.once(predicate(st.scan))
		}

		if loopEndPos == length {
			break
		}

		st.once(pivotGoesLeft)
		loopEndPos = length
	}

	blob.CopyRange(v, scratch, st.numLeft)
	rightLen := length - st.numLeft
	for i := 0; i < rightLen; i++ {
		scratch.Offset(length - 1 - i).CopyTo(v.Offset(st.numLeft + i))
	}

	return st.numLeft
}

func saturatingSub(a, b int) int {
	if a < b {
		return 0
	}
	return a - b
}
