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

// Package merge implements the bidirectional in-place merge used to join
// two adjacent sorted runs: the shorter half is saved off to scratch,
// and a guard guarantees whatever remains of it is written back to v on
// every exit path, however the merge loop terminates.
package merge

import (
	"github.com/SnellerInc/driftsort/internal/blob"
	"github.com/SnellerInc/driftsort/internal/compare"
)

// state tracks the three cursors a merge needs: the still-unconsumed
// range of the scratch-saved half ([start, end)) and the destination
// cursor (dest) that the save-buffer guard writes its leftovers to on
// exit, wherever the merge loop left it.
type state struct {
	start, end, dest blob.Blob
}

func (s *state) flush() {
	n := blob.ElemDiff(s.start, s.end)
	blob.CopyRange(s.dest, s.start, n)
}

func offsetBool(b blob.Blob, cond bool) blob.Blob {
	if cond {
		return b.Offset(1)
	}
	return b
}

// mergeUp runs when the left half was the shorter one (and so is the one
// saved to scratch): it walks the saved copy forward via s.start and the
// untouched right half forward via right, writing through s.dest, until
// one side is exhausted. Ties favor the saved (left) side, preserving
// stability.
func mergeUp(s *state, right, rightEnd blob.Blob, less compare.Less) {
	left := s.start
	out := s.dest
	for !blob.Equal(left, s.end) && !blob.Equal(right, rightEnd) {
		consumeLeft := !less(right, left)
		src := right
		if consumeLeft {
			src = left
		}
		src.CopyTo(out)
		left = offsetBool(left, consumeLeft)
		right = offsetBool(right, !consumeLeft)
		out = out.Offset(1)
	}
	s.start = left
	s.dest = out
}

// mergeDown runs when the right half was the shorter one (saved to
// scratch): it walks the untouched left half backward from leftEnd's
// side and the saved copy backward via s.end, writing backward through
// out, until one side is exhausted. Ties favor the scratch-saved
// (right) side, which is what keeps the merge stable overall once
// combined with mergeUp's left-favoring tie-break.
func mergeDown(s *state, leftEnd, rightEnd, out blob.Blob, less compare.Less) {
	for {
		left := s.dest.Offset(-1)
		right := s.end.Offset(-1)
		out = out.Offset(-1)

		consumeLeft := less(right, left)
		src := right
		if consumeLeft {
			src = left
		}
		src.CopyTo(out)

		s.dest = offsetBool(left, !consumeLeft)
		s.end = offsetBool(right, consumeLeft)

		if blob.Equal(s.dest, leftEnd) || blob.Equal(s.end, rightEnd) {
			break
		}
	}
}

// Merge merges the sorted runs v[0:mid) and v[mid:length) into v,
// stably, using scratch as temporary storage. Only the shorter half is
// saved, so scratch must have room for at least min(mid, length-mid)
// elements; if it doesn't, or mid is 0 or length, Merge is a no-op (the
// caller is expected to have sized scratch so this never happens on the
// hot path).
func Merge(v, scratch blob.Blob, length, mid, scratchLen int, less compare.Less) {
	if mid == 0 || mid >= length {
		return
	}
	leftLen := mid
	rightLen := length - mid
	if scratchLen < leftLen && scratchLen < rightLen {
		return
	}

	vMid := v.Offset(mid)
	vEnd := v.Offset(length)

	leftIsShorter := leftLen <= rightLen
	saveBase := v
	saveLen := leftLen
	if !leftIsShorter {
		saveBase = vMid
		saveLen = rightLen
	}
	blob.CopyRange(scratch, saveBase, saveLen)

	st := &state{start: scratch, end: scratch.Offset(saveLen), dest: saveBase}
	defer st.flush()

	if leftIsShorter {
		mergeUp(st, vMid, vEnd, less)
	} else {
		mergeDown(st, v, scratch, vEnd, less)
	}
}
