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

package driftsort

import "unsafe"

// ContextCompareFuncBSD is the BSD/Apple qsort_r comparator flavor:
// compar(context, a, b), as opposed to the GNU order used by
// ContextCompareFunc.
type ContextCompareFuncBSD func(context, a, b unsafe.Pointer) int32

// SortContextBSD sorts the nmemb elements of size bytes each, starting
// at base, in place, using compar(context, a, b) for ordering — the
// BSD/Apple qsort_r argument order (context precedes the comparator in
// the parameter list, and precedes a and b in the callback). It is a
// silent no-op when size == 0 or nmemb < 2.
//
// Unlike the C library, where choosing between the GNU and BSD flavors
// is a single build-time decision baked into the platform's libc, both
// orderings are available here as distinct functions: callers pick
// whichever matches the calling convention they need to interoperate
// with.
func SortContextBSD(base unsafe.Pointer, nmemb, size uintptr, compar ContextCompareFuncBSD, context unsafe.Pointer) {
	SortContext(base, nmemb, size, func(a, b, ctx unsafe.Pointer) int32 {
		return compar(ctx, a, b)
	}, context)
}
