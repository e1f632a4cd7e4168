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

// Package blob provides the fat-pointer primitive the sort engine uses to
// address type-erased elements: a (size, base address) pair plus the
// handful of offset/copy/compare operations every other internal package
// builds on.
package blob

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Blob is a fat pointer to one or more contiguous elements of a fixed
// size. It never owns the memory it points to; callers are responsible
// for the lifetime of the underlying array.
type Blob struct {
	Size uintptr
	Ptr  unsafe.Pointer
}

// New constructs a Blob over an element of the given size at ptr.
func New(ptr unsafe.Pointer, size uintptr) Blob {
	return Blob{Size: size, Ptr: ptr}
}

// Offset returns the Blob n elements ahead (or behind, if n is negative)
// of b. Offset arithmetic is always in element multiples, never bytes.
func (b Blob) Offset(n int) Blob {
	return Blob{Size: b.Size, Ptr: unsafe.Add(b.Ptr, uintptr(n)*b.Size)}
}

// IsNil reports whether b carries a nil base address.
func (b Blob) IsNil() bool {
	return b.Ptr == nil
}

// Less orders two blobs by address. Used only for pointer bookkeeping
// (e.g. the scan-loop bounds in partition and insertion), never as a
// substitute for the user comparator.
func Less(a, b Blob) bool {
	return uintptr(a.Ptr) < uintptr(b.Ptr)
}

// Equal reports whether a and b address the same byte.
func Equal(a, b Blob) bool {
	return a.Ptr == b.Ptr
}

// ElemDiff returns the number of elements between from and to (to must
// be at or after from, within the same array).
func ElemDiff(from, to Blob) int {
	return int((uintptr(to.Ptr) - uintptr(from.Ptr)) / from.Size)
}

var (
	specializeOnce sync.Once
	specializeSmall bool
)

// useSpecializedCopy reports whether the overlapping fixed-width
// load/store path for elements <= 16 bytes should be used on this CPU, as
// opposed to falling back to a plain byte-slice copy. This is a pure
// performance decision: both paths copy identical bytes, and nothing
// downstream of CopyTo observes which one ran.
func useSpecializedCopy() bool {
	specializeOnce.Do(func() {
		specializeSmall = cpu.X86.HasSSE2 || cpu.X86.HasAVX2
	})
	return specializeSmall
}

// CopyTo copies b.Size bytes from b to dst non-overlappingly. Callers
// guarantee b and dst do not alias.
func (b Blob) CopyTo(dst Blob) {
	if b.Size <= 16 && useSpecializedCopy() {
		copySmall(dst.Ptr, b.Ptr, b.Size)
		return
	}
	copyBulk(dst.Ptr, b.Ptr, b.Size)
}

// copySmall copies n<=16 bytes using two overlapping fixed-width
// loads/stores, matching the strategy described for the reference
// implementation's blob primitives: two 8-byte, two 4-byte, two 2-byte,
// or one 1-byte transfer, chosen by the exact size so small copies never
// fall through to a general-purpose loop.
func copySmall(dst, src unsafe.Pointer, n uintptr) {
	switch {
	case n == 0:
		return
	case n >= 8:
		// Two overlapping 8-byte loads/stores cover any 8..16 byte
		// span, including the case n==8 where they fully overlap.
		*(*uint64)(dst) = *(*uint64)(src)
		tailDst := unsafe.Add(dst, n-8)
		tailSrc := unsafe.Add(src, n-8)
		*(*uint64)(tailDst) = *(*uint64)(tailSrc)
	case n >= 4:
		*(*uint32)(dst) = *(*uint32)(src)
		tailDst := unsafe.Add(dst, n-4)
		tailSrc := unsafe.Add(src, n-4)
		*(*uint32)(tailDst) = *(*uint32)(tailSrc)
	case n >= 2:
		*(*uint16)(dst) = *(*uint16)(src)
		tailDst := unsafe.Add(dst, n-2)
		tailSrc := unsafe.Add(src, n-2)
		*(*uint16)(tailDst) = *(*uint16)(tailSrc)
	default:
		*(*uint8)(dst) = *(*uint8)(src)
	}
}

// copyBulk copies n bytes via the general-purpose slice copy path.
func copyBulk(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	dstSlice := unsafe.Slice((*byte)(dst), n)
	srcSlice := unsafe.Slice((*byte)(src), n)
	copy(dstSlice, srcSlice)
}

// Bytes returns a byte-slice view of the single element addressed by b.
// The returned slice aliases the underlying element; mutating it mutates
// the element in place.
func (b Blob) Bytes() []byte {
	return unsafe.Slice((*byte)(b.Ptr), int(b.Size))
}
