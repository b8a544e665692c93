// Copyright (C) 2026 pyvm contributors.
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

package object

// LayoutID identifies a concrete object shape. It is not a type: a type
// may have several layouts, one per distinct in-object attribute set.
// LayoutID is always representable as a pre-shifted SmallInt so cache
// code can compare it against a cache key with no conversion.
type LayoutID int32

// AsSmallInt returns id pre-shifted into small-integer form.
func (id LayoutID) AsSmallInt() Object { return NewSmallInt(int64(id)) }

// LayoutIDFromSmallInt is the inverse of AsSmallInt, used when reading a
// cache key back out of the caches tuple.
func LayoutIDFromSmallInt(o Object) LayoutID { return LayoutID(SmallInt(o)) }

// ObjectFormat distinguishes the physical shape of a heap object's body:
// plain instance attributes, bytes-like payload, boxed word (int/float),
// or a variable-length tuple of Objects.
type ObjectFormat uint8

const (
	FormatObjects ObjectFormat = iota // instance: N Object-sized attribute slots
	FormatBytes                       // byte payload (str/bytes large form)
	FormatWord                        // a single boxed machine word (LargeInt limb, float)
	FormatTuple                       // variable-length Object array
)

// header is the 8-byte word every heap object begins with:
//
//	bits [0:20)  layout id
//	bits [20:23) object format
//	bits [23:33) attribute/element count (0x3FF means "see overflow word")
//	bit  33      count-overflow flag
//	bits [34:64) hash code (30 bits; 0 means "not yet computed")
type header uint64

const (
	headerLayoutBits = 20
	headerLayoutMask = 1<<headerLayoutBits - 1

	headerFormatShift = headerLayoutBits
	headerFormatBits  = 3
	headerFormatMask  = 1<<headerFormatBits - 1

	headerCountShift = headerFormatShift + headerFormatBits
	headerCountBits  = 10
	headerCountMask  = 1<<headerCountBits - 1
	headerCountOverflowSentinel = headerCountMask

	headerOverflowFlagShift = headerCountShift + headerCountBits

	headerHashShift = headerOverflowFlagShift + 1
)

// MakeHeader builds a heap object header. If count does not fit in the
// 10-bit inline field, the overflow flag is set and the real count must
// be stored by the caller in the word immediately following the header.
func MakeHeader(layout LayoutID, format ObjectFormat, count int, hash uint32) header {
	h := header(uint64(layout)&headerLayoutMask) |
		header(uint64(format)&headerFormatMask)<<headerFormatShift
	if count >= headerCountOverflowSentinel {
		h |= header(headerCountOverflowSentinel) << headerCountShift
		h |= 1 << headerOverflowFlagShift
	} else {
		h |= header(uint64(count)&headerCountMask) << headerCountShift
	}
	h |= header(uint64(hash)&(1<<30-1)) << headerHashShift
	return h
}

// Layout extracts the layout id from a header word.
func (h header) Layout() LayoutID { return LayoutID(uint64(h) & headerLayoutMask) }

// Format extracts the object-format tag.
func (h header) Format() ObjectFormat {
	return ObjectFormat(uint64(h) >> headerFormatShift & headerFormatMask)
}

// CountOverflowed reports whether the real attribute/element count lives
// in the overflow word that follows the header rather than inline.
func (h header) CountOverflowed() bool { return uint64(h)>>headerOverflowFlagShift&1 != 0 }

// InlineCount returns the inline count field; callers must check
// CountOverflowed first and consult the overflow word if set.
func (h header) InlineCount() int { return int(uint64(h) >> headerCountShift & headerCountMask) }

// Hash returns the cached hash code, or 0 if not yet computed.
func (h header) Hash() uint32 { return uint32(uint64(h) >> headerHashShift) }

// WithHash returns a copy of h with its hash field set.
func (h header) WithHash(hash uint32) header {
	return h&^(header(1<<30-1)<<headerHashShift) | header(uint64(hash)&(1<<30-1))<<headerHashShift
}

// LayoutIDOf returns the layout id of any Object, immediate or heap. This
// is the single entry point cache code should use: it never needs to
// branch on heap-vs-immediate itself.
//
// Heap objects report the layout id from their header. Immediates report
// one of a small set of reserved negative layout ids, one per immediate
// family, so that a monomorphic cache entry keyed on an immediate family
// still round-trips through LayoutID.AsSmallInt/LayoutIDFromSmallInt.
func LayoutIDOf(o Object, headerOf func(Object) header) LayoutID {
	switch {
	case IsHeapObject(o):
		return headerOf(o).Layout()
	case IsSmallInt(o):
		return LayoutSmallInt
	case IsBool(o):
		return LayoutBool
	case IsSmallStr(o):
		return LayoutSmallStr
	case IsSmallBytes(o):
		return LayoutSmallBytes
	case o == None:
		return LayoutNoneType
	case o == NotImplemented:
		return LayoutNotImplementedType
	case o == Unbound:
		return LayoutUnbound
	default:
		return LayoutError
	}
}

// Reserved layout ids for immediate families. Negative so they can never
// collide with a heap layout id allocated by the (out of scope) type
// system, which hands out small non-negative ids.
const (
	LayoutSmallInt LayoutID = -1 - iota
	LayoutBool
	LayoutSmallStr
	LayoutSmallBytes
	LayoutNoneType
	LayoutNotImplementedType
	LayoutUnbound
	LayoutError
)
