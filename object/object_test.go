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

import "testing"

func TestSmallIntRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)}
	for _, v := range cases {
		o := NewSmallInt(v)
		if !IsSmallInt(o) {
			t.Fatalf("NewSmallInt(%d) not tagged as small int", v)
		}
		if IsHeapObject(o) {
			t.Fatalf("NewSmallInt(%d) tagged as heap", v)
		}
		if got := SmallInt(o); got != v {
			t.Fatalf("SmallInt(NewSmallInt(%d)) = %d", v, got)
		}
	}
}

func TestHeapTagExcludesSmallInt(t *testing.T) {
	a := NewArena()
	h := a.Alloc(&HeapObject{Head: MakeHeader(7, FormatObjects, 2, 0)})
	if !IsHeapObject(h) {
		t.Fatal("allocated object not tagged as heap")
	}
	if IsSmallInt(h) {
		t.Fatal("heap object misidentified as small int")
	}
	if IsImmediate(h) {
		t.Fatal("heap object misidentified as immediate by IsImmediate")
	}
}

func TestIsImmediateCoversNonHeap(t *testing.T) {
	for _, o := range []Object{NewSmallInt(5), Bool(true), None, NotImplemented, Unbound, NewSmallStr("hi")} {
		if !IsImmediate(o) {
			t.Fatalf("%#x: expected IsImmediate", uint64(o))
		}
	}
}

func TestBoolRoundTrip(t *testing.T) {
	if !IsBool(Bool(true)) || !BoolValue(Bool(true)) {
		t.Fatal("Bool(true) round trip failed")
	}
	if !IsBool(Bool(false)) || BoolValue(Bool(false)) {
		t.Fatal("Bool(false) round trip failed")
	}
}

func TestSmallStrRoundTrip(t *testing.T) {
	s := "abcdefg"
	o := NewSmallStr(s)
	if !IsSmallStr(o) || IsSmallBytes(o) {
		t.Fatal("small string misclassified")
	}
	if got := string(SmallStrValue(o)); got != s {
		t.Fatalf("SmallStrValue = %q, want %q", got, s)
	}
}

func TestSmallBytesRoundTrip(t *testing.T) {
	b := []byte{1, 2, 3, 255}
	o := NewSmallBytes(b)
	if !IsSmallBytes(o) || IsSmallStr(o) {
		t.Fatal("small bytes misclassified")
	}
	got := SmallStrValue(o)
	if len(got) != len(b) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(b))
	}
	for i := range b {
		if got[i] != b[i] {
			t.Fatalf("byte %d: got %d want %d", i, got[i], b[i])
		}
	}
}

func TestErrorSentinels(t *testing.T) {
	if !IsErrorException(ErrException) {
		t.Fatal("ErrException not recognized")
	}
	if IsErrorException(ErrNotFound) {
		t.Fatal("ErrNotFound misidentified as ErrException")
	}
	for _, e := range []Object{ErrException, ErrNotFound, ErrOutOfMemory, ErrNoMoreItems, ErrOutOfBounds, ErrError} {
		if !IsError(e) {
			t.Fatalf("%v not recognized as an Error.* sentinel", e)
		}
	}
	// Success values never alias an Error.* sentinel.
	if IsError(None) || IsError(NewSmallInt(0)) || IsError(Bool(false)) {
		t.Fatal("a success value aliased an Error.* sentinel")
	}
}

func TestLayoutIDOfHeap(t *testing.T) {
	a := NewArena()
	o := a.Alloc(&HeapObject{Head: MakeHeader(12, FormatObjects, 3, 0)})
	if got := a.LayoutIDOf(o); got != 12 {
		t.Fatalf("LayoutIDOf = %d, want 12", got)
	}
}

func TestLayoutIDOfImmediates(t *testing.T) {
	a := NewArena()
	cases := map[Object]LayoutID{
		NewSmallInt(3):  LayoutSmallInt,
		Bool(true):      LayoutBool,
		NewSmallStr("x"): LayoutSmallStr,
		None:            LayoutNoneType,
		NotImplemented:  LayoutNotImplementedType,
		Unbound:         LayoutUnbound,
	}
	for o, want := range cases {
		if got := a.LayoutIDOf(o); got != want {
			t.Fatalf("LayoutIDOf(%#x) = %d, want %d", uint64(o), got, want)
		}
	}
}

func TestHeaderCountOverflow(t *testing.T) {
	h := MakeHeader(1, FormatObjects, 2000, 0)
	if !h.CountOverflowed() {
		t.Fatal("large count did not set the overflow flag")
	}
	small := MakeHeader(1, FormatObjects, 5, 0)
	if small.CountOverflowed() {
		t.Fatal("small count incorrectly flagged as overflowed")
	}
	if small.InlineCount() != 5 {
		t.Fatalf("InlineCount = %d, want 5", small.InlineCount())
	}
}

func TestHeaderHashRoundTrip(t *testing.T) {
	h := MakeHeader(3, FormatBytes, 1, 0).WithHash(0x1234)
	if h.Hash() != 0x1234 {
		t.Fatalf("Hash() = %#x, want 0x1234", h.Hash())
	}
	if h.Layout() != 3 {
		t.Fatalf("Layout() = %d, want 3 (hash write must not disturb layout)", h.Layout())
	}
}
