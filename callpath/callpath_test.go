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

package callpath

import (
	"testing"

	"github.com/tekknolagi/skybison-sub001/code"
	"github.com/tekknolagi/skybison-sub001/interp"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/opcode"
	"github.com/tekknolagi/skybison-sub001/thread"
)

// identityCode builds `def f(x): return x`.
func identityCode() *code.Code {
	return &code.Code{
		Argcount: 1,
		Nlocals:  1,
		Code: []byte{
			byte(opcode.LoadFastReverseUnchecked), 0,
			byte(opcode.ReturnValue), 0,
		},
	}
}

func TestCallPlainFunction(t *testing.T) {
	arena := object.NewArena()
	m := &interp.Machine{Arena: arena}
	reg := NewRegistry()
	m.CallFunction = reg.Call

	fn := code.NewFunction(identityCode(), interp.InterpretedEntry{M: m})
	fnObj := arena.Alloc(&object.HeapObject{})
	reg.RegisterFunction(fnObj, fn)

	th := thread.New()
	v, e := reg.Call(th, m, nil, fnObj, []object.Object{object.NewSmallInt(42)})
	if e != nil {
		t.Fatalf("unexpected exception: %v", e)
	}
	if object.SmallInt(v) != 42 {
		t.Fatalf("result = %v, want SmallInt(42)", v)
	}
}

func TestCallBoundMethodSplaysSelf(t *testing.T) {
	arena := object.NewArena()
	m := &interp.Machine{Arena: arena}
	reg := NewRegistry()
	m.CallFunction = reg.Call

	// `def f(self, x): return self` -- self is splayed onto args[0] by
	// Call, which Invoke then binds to Locals[0].
	fnCode := &code.Code{
		Argcount: 2,
		Nlocals:  2,
		Code: []byte{
			byte(opcode.LoadFastReverseUnchecked), 0,
			byte(opcode.ReturnValue), 0,
		},
	}
	fn := code.NewFunction(fnCode, interp.InterpretedEntry{M: m})
	fnObj := arena.Alloc(&object.HeapObject{})
	reg.RegisterFunction(fnObj, fn)

	self := arena.Alloc(&object.HeapObject{})
	marker := arena.Alloc(&object.HeapObject{})
	reg.Bind(marker, self, fnObj)

	if !reg.IsBound(marker) {
		t.Fatal("expected marker to be registered as bound")
	}

	th := thread.New()
	v, e := reg.Call(th, m, nil, marker, []object.Object{object.NewSmallInt(99)})
	if e != nil {
		t.Fatalf("unexpected exception: %v", e)
	}
	if v != self {
		t.Fatalf("result = %v, want self = %v", v, self)
	}
}

func TestCallUnregisteredCallableRaisesTypeError(t *testing.T) {
	m := &interp.Machine{Arena: object.NewArena()}
	reg := NewRegistry()
	th := thread.New()

	_, e := reg.Call(th, m, nil, object.NewSmallInt(1), nil)
	if e == nil {
		t.Fatal("expected TypeError for an uncallable object")
	}
}
