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

package jit

import (
	"testing"

	"github.com/tekknolagi/skybison-sub001/code"
	"github.com/tekknolagi/skybison-sub001/interp"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/opcode"
	"github.com/tekknolagi/skybison-sub001/thread"
)

func additionCode() *code.Code {
	return &code.Code{
		Nlocals: 2,
		Code: []byte{
			byte(opcode.LoadFastReverse), 0,
			byte(opcode.LoadFastReverse), 1,
			byte(opcode.BinaryOpAnamorphic), 0,
			byte(opcode.ReturnValue), 0,
		},
	}
}

func TestCompileEligibleFunctionRunsSameResultAsInterpreter(t *testing.T) {
	m := &interp.Machine{Arena: object.NewArena()}
	fn := code.NewFunction(additionCode(), interp.InterpretedEntry{M: m})

	if !Compile(m, fn, false) {
		t.Fatal("expected eligible function to compile")
	}
	if fn.Flags&code.Compiled == 0 {
		t.Fatal("expected Compiled flag set after Compile")
	}

	th := thread.New()
	v, e := fn.EntryAsm.Invoke(th, fn, []object.Object{object.NewSmallInt(3), object.NewSmallInt(4)})
	if e != nil {
		t.Fatalf("unexpected exception: %v", e)
	}
	if object.SmallInt(v) != 7 {
		t.Fatalf("result = %v, want SmallInt(7)", v)
	}
}

func TestCompileRespectsPortable(t *testing.T) {
	m := &interp.Machine{Arena: object.NewArena()}
	fn := code.NewFunction(additionCode(), interp.InterpretedEntry{M: m})

	if Compile(m, fn, true) {
		t.Fatal("expected portable=true to refuse compilation regardless of host ISA")
	}
	if fn.Flags&code.Compiled != 0 {
		t.Fatal("Compiled flag must not be set when portable forced Compile to refuse")
	}
}

func TestDeoptimizeRestoresInterpreterEntry(t *testing.T) {
	m := &interp.Machine{Arena: object.NewArena()}
	orig := interp.InterpretedEntry{M: m}
	fn := code.NewFunction(additionCode(), orig)
	Compile(m, fn, false)

	Deoptimize(fn)

	if fn.Flags&code.Compiled != 0 {
		t.Fatal("Compiled flag should be cleared after Deoptimize")
	}
	if _, ok := fn.EntryAsm.(interp.InterpretedEntry); !ok {
		t.Fatalf("EntryAsm = %T, want interp.InterpretedEntry", fn.EntryAsm)
	}
}

func TestCompileRejectsIneligibleOpcode(t *testing.T) {
	m := &interp.Machine{Arena: object.NewArena()}
	c := &code.Code{Code: []byte{
		byte(opcode.GetAwaitable), 0,
		byte(opcode.ReturnValue), 0,
	}}
	fn := code.NewFunction(c, interp.InterpretedEntry{M: m})

	if Compile(m, fn, false) {
		t.Fatal("expected GET_AWAITABLE to make the function ineligible")
	}
	if fn.Flags&code.Compiled != 0 {
		t.Fatal("Compiled flag must not be set when Compile fails")
	}
}

// TestGuardMissDeoptimizesAutomatically exercises the one genuine
// behavioral difference CompiledEntry has over InterpretedEntry: a
// guard miss observed while running under a compiled entry point
// deoptimizes fn on its own, with no caller driving Deoptimize
// directly.
func TestGuardMissDeoptimizesAutomatically(t *testing.T) {
	m := &interp.Machine{Arena: object.NewArena()}
	fn := code.NewFunction(additionCode(), interp.InterpretedEntry{M: m})
	m.Deoptimize = Deoptimize

	if !Compile(m, fn, false) {
		t.Fatal("expected eligible function to compile")
	}

	th := thread.New()
	// Warm the call site to BINARY_ADD_SMALLINT while EntryAsm is still
	// the CompiledEntry installed above.
	if _, e := fn.EntryAsm.Invoke(th, fn, []object.Object{object.NewSmallInt(3), object.NewSmallInt(4)}); e != nil {
		t.Fatalf("unexpected exception warming the call site: %v", e)
	}
	if fn.Flags&code.Compiled == 0 {
		t.Fatal("warmup call should not have deoptimized fn")
	}

	// Operands that no longer satisfy the specialized site's SmallInt
	// guard must deoptimize fn mid-call, without any direct Deoptimize
	// call from this test.
	if _, e := fn.EntryAsm.Invoke(th, fn, []object.Object{object.NewSmallStr("a"), object.NewSmallStr("b")}); e == nil {
		t.Fatal("expected a TypeError from the generic slow path")
	}
	if fn.Flags&code.Compiled != 0 {
		t.Fatal("guard miss should have deoptimized fn automatically")
	}
	if _, ok := fn.EntryAsm.(CompiledEntry); ok {
		t.Fatal("fn.EntryAsm should no longer be a CompiledEntry after an automatic deopt")
	}
}
