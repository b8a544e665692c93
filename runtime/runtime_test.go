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

package runtime

import (
	"testing"

	"github.com/tekknolagi/skybison-sub001/cache"
	"github.com/tekknolagi/skybison-sub001/code"
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/interp"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/opcode"
)

func additionCode() *code.Code {
	return &code.Code{
		Code: []byte{
			byte(opcode.LoadConst), 10,
			byte(opcode.LoadConst), 20,
			byte(opcode.BinaryOpAnamorphic), 0,
			byte(opcode.ReturnValue), 0,
		},
	}
}

func TestRunLoadsAndExecutesFunction(t *testing.T) {
	r := New()
	m := r.Machine("__main__")
	th := r.NewThread()

	marker := r.LoadFunction(m, additionCode())
	v, e := r.Run(th, m, marker, nil)
	if e != nil {
		t.Fatalf("unexpected exception: %v", e)
	}
	if object.SmallInt(v) != 30 {
		t.Fatalf("result = %v, want SmallInt(30)", v)
	}
}

func TestGlobalLookupThroughModule(t *testing.T) {
	r := New()
	m := r.Machine("__main__")
	m.Globals["answer"] = cache.NewValueCell(object.NewSmallInt(42))

	c := &code.Code{
		Code: []byte{
			byte(opcode.LoadGlobalAnamorphic), 0,
			byte(opcode.ReturnValue), 0,
		},
	}
	fn := code.NewFunction(c, interp.InterpretedEntry{M: m})
	fr := frame.New(nil, 0, fn.Bytecode, fn.Caches, frame.Normal)
	fr.Push(object.NewSmallStr("answer"))

	th := r.NewThread()
	v, e := interp.Run(th, m, fr)
	if e != nil {
		t.Fatalf("unexpected exception: %v", e)
	}
	if object.SmallInt(v) != 42 {
		t.Fatalf("result = %v, want SmallInt(42)", v)
	}

	entry := fn.Caches.At(0)
	if entry.State != cache.Monomorphic {
		t.Fatalf("cache state = %s, want monomorphic", entry.State)
	}
	if m.Globals["answer"].Dependents() != 1 {
		t.Fatalf("Dependents() = %d, want 1", m.Globals["answer"].Dependents())
	}
}

func TestModuleNamesSortedAcrossLazyCreation(t *testing.T) {
	r := New()
	r.Machine("zeta")
	r.Machine("alpha")
	r.Machine("mu")

	got := r.ModuleNames()
	want := []string{"alpha", "mu", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("ModuleNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ModuleNames() = %v, want %v", got, want)
		}
	}
}

func TestNewThreadRegistersUnderRuntime(t *testing.T) {
	r := New()
	th := r.NewThread()
	if _, ok := r.threads[th.ID]; !ok {
		t.Fatal("expected thread to be registered in runtime.threads")
	}
}
