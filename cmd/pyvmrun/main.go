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

// Command pyvmrun is a smoke-test driver: it assembles a handful of Code
// objects by hand (there is no compiler front-end in this tree) and runs
// each one through a runtime.Runtime, printing the result or the
// exception raised. It exists to exercise the scenarios end to end
// rather than to run arbitrary source.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tekknolagi/skybison-sub001/cache"
	"github.com/tekknolagi/skybison-sub001/code"
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/interp"
	"github.com/tekknolagi/skybison-sub001/jit"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/opcode"
	"github.com/tekknolagi/skybison-sub001/runtime"
	"github.com/tekknolagi/skybison-sub001/types"
)

func exitf(err error) {
	log.Print(err)
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// emit appends a 2-byte (op, arg) unit to bc, matching the original,
// unrewritten bytecode layout code.Rewrite expects on input.
func emit(bc []byte, op opcode.Op, arg byte) []byte {
	return append(bc, byte(op), arg)
}

func addFunctionCode() *code.Code {
	var bc []byte
	bc = emit(bc, opcode.LoadFastReverse, 0)
	bc = emit(bc, opcode.LoadFastReverse, 1)
	bc = emit(bc, opcode.BinaryOpAnamorphic, 0)
	bc = emit(bc, opcode.ReturnValue, 0)
	return &code.Code{Name: "add", Nlocals: 2, Code: bc}
}

func runAdditionScenario(r *runtime.Runtime) {
	m := r.Machine("__main__")
	th := r.NewThread()
	marker := r.LoadFunction(m, addFunctionCode())

	result, exc := r.Run(th, m, marker, []object.Object{
		object.NewSmallInt(3), object.NewSmallInt(4),
	})
	if exc != nil {
		exitf(fmt.Errorf("addition scenario: %s", exc.String()))
	}
	fmt.Printf("addition: 3 + 4 = %d\n", object.SmallInt(result))

	// Same call site again: the cache should now be Monomorphic and the
	// bytecode rewritten in place to BINARY_ADD_SMALLINT (§4.C).
	result, exc = r.Run(th, m, marker, []object.Object{
		object.NewSmallInt(10), object.NewSmallInt(32),
	})
	if exc != nil {
		exitf(fmt.Errorf("addition scenario (reuse): %s", exc.String()))
	}
	fmt.Printf("addition (specialized reuse): 10 + 32 = %d\n", object.SmallInt(result))
}

// attrFunctionCode builds LOAD_FAST_REVERSE 0; LOAD_ATTR_ANAMORPHIC 0;
// RETURN_VALUE. It expects the attribute name already sitting on the
// value stack beneath the receiver LOAD_FAST_REVERSE pushes, matching
// execLoadAttr's pop order (receiver first, then name).
func attrFunctionCode() *code.Code {
	var bc []byte
	bc = emit(bc, opcode.LoadFastReverse, 0)
	bc = emit(bc, opcode.LoadAttrAnamorphic, 0)
	bc = emit(bc, opcode.ReturnValue, 0)
	return &code.Code{Name: "get_x", Nlocals: 1, Code: bc}
}

func runAttributeScenario(r *runtime.Runtime) {
	pointType := types.NewType("Point", nil)
	layout := &types.Layout{
		ID:    object.LayoutID(64),
		Type:  pointType,
		Fixed: []types.AttrSlot{{Name: "x", Offset: 0}, {Name: "y", Offset: 1}},
	}
	pointType.Layouts = append(pointType.Layouts, layout)
	r.RegisterType(pointType)

	instance := r.Arena.Alloc(&object.HeapObject{
		Head:  object.MakeHeader(layout.ID, object.FormatObjects, 2, 0),
		Slots: []object.Object{object.NewSmallInt(5), object.NewSmallInt(9)},
	})

	m := r.Machine("__main__")
	th := r.NewThread()
	fn := code.NewFunction(attrFunctionCode(), interp.InterpretedEntry{M: m})

	fr := frame.New(nil, fn.Code.Nlocals, fn.Bytecode, fn.Caches, frame.Normal)
	fr.Push(object.NewSmallStr("x"))
	fr.StoreFastReverse(0, instance)
	if e := th.EnterFrame(fr); e != nil {
		exitf(fmt.Errorf("attribute scenario: %s", e.String()))
	}
	result, excObj := interp.Run(th, m, fr)
	th.ExitFrame()
	if excObj != nil {
		exitf(fmt.Errorf("attribute scenario: %s", excObj.String()))
	}
	fmt.Printf("attribute: point.x = %d (cache now %s)\n", object.SmallInt(result), fn.Caches.At(0).State)

	// Run it again on the same instance: the site is now LOAD_ATTR_INSTANCE
	// and re-validates the layout-id guard rather than re-walking the MRO.
	fr2 := frame.New(nil, fn.Code.Nlocals, fn.Bytecode, fn.Caches, frame.Normal)
	fr2.Push(object.NewSmallStr("x"))
	fr2.StoreFastReverse(0, instance)
	if e := th.EnterFrame(fr2); e != nil {
		exitf(fmt.Errorf("attribute scenario (reuse): %s", e.String()))
	}
	result, excObj = interp.Run(th, m, fr2)
	th.ExitFrame()
	if excObj != nil {
		exitf(fmt.Errorf("attribute scenario (reuse): %s", excObj.String()))
	}
	fmt.Printf("attribute (specialized reuse): point.x = %d\n", object.SmallInt(result))
}

func runOverflowScenario(r *runtime.Runtime) {
	m := r.Machine("__main__")
	th := r.NewThread()
	marker := r.LoadFunction(m, addFunctionCode())

	// A run small enough to specialize to BINARY_ADD_SMALLINT...
	if _, exc := r.Run(th, m, marker, []object.Object{object.NewSmallInt(1), object.NewSmallInt(1)}); exc != nil {
		exitf(fmt.Errorf("overflow warmup: %s", exc.String()))
	}
	// ...then a run whose sum (2^62) is past SmallInt's largest value
	// (2^62-1), which must fall back through the generic path rather than
	// wrap.
	const near = int64(1) << 61
	result, exc := r.Run(th, m, marker, []object.Object{object.NewSmallInt(near), object.NewSmallInt(near)})
	if exc == nil {
		exitf(fmt.Errorf("overflow scenario: expected TypeError, got %d", object.SmallInt(result)))
	}
	fmt.Printf("overflow: guard correctly rejected out-of-range SmallInt add (%s)\n", exc.Kind)
}

func jitScenario(r *runtime.Runtime) {
	m := r.Machine("__main__")
	th := r.NewThread()
	marker := r.LoadFunction(m, addFunctionCode())
	fn, ok := r.Registry.Functions[marker]
	if !ok {
		exitf(fmt.Errorf("jit scenario: function not registered"))
	}
	if !jit.Compile(m, fn, false) {
		exitf(fmt.Errorf("jit scenario: addFunctionCode should be JIT-eligible on this host"))
	}
	fmt.Println("jit: compiled")

	// Warm the call site under the compiled entry point: two SmallInts,
	// same as runAdditionScenario, so BINARY_OP_ANAMORPHIC specializes to
	// BINARY_ADD_SMALLINT while fn.EntryAsm is still a jit.CompiledEntry.
	result, excObj := r.Run(th, m, marker, []object.Object{
		object.NewSmallInt(3), object.NewSmallInt(4),
	})
	if excObj != nil {
		exitf(fmt.Errorf("jit scenario (warmup): %s", excObj.String()))
	}
	fmt.Printf("jit: compiled add(3, 4) = %d\n", object.SmallInt(result))

	// Call it again with operands that no longer satisfy the specialized
	// site's SmallInt guard. The guard miss fires inside the still-live
	// CompiledEntry frame, which arms fr.Deopt, so the Function deopts on
	// its own mid-call rather than through any explicit jit.Deoptimize
	// call here.
	if _, excObj = r.Run(th, m, marker, []object.Object{
		object.NewSmallStr("a"), object.NewSmallStr("b"),
	}); excObj == nil {
		exitf(fmt.Errorf("jit scenario (guard miss): expected TypeError, got no exception"))
	}
	if fn.Flags&code.Compiled != 0 {
		exitf(fmt.Errorf("jit scenario: guard miss should have deoptimized fn on its own"))
	}
	if _, ok := fn.EntryAsm.(jit.CompiledEntry); ok {
		exitf(fmt.Errorf("jit scenario: fn.EntryAsm should no longer be a CompiledEntry"))
	}
	fmt.Println("jit: guard miss deoptimized fn back to the interpreter entry point automatically")
}

func apiHandleScenario(r *runtime.Runtime) {
	h := r.Handles.NewReference(object.NewSmallInt(7))
	if h.Refcnt() != 1<<63-1 {
		exitf(fmt.Errorf("apihandle scenario: immediate handle should report the fixed refcount"))
	}
	fmt.Println("apihandle: immediate-backed handle short-circuits refcounting, as expected")

	obj := r.Arena.Alloc(&object.HeapObject{})
	strong := r.Handles.NewReference(obj)
	strong.IncRef()
	fmt.Printf("apihandle: heap handle refcount after IncRef = %d\n", strong.Refcnt())
	strong.DecRef()
	strong.DecRef()
	if strong.Refcnt() != 0 {
		exitf(fmt.Errorf("apihandle scenario: expected refcount 0, got %d", strong.Refcnt()))
	}
	r.Handles.Dispose(strong)
	fmt.Println("apihandle: heap handle disposed at refcount 0")
}

type noopReverter struct{}

func (noopReverter) RevertToAnamorphic(pc int) {}

func cacheInvalidationScenario() {
	cell := cache.NewValueCell(object.NewSmallInt(1))
	tuple := cache.NewTuple(1, noopReverter{})
	cell.AddDependent(tuple, 0)
	tuple.SpecializeGlobal(0, cell.Value())

	if tuple.At(0).State == cache.Anamorphic {
		exitf(fmt.Errorf("cache invalidation scenario: expected a specialized entry before eviction"))
	}
	cell.Evict()
	if tuple.At(0).State != cache.Anamorphic {
		exitf(fmt.Errorf("cache invalidation scenario: eviction should revert the dependent cache entry"))
	}
	fmt.Println("cache: evicting a depended-upon cell reverted the dependent cache slot")
}

func main() {
	flag.Parse()

	r := runtime.New()
	runAdditionScenario(r)
	runAttributeScenario(r)
	runOverflowScenario(r)
	jitScenario(r)
	apiHandleScenario(r)
	cacheInvalidationScenario()
}
