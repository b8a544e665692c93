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

// Package callpath implements the CALL_FUNCTION choke point of §4.D: the
// single place every call funnels through regardless of whether the
// callable turns out to be a plain function, a bound method, or an
// intrinsic. interp.execCallFunction reaches this through
// interp.Machine.CallFunction so the two packages can refer to each
// other's types without forming an import cycle (callpath recurses back
// into interp.Run by way of code.Function.EntryAsm for non-intrinsic,
// interpreted calls).
package callpath

import (
	"github.com/tekknolagi/skybison-sub001/code"
	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/interp"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/thread"
)

// Registry resolves a callable object.Object to the code.Function (or
// bound-method pair, or intrinsic) it names. A full runtime represents
// functions and bound methods as heap objects with their own layout;
// this core's registry is the minimal stand-in package runtime installs
// entries into as it loads code, keyed on the same tagged Object words
// the interpreter already pushes and pops.
type Registry struct {
	Functions map[object.Object]*code.Function
	boundSelf map[object.Object]object.Object
	boundFunc map[object.Object]object.Object
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		Functions: map[object.Object]*code.Function{},
		boundSelf: map[object.Object]object.Object{},
		boundFunc: map[object.Object]object.Object{},
	}
}

// RegisterFunction associates obj (the tagged word user code will load
// and call, e.g. via LOAD_METHOD/LOAD_ATTR of a class's slot table) with
// fn.
func (r *Registry) RegisterFunction(obj object.Object, fn *code.Function) {
	r.Functions[obj] = fn
}

// Bind records that marker is a bound method closing over (self, fnObj).
// marker must be a fresh Object distinct from any other live value (the
// caller typically mints one by allocating an empty HeapObject from the
// arena) so it can serve purely as a lookup key; LOAD_ATTR's
// LOAD_ATTR_INSTANCE_TYPE_BOUND_METHOD specialization (§4.C) is what
// produces these in a full build.
func (r *Registry) Bind(marker, self, fnObj object.Object) {
	r.boundSelf[marker] = self
	r.boundFunc[marker] = fnObj
}

// IsBound reports whether obj was previously registered via Bind.
func (r *Registry) IsBound(obj object.Object) bool {
	_, ok := r.boundSelf[obj]
	return ok
}

// Call is the CALL_FUNCTION choke point: splay a bound method's receiver
// onto the front of args, try an intrinsic trampoline first, and
// otherwise dispatch through the callable Function's currently installed
// EntryAsm (interpreted or JIT'd, whichever is live). The recursion
// guard itself lives in interp.InterpretedEntry.Invoke (via
// th.EnterFrame), since only that layer knows it is about to push a new
// Frame.
func (r *Registry) Call(th *thread.Thread, m *interp.Machine, fr *frame.Frame, callable object.Object, args []object.Object) (object.Object, *exc.Exception) {
	if self, ok := r.boundSelf[callable]; ok {
		fnObj := r.boundFunc[callable]
		splayed := make([]object.Object, 0, len(args)+1)
		splayed = append(splayed, self)
		splayed = append(splayed, args...)
		args = splayed
		callable = fnObj
	}

	fn, ok := r.Functions[callable]
	if !ok {
		return object.Object(0), exc.New(exc.TypeError, "object is not callable")
	}

	if fn.Intrinsic != nil {
		if v, e, handled := fn.Intrinsic(th, args); handled {
			return v, e
		}
	}

	if fn.EntryAsm == nil {
		return object.Object(0), exc.New(exc.SystemError, "function %q has no entry point installed", fn.Name)
	}
	return fn.EntryAsm.Invoke(th, fn, args)
}
