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

package code

import (
	"github.com/tekknolagi/skybison-sub001/cache"
	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/thread"
)

// FunctionFlags is the Function.Flags bitfield of §3.
type FunctionFlags uint32

const (
	Interpreted FunctionFlags = 1 << iota
	SimpleCall                // no *args and no **kwargs parameter; defaults are not checked
	Compiled                  // currently running through a JIT'd entry_asm
	FnIterableCoroutine
	FnNofree
)

// Entry is the Function.entry_asm ABI of §6: the caller has already
// arranged args (the callee's positional+keyword arguments, already
// resolved by the call pipeline in package callpath) and invokes Entry
// to run the function body. On success it returns a value; on failure
// it returns a non-nil *exc.Exception and the caller must treat this
// exactly like observing object.ErrException.
//
// Two concrete implementations exist: interp.InterpretedEntry (the
// threaded-dispatch backend) and jit.CompiledEntry (the template JIT);
// Function.EntryAsm holds whichever one is currently installed, and
// jit.Deoptimize swaps a Function from the latter back to the former.
type Entry interface {
	Invoke(th *thread.Thread, fn *Function, args []object.Object) (object.Object, *exc.Exception)
}

// Intrinsic is a fast-path native implementation of a function (e.g.
// isinstance) that may consume the call's arguments itself and produce
// a result without ever constructing a Frame. It returns ok == true iff
// it did so; ok == false means the call must proceed through the normal
// Entry.
type Intrinsic func(th *thread.Thread, args []object.Object) (result object.Object, err *exc.Exception, ok bool)

// Function is the runtime-executable counterpart to a compiled Code
// object: rewritten (mutable, specialization-enabled) bytecode, its
// inline-cache tuple, and the entry point currently installed.
type Function struct {
	Code *Code

	// Bytecode is the rewritten copy of Code.Code: opcodes widened with
	// trailing cache indices, specializable opcodes placed in their
	// _ANAMORPHIC form. Code.Code itself is left untouched for
	// introspection, per §6.
	Bytecode []byte
	Caches   *cache.Tuple

	Module      *object.Object // owning module, for LOAD_GLOBAL resolution
	Defaults    []object.Object
	EntryAsm    Entry
	Flags       FunctionFlags
	Intrinsic   Intrinsic
	Name        string

	// TotalArgs/TotalVars summarize the call prolog's locals-splatting
	// work (TotalArgs: positional, positional-only and keyword-only
	// argument counts; TotalVars: Nlocals), computed once at
	// Function construction so CALL_FUNCTION's fast path need not
	// recompute them per call.
	TotalArgs int
	TotalVars int
}

// RevertToAnamorphic implements cache.Reverter: on cache invalidation
// (or JIT deoptimization) the opcode at byte offset pc in the rewritten
// bytecode is rewritten back to the unspecialized form for its family.
func (f *Function) RevertToAnamorphic(pc int) {
	if pc < 0 || pc >= len(f.Bytecode) {
		return
	}
	cur := opcodeAt(f.Bytecode, pc)
	anam := anamorphicLookup(cur)
	f.Bytecode[pc] = byte(anam)
	f.Flags &^= Compiled
}

// IsEligibleForJIT reports whether f was built entirely from the
// compiler-verified opcode subset the JIT can emit inline code for
// (§4.E "Model"); the jit package consults this before compiling.
func (f *Function) IsEligibleForJIT(isOpcodeSupported func(byte) bool) bool {
	for pc := 0; pc < len(f.Bytecode); {
		op := opcodeAt(f.Bytecode, pc)
		if !isOpcodeSupported(byte(op)) {
			return false
		}
		pc += unitSizeFor(op)
	}
	return true
}
