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

// Package interp implements the threaded bytecode dispatch loop of §4.D:
// one Go function per opcode family, a central Run loop that decodes
// (opcode, oparg[, cache-index]) units and jumps to the matching
// handler, and the anamorphic->specialized rewrite each handler performs
// on its own call site the first time it runs. Modeled on the teacher's
// vm/exec_amd64.s / vm/bytecode.go split between "what each opcode does"
// and "how the dispatch loop finds the next handler" — here both live in
// Go, dispatched through Table rather than through assembled jump
// targets, since this runtime has no template JIT assembler backing it
// at the interpreter tier (see package jit for where machine code would
// be emitted for hot functions).
package interp

import (
	"github.com/tekknolagi/skybison-sub001/cache"
	"github.com/tekknolagi/skybison-sub001/code"
	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/opcode"
	"github.com/tekknolagi/skybison-sub001/thread"
	"github.com/tekknolagi/skybison-sub001/types"
)

// Continue tells Run what to do after a handler returns: keep decoding,
// unwind to an exception handler, return a value to the caller, or (once
// generators are modeled) yield.
type Continue uint8

const (
	Next Continue = iota
	Unwind
	Return
	Yield
	Deopt
)

// Machine is the opcode handlers' view of everything outside the current
// Frame: the heap arena (for attribute access), the live type table (for
// MRO/slot resolution), and the global-variable cells each module's
// LOAD_GLOBAL/STORE_GLOBAL opcodes bind against. package runtime wires
// this up and owns its lifetime; interp only reads it.
type Machine struct {
	Arena   *object.Arena
	Types   map[object.LayoutID]*types.Type
	Globals map[string]*cache.ValueCell

	// CallFunction is the CALL_FUNCTION choke point (package callpath);
	// kept as a field rather than a direct import to avoid a import cycle
	// (callpath needs interp.Machine to recurse into nested frames).
	CallFunction func(th *thread.Thread, m *Machine, fr *frame.Frame, callable object.Object, args []object.Object) (object.Object, *exc.Exception)

	// Deoptimize restores a compiled Function's interpreter entry point
	// (package jit's Deoptimize); kept as a field for the same reason as
	// CallFunction -- interp cannot import jit (jit imports interp), so a
	// guard-miss handler that needs to deoptimize the Function owning the
	// current frame calls back out through this hook via fr.Deopt instead.
	// nil when the Machine was built without it (e.g. a Machine literal
	// rather than runtime.Runtime.Machine), in which case a guard miss just
	// demotes the cache entry and carries on interpreted.
	Deoptimize func(fn *code.Function)
}

// result carries a handler's outcome back to Run.
type result struct {
	cont Continue
	val  object.Object
	exc  *exc.Exception
}

func next() result              { return result{cont: Next} }
func ret(v object.Object) result { return result{cont: Return, val: v} }
func raise(e *exc.Exception) result {
	return result{cont: Unwind, exc: e}
}

// decoded is one fetched instruction: its opcode, 8-bit oparg (widened by
// any preceding EXTENDED_ARG prefixes), and the cache-tuple index if the
// opcode owns one.
type decoded struct {
	op        opcode.Op
	arg       int
	cacheIdx  int
	unitStart int
	unitSize  int
}

func fetch(bytecode []byte, pc int, extended int) decoded {
	op := opcode.Op(bytecode[pc])
	arg := int(bytecode[pc+1]) | extended<<8
	d := decoded{op: op, arg: arg, unitStart: pc, unitSize: op.UnitSize()}
	if d.unitSize == 4 {
		d.cacheIdx = int(bytecode[pc+2])<<8 | int(bytecode[pc+3])
	}
	return d
}

// Run executes fr on th until it returns, raises an uncaught exception,
// or yields (generators are out of scope for this core; Yield is
// reserved for a future package). Every opcode boundary calls
// th.CheckInterrupt per §5's suspension-point rule before the next
// instruction's handler runs.
func Run(th *thread.Thread, m *Machine, fr *frame.Frame) (object.Object, *exc.Exception) {
	extended := 0
	for {
		if e := th.CheckInterrupt(); e != nil {
			if unhandled := unwindOrPropagate(th, fr, e); unhandled != nil {
				return object.Object(0), unhandled
			}
			continue
		}

		d := fetch(fr.Bytecode, fr.PC, extended)
		extended = 0

		var r result
		switch opcode.Table[d.op].Family {
		case opcode.FamilyBinaryOp:
			r = execBinaryOp(m, fr, d)
		case opcode.FamilyCompare:
			r = execCompare(fr, d)
		case opcode.FamilyLoadAttr:
			r = execLoadAttr(m, fr, d)
		case opcode.FamilyStoreAttr:
			r = execStoreAttr(m, fr, d)
		case opcode.FamilySubscrLoad:
			r = execBinarySubscr(m, fr, d)
		case opcode.FamilySubscrStore:
			r = execStoreSubscr(m, fr, d)
		case opcode.FamilyLoadMethod:
			r = execLoadMethod(m, fr, d)
		case opcode.FamilyForIter:
			r = execForIter(fr, d)
		case opcode.FamilyLoadGlobal:
			r = execLoadGlobal(m, fr, d)
		case opcode.FamilyCallFunction:
			r = execCallFunction(th, m, fr, d)
		default:
			r = execMisc(th, fr, d)
		}

		switch r.cont {
		case Next:
			fr.PC = d.unitStart + d.unitSize
			if d.op == opcode.ExtendedArg {
				extended = d.arg
			}
		case Return:
			return r.val, nil
		case Unwind:
			if handled := unwindOrPropagate(th, fr, r.exc); handled != nil {
				return object.Object(0), handled
			}
			// an except/finally block claimed the exception; its target PC
			// was already installed onto fr.PC by unwindOrPropagate.
		case Deopt:
			// handler already rewrote fr.PC's opcode back to anamorphic via
			// fr.Caches.Invalidate; re-fetch and re-run the same PC.
		case Yield:
			return r.val, nil
		}
	}
}

// unwindOrPropagate walks fr's block stack looking for a handler willing
// to catch e (any BlockTry/BlockExcept/BlockFinally record, matching the
// spec's coarse-grained "any block catches" simplification since
// exception-type matching is a compiler-emitted collaborator this core
// does not implement). If one is found, the frame's PC and value stack
// are reset to the handler's target and depth and nil is returned,
// meaning "handled, keep running fr". If the block stack is exhausted,
// the exception propagates to the caller and is returned unchanged.
func unwindOrPropagate(th *thread.Thread, fr *frame.Frame, e *exc.Exception) *exc.Exception {
	e.AddFrame(fr.TracebackFrame(), fr.CurrentLine())
	if blk, ok := fr.TopBlock(); ok {
		fr.PopBlock()
		fr.TruncateTo(blk.StackDepth)
		fr.PC = blk.Target
		th.SetException(e)
		return nil
	}
	return e
}
