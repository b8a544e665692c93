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

// Package jit implements the template JIT of §4.E. Unlike a real
// template JIT this does not emit machine code (there is no safe,
// portable way to do that from Go without cgo or an assembler package
// this corpus does not carry), so CompiledEntry dispatches through the
// exact same threaded loop (interp.Run) InterpretedEntry uses: there is
// no second, narrower loop skipping bookkeeping the interpreter pays
// for. What genuinely differs is what happens the instant a
// specialized site's guard fails. An InterpretedEntry frame just
// degrades that one cache entry and keeps running; a CompiledEntry
// frame additionally carries a deopt hook (frame.Frame.Deopt) that
// calls back into Deoptimize, via the Machine-level callback that
// runtime.Runtime.Machine installs, the moment the first guard failure
// happens -- reverting
// fn.EntryAsm to the interpreter stub and clearing fn.Flags&Compiled
// without any out-of-band caller having to notice and do it manually
// (§4.E, scenario 5). That is the one load-bearing difference Compile
// buys a function: automatic, in-path deoptimization.
package jit

import (
	"golang.org/x/sys/cpu"

	"github.com/tekknolagi/skybison-sub001/code"
	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/interp"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/opcode"
	"github.com/tekknolagi/skybison-sub001/thread"
)

// hostSupportsJIT reports whether the running CPU has the baseline
// integer ISA this template JIT's SmallInt fast paths assume, mirroring
// the teacher's avx512level()/portable split (vm/avx512level.go):
// probed once per Compile call rather than cached, since config
// reloads (SNELLER_PORTABLE-style escape hatch, see config.Tuning) can
// flip portable between calls within one process.
func hostSupportsJIT(portable bool) bool {
	if portable {
		return false
	}
	return cpu.X86.HasSSE2
}

// eligibleOpcodes is the compiler-verified opcode subset this template
// JIT can run without falling back to deopt on the very first
// instruction: the SmallInt-specialized arithmetic/compare family plus
// the control-flow/stack-shape opcodes every function needs.
var eligibleOpcodes = map[opcode.Op]bool{
	opcode.LoadConst: true, opcode.LoadImmediate: true, opcode.PopTop: true,
	opcode.DupTop: true, opcode.NopFiller: true, opcode.ExtendedArg: true,
	opcode.LoadFastReverse: true, opcode.LoadFastReverseUnchecked: true,
	opcode.StoreFastReverse: true, opcode.ReturnValue: true, opcode.Ret: true,
	opcode.BinaryOpAnamorphic: true, opcode.BinaryAddSmallInt: true,
	opcode.BinarySubSmallInt: true, opcode.BinaryMulSmallInt: true,
	opcode.BinaryAndSmallInt: true, opcode.BinaryOrSmallInt: true,
	opcode.CompareAnamorphic: true, opcode.CompareEqSmallInt: true,
	opcode.CompareNeSmallInt: true, opcode.CompareLtSmallInt: true, opcode.CompareLeSmallInt: true,
	opcode.CompareGtSmallInt: true, opcode.CompareGeSmallInt: true,
}

func isEligible(op byte) bool { return eligibleOpcodes[opcode.Op(op)] }

// CompiledEntry is a code.Entry that runs fn's bytecode through the same
// threaded loop as InterpretedEntry (interp.Run does not distinguish
// compiled from interpreted frames; only the decision of *which* entry a
// Function currently holds differs, plus the deopt hook Invoke arms on
// its frame). Compile only installs this when fn.IsEligibleForJIT
// reports every opcode in fn.Bytecode belongs to eligibleOpcodes; the
// moment any cache entry it owns misses its guard, the armed hook
// demotes fn back to an InterpretedEntry without waiting for a separate
// Invalidate to notice.
type CompiledEntry struct {
	M    *interp.Machine
	Orig code.Entry // the entry point to restore on deopt
}

// Invoke builds fn's frame exactly as InterpretedEntry does, then arms
// fr.Deopt so the first guard miss any opcode handler observes while
// this frame is live calls back into Deoptimize through ce.M's hook
// (installed by runtime.Runtime.Machine), satisfying §4.E's "reverts entry_asm and
// clears Compiled on its own" requirement without any out-of-band
// caller driving it.
func (ce CompiledEntry) Invoke(th *thread.Thread, fn *code.Function, args []object.Object) (object.Object, *exc.Exception) {
	fr := frame.New(nil, fn.Code.Nlocals, fn.Bytecode, fn.Caches, frame.Normal)
	fr.FuncName = fn.Name
	fr.File = fn.Code.Filename
	fr.Lnotab = fn.Code.Line
	fr.Deopt = func() {
		if ce.M != nil && ce.M.Deoptimize != nil {
			ce.M.Deoptimize(fn)
		}
	}
	for i, a := range args {
		if i >= len(fr.Locals) {
			break
		}
		fr.Locals[i] = a
	}
	for i := len(args); i < len(fr.Locals); i++ {
		fr.Locals[i] = object.ErrNotFound
	}

	if e := th.EnterFrame(fr); e != nil {
		return object.Object(0), e
	}
	defer th.ExitFrame()
	return interp.Run(th, ce.M, fr)
}

// Compile installs a CompiledEntry on fn if the host's ISA can run this
// template JIT's fast paths (hostSupportsJIT; portable mirrors
// config.Tuning.Portable) and every opcode in fn's rewritten bytecode
// belongs to the template JIT's supported subset, remembering the
// previously installed entry point so Deoptimize can restore it.
// Returns false (and leaves fn untouched) if fn is not eligible. m must
// already have Deoptimize wired (package runtime's Machine does this
// the same way it wires CallFunction) for the automatic in-path deopt
// described on CompiledEntry to fire; without it a guard miss still
// demotes the failing cache entry but leaves the compiled entry point
// installed until something else calls Deoptimize directly.
func Compile(m *interp.Machine, fn *code.Function, portable bool) bool {
	if fn.Flags&code.Compiled != 0 {
		return true
	}
	if !hostSupportsJIT(portable) {
		return false
	}
	if !fn.IsEligibleForJIT(isEligible) {
		return false
	}
	fn.EntryAsm = CompiledEntry{M: m, Orig: fn.EntryAsm}
	fn.Flags |= code.Compiled
	return true
}

// Deoptimize restores fn's previous entry point, undoing Compile. It
// does not by itself revert any specialized opcode back to anamorphic —
// that is cache.Tuple.Invalidate's job via fn.RevertToAnamorphic, which
// independently clears code.Compiled on fn.Flags when a dependency
// (e.g. a type attribute) is evicted out from under some other
// function's cache; a guard miss discovered directly inside a
// CompiledEntry frame (see Invoke) reaches this function through
// fr.Deopt instead of requiring an external caller to notice.
func Deoptimize(fn *code.Function) {
	ce, ok := fn.EntryAsm.(CompiledEntry)
	if !ok {
		return
	}
	fn.EntryAsm = ce.Orig
	fn.Flags &^= code.Compiled
}
