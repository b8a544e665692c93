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

package frame

import (
	"github.com/tekknolagi/skybison-sub001/cache"
	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/object"
)

// Frame is the per-call activation record. The spec lays these out as a
// single native stack growing down from a header; here each Frame is an
// ordinary (GC-managed) Go value and the "native stack" is the Caller
// chain, which is the Go-safe analogue available without hand-rolled
// calling-convention control. Locals are still addressed in reverse per
// §4.B: argument 0 is Locals[0], but conceptually sits at the frame's
// highest address, local N-1 at the lowest.
type Frame struct {
	Caller *Frame

	PC        int    // virtual PC: byte index into Bytecode
	Bytecode  []byte // the mutable, rewritten bytecode (see code.Function)
	Caches    *cache.Tuple

	Locals     []object.Object // reverse-addressed; see LoadFastReverse
	ValueStack []object.Object // value stack, grows by append/truncate

	blocks blockStack
	state  packedState

	// FuncName/File identify this frame for traceback construction; see
	// TracebackFrame.
	FuncName string
	File     string
	// Lnotab maps a bytecode PC to a source line, used by TracebackEntry
	// reconstruction and by deopt diagnostics.
	Lnotab func(pc int) int

	// Deopt is set by package jit's CompiledEntry before running a
	// compiled function's body, closing over the *code.Function this
	// frame belongs to; an opcode handler that observes a specialized
	// site's guard fail calls it so the Function is demoted back to an
	// interpreter entry point the moment the compiled fast path turns
	// out to be wrong, rather than only on an explicit out-of-band call.
	// nil for an ordinarily interpreted frame, which needs no such hook.
	Deopt func()
}

// New creates a frame whose caller is parent (nil for the outermost
// frame of an interpreter invocation).
func New(parent *Frame, nlocals int, bytecode []byte, caches *cache.Tuple, mode ReturnMode) *Frame {
	return &Frame{
		Caller:   parent,
		Bytecode: bytecode,
		Caches:   caches,
		Locals:   make([]object.Object, nlocals),
		state:    pack(0, mode),
	}
}

// ReturnMode reports this frame's current return-mode tag.
func (f *Frame) ReturnMode() ReturnMode { return f.state.mode() }

// SetReturnMode overwrites the return-mode half of the packed state
// without disturbing the block-stack depth half.
func (f *Frame) SetReturnMode(m ReturnMode) {
	f.state = pack(f.state.depth(), m)
}

// PushBlock installs a new block record (SETUP_FINALLY/SETUP_WITH).
func (f *Frame) PushBlock(rec BlockRecord) {
	f.blocks.push(rec)
	f.state = f.state.withDepth(f.blocks.depth)
}

// PopBlock removes the top block record. Per §4.B, POP_BLOCK only ever
// touches the packed state's low (depth) half, never the return-mode
// high half.
func (f *Frame) PopBlock() BlockRecord {
	rec := f.blocks.pop()
	f.state = f.state.withDepth(f.blocks.depth)
	return rec
}

// TopBlock returns the innermost active block, if any.
func (f *Frame) TopBlock() (BlockRecord, bool) { return f.blocks.top() }

// BlockDepth reports the number of currently active blocks.
func (f *Frame) BlockDepth() int { return f.state.depth() }

// LoadFastReverse reads local slot n, raising UnboundLocalError (via the
// returned *exc.Exception) if the slot holds the Error.NotFound sentinel
// that marks a deleted or never-assigned local. declaredName is the
// source-level variable name, needed only for the error message.
func (f *Frame) LoadFastReverse(n int, declaredName string) (object.Object, *exc.Exception) {
	v := f.Locals[n]
	if v == object.ErrNotFound {
		return object.Object(0), exc.New(exc.UnboundLocalError,
			"local variable %q referenced before assignment", declaredName)
	}
	return v, nil
}

// LoadFastReverseUnchecked skips the unbound check; the compiler emits
// this form only when it has proven the slot is definitely assigned
// (parameters, or locals downstream of a dominating store). Per §8
// invariant 5, this must never observe Error.NotFound on a reachable PC;
// callers that cannot prove that statically must use LoadFastReverse.
func (f *Frame) LoadFastReverseUnchecked(n int) object.Object {
	return f.Locals[n]
}

// StoreFastReverse writes local slot n.
func (f *Frame) StoreFastReverse(n int, v object.Object) {
	f.Locals[n] = v
}

// Push appends v to the value stack.
func (f *Frame) Push(v object.Object) { f.ValueStack = append(f.ValueStack, v) }

// Pop removes and returns the top of the value stack.
func (f *Frame) Pop() object.Object {
	n := len(f.ValueStack) - 1
	v := f.ValueStack[n]
	f.ValueStack = f.ValueStack[:n]
	return v
}

// Peek returns the value n slots below the top without popping (Peek(0)
// is the top), matching CALL_FUNCTION's "peek at callable at
// stack[oparg]" access pattern.
func (f *Frame) Peek(n int) object.Object {
	return f.ValueStack[len(f.ValueStack)-1-n]
}

// Depth reports the current value-stack depth, checked against the
// compiler-assigned depth at the start of every opcode handler (§8
// invariant 1).
func (f *Frame) Depth() int { return len(f.ValueStack) }

// TruncateTo resets the value stack to depth n, used when a block
// handler's StackDepth must be restored during unwind.
func (f *Frame) TruncateTo(n int) { f.ValueStack = f.ValueStack[:n] }

// TracebackFrame returns the exc.Frame identity used when this frame
// appends itself to an in-flight exception's traceback during unwind.
func (f *Frame) TracebackFrame() exc.Frame {
	return exc.Frame{Name: f.FuncName, File: f.File}
}

// CurrentLine resolves this frame's current PC to a source line via its
// Lnotab, or 0 if none is attached (e.g. synthetic test frames).
func (f *Frame) CurrentLine() int {
	if f.Lnotab == nil {
		return 0
	}
	return f.Lnotab(f.PC)
}
