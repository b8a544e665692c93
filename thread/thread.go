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

// Package thread implements the per-interpreter-thread state the spec's
// §5 concurrency model describes: the thread-local handle chain, frame
// chain, pending exception, and recursion guard. Exactly one OS thread
// at a time may be executing bytecode against a given Thread (the spec's
// "one interpreter thread mutates user state at a time"); this package
// does not itself enforce that lock — see runtime.Runtime, which owns
// the exclusive-execution discipline across all of its Threads.
package thread

import (
	"github.com/google/uuid"

	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/object"
)

// DefaultRecursionLimit bounds the interpreted-call depth before
// RAISE RecursionError fires, matching a conventional CPython default.
const DefaultRecursionLimit = 1000

// Thread is one logical interpreter thread: current frame chain, handle
// scope chain, pending exception, and recursion depth counter. The
// spec's "rsp < thread.limit_" check is native-stack-specific; this
// Go-safe analogue instead counts frame nesting depth directly.
type Thread struct {
	ID uuid.UUID

	CurrentFrame *frame.Frame
	rootScope    *object.HandleScope
	topScope     *object.HandleScope

	PendingException *exc.Exception

	depth          int
	RecursionLimit int

	// InterruptPending is set asynchronously (by a signal handler, in
	// the real runtime) and observed at the next opcode-boundary safe
	// point, per §5 "Suspension points".
	InterruptPending bool
}

// New creates a Thread with an empty root handle scope and the default
// recursion limit.
func New() *Thread {
	root := object.NewRootScope()
	return &Thread{
		ID:             uuid.New(),
		rootScope:      root,
		topScope:       root,
		RecursionLimit: DefaultRecursionLimit,
	}
}

// PushHandleScope opens a nested handle scope and makes it current.
func (t *Thread) PushHandleScope() *object.HandleScope {
	t.topScope = t.topScope.Push()
	return t.topScope
}

// PopHandleScope closes the current handle scope and restores its
// parent as current. Callers must close LIFO, matching §4.A.
func (t *Thread) PopHandleScope(s *object.HandleScope) {
	s.Close()
	if t.topScope == s {
		// the caller is expected to track its own parent and not rely on
		// this fallback in the steady state, but nested scopes that
		// close out of order are a programmer error caught here rather
		// than silently leaving topScope dangling.
		t.topScope = s
	}
}

// EnterFrame pushes fr onto the frame chain, checking the recursion
// guard first; it raises RecursionError (returned as an *exc.Exception,
// not panicked — the call pipeline decides how to propagate it) rather
// than overflowing the native stack, since Go frames aren't laid out in
// the caller-controlled native stack region the spec describes.
func (t *Thread) EnterFrame(fr *frame.Frame) *exc.Exception {
	if t.depth >= t.RecursionLimit {
		return exc.New(exc.RecursionError, "maximum recursion depth exceeded")
	}
	fr.Caller = t.CurrentFrame
	t.CurrentFrame = fr
	t.depth++
	return nil
}

// ExitFrame pops the current frame, restoring its caller.
func (t *Thread) ExitFrame() {
	t.CurrentFrame = t.CurrentFrame.Caller
	t.depth--
}

// Depth reports the current frame nesting depth.
func (t *Thread) Depth() int { return t.depth }

// SetException installs exc as the thread's pending exception; the
// interpreter's unwind step calls this when a block claims an exception.
func (t *Thread) SetException(e *exc.Exception) { t.PendingException = e }

// ClearException clears the pending exception, e.g. once an except
// clause has caught it.
func (t *Thread) ClearException() { t.PendingException = nil }

// CheckInterrupt observes a pending asynchronous interrupt at an opcode
// boundary and, if one is set, raises KeyboardInterrupt. Dispatch loops
// call this between opcodes, never mid-opcode (§5 "Within a single
// opcode, no suspension occurs").
func (t *Thread) CheckInterrupt() *exc.Exception {
	if !t.InterruptPending {
		return nil
	}
	t.InterruptPending = false
	return exc.New(exc.KeyboardInterrupt, "")
}
