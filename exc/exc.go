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

// Package exc implements the shape of a catchable Python exception: a
// type, a value, and a traceback of (code, lineno) entries reconstructed
// from each unwound frame's source-position table, per spec.md §7.
package exc

import (
	"fmt"
	"strings"
)

// Kind names the error kinds the execution core itself can raise; the
// (out of scope) built-in exception type hierarchy may define others,
// but these are the ones produced directly by opcode handlers.
type Kind string

const (
	UnboundLocalError   Kind = "UnboundLocalError"
	AttributeError      Kind = "AttributeError"
	TypeError           Kind = "TypeError"
	ValueError          Kind = "ValueError"
	StopIteration       Kind = "StopIteration"
	StopAsyncIteration  Kind = "StopAsyncIteration"
	RecursionError      Kind = "RecursionError"
	ImportError         Kind = "ImportError"
	SystemError         Kind = "SystemError"
	KeyboardInterrupt   Kind = "KeyboardInterrupt"
	MemoryError         Kind = "MemoryError"
)

// Frame is the minimal per-frame identity a traceback entry needs: the
// defining function's qualified name and a source file, decoupled from
// the frame package to avoid an import cycle (frame.Frame produces these
// on unwind via TracebackFrame).
type Frame struct {
	Name string
	File string
}

// TracebackEntry is one (code, lineno) pair reconstructed from a frame's
// lnotab at the point it was unwound.
type TracebackEntry struct {
	Frame Frame
	Line  int
}

func (e TracebackEntry) String() string {
	return fmt.Sprintf("  File %q, line %d, in %s", e.Frame.File, e.Line, e.Frame.Name)
}

// Exception is the runtime-level carrier for a pending or caught Python
// exception. It is deliberately not an object.Object: the object model
// only needs to know that some failure occurred (object.ErrException);
// the Exception value itself lives on the Thread until a handler catches
// it or the outermost frame unwinds.
type Exception struct {
	Kind      Kind
	Message   string
	Traceback []TracebackEntry
	Cause     *Exception // chained from `raise ... from ...`, nil otherwise
}

// New creates an exception with no traceback yet; frames append to it as
// they unwind, innermost first (see AddFrame).
func New(kind Kind, format string, args ...any) *Exception {
	return &Exception{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AddFrame appends a traceback entry for a frame that is unwinding past
// this exception. Entries accumulate innermost-first, matching the order
// frames unwind in; String() reverses them for the conventional
// outermost-first presentation.
func (e *Exception) AddFrame(fr Frame, line int) {
	e.Traceback = append(e.Traceback, TracebackEntry{Frame: fr, Line: line})
}

// Error implements the error interface so internal Go plumbing (tests,
// CLI diagnostics) can treat an unhandled Exception like any other Go
// error without a parallel type switch.
func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// String renders a CPython-style traceback, outermost frame first.
func (e *Exception) String() string {
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for i := len(e.Traceback) - 1; i >= 0; i-- {
		b.WriteString(e.Traceback[i].String())
		b.WriteByte('\n')
	}
	b.WriteString(e.Error())
	return b.String()
}

// Is reports whether e (or any exception it is chained from via Cause)
// has the given kind; used by except-clause matching.
func (e *Exception) Is(kind Kind) bool {
	for cur := e; cur != nil; cur = cur.Cause {
		if cur.Kind == kind {
			return true
		}
	}
	return false
}
