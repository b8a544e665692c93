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
	"github.com/tekknolagi/skybison-sub001/object"
)

// Suspended is a frozen copy of everything a generator frame needs to
// resume exactly where YIELD_VALUE/YIELD_FROM left it: locals, value
// stack, block stack, and the packed return-mode/depth state. It is
// deliberately a plain value type with no Caller pointer, since a
// suspended generator is not on any thread's live call chain until
// Resume relinks it under whichever frame drives it next (the resuming
// frame may differ call to call, per §9 "generator frames detach from
// the caller chain between resumptions").
type Suspended struct {
	pc         int
	bytecode   []byte
	caches     *cache.Tuple
	locals     []object.Object
	valueStack []object.Object
	blocks     blockStack
	state      packedState
	funcName   string
	file       string
	lnotab     func(int) int
}

// Suspend snapshots f as of resumePC (normally the PC immediately after
// the YIELD_VALUE/YIELD_FROM unit that is suspending it). The frame
// itself is left usable by the caller; Suspend copies rather than
// drains f's locals and value stack.
func (f *Frame) Suspend(resumePC int) *Suspended {
	return &Suspended{
		pc:         resumePC,
		bytecode:   f.Bytecode,
		caches:     f.Caches,
		locals:     append([]object.Object(nil), f.Locals...),
		valueStack: append([]object.Object(nil), f.ValueStack...),
		blocks:     f.blocks,
		state:      f.state,
		funcName:   f.FuncName,
		file:       f.File,
		lnotab:     f.Lnotab,
	}
}

// Resume rebuilds a runnable Frame from s, linking it under parent (the
// frame whose FOR_ITER_GENERATOR or send() call is driving this
// generator forward).
func (s *Suspended) Resume(parent *Frame) *Frame {
	return &Frame{
		Caller:     parent,
		PC:         s.pc,
		Bytecode:   s.bytecode,
		Caches:     s.caches,
		Locals:     append([]object.Object(nil), s.locals...),
		ValueStack: append([]object.Object(nil), s.valueStack...),
		blocks:     s.blocks,
		state:      s.state,
		FuncName:   s.funcName,
		File:       s.file,
		Lnotab:     s.lnotab,
	}
}

// PC reports the byte offset Resume will continue from, useful for
// diagnostics (e.g. printing a generator's current line via Code.Line).
func (s *Suspended) PC() int { return s.pc }
