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

// Package code implements the Code and Function objects of §3/§6 and the
// bytecode-rewriting pass of §6 that turns a compiled Code's original
// bytecode into the mutable, specialization-enabled stream a Function
// actually executes.
package code

import (
	"golang.org/x/crypto/blake2b"

	"github.com/tekknolagi/skybison-sub001/object"
)

// Flags is the Code.Flags bitfield of §6, bit-for-bit matching the
// standard CPython-derived set this runtime is compatible with.
type Flags uint32

const (
	Optimized Flags = 1 << iota
	Newlocals
	Varargs
	Varkeyargs
	Nested
	Generator
	Nofree
	Coroutine
	IterableCoroutine
	AsyncGenerator
	// FutureBase is the first bit of the __future__ family; later bits
	// are allocated by whatever compiler front-end targets this core
	// (out of scope here — the core only needs to preserve the bits it
	// is handed).
	FutureBase Flags = 1 << 20
)

// Code is the compiled representation emitted by a (out-of-scope)
// compiler: argument/local counts, the constant and name pools, the
// original unrewritten bytecode, and the source-position table.
type Code struct {
	Argcount         int
	PosonlyArgcount  int
	KwonlyArgcount   int
	Nlocals          int
	Stacksize        int
	Flags            Flags
	Code             []byte // original, unrewritten bytecode — preserved for introspection
	Consts           []object.Object
	Names            []string
	Varnames         []string
	Freevars         []string
	Cellvars         []string
	Filename         string
	Name             string
	Firstlineno      int
	// Lnotab maps a bytecode offset to a source line delta as a sequence
	// of (offset-delta, line-delta) byte pairs, the line delta read as a
	// signed int8; Line resolves it to an absolute line number.
	Lnotab []byte
}

// Line resolves a bytecode offset in the *original* (unrewritten) code
// to a source line number by walking Lnotab. Frames reconstruct
// traceback entries by resolving their current PC through their
// function's Code this way; no rewritten-to-original PC mapping exists,
// so a frame passes its rewritten PC to Line as is.
func (c *Code) Line(pc int) int {
	line := c.Firstlineno
	offset := 0
	for i := 0; i+1 < len(c.Lnotab); i += 2 {
		offset += int(c.Lnotab[i])
		if offset > pc {
			break
		}
		line += int(int8(c.Lnotab[i+1]))
	}
	return line
}

// ContentHash returns a content hash of the original bytecode, used to
// make the idempotence-of-rewriting law (§8) mechanically checkable:
// rewriting c.Code twice must hash identically to rewriting it once.
func (c *Code) ContentHash() [32]byte {
	return blake2b.Sum256(c.Code)
}
