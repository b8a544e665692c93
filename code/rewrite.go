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
	"github.com/tekknolagi/skybison-sub001/opcode"
)

// opcodeAt reads the Op stored at byte offset pc in a rewritten bytecode
// stream. Rewritten units are (op byte, oparg byte[, cache-index
// uint16]); the opcode always occupies the first byte.
func opcodeAt(code []byte, pc int) opcode.Op {
	return opcode.Op(code[pc])
}

// unitSizeFor returns how many bytes the rewritten unit starting with op
// occupies, delegating to opcode.Op.UnitSize.
func unitSizeFor(op opcode.Op) int {
	return op.UnitSize()
}

// anamorphicLookup is opcode.AnamorphicOf under the name RevertToAnamorphic
// calls it by; it is a plain function, not a replaceable variable.
func anamorphicLookup(op opcode.Op) opcode.Op {
	return opcode.AnamorphicOf(op)
}

// cacheIndexAt reads the trailing 16-bit cache-tuple index of a caching
// opcode's rewritten unit, stored big-endian in the two bytes following
// (op, oparg).
func cacheIndexAt(code []byte, pc int) int {
	return int(code[pc+2])<<8 | int(code[pc+3])
}

// rewritten holds the product of a Rewrite pass before a Tuple (which
// needs a Reverter to bind to) can be constructed: the widened bytecode
// plus, for each cache slot in emission order, the PC it was bound at.
type rewritten struct {
	code        []byte
	cacheSlotPC []int
}

// Rewrite walks c's original bytecode and produces the mutable,
// specialization-enabled stream a Function executes, per §6: every
// opcode belonging to a specialization family (per opcode.Table) is
// placed in its _ANAMORPHIC form and given a trailing cache-tuple index,
// growing that unit from 2 to 4 bytes, so every later instruction's byte
// offset moves by 2 for each caching unit before it. EXTENDED_ARG
// prefixes and opargs (including offsets carried as opargs) are copied
// through unchanged. Rewrite reads only c.Code and never modifies it,
// which is what makes re-running Rewrite over the same Code idempotent
// (§8): the content hash of the *input* never changes, so the output is
// reproducible byte for byte.
func Rewrite(c *Code) rewritten {
	var r rewritten
	r.code = make([]byte, 0, len(c.Code)*2)

	pc := 0
	for pc < len(c.Code) {
		op := opcode.Op(c.Code[pc])
		arg := c.Code[pc+1]
		info := opcode.Table[op]

		if info.Caching {
			idx := len(r.cacheSlotPC)
			r.cacheSlotPC = append(r.cacheSlotPC, len(r.code))
			emitted := op
			if !info.Anamorphic {
				// original bytecode should already only contain the
				// anamorphic entry point of any family; defensively
				// normalize in case a compiler front-end emitted a
				// pre-specialized opcode directly.
				emitted = opcode.AnamorphicOf(op)
			}
			r.code = append(r.code, byte(emitted), arg, byte(idx>>8), byte(idx))
		} else {
			r.code = append(r.code, byte(op), arg)
		}
		pc += 2
	}
	return r
}

// NewFunction builds a Function from a compiled Code object by running
// the rewriting pass and wiring up a fresh, anamorphic cache.Tuple bound
// back to the Function as its Reverter.
func NewFunction(c *Code, entry Entry) *Function {
	fn := &Function{Code: c, Name: c.Name, EntryAsm: entry}

	r := Rewrite(c)
	fn.Bytecode = r.code
	fn.Caches = cache.NewTuple(len(r.cacheSlotPC), fn)
	for idx, pc := range r.cacheSlotPC {
		fn.Caches.BindPC(idx, pc)
	}

	fn.TotalArgs = c.Argcount + c.PosonlyArgcount + c.KwonlyArgcount
	fn.TotalVars = c.Nlocals
	if c.Flags&Varargs == 0 && c.Flags&Varkeyargs == 0 {
		fn.Flags |= SimpleCall
	}
	if c.Flags&Nofree != 0 {
		fn.Flags |= FnNofree
	}
	if c.Flags&IterableCoroutine != 0 {
		fn.Flags |= FnIterableCoroutine
	}
	return fn
}
