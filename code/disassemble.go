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
	"fmt"

	"github.com/tekknolagi/skybison-sub001/opcode"
)

// Disassemble renders f's rewritten bytecode one instruction per line:
// byte offset, opcode mnemonic, oparg, and (for a specialized/caching
// opcode) the cache-tuple index and its current state, one of the few
// places outside of cache.Tuple itself that reads entry state for
// anything other than a dispatch decision. It exists to make the
// rewriting-idempotence law checkable by eye and to give Function a
// debug string representation beyond its address, mirroring the
// teacher's disassembly helpers built for bytecode tests.
func (f *Function) Disassemble() []string {
	var lines []string
	pc := 0
	for pc < len(f.Bytecode) {
		op := opcodeAt(f.Bytecode, pc)
		arg := f.Bytecode[pc+1]
		size := unitSizeFor(op)

		line := fmt.Sprintf("%4d %-32s %3d", pc, op, arg)
		if size == 4 {
			idx := int(f.Bytecode[pc+2])<<8 | int(f.Bytecode[pc+3])
			entry := f.Caches.At(idx)
			line += fmt.Sprintf("  cache[%d]=%s", idx, entry.State)
		}
		lines = append(lines, line)
		pc += size
	}
	return lines
}
