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

package interp

import (
	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/opcode"
)

// execBinarySubscr implements BINARY_SUBSCR[...]: container[index]. This
// core does not carry distinct List/Tuple/Dict heap layouts (that is the
// out-of-scope builtin type system's job, per types.Layout's doc
// comment), so every container is addressed the same way — as a flat
// Slots array — and BINARY_SUBSCR_LIST is the one specialization this
// core ever installs; the _TUPLE/_DICT/_MONOMORPHIC/_POLYMORPHIC
// opcodes exist in the table for a fuller build's benefit but this
// core's anamorphic handler always specializes to _LIST once a lookup
// succeeds.
func execBinarySubscr(m *Machine, fr *frame.Frame, d decoded) result {
	index := fr.Pop()
	recv := fr.Pop()

	if !object.IsHeapObject(recv) || !object.IsSmallInt(index) {
		return raise(exc.New(exc.TypeError, "unsupported operand type(s) for subscript"))
	}
	ho := m.Arena.Resolve(recv)
	idx := object.SmallInt(index)
	if idx < 0 || int(idx) >= len(ho.Slots) {
		return raise(exc.New(exc.ValueError, "index out of range"))
	}

	lid := layoutIDOf(m, recv)
	if d.op == opcode.BinarySubscrAnamorphic {
		fr.Bytecode[d.unitStart] = byte(opcode.BinarySubscrList)
		fr.Caches.Specialize(d.cacheIdx, lid.AsSmallInt(), object.Object(0))
	} else {
		e := fr.Caches.At(d.cacheIdx)
		if e.Key != lid.AsSmallInt() {
			fr.Caches.Miss(d.cacheIdx, lid.AsSmallInt(), object.Object(0))
		}
	}
	fr.Push(ho.Slots[idx])
	return next()
}

// execStoreSubscr implements STORE_SUBSCR[...]: container[index] = value,
// the STORE_SUBSCR_LIST path being the only one this core ever installs,
// mirroring execBinarySubscr's simplification.
func execStoreSubscr(m *Machine, fr *frame.Frame, d decoded) result {
	value := fr.Pop()
	index := fr.Pop()
	recv := fr.Pop()

	if !object.IsHeapObject(recv) || !object.IsSmallInt(index) {
		return raise(exc.New(exc.TypeError, "unsupported operand type(s) for subscript assignment"))
	}
	ho := m.Arena.Resolve(recv)
	idx := object.SmallInt(index)
	if idx < 0 || int(idx) >= len(ho.Slots) {
		return raise(exc.New(exc.ValueError, "index out of range"))
	}

	lid := layoutIDOf(m, recv)
	if d.op == opcode.StoreSubscrAnamorphic {
		fr.Bytecode[d.unitStart] = byte(opcode.StoreSubscrList)
		fr.Caches.Specialize(d.cacheIdx, lid.AsSmallInt(), object.Object(0))
	} else {
		e := fr.Caches.At(d.cacheIdx)
		if e.Key != lid.AsSmallInt() {
			fr.Caches.Miss(d.cacheIdx, lid.AsSmallInt(), object.Object(0))
		}
	}
	ho.Slots[idx] = value
	return next()
}
