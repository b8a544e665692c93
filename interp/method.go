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

// execLoadMethod implements LOAD_METHOD[...]: like LOAD_ATTR but leaves
// the receiver on the stack alongside the resolved callable so the
// following CALL_METHOD can splay it as the bound self without an
// intermediate bound-method allocation (CPython's own "load method"
// optimization, §4.C's LOAD_METHOD family exists for the same reason).
// This core resolves the callable through types.Type.ResolveAttr — a
// lookup in each MRO entry's Dict — and specializes to LOAD_METHOD_TYPE
// on success; instance-level callables (LOAD_METHOD_INSTANCE_FUNCTION,
// LOAD_METHOD_MODULE) are not handled, since type-level Dict entries are
// the only method source it models.
func execLoadMethod(m *Machine, fr *frame.Frame, d decoded) result {
	recv := fr.Pop()
	name := fr.Pop()
	if !object.IsSmallStr(name) {
		return raise(exc.New(exc.TypeError, "method name must be a str"))
	}
	attrName := string(object.SmallStrValue(name))
	lid := layoutIDOf(m, recv)

	typ, ok := m.Types[lid]
	if !ok {
		return raise(exc.New(exc.AttributeError, "%q object has no attribute %q", typeName(m, lid), attrName))
	}
	_, cell, found := typ.ResolveAttr(attrName)
	if !found {
		return raise(exc.New(exc.AttributeError, "%q object has no attribute %q", typeName(m, lid), attrName))
	}

	if d.op == opcode.LoadMethodAnamorphic {
		fr.Bytecode[d.unitStart] = byte(opcode.LoadMethodType)
		fr.Caches.Specialize(d.cacheIdx, lid.AsSmallInt(), object.Object(0))
	}
	fr.Push(recv)
	fr.Push(cell.Value())
	return next()
}
