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

// execLoadGlobal implements LOAD_GLOBAL: the anamorphic form resolves
// the name (popped off the value stack, as a small string, matching
// loadAttrSlow's name-as-operand convention) against m.Globals and
// specializes the cache entry to the cell's value at that moment (the
// entry holds the value, not a reference to the *cache.ValueCell),
// registering a dependency so a later eviction of that cell reverts the
// cache entry (§4.C's global-cache variant: "key is conceptually None").
func execLoadGlobal(m *Machine, fr *frame.Frame, d decoded) result {
	if d.op == opcode.LoadGlobalCached {
		e := fr.Caches.At(d.cacheIdx)
		if e.State != 0 { // Monomorphic or beyond: cell survived without eviction
			// e.Value holds the ValueCell's last-known value directly;
			// Invalidate() resets State to Anamorphic on eviction, so
			// reaching here means the cell has not been evicted since.
			fr.Push(e.Value)
			return next()
		}
	}

	name := fr.Pop()
	if !object.IsSmallStr(name) {
		return raise(exc.New(exc.TypeError, "global name must be a str"))
	}
	attrName := string(object.SmallStrValue(name))

	cell, ok := m.Globals[attrName]
	if !ok {
		return raise(exc.New(exc.AttributeError, "name %q is not defined", attrName))
	}
	v := cell.Value()
	if object.IsError(v) {
		return raise(exc.New(exc.AttributeError, "name %q is not defined", attrName))
	}

	fr.Bytecode[d.unitStart] = byte(opcode.LoadGlobalCached)
	fr.Caches.SpecializeGlobal(d.cacheIdx, v)
	cell.AddDependent(fr.Caches, d.cacheIdx)
	fr.Push(v)
	return next()
}
