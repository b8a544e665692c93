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

package cache

import (
	"github.com/dchest/siphash"

	"github.com/tekknolagi/skybison-sub001/object"
)

// link is one entry of a ValueCell's dependency chain: which tuple slot
// cached a value derived from this cell. The spec calls this a WeakLink;
// this implementation does not weaken the pointer (the host Go
// collector owns memory management, see object.HeapObject's doc
// comment), but it is logically the same "function depends on this
// cell" edge, removed the same way: by walking the chain on mutation.
type link struct {
	tuple *Tuple
	index int
}

// ValueCell is the indirection cell behind a module or type attribute:
// its current value, plus the list of cache entries that depend on it.
// Mutating attr triggers Evict, which walks this list synchronously —
// by the time a `type.attr = ...` call returns, every dependent cache
// entry has already been reverted to anamorphic (§5 "Ordering").
type ValueCell struct {
	value   object.Object
	bucket  uint64 // room for a BucketKey of the owning (layout, name) pair; nothing sets it
	depends []link
}

// NewValueCell creates a cell seeded with an initial value.
func NewValueCell(v object.Object) *ValueCell {
	return &ValueCell{value: v}
}

// Value returns the cell's current value. This also satisfies
// types.ValueCellRef by structural typing, so a *ValueCell can be
// dropped directly into a Type's Dict.
func (c *ValueCell) Value() object.Object { return c.value }

var siphashKey0, siphashKey1 uint64 = 0x7061756c5f616c6c, 0x656e2073686f7274

// BucketKey hashes an owning (layoutID, attribute-name) pair into a
// 64-bit bucket id, mirroring the teacher's use of siphash for
// hash-aggregate bucket ids (vm/interphash.go) rather than a non-keyed
// hash like fnv or crc32. No code in this package stores the result or
// groups dependents by it.
func BucketKey(layout object.LayoutID, attr string) uint64 {
	return siphash.Hash(siphashKey0, siphashKey1, append(int32Bytes(int32(layout)), attr...))
}

func int32Bytes(v int32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// Set overwrites the cell's value and evicts every dependent cache
// entry. This is the synchronous half of §4.C's dependency tracking:
// "Mutating a type attribute traverses this chain and evicts
// dependents."
func (c *ValueCell) Set(v object.Object) {
	c.value = v
	c.Evict()
}

// Delete clears the cell (used for `del type.attr`) and evicts
// dependents exactly as Set does.
func (c *ValueCell) Delete() {
	c.value = object.ErrNotFound
	c.Evict()
}

// Evict walks the dependency chain and invalidates every cache entry
// that was populated from this cell's value, without changing the
// cell's own value. Exposed separately from Set/Delete so that MRO
// shadowing changes (a base class attribute newly exposed or hidden by
// a subclass write) can evict a cell's dependents even when the write
// happened on a different cell in the MRO.
func (c *ValueCell) Evict() {
	deps := c.depends
	c.depends = nil
	for _, d := range deps {
		d.tuple.Invalidate(d.index)
	}
}

// AddDependent appends the caching function's (tuple, index) pair onto
// this cell's dependency list — done once, the first time a cache entry
// is populated from this cell's value (§4.C "the caching function is
// appended to each participating ValueCell's weak-linked dependency
// list"). Duplicate registration (the same opcode re-specializing after
// a prior eviction) is harmless but avoided for a tidier list.
func (c *ValueCell) AddDependent(t *Tuple, index int) {
	for _, d := range c.depends {
		if d.tuple == t && d.index == index {
			return
		}
	}
	c.depends = append(c.depends, link{tuple: t, index: index})
}

// Dependents reports how many cache entries currently depend on c;
// exposed for tests checking invariant 3 of §8 (reachability of cache
// values from a ValueCell's dependency list).
func (c *ValueCell) Dependents() int { return len(c.depends) }
