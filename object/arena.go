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

package object

// HeapObject is the in-memory representation of any non-immediate value.
// The real runtime this spec describes packs the header and attribute
// slots contiguously in one allocation; this package instead keeps the
// header next to a Go-native body and lets the host Go runtime's own
// collector manage the backing memory (the core only needs to declare
// which words are roots, per the spec's GC collaborator contract — it
// does not implement a collector). See gchooks.RootSet for that contract.
type HeapObject struct {
	Head  header
	Slots []Object // FormatObjects / FormatTuple body
	Bytes []byte   // FormatBytes body
	Word  uint64   // FormatWord body (boxed int limb or float64 bits)
}

// Arena hands out tagged Object words for heap objects. A real moving GC
// would update these indices on compaction; this arena never compacts,
// so a tagged index is stable for the process lifetime.
type Arena struct {
	objects []*HeapObject
}

// NewArena returns an empty heap arena.
func NewArena() *Arena { return &Arena{} }

// Alloc places obj in the arena and returns its tagged Object word.
func (a *Arena) Alloc(obj *HeapObject) Object {
	idx := uint64(len(a.objects))
	a.objects = append(a.objects, obj)
	return Object(idx<<3 | tagHeap)
}

// Resolve returns the HeapObject a tagged Object word refers to. The
// caller must have checked IsHeapObject(o).
func (a *Arena) Resolve(o Object) *HeapObject {
	idx := uint64(o) >> 3
	return a.objects[idx]
}

// HeaderOf adapts Arena to the LayoutIDOf(Object, func(Object) header)
// signature used by callers that don't want to special-case heap vs
// immediate themselves.
func (a *Arena) HeaderOf(o Object) header { return a.Resolve(o).Head }

// LayoutIDOf is Arena-bound sugar over the package-level LayoutIDOf.
func (a *Arena) LayoutIDOf(o Object) LayoutID { return LayoutIDOf(o, a.HeaderOf) }
