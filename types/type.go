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

// Package types provides the minimal Type/Layout/MRO surface spec.md
// declares as an out-of-scope collaborator: "the core only requires each
// type to expose layout id, instance layout, slot table, and mro". This
// is a trivial in-memory stand-in sufficient to drive the opcode
// handlers and tests, not a built-in type system.
package types

import "github.com/tekknolagi/skybison-sub001/object"

// AttrSlot describes one fixed (in-object) attribute of a Layout.
type AttrSlot struct {
	Name   string
	Offset int // index into HeapObject.Slots for this attribute
}

// Layout records one concrete shape a Type may present: the fixed
// attributes that live in-object, plus the overflow attributes that
// follow in an overflow tuple once the fixed slots are exhausted.
type Layout struct {
	ID       object.LayoutID
	Type     *Type
	Fixed    []AttrSlot
	Overflow []string // names stored in the overflow tuple, in order
}

// OffsetOf returns the in-object slot offset for name, or -1 if the
// attribute is not a fixed slot on this layout (it may still be an
// overflow attribute; see OverflowIndexOf).
func (l *Layout) OffsetOf(name string) int {
	for _, s := range l.Fixed {
		if s.Name == name {
			return s.Offset
		}
	}
	return -1
}

// OverflowIndexOf returns the index of name within the overflow tuple,
// or -1 if name is not an overflow attribute of this layout.
func (l *Layout) OverflowIndexOf(name string) int {
	for i, n := range l.Overflow {
		if n == name {
			return i
		}
	}
	return -1
}

// WithAttr returns a new Layout identical to l but with name added as a
// new overflow attribute — the shape STORE_ATTR_INSTANCE_UPDATE
// transitions an object to when it gains an attribute layouts didn't
// predict. Layouts are immutable once published so existing objects on
// the old layout remain valid; only new allocations use the new one.
func (l *Layout) WithAttr(id object.LayoutID, name string) *Layout {
	overflow := make([]string, len(l.Overflow), len(l.Overflow)+1)
	copy(overflow, l.Overflow)
	overflow = append(overflow, name)
	return &Layout{ID: id, Type: l.Type, Fixed: l.Fixed, Overflow: overflow}
}

// Slot is one entry of a type's slot table: the dunder method/behavior
// hooks the interpreter's generic paths dispatch through (__add__,
// __getattr__, __call__, __iter__, ...). The core only ever needs to
// invoke these by name; it does not interpret their bodies.
type Slot struct {
	Name  string
	Value object.Object // typically a Function, bound via ValueCell
}

// Type is the minimal description of a Python type the core requires:
// an MRO for attribute resolution and a slot table for dunder dispatch.
// Concrete built-in type bodies (what int.__add__ actually does) are out
// of scope; Type exists so cache/interp code has something to key on.
type Type struct {
	Name    string
	Mro     []*Type // method resolution order, self first
	Slots   map[string]Slot
	Layouts []*Layout // every layout this type has ever produced

	// Dict is this type's own attribute dict (not instance attributes):
	// each entry is backed by a cache.ValueCell so that LOAD_GLOBAL- and
	// LOAD_ATTR-style caches can register a dependency on it.
	Dict map[string]ValueCellRef
}

// ValueCellRef breaks an import cycle with package cache: cache.ValueCell
// implements this interface, and Type.Dict stores the interface rather
// than a concrete cache.ValueCell.
type ValueCellRef interface {
	Value() object.Object
}

// NewType creates a type with an MRO of itself followed by baseMro and
// no layouts registered; callers append to Layouts.
func NewType(name string, baseMro []*Type) *Type {
	t := &Type{Name: name, Slots: map[string]Slot{}, Dict: map[string]ValueCellRef{}}
	t.Mro = append([]*Type{t}, baseMro...)
	return t
}

// ResolveAttr walks the MRO looking for a type-level attribute named
// name (a method or other class attribute, not an instance attribute).
// It returns the owning type so dependency tracking can be scoped to the
// precise MRO entry that currently provides the attribute.
func (t *Type) ResolveAttr(name string) (owner *Type, cell ValueCellRef, found bool) {
	for _, m := range t.Mro {
		if cell, ok := m.Dict[name]; ok {
			return m, cell, true
		}
	}
	return nil, nil, false
}

// LayoutByID finds a previously registered layout.
func (t *Type) LayoutByID(id object.LayoutID) *Layout {
	for _, l := range t.Layouts {
		if l.ID == id {
			return l
		}
	}
	return nil
}
