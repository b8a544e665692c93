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

// Package gchooks specifies the collector collaborator §1 names as out
// of scope: the core only declares which words are roots (frame locals,
// value stacks, handle scopes), never how a collector traces, moves, or
// reclaims them. This package carries no collector; the host Go
// runtime's own collector manages every value this core allocates (see
// object.HeapObject's doc comment), so RootSet exists purely so a future
// out-of-process collector integration (or a test asserting root
// reachability) has somewhere to ask "what does the interpreter
// currently consider live".
package gchooks

import (
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/object"
)

// RootSet collects every root an in-flight Thread currently holds:
// each live frame's locals and value stack, in caller order.
type RootSet struct {
	Roots []object.Object
}

// Collect walks fr's Caller chain and appends every local and
// value-stack slot it finds, innermost frame first.
func Collect(fr *frame.Frame) RootSet {
	var rs RootSet
	for f := fr; f != nil; f = f.Caller {
		rs.Roots = append(rs.Roots, f.Locals...)
		rs.Roots = append(rs.Roots, f.ValueStack...)
	}
	return rs
}

// Len reports how many roots were collected.
func (rs RootSet) Len() int { return len(rs.Roots) }
