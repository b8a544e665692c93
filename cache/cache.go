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

// Package cache implements the inline-cache subsystem of §4.C: per-site
// cache entries, the anamorphic -> monomorphic -> polymorphic ->
// megamorphic state machine, and ValueCell-based dependency tracking
// with synchronous invalidation.
package cache

import (
	"golang.org/x/exp/slices"

	"github.com/tekknolagi/skybison-sub001/object"
)

// EntryState names where a cache entry sits in the specialization state
// machine. Per the monotonicity law (§8), a state only ever increases
// except through explicit Invalidate, which resets it to Anamorphic.
type EntryState uint8

const (
	Anamorphic EntryState = iota
	Monomorphic
	Polymorphic
	Megamorphic
)

func (s EntryState) String() string {
	switch s {
	case Anamorphic:
		return "anamorphic"
	case Monomorphic:
		return "monomorphic"
	case Polymorphic:
		return "polymorphic"
	case Megamorphic:
		return "megamorphic"
	default:
		return "invalid"
	}
}

// maxPolymorphicFanout bounds a polymorphic entry's nested {layout,
// target} list before it degrades to megamorphic. The teacher's
// analogous tunable (the hash-aggregate bucket fan-out in
// vm/hash_aggregate.go) is also a small fixed constant for the same
// reason: linear probing beyond a handful of entries stops paying for
// itself. It is a fixed constant: config.Tuning.PolymorphicFanout is not
// consulted here.
const maxPolymorphicFanout = 4

// PolyPair is one {layout-id, target} entry of a polymorphic cache.
type PolyPair struct {
	Key   object.Object
	Value object.Object
}

// Reverter is implemented by whatever owns the rewritten bytecode a
// cache entry specializes (code.Function, in this repo): on
// invalidation the cache subsystem asks the owner to rewrite the opcode
// at PC back to its *_ANAMORPHIC form.
type Reverter interface {
	RevertToAnamorphic(pc int)
}

// Entry is one {key, value} slot of a function's inline-cache tuple,
// backing exactly one caching opcode.
type Entry struct {
	State EntryState
	PC    int // byte offset of the owning opcode in the rewritten bytecode

	// Monomorphic / Global form.
	Key   object.Object
	Value object.Object

	// Polymorphic form; populated once State == Polymorphic.
	Poly []PolyPair

	// BinOpFlags carries the 4-bit Reflected/NotImplementedRetry/
	// InplaceRetry field described in §4.C for binary-op cache entries.
	BinOpFlags uint8
}

const (
	FlagReflected           uint8 = 1 << 0
	FlagNotImplementedRetry uint8 = 1 << 1
	FlagInplaceRetry        uint8 = 1 << 2
)

// Tuple is a function's per-call-site inline-cache storage: a flat array
// of N entries sized at compile time to cover every caching opcode in
// the function, matching the spec's MutableTuple of {key, value} pairs.
type Tuple struct {
	entries []Entry
	owner   Reverter
}

// NewTuple allocates a tuple with n anamorphic entries, owned by owner
// for invalidation callbacks.
func NewTuple(n int, owner Reverter) *Tuple {
	t := &Tuple{entries: make([]Entry, n), owner: owner}
	for i := range t.entries {
		t.entries[i].PC = -1
	}
	return t
}

// Len reports the number of cache slots.
func (t *Tuple) Len() int { return len(t.entries) }

// At returns a copy of the entry at idx for inspection (tests, deopt
// diagnostics). Mutation must go through the Specialize/Miss/Invalidate
// methods so the state machine's invariants hold.
func (t *Tuple) At(idx int) Entry { return t.entries[idx] }

// BindPC records which bytecode offset a cache slot specializes, done
// once at function-load time when the anamorphic placeholder is
// installed (§6 "rewritten bytecode").
func (t *Tuple) BindPC(idx, pc int) { t.entries[idx].PC = pc }

// Specialize transitions an anamorphic entry to monomorphic after its
// first execution, per the three-step protocol in §4.C: run the slow
// path, classify the result, then populate and rewrite.
func (t *Tuple) Specialize(idx int, key, value object.Object) {
	e := &t.entries[idx]
	e.State = Monomorphic
	e.Key = key
	e.Value = value
}

// SpecializeGlobal is Specialize's global-cache variant: the key is
// conceptually None (there is nothing to compare against, a module's
// ValueCell binding does not change identity), only the value matters.
func (t *Tuple) SpecializeGlobal(idx int, cell object.Object) {
	e := &t.entries[idx]
	e.State = Monomorphic
	e.Key = object.None
	e.Value = cell
}

// SpecializeBinOp is Specialize's binary-operator variant, also storing
// the reflected/retry flag word described in §4.C.
func (t *Tuple) SpecializeBinOp(idx int, key, value object.Object, flags uint8) {
	e := &t.entries[idx]
	e.State = Monomorphic
	e.Key = key
	e.Value = value
	e.BinOpFlags = flags
}

// Miss is called when a monomorphic entry's key check fails: on the
// first miss it grows into a polymorphic entry seeded with both the old
// and new {key, value} pairs; on a miss against an already-polymorphic
// entry it either appends (fan-out < max) or degrades to megamorphic.
func (t *Tuple) Miss(idx int, key, value object.Object) {
	e := &t.entries[idx]
	switch e.State {
	case Monomorphic:
		e.Poly = []PolyPair{{Key: e.Key, Value: e.Value}, {Key: key, Value: value}}
		e.State = Polymorphic
	case Polymorphic:
		if slices.ContainsFunc(e.Poly, func(p PolyPair) bool { return p.Key == key }) {
			return // already present; a stale Miss call, nothing to do
		}
		if len(e.Poly) >= maxPolymorphicFanout {
			e.State = Megamorphic
			e.Poly = nil
			return
		}
		e.Poly = append(e.Poly, PolyPair{Key: key, Value: value})
	case Megamorphic:
		// Already at the bottom of the lattice; stays there until an
		// explicit Invalidate. Implementations may instead keep stats
		// here (§4.C "implementations may choose simply to deoptimize");
		// this one does not bother.
	case Anamorphic:
		// A Miss before any Specialize call is a caller bug: the first
		// execution of an anamorphic opcode always goes through
		// Specialize, never Miss.
		panic("cache: Miss called on an anamorphic entry")
	}
}

// Probe looks up key in a polymorphic entry's nested pairs, linearly,
// matching the spec's "probed linearly" phrasing.
func (e Entry) Probe(key object.Object) (object.Object, bool) {
	for _, p := range e.Poly {
		if p.Key == key {
			return p.Value, true
		}
	}
	return object.Object(0), false
}

// Invalidate reverts the entry at idx to Anamorphic and asks the owning
// Reverter to rewrite the corresponding opcode back to its unspecialized
// form. This is the only operation that may move an entry backward in
// the specialization lattice (§8 invariant 7).
func (t *Tuple) Invalidate(idx int) {
	e := &t.entries[idx]
	if e.State == Anamorphic {
		return
	}
	pc := e.PC
	*e = Entry{PC: pc}
	if t.owner != nil && pc >= 0 {
		t.owner.RevertToAnamorphic(pc)
	}
}
