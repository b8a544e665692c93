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

// Package-level constant used by tests checking invariant 6 of §8: every
// reachable immediate-backed ApiHandle reports this fixed refcount.
const kImmediateRefcnt = 1<<63 - 1

const borrowedBit = uint64(1) << 63

// ApiHandle is the C-extension-visible wrapper around a managed object:
// a refcount (high bit overloaded as the borrowed flag) and a type
// pointer, as in the PyObject header, followed by the wrapped object and
// an extension-owned cache slot, so it is four fields, not two words.
type ApiHandle struct {
	refcnt uint64
	typ    *HeapObject // the handle's type object, resolved lazily by callers
	obj    Object       // the managed object this handle wraps (heap case)
	cache  any          // extension-owned scratch slot, see Cache/SetCache
}

// ApiHandles is the per-runtime registry mapping managed heap objects to
// their ApiHandle, keyed by object identity (arena index).
type ApiHandles struct {
	byObject map[Object]*ApiHandle
}

// NewApiHandles returns an empty registry.
func NewApiHandles() *ApiHandles {
	return &ApiHandles{byObject: make(map[Object]*ApiHandle)}
}

// NewReference returns the handle for obj, creating it with refcount 1 if
// this is the first time obj has crossed into native code. If obj is
// encodable as an immediate, a fresh ApiHandle carrying the fixed
// kImmediateRefcnt is returned without entering the registry, and
// refcount operations on it are no-ops (see IncRef/DecRef).
func (r *ApiHandles) NewReference(obj Object) *ApiHandle {
	if IsImmediate(obj) {
		return &ApiHandle{refcnt: kImmediateRefcnt, obj: obj}
	}
	if h, ok := r.byObject[obj]; ok {
		h.refcnt = (h.refcnt &^ (borrowedBit - 1)) | 1 | h.refcnt&borrowedBit
		return h
	}
	h := &ApiHandle{refcnt: 1, obj: obj}
	r.byObject[obj] = h
	return h
}

// BorrowedReference is NewReference but the returned handle is marked
// borrowed, so it survives its refcount reaching zero: disposal happens
// only when the owning reference independently drops it, or at runtime
// shutdown.
func (r *ApiHandles) BorrowedReference(obj Object) *ApiHandle {
	h := r.NewReference(obj)
	h.refcnt |= borrowedBit
	return h
}

func isImmediateHandle(h *ApiHandle) bool { return h.refcnt == kImmediateRefcnt }

// IncRef bumps h's refcount. A no-op on immediate-backed handles.
func (h *ApiHandle) IncRef() {
	if isImmediateHandle(h) {
		return
	}
	h.refcnt++
}

// DecRef drops h's refcount by one. A no-op on immediate-backed handles.
// The caller is responsible for disposing h via the owning ApiHandles
// registry once Refcnt reaches zero and IsBorrowed is false.
func (h *ApiHandle) DecRef() {
	if isImmediateHandle(h) {
		return
	}
	h.refcnt--
}

// Refcnt returns the refcount with the borrowed bit masked off, so
// comparisons against zero are correct regardless of borrowed status.
func (h *ApiHandle) Refcnt() uint64 { return h.refcnt &^ borrowedBit }

// SetRefcnt overwrites the refcount, preserving the borrowed bit.
func (h *ApiHandle) SetRefcnt(n uint64) {
	h.refcnt = h.refcnt&borrowedBit | n&^borrowedBit
}

// IsBorrowed reports whether the borrowed bit is set.
func (h *ApiHandle) IsBorrowed() bool { return h.refcnt&borrowedBit != 0 }

// SetBorrowed sets or clears the borrowed bit without touching the
// refcount magnitude.
func (h *ApiHandle) SetBorrowed(v bool) {
	if v {
		h.refcnt |= borrowedBit
	} else {
		h.refcnt &^= borrowedBit
	}
}

// StealReference atomically marks h borrowed then decrements it. This is
// the idiom used when handing a reference to code that will immediately
// re-increment it (a common C-extension pattern): because the handle is
// now borrowed, the intervening drop to zero cannot dispose it, so the
// subsequent incref does not observe a double-freed handle.
func (r *ApiHandles) StealReference(h *ApiHandle) Object {
	h.SetBorrowed(true)
	h.DecRef()
	return h.obj
}

// AsObject returns the managed Object a handle wraps.
func (h *ApiHandle) AsObject() Object { return h.obj }

// Cache returns the handle's extension-owned scratch slot.
func (h *ApiHandle) Cache() any { return h.cache }

// SetCache sets the handle's extension-owned scratch slot.
func (h *ApiHandle) SetCache(v any) { h.cache = v }

// Dispose releases h's registry entry and any cached data. It must only
// be called once h.Refcnt() == 0 and !h.IsBorrowed(); it is the caller's
// (the runtime's reference-counting driver's) job to check that.
func (r *ApiHandles) Dispose(h *ApiHandle) {
	h.cache = nil
	delete(r.byObject, h.obj)
}

// Finalizer is the native tp_finalize hook invoked by
// CallFinalizerFromDealloc.
type Finalizer func(obj Object)

// CallFinalizerFromDealloc implements the finalization-resurrection
// protocol: refcount is temporarily raised to 1, the finalizer runs (and
// may stash a new strong reference, raising the count further), then the
// count is dropped back by the 1 this function added. If the result is
// still > 0, the object was resurrected and must not be disposed.
func (r *ApiHandles) CallFinalizerFromDealloc(h *ApiHandle, fin Finalizer) (resurrected bool) {
	h.SetRefcnt(1)
	fin(h.obj)
	h.refcnt = h.refcnt&borrowedBit | (h.Refcnt() - 1)
	return h.Refcnt() > 0
}
