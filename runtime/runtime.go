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

// Package runtime assembles every other package into one running
// interpreter: the heap arena, the type table, the module (global
// variable) table, the ApiHandle registry, and the set of live Threads,
// all guarded by the single exclusive-execution lock §5 describes ("one
// interpreter thread mutates user state at a time; others block").
package runtime

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"

	"github.com/tekknolagi/skybison-sub001/callpath"
	"github.com/tekknolagi/skybison-sub001/cache"
	"github.com/tekknolagi/skybison-sub001/code"
	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/interp"
	"github.com/tekknolagi/skybison-sub001/jit"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/thread"
	"github.com/tekknolagi/skybison-sub001/types"
)

// Module is a namespace of global bindings, each backed by a ValueCell
// so LOAD_GLOBAL sites can register a dependency on it exactly as a
// type's Dict entries do.
type Module struct {
	Name    string
	Globals map[string]*cache.ValueCell
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, Globals: map[string]*cache.ValueCell{}}
}

// Runtime owns every piece of shared, cross-thread state: the heap
// arena, the registered types (keyed by LayoutID), the loaded modules,
// the call Registry, and the ApiHandle table. gLock is the single
// exclusive-execution lock of §5 — Run holds it for the whole of a
// top-level call, so one goroutine at a time runs bytecode through Run.
type Runtime struct {
	ID uuid.UUID

	Arena    *object.Arena
	Types    map[object.LayoutID]*types.Type
	Modules  map[string]*Module
	Handles  *object.ApiHandles
	Registry *callpath.Registry

	gLock   sync.Mutex
	threads map[uuid.UUID]*thread.Thread
}

// New creates an empty Runtime with no modules, types, or threads yet.
func New() *Runtime {
	return &Runtime{
		ID:       uuid.New(),
		Arena:    object.NewArena(),
		Types:    map[object.LayoutID]*types.Type{},
		Modules:  map[string]*Module{},
		Handles:  object.NewApiHandles(),
		Registry: callpath.NewRegistry(),
		threads:  map[uuid.UUID]*thread.Thread{},
	}
}

// Machine builds the interp.Machine view of this Runtime's shared state
// for the named module's global scope, wiring r.Registry.Call as the
// CALL_FUNCTION choke point (see callpath.Registry.Call) and
// jit.Deoptimize as the hook a CompiledEntry frame's guard miss drives
// automatically (see jit.CompiledEntry).
func (r *Runtime) Machine(moduleName string) *interp.Machine {
	mod, ok := r.Modules[moduleName]
	if !ok {
		mod = NewModule(moduleName)
		r.Modules[moduleName] = mod
	}
	return &interp.Machine{
		Arena:        r.Arena,
		Types:        r.Types,
		Globals:      mod.Globals,
		CallFunction: r.Registry.Call,
		Deoptimize:   jit.Deoptimize,
	}
}

// ModuleNames returns every currently loaded module's name, sorted for
// stable diagnostic output (a REPL's `help()`-style listing, or a
// snapshot manifest written alongside code.Snapshot entries).
func (r *Runtime) ModuleNames() []string {
	names := maps.Keys(r.Modules)
	sort.Strings(names)
	return names
}

// NewThread creates and registers a new Thread against this Runtime.
func (r *Runtime) NewThread() *thread.Thread {
	th := thread.New()
	r.gLock.Lock()
	r.threads[th.ID] = th
	r.gLock.Unlock()
	return th
}

// RegisterType adds t under each of its layout ids.
func (r *Runtime) RegisterType(t *types.Type) {
	for _, l := range t.Layouts {
		r.Types[l.ID] = t
	}
}

// LoadFunction rewrites c into a Function bound to m's interpreter
// (InterpretedEntry is always the entry point a freshly loaded function
// gets; an explicit jit.Compile call may replace it later), registers it in
// r.Registry under a freshly allocated heap marker, and returns that
// marker object — the tagged word user bytecode loads to call it.
func (r *Runtime) LoadFunction(m *interp.Machine, c *code.Code) object.Object {
	fn := code.NewFunction(c, interp.InterpretedEntry{M: m})
	marker := r.Arena.Alloc(&object.HeapObject{})
	r.Registry.RegisterFunction(marker, fn)
	return marker
}

// Run executes a top-level function marker with args on th, under this
// Runtime's exclusive-execution lock: only one Thread may mutate shared
// state at a time (§5). Nested calls made from within fn do not
// re-acquire the lock; they run on the same goroutine holding it
// already.
func (r *Runtime) Run(th *thread.Thread, m *interp.Machine, marker object.Object, args []object.Object) (object.Object, *exc.Exception) {
	r.gLock.Lock()
	defer r.gLock.Unlock()
	return r.Registry.Call(th, m, nil, marker, args)
}
