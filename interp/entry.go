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
	"github.com/tekknolagi/skybison-sub001/code"
	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/thread"
)

// InterpretedEntry implements code.Entry by running fn's bytecode
// through the threaded dispatch loop. It is the default entry point
// every Function gets when loaded (see code.NewFunction); jit.Compile
// installs a CompiledEntry in its place when called (nothing tracks
// hotness), and jit.Deoptimize restores the previous entry on a guard
// failure.
type InterpretedEntry struct {
	M *Machine
}

// Invoke builds a fresh Frame for fn, binds args into its locals (the
// call prolog's argument-splatting work; keyword/default-argument
// resolution is package callpath's job, done before args reaches here),
// and runs it under th's recursion guard.
func (ie InterpretedEntry) Invoke(th *thread.Thread, fn *code.Function, args []object.Object) (object.Object, *exc.Exception) {
	fr := frame.New(nil, fn.Code.Nlocals, fn.Bytecode, fn.Caches, frame.Normal)
	fr.FuncName = fn.Name
	fr.File = fn.Code.Filename
	fr.Lnotab = fn.Code.Line
	for i, a := range args {
		if i >= len(fr.Locals) {
			break
		}
		fr.Locals[i] = a
	}
	for i := len(args); i < len(fr.Locals); i++ {
		fr.Locals[i] = object.ErrNotFound
	}

	if e := th.EnterFrame(fr); e != nil {
		return object.Object(0), e
	}
	defer th.ExitFrame()
	return Run(th, ie.M, fr)
}
