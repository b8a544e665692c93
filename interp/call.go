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
	"github.com/tekknolagi/skybison-sub001/thread"
)

// execCallFunction implements the CALL_FUNCTION family: oparg gives the
// argument count; the callable sits below them on the value stack (§4.D
// "CALL_FUNCTION oparg, callable and args on stack"). CALL_METHOD expects
// one more stack slot below the callable: the receiver execLoadMethod
// left there, which is splayed onto the front of args exactly the way
// callpath.Registry.Call splays a bound method's self. The actual prolog
// (recursion guard, intrinsic trampoline) beyond that is package
// callpath's job, reached here through m.CallFunction so that interp and
// callpath can refer to each other's types without an import cycle
// (callpath recurses back into Run for non-intrinsic calls).
func execCallFunction(th *thread.Thread, m *Machine, fr *frame.Frame, d decoded) result {
	argc := d.arg
	args := make([]object.Object, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = fr.Pop()
	}
	callable := fr.Pop()
	if d.op == opcode.CallMethod {
		self := fr.Pop()
		args = append([]object.Object{self}, args...)
	}

	if m.CallFunction == nil {
		return raise(exc.New(exc.TypeError, "no call pipeline installed"))
	}
	v, e := m.CallFunction(th, m, fr, callable, args)
	if e != nil {
		return raise(e)
	}
	fr.Push(v)
	return next()
}
