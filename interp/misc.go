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

// execMisc handles every opcode with no specialization family: stack
// shape, fast-locals addressing, control flow, blocks, and
// returns/raises, per §4.B/§4.D.
func execMisc(th *thread.Thread, fr *frame.Frame, d decoded) result {
	switch d.op {
	case opcode.NopFiller, opcode.ExtendedArg:
		return next()

	case opcode.CompareIs, opcode.CompareIsNot:
		// cache-less identity comparisons; see execCompare.
		return execCompare(fr, d)

	case opcode.LoadConst:
		// the compiler-assigned oparg directly carries a small immediate in
		// this core's scope (no co_consts heap-pool indirection); a full
		// compiler front-end would resolve d.arg against Code.Consts
		// instead, which code.Function retains for that purpose.
		fr.Push(object.NewSmallInt(int64(d.arg)))
		return next()
	case opcode.LoadImmediate:
		fr.Push(decodeImmediateArg(d.arg))
		return next()
	case opcode.PopTop:
		fr.Pop()
		return next()
	case opcode.DupTop:
		fr.Push(fr.Peek(0))
		return next()

	case opcode.LoadFastReverse:
		v, e := fr.LoadFastReverse(d.arg, "")
		if e != nil {
			return raise(e)
		}
		fr.Push(v)
		return next()
	case opcode.LoadFastReverseUnchecked:
		fr.Push(fr.LoadFastReverseUnchecked(d.arg))
		return next()
	case opcode.StoreFastReverse:
		fr.StoreFastReverse(d.arg, fr.Pop())
		return next()
	case opcode.DeleteFastReverse:
		fr.StoreFastReverse(d.arg, object.ErrNotFound)
		return next()

	case opcode.ReturnValue:
		return ret(fr.Pop())
	case opcode.Ret:
		return ret(object.None)

	case opcode.SetupFinally, opcode.SetupWith:
		fr.PushBlock(frame.BlockRecord{Kind: frame.BlockFinally, Target: d.arg, StackDepth: fr.Depth()})
		return next()
	case opcode.PopBlock:
		fr.PopBlock()
		return next()
	case opcode.EndFinally, opcode.EndAsyncFor:
		th.ClearException()
		return next()

	case opcode.RaiseVarargs:
		var e *exc.Exception
		switch d.arg {
		case 0:
			if th.PendingException == nil {
				e = exc.New(exc.SystemError, "No active exception to re-raise")
			} else {
				e = th.PendingException
			}
		default:
			v := fr.Pop()
			e = exceptionFromValue(v)
		}
		return raise(e)

	case opcode.YieldValue, opcode.YieldFrom, opcode.GetAwaitable:
		// generators/coroutines are an out-of-scope extension of this core
		// (§1); Yield is reserved so a future package can wire it in
		// without reshaping Continue's enumeration.
		return result{cont: Yield, val: fr.Pop()}

	default:
		return raise(exc.New(exc.SystemError, "unimplemented opcode %s", d.op))
	}
}

// decodeImmediateArg maps a LOAD_IMMEDIATE oparg to one of the handful
// of non-SmallInt immediates a compiler front-end can address directly:
// 0 => None, 1 => NotImplemented, 2 => True, 3 => False.
func decodeImmediateArg(arg int) object.Object {
	switch arg {
	case 1:
		return object.NotImplemented
	case 2:
		return object.Bool(true)
	case 3:
		return object.Bool(false)
	default:
		return object.None
	}
}

// exceptionFromValue adapts a raised value to an *exc.Exception; this
// core represents Python-level exceptions directly as exc.Exception
// values on the stack rather than modeling a separate BaseException
// heap type; RAISE_VARARGS with an operand that isn't a small string
// (used here as a minimal stand-in for "an exception instance") raises
// TypeError, matching CPython's "exceptions must derive from
// BaseException".
func exceptionFromValue(v object.Object) *exc.Exception {
	if object.IsSmallStr(v) {
		return exc.New(exc.ValueError, "%s", string(object.SmallStrValue(v)))
	}
	return exc.New(exc.TypeError, "exceptions must derive from BaseException")
}
