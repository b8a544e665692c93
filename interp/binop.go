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
)

// binKind is the low 3 bits of a BINARY_OP*'s oparg, selecting which
// operator the anamorphic handler's slow path and the SmallInt fast
// paths both implement; compiled in by whatever (out-of-scope) compiler
// front-end targets this core.
type binKind uint8

const (
	binAdd binKind = iota
	binSub
	binMul
	binAnd
	binOr
)

// smallIntOpFor reports whether op is already one of the SmallInt
// specializations, and which operator it implements.
func smallIntOpFor(op opcode.Op) (binKind, bool) {
	switch op {
	case opcode.BinaryAddSmallInt:
		return binAdd, true
	case opcode.BinarySubSmallInt:
		return binSub, true
	case opcode.BinaryMulSmallInt:
		return binMul, true
	case opcode.BinaryAndSmallInt:
		return binAnd, true
	case opcode.BinaryOrSmallInt:
		return binOr, true
	}
	return 0, false
}

func smallIntSpecialization(k binKind) opcode.Op {
	switch k {
	case binAdd:
		return opcode.BinaryAddSmallInt
	case binSub:
		return opcode.BinarySubSmallInt
	case binMul:
		return opcode.BinaryMulSmallInt
	case binAnd:
		return opcode.BinaryAndSmallInt
	default:
		return opcode.BinaryOrSmallInt
	}
}

// maxSmallInt/minSmallInt bound the 63-bit signed payload NewSmallInt can
// round-trip through an Object word (one bit is spent on the small-int
// tag); applySmallInt must reject a result outside this range even when
// the underlying int64 arithmetic itself didn't wrap, or NewSmallInt
// would silently encode a value that decodes back to something else.
const (
	maxSmallInt = int64(1)<<62 - 1
	minSmallInt = -(int64(1) << 62)
)

func fitsSmallInt(v int64) bool { return v >= minSmallInt && v <= maxSmallInt }

// applySmallInt performs k on two already-unwrapped SmallInt operands,
// reporting overflow for add/sub/mul so the caller can fall back to the
// (out-of-scope) LargeInt slow path rather than silently wrapping, per
// §4.C's "falls back to the generic path on overflow" rule.
func applySmallInt(k binKind, a, b int64) (int64, bool) {
	switch k {
	case binAdd:
		r := a + b
		return r, r-b != a || !fitsSmallInt(r) // int64 wrap, or simply out of SmallInt range
	case binSub:
		r := a - b
		return r, r+b != a || !fitsSmallInt(r)
	case binMul:
		if a == 0 || b == 0 {
			return 0, false
		}
		r := a * b
		return r, r/b != a || !fitsSmallInt(r)
	case binAnd:
		return a & b, false
	default:
		return a | b, false
	}
}

// execBinaryOp implements the BINARY_OP family: BINARY_OP_ANAMORPHIC
// runs the slow path and specializes on its first execution (§4.C step
// 1-3); a SmallInt-specialized site re-verifies both operands are still
// SmallInt on every execution, falling back to Miss (polymorphic growth)
// on a guard failure exactly as the spec's "every specialized opcode
// re-validates its guard on every execution" invariant requires. Cache
// keys are always the operands' layout ids, never the operand values
// themselves (§3, §4.A) -- two different SmallInts must hit the same
// cache entry, only a change of *shape* is a miss.
func execBinaryOp(m *Machine, fr *frame.Frame, d decoded) result {
	rhs := fr.Pop()
	lhs := fr.Pop()

	if k, ok := smallIntOpFor(d.op); ok {
		if object.IsSmallInt(lhs) && object.IsSmallInt(rhs) {
			v, overflow := applySmallInt(k, object.SmallInt(lhs), object.SmallInt(rhs))
			if !overflow {
				fr.Push(object.NewSmallInt(v))
				return next()
			}
		}
		// guard failed (an operand is no longer SmallInt) or the fast
		// path's own arithmetic overflowed: demote the site to the
		// generic monomorphic form instead of silently re-running the
		// same _SMALLINT opcode forever, and key the miss by layout id,
		// never by the raw operand values that triggered it.
		fr.Bytecode[d.unitStart] = byte(opcode.BinaryOpMonomorphic)
		fr.Caches.Miss(d.cacheIdx, layoutIDOf(m, lhs).AsSmallInt(), layoutIDOf(m, rhs).AsSmallInt())
		if fr.Deopt != nil {
			// this site was specialized under a guard that just failed;
			// a frame running under a compiled entry point can no longer
			// trust that guard, so it deoptimizes immediately rather than
			// waiting for an out-of-band caller to notice.
			fr.Deopt()
		}
		return genericBinOp(fr, binKind(d.arg&0x7), lhs, rhs)
	}

	// BINARY_OP_ANAMORPHIC, or BINARY_OP_MONOMORPHIC after a prior
	// guard-miss/overflow demotion: run generically and (re)specialize
	// to a SmallInt fast path when both operands are in-range SmallInts.
	k := binKind(d.arg & 0x7)
	if object.IsSmallInt(lhs) && object.IsSmallInt(rhs) {
		v, overflow := applySmallInt(k, object.SmallInt(lhs), object.SmallInt(rhs))
		if !overflow {
			fr.Bytecode[d.unitStart] = byte(smallIntSpecialization(k))
			fr.Caches.SpecializeBinOp(d.cacheIdx, layoutIDOf(m, lhs).AsSmallInt(), layoutIDOf(m, rhs).AsSmallInt(), 0)
			fr.Push(object.NewSmallInt(v))
			return next()
		}
	}
	return genericBinOp(fr, k, lhs, rhs)
}

// genericBinOp is the operand-type-agnostic slow path; this core does
// not implement user-defined __add__ dispatch (out of scope, a types
// collaborator concern), so any non-SmallInt operand pair raises
// TypeError, matching what an unimplemented dunder lookup would
// eventually produce.
func genericBinOp(fr *frame.Frame, k binKind, lhs, rhs object.Object) result {
	_ = k
	return raise(exc.New(exc.TypeError, "unsupported operand type(s) for binary op"))
}
