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
	"bytes"

	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/frame"
	"github.com/tekknolagi/skybison-sub001/object"
	"github.com/tekknolagi/skybison-sub001/opcode"
)

type cmpKind uint8

const (
	cmpEq cmpKind = iota
	cmpNe
	cmpLt
	cmpLe
	cmpGt
	cmpGe
)

func smallIntCompareOp(k cmpKind) opcode.Op {
	switch k {
	case cmpEq:
		return opcode.CompareEqSmallInt
	case cmpNe:
		return opcode.CompareNeSmallInt
	case cmpLt:
		return opcode.CompareLtSmallInt
	case cmpLe:
		return opcode.CompareLeSmallInt
	case cmpGt:
		return opcode.CompareGtSmallInt
	default:
		return opcode.CompareGeSmallInt
	}
}

func applySmallIntCompare(k cmpKind, a, b int64) bool {
	switch k {
	case cmpEq:
		return a == b
	case cmpNe:
		return a != b
	case cmpLt:
		return a < b
	case cmpLe:
		return a <= b
	case cmpGt:
		return a > b
	default:
		return a >= b
	}
}

// execCompare implements the COMPARE family: SmallInt specializations
// re-verify their guard each execution; str ==/!= on two small strings
// is computed directly and never rewrites the site; COMPARE_IS /
// COMPARE_IS_NOT are plain identity comparisons on the tagged word and
// carry no cache slot at all (§4.C only specializes comparisons whose
// slow path does real work; identity comparison has none to skip).
func execCompare(fr *frame.Frame, d decoded) result {
	if d.op == opcode.CompareIs || d.op == opcode.CompareIsNot {
		rhs := fr.Pop()
		lhs := fr.Pop()
		eq := lhs == rhs
		if d.op == opcode.CompareIsNot {
			eq = !eq
		}
		fr.Push(object.Bool(eq))
		return next()
	}

	rhs := fr.Pop()
	lhs := fr.Pop()
	k := cmpKind(d.arg & 0x7)

	if object.IsSmallStr(lhs) && object.IsSmallStr(rhs) && (k == cmpEq || k == cmpNe) {
		eq := bytes.Equal(object.SmallStrValue(lhs), object.SmallStrValue(rhs))
		if k == cmpNe {
			eq = !eq
		}
		fr.Push(object.Bool(eq))
		return next()
	}

	if object.IsSmallInt(lhs) && object.IsSmallInt(rhs) {
		v := applySmallIntCompare(k, object.SmallInt(lhs), object.SmallInt(rhs))
		fr.Bytecode[d.unitStart] = byte(smallIntCompareOp(k))
		fr.Caches.SpecializeBinOp(d.cacheIdx, lhs, rhs, 0)
		fr.Push(object.Bool(v))
		return next()
	}

	if d.op != opcode.CompareAnamorphic {
		// a previously specialized site whose guard just failed: record the
		// miss (growing the entry to polymorphic) before raising the
		// TypeError below.
		fr.Caches.Miss(d.cacheIdx, lhs, rhs)
	}
	return raise(exc.New(exc.TypeError, "unsupported operand type(s) for comparison"))
}
