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

package opcode

import "testing"

func TestEveryOpHasAName(t *testing.T) {
	for op := Op(0); op < maxOp; op++ {
		if Table[op].Name == "" {
			t.Fatalf("opcode %d has no Table entry", op)
		}
	}
}

func TestAnamorphicOfFindsFamilyRoot(t *testing.T) {
	cases := map[Op]Op{
		BinaryAddSmallInt: BinaryOpAnamorphic,
		CompareEqStr:      CompareAnamorphic,
		LoadAttrPolymorphic: LoadAttrAnamorphic,
		ForIterRange:      ForIterAnamorphic,
		CallMethod:        CallFunctionAnamorphic,
	}
	for op, want := range cases {
		if got := AnamorphicOf(op); got != want {
			t.Fatalf("AnamorphicOf(%s) = %s, want %s", op, got, want)
		}
	}
}

func TestUnitSizeMatchesCachingFlag(t *testing.T) {
	if LoadConst.UnitSize() != 2 {
		t.Fatalf("LOAD_CONST UnitSize = %d, want 2", LoadConst.UnitSize())
	}
	if BinaryOpAnamorphic.UnitSize() != 4 {
		t.Fatalf("BINARY_OP_ANAMORPHIC UnitSize = %d, want 4", BinaryOpAnamorphic.UnitSize())
	}
}
