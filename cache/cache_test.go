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

package cache

import (
	"testing"

	"github.com/tekknolagi/skybison-sub001/object"
)

type fakeReverter struct {
	reverted []int
}

func (f *fakeReverter) RevertToAnamorphic(pc int) { f.reverted = append(f.reverted, pc) }

func TestSpecializeThenMissGoesPolymorphic(t *testing.T) {
	owner := &fakeReverter{}
	tup := NewTuple(1, owner)
	tup.BindPC(0, 42)

	tup.Specialize(0, object.LayoutID(1).AsSmallInt(), object.NewSmallInt(8))
	if tup.At(0).State != Monomorphic {
		t.Fatalf("state = %v, want Monomorphic", tup.At(0).State)
	}

	tup.Miss(0, object.LayoutID(2).AsSmallInt(), object.NewSmallInt(16))
	e := tup.At(0)
	if e.State != Polymorphic {
		t.Fatalf("state = %v, want Polymorphic", e.State)
	}
	if len(e.Poly) != 2 {
		t.Fatalf("len(Poly) = %d, want 2", len(e.Poly))
	}
	if v, ok := e.Probe(object.LayoutID(1).AsSmallInt()); !ok || object.SmallInt(v) != 8 {
		t.Fatal("Probe did not find the original monomorphic entry")
	}
}

func TestPolymorphicDegradesToMegamorphic(t *testing.T) {
	tup := NewTuple(1, nil)
	tup.Specialize(0, object.LayoutID(1).AsSmallInt(), object.NewSmallInt(1))
	for i := 2; i <= maxPolymorphicFanout+1; i++ {
		tup.Miss(0, object.LayoutID(i).AsSmallInt(), object.NewSmallInt(int64(i)))
	}
	if tup.At(0).State != Megamorphic {
		t.Fatalf("state = %v, want Megamorphic after exceeding fanout", tup.At(0).State)
	}
}

func TestMonotoneExceptInvalidate(t *testing.T) {
	owner := &fakeReverter{}
	tup := NewTuple(1, owner)
	tup.BindPC(0, 7)
	tup.Specialize(0, object.LayoutID(1).AsSmallInt(), object.NewSmallInt(1))
	tup.Miss(0, object.LayoutID(2).AsSmallInt(), object.NewSmallInt(2))
	if tup.At(0).State < Polymorphic {
		t.Fatal("state regressed without an Invalidate call")
	}
	tup.Invalidate(0)
	if tup.At(0).State != Anamorphic {
		t.Fatalf("state after Invalidate = %v, want Anamorphic", tup.At(0).State)
	}
	if len(owner.reverted) != 1 || owner.reverted[0] != 7 {
		t.Fatalf("owner.reverted = %v, want [7]", owner.reverted)
	}
}

func TestValueCellEvictsDependents(t *testing.T) {
	owner := &fakeReverter{}
	tup := NewTuple(2, owner)
	tup.BindPC(0, 10)
	tup.BindPC(1, 20)
	tup.SpecializeGlobal(0, object.NewSmallInt(400))
	tup.SpecializeGlobal(1, object.NewSmallInt(400))

	cell := NewValueCell(object.NewSmallInt(400))
	cell.AddDependent(tup, 0)
	cell.AddDependent(tup, 1)
	if cell.Dependents() != 2 {
		t.Fatalf("Dependents() = %d, want 2", cell.Dependents())
	}

	cell.Set(object.NewSmallInt(999)) // simulates `type.attr = property(...)`

	if tup.At(0).State != Anamorphic || tup.At(1).State != Anamorphic {
		t.Fatal("Set did not evict every dependent cache entry")
	}
	if cell.Dependents() != 0 {
		t.Fatal("dependency list not cleared after eviction")
	}
	if len(owner.reverted) != 2 {
		t.Fatalf("expected 2 reverted opcodes, got %d", len(owner.reverted))
	}
}

func TestValueCellDeleteEvicts(t *testing.T) {
	owner := &fakeReverter{}
	tup := NewTuple(1, owner)
	tup.BindPC(0, 5)
	tup.SpecializeGlobal(0, object.NewSmallInt(1))
	cell := NewValueCell(object.NewSmallInt(1))
	cell.AddDependent(tup, 0)

	cell.Delete()
	if tup.At(0).State != Anamorphic {
		t.Fatal("Delete did not evict dependents")
	}
	if cell.Value() != object.ErrNotFound {
		t.Fatal("Delete did not clear the cell's own value")
	}
}

func TestBucketKeyDeterministic(t *testing.T) {
	a := BucketKey(3, "foo")
	b := BucketKey(3, "foo")
	c := BucketKey(3, "bar")
	if a != b {
		t.Fatal("BucketKey not deterministic for identical inputs")
	}
	if a == c {
		t.Fatal("BucketKey collided for distinct attribute names (suspiciously; not a strict requirement but worth a look)")
	}
}
