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

package frame

import (
	"testing"

	"github.com/tekknolagi/skybison-sub001/object"
)

func TestLocalsReverseAddressingAndUnbound(t *testing.T) {
	f := New(nil, 3, nil, nil, Normal)
	f.StoreFastReverse(0, object.NewSmallInt(10))
	f.StoreFastReverse(1, object.NewSmallInt(20))
	// slot 2 left as the zero value, which is object.Object(0), not
	// ErrNotFound; explicitly mark it unbound as the call prolog would.
	f.StoreFastReverse(2, object.ErrNotFound)

	v, excep := f.LoadFastReverse(0, "a")
	if excep != nil || object.SmallInt(v) != 10 {
		t.Fatalf("LoadFastReverse(0) = %v, %v", v, excep)
	}

	_, excep = f.LoadFastReverse(2, "c")
	if excep == nil {
		t.Fatal("expected UnboundLocalError reading a deleted local")
	}
	if excep.Kind != "UnboundLocalError" {
		t.Fatalf("Kind = %v, want UnboundLocalError", excep.Kind)
	}
}

func TestValueStackPushPopPeek(t *testing.T) {
	f := New(nil, 0, nil, nil, Normal)
	f.Push(object.NewSmallInt(1))
	f.Push(object.NewSmallInt(2))
	f.Push(object.NewSmallInt(3))

	if object.SmallInt(f.Peek(0)) != 3 {
		t.Fatal("Peek(0) should be the top of stack")
	}
	if object.SmallInt(f.Peek(2)) != 1 {
		t.Fatal("Peek(2) should be the bottom of stack")
	}
	if f.Depth() != 3 {
		t.Fatalf("Depth() = %d, want 3", f.Depth())
	}
	if object.SmallInt(f.Pop()) != 3 {
		t.Fatal("Pop() should return the top")
	}
	if f.Depth() != 2 {
		t.Fatalf("Depth() after Pop = %d, want 2", f.Depth())
	}
}

func TestBlockStackPreservesReturnMode(t *testing.T) {
	f := New(nil, 0, nil, nil, JitReturn)
	f.PushBlock(BlockRecord{Kind: BlockFinally, Target: 100, StackDepth: 0})
	if f.BlockDepth() != 1 {
		t.Fatalf("BlockDepth() = %d, want 1", f.BlockDepth())
	}
	if f.ReturnMode() != JitReturn {
		t.Fatal("PushBlock must not disturb the return-mode field")
	}
	rec := f.PopBlock()
	if rec.Target != 100 {
		t.Fatalf("PopBlock().Target = %d, want 100", rec.Target)
	}
	if f.ReturnMode() != JitReturn {
		t.Fatal("PopBlock must not disturb the return-mode field")
	}
	if f.BlockDepth() != 0 {
		t.Fatalf("BlockDepth() after pop = %d, want 0", f.BlockDepth())
	}
}

func TestTruncateToRestoresBlockEntryDepth(t *testing.T) {
	f := New(nil, 0, nil, nil, Normal)
	f.Push(object.NewSmallInt(1))
	f.Push(object.NewSmallInt(2))
	entryDepth := f.Depth()
	f.Push(object.NewSmallInt(3))
	f.Push(object.NewSmallInt(4))

	f.TruncateTo(entryDepth)
	if f.Depth() != entryDepth {
		t.Fatalf("Depth() = %d, want %d", f.Depth(), entryDepth)
	}
}
